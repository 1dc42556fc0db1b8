package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/palemoky/partyhub/internal/config"
	"github.com/palemoky/partyhub/internal/game/games"
	"github.com/palemoky/partyhub/internal/game/room"
	"github.com/palemoky/partyhub/internal/logger"
	"github.com/palemoky/partyhub/internal/notify"
	"github.com/palemoky/partyhub/internal/server"
	"github.com/palemoky/partyhub/internal/server/storage"
	"github.com/palemoky/partyhub/internal/trivia"
)

const (
	releaseVersion = "1.0.0"
	redisTimeout   = 5 * time.Second
)

func main() {
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	var flags config.Flags

	cmd := &cobra.Command{
		Use:     "partyhub",
		Short:   "Room and game-session server for browser party games.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags.Register(cmd.Flags())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

// loadConfig 读取 .env、环境变量、配置文件和命令行参数，后者优先
func loadConfig(cmd *cobra.Command, flags *config.Flags) (*config.Config, error) {
	envErr := godotenv.Load()
	config.BindEnv(cmd.Flags())

	cfg, err := config.Load(flags.ConfigPath)
	missing := errors.Is(err, fs.ErrNotExist)
	switch {
	case missing:
		cfg = config.Default()
	case err != nil:
		return nil, fmt.Errorf("load config %s: %w", flags.ConfigPath, err)
	}
	if err := flags.Apply(cmd.Flags(), cfg); err != nil {
		return nil, err
	}

	// 日志初始化之后再报告前面的情况
	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Warn().Err(envErr).Msg("failed to read .env")
	}
	if missing {
		log.Warn().Str("path", flags.ConfigPath).Msg("config file not found, using defaults")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	rnd := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	mirror, closeRedis, err := openRedis(cfg.Redis)
	if err != nil {
		return err
	}
	defer closeRedis()

	var source trivia.Source
	if cfg.Trivia.Enabled {
		source = trivia.NewOpenTDB(cfg.Trivia.URL, cfg.Trivia.Timeout(), nil)
	}

	notifier, err := notify.FromEnv()
	if err != nil {
		log.Warn().Err(err).Msg("telegram notifications disabled")
	}

	srv := server.NewServer(cfg, server.Deps{
		Rooms:       room.NewRegistry(games.Default(), cfg.Game.MaxPlayers, rnd),
		Questions:   trivia.NewProvider(source, cfg.Game.QuizQuestions),
		Mirror:      mirror,
		Leaderboard: mirror.Leaderboard(),
		Notifier:    notifier,
		Rand:        rnd,
	})

	// 调度器和镜像在优雅关闭完成之后才停止
	runCtx, stopRun := context.WithCancel(context.Background())
	mirrorDone := make(chan struct{})
	go func() {
		defer close(mirrorDone)
		mirror.Run(runCtx)
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Run(runCtx) }()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		stopRun()
		<-mirrorDone
		return err
	case <-sigCtx.Done():
		log.Info().Msg("shutting down")
	}

	// 再次收到信号时立即退出
	stop()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Warn().Msg("forced exit")
		os.Exit(1)
	}()

	srv.GracefulShutdown(cfg.Shutdown)
	stopRun()
	<-mirrorDone
	return <-serveErr
}

// openRedis 连接 Redis 并清理上次运行留下的房间快照。未启用时返回 nil
func openRedis(cfg config.RedisConfig) (*storage.Mirror, func(), error) {
	if !cfg.Enabled {
		log.Info().Msg("redis disabled, leaderboard and room mirror off")
		return nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	store := storage.NewRedisStore(client)
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}

	mirror := storage.NewMirror(store, storage.NewLeaderboardManager(client))
	if err := mirror.Purge(ctx); err != nil {
		log.Warn().Err(err).Msg("purge stale rooms")
	}
	log.Info().Str("addr", cfg.Addr).Msg("redis connected")
	return mirror, func() { _ = client.Close() }, nil
}
