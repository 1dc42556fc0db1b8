package server

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/partyhub/internal/config"
	"github.com/palemoky/partyhub/internal/game/room"
	"github.com/palemoky/partyhub/internal/notify"
	"github.com/palemoky/partyhub/internal/protocol"
	"github.com/palemoky/partyhub/internal/server/handler"
	"github.com/palemoky/partyhub/internal/server/storage"
	"github.com/palemoky/partyhub/internal/types"
)

const (
	sweepInterval   = 5 * time.Minute  // 速率限制记录清理间隔
	monitorInterval = 30 * time.Second // 监控日志间隔
)

// Deps 服务器依赖，可选项为 nil 时对应功能关闭
type Deps struct {
	Rooms       *room.Registry
	Questions   types.QuestionSource
	Mirror      *storage.Mirror
	Leaderboard *storage.LeaderboardManager
	Notifier    notify.Notifier
	Rand        *rand.Rand
}

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	handler     *handler.Handler
	leaderboard *storage.LeaderboardManager
	mirror      *storage.Mirror
	notifier    notify.Notifier
	upgrader    websocket.Upgrader
	httpServer  *http.Server

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	ipFilter       *IPFilter

	// 信号量控制并发连接数
	semaphore chan struct{}

	maintenance atomic.Bool
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config, deps Deps) *Server {
	sec := cfg.Security
	s := &Server{
		config:         cfg,
		leaderboard:    deps.Leaderboard,
		mirror:         deps.Mirror,
		notifier:       deps.Notifier,
		clients:        make(map[string]*Client),
		rateLimiter:    NewRateLimiter(sec.RateLimit.MaxPerSecond, sec.RateLimit.MaxPerMinute, sec.RateLimit.BanDurationDuration()),
		originChecker:  NewOriginChecker(sec.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(sec.MessageLimit.MaxPerSecond),
		ipFilter:       NewIPFilter(sec.Blacklist...),
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}

	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:    s,
		Rooms:     deps.Rooms,
		Questions: deps.Questions,
		Mirror:    deps.Mirror,
		Rand:      deps.Rand,
		RaceLaps:  cfg.Game.RaceLaps,
	})

	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info().
		Int("conn_per_sec", sec.RateLimit.MaxPerSecond).
		Int("msg_per_sec", sec.MessageLimit.MaxPerSecond).
		Int("max_connections", cfg.Server.MaxConnections).
		Strs("allowed_origins", sec.AllowedOrigins).
		Msg("security configured")
	return s
}

// Handler 返回事件调度器
func (s *Server) Handler() *handler.Handler {
	return s.handler
}

// Run 启动调度器和后台任务并开始监听，直到 Shutdown 或监听失败。
// ctx 结束时调度器停止，因此应在 GracefulShutdown 之后再取消。
func (s *Server) Run(ctx context.Context) error {
	go s.handler.Run(ctx)
	go s.rateLimiter.Run(ctx, sweepInterval)
	go s.monitorStats(ctx)

	log.Info().Str("addr", s.httpServer.Addr).Int("cpus", runtime.NumCPU()).Msg("server listening")
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// IsMaintenanceMode 是否处于维护模式
func (s *Server) IsMaintenanceMode() bool {
	return s.maintenance.Load()
}

// GetOnlineCount 当前连接数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// registerClient 注册连接
func (s *Server) registerClient(c *Client) {
	s.clientsMu.Lock()
	s.clients[c.ID] = c
	s.clientsMu.Unlock()
	log.Info().Str("player_id", c.ID).Str("ip", c.IP).Str("codec", c.codec.Name()).Msg("client connected")
}

// unregisterClient 注销连接并让调度器把玩家移出房间
func (s *Server) unregisterClient(c *Client) {
	s.clientsMu.Lock()
	_, ok := s.clients[c.ID]
	delete(s.clients, c.ID)
	s.clientsMu.Unlock()
	if !ok {
		return
	}

	s.messageLimiter.Remove(c.ID)
	s.handler.Disconnect(c)
	c.Close()
	log.Info().Str("player_id", c.ID).Msg("client disconnected")
}

// Broadcast 向所有连接发送消息
func (s *Server) Broadcast(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		c.SendMessage(msg)
	}
}
