package server

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/partyhub/internal/config"
	"github.com/palemoky/partyhub/internal/game/room"
	"github.com/palemoky/partyhub/internal/protocol"
	"github.com/palemoky/partyhub/internal/protocol/codec"
)

const (
	notifyTimeout = 5 * time.Second
	closeTimeout  = 5 * time.Second
)

// monitorStats 定期输出服务器状态
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			stats, _ := s.roomStats(ctx)

			log.Info().
				Int("online", s.GetOnlineCount()).
				Int("rooms", stats.Rooms).
				Int("active_games", stats.ActiveGames).
				Int("goroutines", runtime.NumGoroutine()).
				Int("conns", len(s.semaphore)).
				Float64("alloc_mb", float64(m.Alloc)/1024/1024).
				Msg("stats")
		}
	}
}

// roomStats 在调度协程内读取房间统计
func (s *Server) roomStats(ctx context.Context) (room.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var stats room.Stats
	err := s.handler.Query(ctx, func(rooms *room.Registry) { stats = rooms.Stats() })
	return stats, err
}

// EnterMaintenanceMode 拒绝新连接和新房间，并通知所有在线玩家
func (s *Server) EnterMaintenanceMode() {
	if s.maintenance.Swap(true) {
		return
	}
	s.Broadcast(codec.MustNewMessage(protocol.MsgMaintenancePush, protocol.MaintenancePayload{
		Maintenance: true,
		Message:     "The server is restarting soon. Running games may finish; new rooms are paused.",
	}))
	log.Info().Msg("maintenance mode: refusing new connections and rooms")
}

// GracefulShutdown 进入维护模式，等待进行中的对局结束（最多 cfg.Timeout），然后关闭
func (s *Server) GracefulShutdown(cfg config.ShutdownConfig) {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(cfg.Timeout)
	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		stats, err := s.roomStats(context.Background())
		if err != nil {
			log.Warn().Err(err).Msg("dispatcher unavailable during shutdown")
			break
		}
		if stats.ActiveGames == 0 {
			log.Info().Msg("all games finished")
			break
		}
		if !time.Now().Before(deadline) {
			log.Warn().Int("active_games", stats.ActiveGames).Msg("shutdown timeout, closing with games in progress")
			break
		}
		log.Info().Int("active_games", stats.ActiveGames).Msg("waiting for games to finish")
		<-ticker.C
	}

	s.sendShutdownNotification()
	s.Shutdown()
}

// sendShutdownNotification 通知运维可以开始升级
func (s *Server) sendShutdownNotification() {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	text := fmt.Sprintf("partyhub on %s stopped gracefully, ready for upgrade", s.httpServer.Addr)
	if err := s.notifier.Notify(ctx, text); err != nil {
		log.Warn().Err(err).Msg("send shutdown notification")
		return
	}
	log.Info().Msg("shutdown notification sent")
}

// Shutdown 停止监听并关闭所有连接
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown")
	}

	// 已升级的 WebSocket 连接不受 http.Server 管理，需要单独关闭
	s.clientsMu.RLock()
	for _, c := range s.clients {
		c.Close()
	}
	s.clientsMu.RUnlock()

	log.Info().Msg("server stopped")
}
