package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/palemoky/partyhub/internal/game/room"
	"github.com/palemoky/partyhub/internal/protocol/codec"
	"github.com/palemoky/partyhub/internal/server/storage"
)

const (
	queryTimeout     = 2 * time.Second
	qrSize           = 320
	leaderboardLimit = 10
	maxBoardLimit    = 100
)

// RoomsResponse /api/rooms 的响应
type RoomsResponse struct {
	Online      int            `json:"online"`
	Maintenance bool           `json:"maintenance"`
	Stats       room.Stats     `json:"stats"`
	Rooms       []room.Summary `json:"rooms"`
}

// LeaderboardResponse /api/leaderboard/:game 的响应
type LeaderboardResponse struct {
	Board   string                     `json:"board"`
	Entries []storage.LeaderboardEntry `json:"entries"`
}

// PlayerResponse /api/players/:name 的响应
type PlayerResponse struct {
	*storage.PlayerStats
	Rank int64 `json:"rank"`
}

func (s *Server) routes() http.Handler {
	r := httprouter.New()
	r.GET("/ws", s.handleWebSocket)
	r.GET("/health", s.handleHealth)
	r.GET("/api/rooms", s.handleRooms)
	r.GET("/api/rooms/:code", s.handleRoom)
	r.GET("/api/leaderboard/:game", s.handleLeaderboard)
	r.GET("/api/players/:name", s.handlePlayer)
	r.GET("/rooms/:code/qr", s.handleRoomQR)
	return r
}

// handleWebSocket 升级连接。?codec=proto 选择二进制帧
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	clientIP := GetClientIP(r)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}
	if !s.ipFilter.IsAllowed(clientIP) {
		log.Warn().Str("ip", clientIP).Msg("ip rejected by filter")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if !s.rateLimiter.Allow(clientIP) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	// 连接数限制，连接关闭时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Warn().Int("max", cap(s.semaphore)).Str("ip", clientIP).Msg("connection limit reached")
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	// Upgrade 内部通过 CheckOrigin 校验来源，失败时已写回 403
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		log.Debug().Err(err).Str("ip", clientIP).Str("origin", r.Header.Get("Origin")).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(s, conn, codec.ForName(r.URL.Query().Get("codec")))
	client.IP = clientIP
	s.registerClient(client)

	go func() {
		defer func() { <-s.semaphore }()
		client.ReadPump()
	}()
	go client.WritePump()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// handleRooms 房间列表，在调度协程内读取
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	resp := RoomsResponse{Online: s.GetOnlineCount(), Maintenance: s.IsMaintenanceMode()}
	err := s.handler.Query(ctx, func(rooms *room.Registry) {
		resp.Stats = rooms.Stats()
		resp.Rooms = rooms.List()
	})
	if err != nil {
		http.Error(w, "dispatcher unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, resp)
}

// handleLeaderboard 排行榜。:game 为游戏类型、total 或 daily
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.leaderboard == nil {
		http.Error(w, "leaderboard disabled", http.StatusNotFound)
		return
	}

	limit := leaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxBoardLimit {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	board := ps.ByName("game")
	entries, err := s.leaderboard.GetLeaderboard(r.Context(), board, limit)
	if err != nil {
		log.Error().Err(err).Str("board", board).Msg("load leaderboard")
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, LeaderboardResponse{Board: board, Entries: entries})
}

// handleRoom 从 Redis 镜像读取房间快照
func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.mirror == nil {
		http.Error(w, "room mirror disabled", http.StatusNotFound)
		return
	}

	code := strings.ToUpper(ps.ByName("code"))
	data, err := s.mirror.LoadRoom(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("load room snapshot")
		http.Error(w, "room mirror unavailable", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, data)
}

// handlePlayer 玩家战绩与总榜排名
func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.leaderboard == nil {
		http.Error(w, "leaderboard disabled", http.StatusNotFound)
		return
	}

	name := ps.ByName("name")
	stats, err := s.leaderboard.GetPlayerStats(r.Context(), name)
	if err != nil {
		log.Error().Err(err).Str("player", name).Msg("load player stats")
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		http.Error(w, "player not found", http.StatusNotFound)
		return
	}

	rank, err := s.leaderboard.GetPlayerRank(r.Context(), name)
	if err != nil {
		log.Error().Err(err).Str("player", name).Msg("load player rank")
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, PlayerResponse{PlayerStats: stats, Rank: rank})
}

// handleRoomQR 生成加入房间的二维码 PNG
func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := strings.ToUpper(ps.ByName("code"))

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	var exists bool
	if err := s.handler.Query(ctx, func(rooms *room.Registry) {
		_, exists = rooms.Get(code)
	}); err != nil {
		http.Error(w, "dispatcher unavailable", http.StatusServiceUnavailable)
		return
	}
	if !exists {
		http.NotFound(w, r)
		return
	}

	png, err := qrcode.Encode(s.joinURL(r, code), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("encode qr code")
		http.Error(w, "qr encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// joinURL 网页客户端的加入地址，未配置 public_url 时按请求的 Host 推断
func (s *Server) joinURL(r *http.Request, code string) string {
	base := s.config.Server.PublicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimRight(base, "/") + "/?room=" + url.QueryEscape(code)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write json response")
	}
}
