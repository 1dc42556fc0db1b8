package handler

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game/room"
	"github.com/palemoky/partyhub/internal/logger"
	"github.com/palemoky/partyhub/internal/protocol"
	"github.com/palemoky/partyhub/internal/server/storage"
	"github.com/palemoky/partyhub/internal/types"
)

const (
	eventQueueSize      = 1024
	defaultFetchTimeout = 10 * time.Second
)

// ErrStopped 调度器已停止
var ErrStopped = errors.New("dispatcher stopped")

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server    types.ServerInterface
	Rooms     *room.Registry
	Questions types.QuestionSource
	Mirror    *storage.Mirror // nil 表示未启用 Redis
	Rand      *rand.Rand      // 仅在调度协程内使用
	Now       func() time.Time
	RaceLaps  int
	// FetchTimeout 出题的最长等待时间
	FetchTimeout time.Duration
}

// Handler 事件调度器
//
// 所有房间状态只在 Run 所在的协程中读写：连接协程通过 Submit、Disconnect 投递事件，
// HTTP 接口通过 Query 读取。
type Handler struct {
	server       types.ServerInterface
	rooms        *room.Registry
	questions    types.QuestionSource
	mirror       *storage.Mirror
	rnd          *rand.Rand
	now          func() time.Time
	raceLaps     int
	fetchTimeout time.Duration

	clients  map[string]types.ClientInterface
	handlers map[protocol.MessageType]handlerFunc
	events   chan func()
	done     chan struct{}
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:       deps.Server,
		rooms:        deps.Rooms,
		questions:    deps.Questions,
		mirror:       deps.Mirror,
		rnd:          deps.Rand,
		now:          deps.Now,
		raceLaps:     deps.RaceLaps,
		fetchTimeout: deps.FetchTimeout,
		clients:      make(map[string]types.ClientInterface),
		events:       make(chan func(), eventQueueSize),
		done:         make(chan struct{}),
	}
	if h.rnd == nil {
		h.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.fetchTimeout <= 0 {
		h.fetchTimeout = defaultFetchTimeout
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 房间操作
		protocol.MsgCreateRoom:    h.handleCreateRoom,
		protocol.MsgJoinRoom:      h.handleJoinRoom,
		protocol.MsgChangeGame:    h.handleChangeGame,
		protocol.MsgStartGame:     h.handleStartGame,
		protocol.MsgReturnToLobby: h.handleReturnToLobby,
		protocol.MsgLeaveRoom:     func(c types.ClientInterface, _ *protocol.Message) { h.leave(c.GetID()) },
		protocol.MsgRequestRole:   h.handleRequestRole,
	}

	// 游戏操作
	for msgType, rule := range actionSpecs {
		h.handlers[msgType] = func(c types.ClientInterface, msg *protocol.Message) {
			h.handleAction(c, msg, rule)
		}
	}
}

// Run 处理事件直到 ctx 结束
func (h *Handler) Run(ctx context.Context) {
	defer close(h.done)
	log.Info().Msg("dispatcher started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("dispatcher stopped")
			return
		case fn := <-h.events:
			h.safely(fn)
		}
	}
}

// safely 执行一个事件，单个事件 panic 不影响调度器
func (h *Handler) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r, "dispatcher")
		}
	}()
	fn()
}

// post 投递事件，调度器停止后返回 false
func (h *Handler) post(fn func()) bool {
	select {
	case h.events <- fn:
		return true
	case <-h.done:
		return false
	}
}

// Submit 投递一条客户端消息
func (h *Handler) Submit(client types.ClientInterface, msg *protocol.Message) {
	h.post(func() { h.Handle(client, msg) })
}

// Disconnect 连接断开：等同于离开房间，之后不再向该连接发送消息
func (h *Handler) Disconnect(client types.ClientInterface) {
	h.post(func() {
		h.leave(client.GetID())
		delete(h.clients, client.GetID())
	})
}

// Query 在调度协程内只读访问房间注册表
func (h *Handler) Query(ctx context.Context, fn func(rooms *room.Registry)) error {
	finished := make(chan struct{})
	if !h.post(func() {
		defer close(finished)
		fn(h.rooms)
	}) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrStopped
	}
}

// Handle 处理消息，必须在调度协程内调用
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	h.clients[client.GetID()] = client

	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	drop(client, msg, apperrors.ErrInvalidAction)
}

// drop 记录被静默丢弃的协议违规
func drop(client types.ClientInterface, msg *protocol.Message, err error) {
	log.Debug().
		Err(err).
		Str("player_id", client.GetID()).
		Str("type", string(msg.Type)).
		Msg("dropped event")
}
