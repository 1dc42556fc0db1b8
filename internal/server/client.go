package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/partyhub/internal/logger"
	"github.com/palemoky/partyhub/internal/protocol"
	"github.com/palemoky/partyhub/internal/protocol/codec"
)

const (
	writeWait      = 10 * time.Second    // 写入超时
	pongWait       = 60 * time.Second    // 读取超时（pong 等待时间）
	pingPeriod     = (pongWait * 9) / 10 // ping 间隔，必须小于 pongWait
	maxMessageSize = 8192                // 单条消息最大字节数
	sendBufferSize = 256                 // 发送队列长度

	// 超速次数超过该值后断开连接
	maxRateWarnings = 5
)

// Client 一个 WebSocket 连接，ID 即玩家 ID
type Client struct {
	ID string
	IP string

	server *Server
	conn   *websocket.Conn
	codec  codec.Codec
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient 为新连接分配玩家 ID
func NewClient(s *Server, conn *websocket.Conn, c codec.Codec) *Client {
	return &Client{
		ID:     uuid.NewString(),
		server: s,
		conn:   conn,
		codec:  c,
		send:   make(chan []byte, sendBufferSize),
	}
}

func (c *Client) GetID() string { return c.ID }

// ReadPump 读取消息并投递给调度器，连接断开时视为离开房间
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r, "read pump")
		}
		c.server.unregisterClient(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("player_id", c.ID).Msg("read error")
			}
			return
		}

		allowed, warning := c.server.messageLimiter.AllowMessage(c.ID)
		if !allowed {
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeRateLimit))
			if c.server.messageLimiter.Warnings(c.ID) > maxRateWarnings {
				log.Warn().Str("player_id", c.ID).Str("ip", c.IP).Msg("disconnecting client for flooding")
				return
			}
			continue
		}
		if warning {
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "Slow down"))
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			log.Debug().Err(err).Str("player_id", c.ID).Msg("malformed message")
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}
		c.server.handler.Submit(c, msg)
	}
}

// WritePump 把发送队列写入连接并定时 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(c.codec.FrameType(), data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 编码并放入发送队列，队列已满的慢连接会被关闭
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := c.codec.Encode(msg)
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("encode message")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("player_id", c.ID).Msg("send buffer full, closing client")
		c.closed = true
		close(c.send)
	}
}

// Close 关闭发送队列，WritePump 随后发送关闭帧
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
