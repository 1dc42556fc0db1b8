package codec

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/palemoky/partyhub/internal/protocol"
)

// NewMessage 创建一个新消息
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &protocol.Message{
		Type:    msgType,
		Payload: data,
	}, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ParseRoomCode 解析请求中携带的房间号。
// start_game 的 payload 是裸字符串，其余请求是 {"roomCode": "..."}，两种都接受；没有房间号时返回空串。
func ParseRoomCode(msg *protocol.Message) string {
	raw := bytes.TrimSpace(msg.Payload)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var code string
		if err := json.Unmarshal(raw, &code); err != nil {
			return ""
		}
		return strings.ToUpper(strings.TrimSpace(code))
	}
	var p protocol.RoomCodePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(p.RoomCode))
}

// NewAck 创建请求回执，ID 与请求一致
func NewAck(requestID string, payload protocol.AckPayload) *protocol.Message {
	msg := MustNewMessage(protocol.MsgAck, payload)
	msg.ID = requestID
	return msg
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *protocol.Message {
	return NewErrorMessageWithText(code, protocol.ErrorMessages[code])
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
}
