package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/partyhub/internal/protocol"
)

// Codec 在消息和 websocket 帧之间转换
type Codec interface {
	Name() string
	// FrameType 编码器写出的 websocket 帧类型
	FrameType() int
	Encode(msg *protocol.Message) ([]byte, error)
	Decode(data []byte) (*protocol.Message, error)
}

const (
	NameJSON  = "json"
	NameProto = "proto"
)

var errMissingType = errors.New("message type is required")

// ForName 按名称返回编解码器，未知名称回退到 JSON
func ForName(name string) Codec {
	if name == NameProto {
		return ProtoCodec{}
	}
	return JSONCodec{}
}

// JSONCodec 以 JSON 文本帧收发消息
type JSONCodec struct{}

func (JSONCodec) Name() string   { return NameJSON }
func (JSONCodec) FrameType() int { return websocket.TextMessage }

func (JSONCodec) Encode(msg *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		return nil, err
	}
	// Encoder 会追加换行；去掉换行并从池化缓冲区中复制出来
	data := buf.Bytes()
	out := make([]byte, len(data)-1)
	copy(out, data[:len(data)-1])
	return out, nil
}

func (JSONCodec) Decode(data []byte) (*protocol.Message, error) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, errMissingType
	}
	return &msg, nil
}

// ProtoCodec 以二进制帧收发消息，帧内容是带 "type"、"id"、"payload" 键的 structpb.Struct
type ProtoCodec struct{}

func (ProtoCodec) Name() string   { return NameProto }
func (ProtoCodec) FrameType() int { return websocket.BinaryMessage }

func (ProtoCodec) Encode(msg *protocol.Message) ([]byte, error) {
	fields := map[string]any{
		"type": string(msg.Type),
	}
	if msg.ID != "" {
		fields["id"] = msg.ID
	}
	if len(msg.Payload) > 0 {
		var payload any
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		fields["payload"] = payload
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return proto.Marshal(st)
}

func (ProtoCodec) Decode(data []byte) (*protocol.Message, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, err
	}

	fields := st.GetFields()
	msg := &protocol.Message{
		Type: protocol.MessageType(fields["type"].GetStringValue()),
		ID:   fields["id"].GetStringValue(),
	}
	if msg.Type == "" {
		return nil, errMissingType
	}
	if v, ok := fields["payload"]; ok {
		payload, err := v.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		msg.Payload = payload
	}
	return msg, nil
}
