package types

import (
	"context"

	"github.com/palemoky/partyhub/internal/protocol"
	"github.com/palemoky/partyhub/internal/trivia"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
}

// ClientInterface 定义客户端接口
type ClientInterface interface {
	GetID() string
	SendMessage(msg *protocol.Message)
	Close()
}

// QuestionSource 题库来源，必须总是返回题目
type QuestionSource interface {
	Questions(ctx context.Context) []trivia.Question
}
