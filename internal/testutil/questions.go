//go:build !production

package testutil

import (
	"context"

	"github.com/palemoky/partyhub/internal/trivia"
)

// StaticQuestions 固定题库
type StaticQuestions []trivia.Question

func (s StaticQuestions) Questions(context.Context) []trivia.Question {
	return append([]trivia.Question(nil), s...)
}

// GatedQuestions 在 Release 之前阻塞出题，用于观察开局准备阶段
type GatedQuestions struct {
	Bank    []trivia.Question
	release chan struct{}
}

// NewGatedQuestions 创建阻塞题库
func NewGatedQuestions(bank []trivia.Question) *GatedQuestions {
	return &GatedQuestions{Bank: bank, release: make(chan struct{})}
}

func (g *GatedQuestions) Questions(ctx context.Context) []trivia.Question {
	select {
	case <-g.release:
	case <-ctx.Done():
	}
	return append([]trivia.Question(nil), g.Bank...)
}

// Release 放行所有等待中的出题请求
func (g *GatedQuestions) Release() {
	close(g.release)
}
