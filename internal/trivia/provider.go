package trivia

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Provider 总能给出题目：向来源请求一次，任何失败都回退到本地题库
type Provider struct {
	source Source
	amount int
}

// NewProvider 创建 Provider。source 为 nil 时总是使用本地题库
func NewProvider(source Source, amount int) *Provider {
	if amount <= 0 {
		amount = len(Fallback())
	}
	return &Provider{source: source, amount: amount}
}

// Questions 从来源获取 amount 道题，失败时返回本地题库
func (p *Provider) Questions(ctx context.Context) []Question {
	if p.source == nil {
		return Fallback()
	}

	questions, err := p.source.Fetch(ctx, p.amount)
	if err != nil {
		log.Warn().Err(err).Msg("trivia source unavailable, using fallback questions")
		return Fallback()
	}
	return questions
}
