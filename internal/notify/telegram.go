// Package notify 向运维人员推送服务器生命周期事件。
package notify

import (
	"context"
	"fmt"
	"os"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// FromEnv 读取的环境变量
const (
	EnvToken  = "TELEGRAM_TOKEN"
	EnvChatID = "TELEGRAM_CHAT_ID"
)

// Notifier 发送一条简短的运维消息
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram 通过机器人向一个会话发送消息
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram 登录机器人，token 无效时返回错误
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Int64("chat", chatID).Msg("telegram notifications enabled")
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// FromEnv 根据 TELEGRAM_TOKEN 和 TELEGRAM_CHAT_ID 创建 Telegram 通知器，
// 任一未设置时返回 nil 且不报错
func FromEnv() (Notifier, error) {
	token, chat := os.Getenv(EnvToken), os.Getenv(EnvChatID)
	if token == "" || chat == "" {
		return nil, nil
	}
	chatID, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvChatID, chat, err)
	}
	t, err := NewTelegram(token, chatID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Notify 发送文本。机器人 API 不支持 context，ctx 只用于避免在取消后才开始发送
func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
