package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func TestTelegram_Notify(t *testing.T) {
	fake := &fakeSender{}
	n := &Telegram{bot: fake, chatID: 42}

	require.NoError(t, n.Notify(context.Background(), "server stopped"))

	require.Len(t, fake.sent, 1)
	assert.Equal(t, int64(42), fake.sent[0].ChatID)
	assert.Equal(t, "server stopped", fake.sent[0].Text)
}

func TestTelegram_NotifyErrors(t *testing.T) {
	fake := &fakeSender{err: errors.New("boom")}
	n := &Telegram{bot: fake, chatID: 42}
	assert.ErrorContains(t, n.Notify(context.Background(), "x"), "boom")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Notify(ctx, "x"), context.Canceled)
	assert.Len(t, fake.sent, 1)
}

func TestFromEnv_Unset(t *testing.T) {
	t.Setenv(EnvToken, "")
	t.Setenv(EnvChatID, "")

	n, err := FromEnv()
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestFromEnv_InvalidChatID(t *testing.T) {
	t.Setenv(EnvToken, "token")
	t.Setenv(EnvChatID, "not-a-number")

	_, err := FromEnv()
	assert.ErrorContains(t, err, EnvChatID)
}
