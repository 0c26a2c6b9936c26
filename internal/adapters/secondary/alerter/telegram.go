package alerter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/telegram"
)

// maxMessageRunes лимит длины текста сообщения в Telegram
const maxMessageRunes = 4096

// Client пишет в чат модераторов через отдельного служебного бота
type Client struct {
	telegramClient  *telegram.Client
	chatID          int64
	messageThreadID *int64
	log             *slog.Logger
}

// NewClient nil, если алертер не настроен
func NewClient(cfg *Config, log *slog.Logger) *Client {
	if !cfg.IsEnabled() {
		return nil
	}

	return &Client{
		telegramClient:  telegram.NewClient(cfg.BotToken, log),
		chatID:          cfg.ChatID,
		messageThreadID: cfg.MessageThreadID,
		log:             log,
	}
}

// SendAlert длинный текст обрезается до лимита Telegram
func (c *Client) SendAlert(ctx context.Context, message string) error {
	if c == nil || c.telegramClient == nil {
		return fmt.Errorf("alerter client is not initialized")
	}

	_, err := c.telegramClient.SendMessageWithRequest(ctx, telegram.SendMessageRequest{
		ChatID:          c.chatID,
		Text:            truncate(message, maxMessageRunes),
		MessageThreadID: c.messageThreadID,
	})
	if err != nil {
		c.log.Warn("failed to send alert",
			"error", err,
			"chat_id", c.chatID,
		)
		return fmt.Errorf("failed to send alert: %w", err)
	}

	return nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
