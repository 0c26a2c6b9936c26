package service

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
)

// IBotService интерфейс для бизнес-логики любого бота
type IBotService interface {
	HandleCommand(ctx context.Context, botID domain.BotId, from *domain.TelegramUser, chatID int64, command string) error
	HandleText(ctx context.Context, botID domain.BotId, from *domain.TelegramUser, chatID int64, text string) error
	HandleContact(ctx context.Context, botID domain.BotId, from *domain.TelegramUser, chatID int64, contact *domain.Contact) error
	HandlePhoto(ctx context.Context, botID domain.BotId, from *domain.TelegramUser, chatID int64, fileID string) error
	HandleCallback(ctx context.Context, botID domain.BotId, query *domain.CallbackQuery) error
}
