package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
)

// HandleUpdate Основной метод для обработки всех типов обновлений
func (s *Service) HandleUpdate(ctx context.Context, botID domain.BotId, update *domain.Update) error {
	if update == nil {
		return fmt.Errorf("update is nil")
	}

	if update.CallbackQuery != nil {
		return s.HandleCallback(ctx, botID, update.CallbackQuery, update.UpdateID)
	}

	if update.Message != nil {
		return s.HandleMessage(ctx, botID, update.Message, update.UpdateID)
	}

	return nil
}

// HandleCallback нажатие inline-кнопки
func (s *Service) HandleCallback(ctx context.Context, botID domain.BotId, query *domain.CallbackQuery, updateID int64) error {
	if query.From == nil || query.From.IsBot {
		s.Log.Debug("ignoring callback from bot", "update_id", updateID)
		return nil
	}

	botService, err := s.botService(botID)
	if err != nil {
		return fmt.Errorf("failed to route callback for bot_id %s: %w", botID, err)
	}

	return botService.HandleCallback(ctx, botID, query)
}

// HandleMessage обрабатывает входящее сообщение - роутинг в usecase
func (s *Service) HandleMessage(ctx context.Context, botID domain.BotId, message *domain.Message, updateID int64) error {
	if message == nil {
		return fmt.Errorf("message is nil")
	}

	if message.From == nil || message.From.IsBot {
		s.Log.Debug("ignoring message from bot", "update_id", updateID)
		return nil
	}

	if message.Chat == nil {
		return fmt.Errorf("message without chat, update_id %d", updateID)
	}

	if message.Chat.Type != "private" {
		s.Log.Warn("ignoring message from group/chat",
			"update_id", updateID,
			"chat_type", message.Chat.Type,
			"chat_id", message.Chat.ID,
		)
		return nil
	}

	botService, err := s.botService(botID)
	if err != nil {
		return fmt.Errorf("failed to route message for bot_id %s: %w", botID, err)
	}

	chatID := message.Chat.ID

	if message.Contact != nil {
		return botService.HandleContact(ctx, botID, message.From, chatID, message.Contact)
	}

	if fileID, ok := message.LargestPhoto(); ok {
		return botService.HandlePhoto(ctx, botID, message.From, chatID, fileID)
	}

	if message.Text != nil {
		text := *message.Text
		if IsCommand(text) {
			return botService.HandleCommand(ctx, botID, message.From, chatID, ParseCommand(text))
		}
		return botService.HandleText(ctx, botID, message.From, chatID, text)
	}

	s.Log.Debug("unsupported message type", "update_id", updateID, "chat_id", chatID)
	return nil
}

func ParseCommand(text string) string {
	text = strings.TrimPrefix(text, "/")

	if idx := strings.Index(text, "@"); idx != -1 {
		text = text[:idx]
	}

	if idx := strings.Index(text, " "); idx != -1 {
		text = text[:idx]
	}

	return text
}

func IsCommand(text string) bool {
	return len(text) > 0 && text[0] == '/'
}
