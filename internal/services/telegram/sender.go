package telegram

import (
	"context"
	"fmt"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
)

// SendMessage отправляет текстовое сообщение пользователю
func (s *Service) SendMessage(ctx context.Context, botID domain.BotId, chatID int64, text string) error {
	client, err := s.client(botID)
	if err != nil {
		return err
	}

	if err := client.SendMessage(ctx, chatID, text); err != nil {
		s.Log.Error("failed to send message",
			"error", err,
			"bot_id", botID,
			"chat_id", chatID,
		)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendMessageWithKeyboard отправляет сообщение с клавиатурой
func (s *Service) SendMessageWithKeyboard(ctx context.Context, botID domain.BotId, chatID int64, text string, keyboard map[string]interface{}) error {
	client, err := s.client(botID)
	if err != nil {
		return err
	}

	if err := client.SendMessageWithKeyboard(ctx, chatID, text, keyboard); err != nil {
		s.Log.Error("failed to send message with keyboard",
			"error", err,
			"bot_id", botID,
			"chat_id", chatID,
		)
		return fmt.Errorf("failed to send message with keyboard: %w", err)
	}
	return nil
}

// EditMessageReplyMarkup меняет клавиатуру уже отправленного сообщения (nil - убрать)
func (s *Service) EditMessageReplyMarkup(ctx context.Context, botID domain.BotId, chatID int64, messageID int64, keyboard map[string]interface{}) error {
	client, err := s.client(botID)
	if err != nil {
		return err
	}

	if err := client.EditMessageReplyMarkup(ctx, chatID, messageID, keyboard); err != nil {
		s.Log.Warn("failed to edit message reply markup",
			"error", err,
			"bot_id", botID,
			"chat_id", chatID,
			"message_id", messageID,
		)
		return fmt.Errorf("failed to edit message reply markup: %w", err)
	}
	return nil
}

// AnswerCallbackQuery отправляет ответ на callback query
func (s *Service) AnswerCallbackQuery(ctx context.Context, botID domain.BotId, callbackID string, text string, showAlert bool) error {
	client, err := s.client(botID)
	if err != nil {
		return err
	}

	if err := client.AnswerCallbackQuery(ctx, callbackID, text, showAlert); err != nil {
		s.Log.Error("failed to answer callback query",
			"error", err,
			"bot_id", botID,
			"callback_id", callbackID,
		)
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}

// DownloadFile скачивает файл, присланный пользователем (аватар няни)
func (s *Service) DownloadFile(ctx context.Context, botID domain.BotId, fileID string) ([]byte, error) {
	client, err := s.client(botID)
	if err != nil {
		return nil, err
	}

	data, err := client.DownloadFile(ctx, fileID)
	if err != nil {
		s.Log.Error("failed to download file",
			"error", err,
			"bot_id", botID,
			"file_id", fileID,
		)
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return data, nil
}
