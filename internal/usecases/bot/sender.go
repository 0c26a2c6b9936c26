package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/texts"
)

// sendMessage отправляет сообщение пользователю через Telegram Service
func (s *Service) sendMessage(ctx context.Context, botID domain.BotId, chatID int64, text string) error {
	if err := s.TelegramService.SendMessage(ctx, botID, chatID, text); err != nil {
		s.Log.Error("failed to send message",
			"error", err,
			"chat_id", chatID,
		)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// sendMessageWithKeyboard отправляет сообщение с клавиатурой
func (s *Service) sendMessageWithKeyboard(ctx context.Context, botID domain.BotId, chatID int64, text string, keyboard map[string]interface{}) error {
	if err := s.TelegramService.SendMessageWithKeyboard(ctx, botID, chatID, text, keyboard); err != nil {
		s.Log.Error("failed to send message with keyboard",
			"error", err,
			"chat_id", chatID,
		)
		return fmt.Errorf("failed to send message with keyboard: %w", err)
	}

	return nil
}

// userMessage текст для пользователя по ошибке бизнес-логики; false - ошибка неожиданная
func userMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrOrderTaken):
		return texts.OrderTaken, true
	case errors.Is(err, domain.ErrReviewExists):
		return texts.ReviewExists, true
	case errors.Is(err, domain.ErrNotFound):
		return texts.OrderNotFound, true
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrRoleAlreadySet),
		errors.Is(err, domain.ErrInvalidRating):
		return texts.ActionNotAllowed, true
	default:
		return texts.GenericError, false
	}
}

// replyError сообщает пользователю о сбое без подробностей.
// Ожидаемые ошибки возвращаются как BusinessError, неожиданные логируются здесь.
func (s *Service) replyError(ctx context.Context, botID domain.BotId, chatID int64, err error) error {
	text, expected := userMessage(err)
	if !expected {
		s.Log.Error("failed to handle update",
			"error", err,
			"chat_id", chatID,
		)
	}
	if sendErr := s.sendMessageWithKeyboard(ctx, botID, chatID, text, texts.BackToMenuKeyboard()); sendErr != nil {
		return sendErr
	}
	return domain.WrapBusinessError(err)
}

// showMenu главное меню по роли
func (s *Service) showMenu(ctx context.Context, botID domain.BotId, chatID int64, user *domain.User) error {
	switch user.Role {
	case domain.RoleParent:
		if !user.Consent {
			return s.sendMessage(ctx, botID, chatID, texts.ConsentDenied)
		}
		return s.sendMessageWithKeyboard(ctx, botID, chatID, texts.MainMenu, texts.ParentMenuKeyboard())
	case domain.RoleNanny:
		profile, err := s.Moderation.GetProfile(ctx, user.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		switch {
		case profile == nil:
			return s.sendMessageWithKeyboard(ctx, botID, chatID, texts.MainMenu, texts.NannyMenuKeyboard())
		case profile.Status == domain.ProfilePending:
			return s.sendMessageWithKeyboard(ctx, botID, chatID, texts.NannyUnderReview, texts.NannyMenuKeyboard())
		case profile.Status == domain.ProfileRejected:
			return s.sendMessageWithKeyboard(ctx, botID, chatID, texts.ProfileRejected(profile.RejectionReason), texts.NannyMenuKeyboard())
		default:
			return s.sendMessageWithKeyboard(ctx, botID, chatID, texts.MainMenu, texts.NannyMenuKeyboard())
		}
	default:
		return s.sendMessage(ctx, botID, chatID, texts.Help)
	}
}

// greet одноразовое поздравление няни после одобрения анкеты
func (s *Service) greet(ctx context.Context, botID domain.BotId, chatID int64, user *domain.User) {
	if user.Role != domain.RoleNanny {
		return
	}
	fire, err := s.Moderation.ConsumeGreeting(ctx, user.ID)
	if err != nil {
		s.Log.Warn("failed to check greeting flag", "error", err, "user_id", user.ID)
		return
	}
	if !fire {
		return
	}
	if err := s.sendMessageWithKeyboard(ctx, botID, chatID, texts.NannyVerified, texts.NannyMenuKeyboard()); err != nil {
		s.Log.Warn("failed to send greeting", "error", err, "user_id", user.ID)
	}
}
