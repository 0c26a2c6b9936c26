package bot

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/fsm"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/texts"
)

// HandleText текст передаётся в текущий шаг мастера
func (s *Service) HandleText(ctx context.Context, botID domain.BotId, from *domain.TelegramUser, chatID int64, text string) error {
	user, err := s.resolveUser(ctx, from)
	if err != nil {
		return s.replyError(ctx, botID, chatID, err)
	}
	if user == nil {
		return s.sendMessageWithKeyboard(ctx, botID, chatID, texts.ChooseRole, texts.RoleKeyboard())
	}
	if user.Role == domain.RoleAdmin {
		return s.sendMessage(ctx, botID, chatID, texts.Help)
	}

	s.greet(ctx, botID, chatID, user)
	return s.feed(ctx, botID, chatID, user, fsm.Input{Text: text})
}

// HandleContact номер телефона. Вне шага телефона просто обновляет номер.
func (s *Service) HandleContact(ctx context.Context, botID domain.BotId, from *domain.TelegramUser, chatID int64, contact *domain.Contact) error {
	user, err := s.resolveUser(ctx, from)
	if err != nil {
		return s.replyError(ctx, botID, chatID, err)
	}
	if user == nil {
		return s.sendMessageWithKeyboard(ctx, botID, chatID, texts.ChooseRole, texts.RoleKeyboard())
	}

	turn := s.turn(botID, chatID, user)
	state, err := s.Engine.State(ctx, turn)
	if err != nil {
		return s.replyError(ctx, botID, chatID, err)
	}
	if state != nil && state.Step == domain.StepNannyAskPhone {
		return s.feed(ctx, botID, chatID, user, fsm.Input{Contact: contact})
	}

	if err := s.UserRepo.UpdatePhone(ctx, user.ID, contact.PhoneNumber); err != nil {
		return s.replyError(ctx, botID, chatID, err)
	}
	s.Log.Info("phone updated from contact", "user_id", user.ID)
	if err := s.sendMessage(ctx, botID, chatID, texts.PhoneSaved); err != nil {
		return err
	}
	if state != nil {
		// напоминаем текущий вопрос
		return s.feed(ctx, botID, chatID, user, fsm.Input{})
	}
	return nil
}

// HandlePhoto фото принимается только на шаге аватара
func (s *Service) HandlePhoto(ctx context.Context, botID domain.BotId, from *domain.TelegramUser, chatID int64, fileID string) error {
	user, err := s.resolveUser(ctx, from)
	if err != nil {
		return s.replyError(ctx, botID, chatID, err)
	}
	if user == nil {
		return s.sendMessageWithKeyboard(ctx, botID, chatID, texts.ChooseRole, texts.RoleKeyboard())
	}
	if user.Role != domain.RoleNanny {
		return s.sendMessage(ctx, botID, chatID, texts.UnknownInput)
	}

	state, err := s.Engine.State(ctx, s.turn(botID, chatID, user))
	if err != nil {
		return s.replyError(ctx, botID, chatID, err)
	}
	if state == nil || state.Step != domain.StepNannyAskAvatar {
		return s.feed(ctx, botID, chatID, user, fsm.Input{})
	}
	return s.feed(ctx, botID, chatID, user, fsm.Input{PhotoFileID: fileID})
}

// feed один ход движка; вне мастера - подсказка и меню
func (s *Service) feed(ctx context.Context, botID domain.BotId, chatID int64, user *domain.User, in fsm.Input) error {
	res, err := s.Engine.Handle(ctx, s.turn(botID, chatID, user), in)
	if err != nil {
		return s.replyError(ctx, botID, chatID, err)
	}

	s.Log.Debug("conversation turn",
		"user_id", user.ID,
		"role", user.Role,
		"result", res.String())

	if res != fsm.Exited {
		return nil
	}
	if !in.Empty() {
		if err := s.sendMessage(ctx, botID, chatID, texts.UnknownInput); err != nil {
			return err
		}
	}
	return s.showMenu(ctx, botID, chatID, user)
}
