package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/fsm"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/texts"
)

// resolveUser пользователь по Telegram ID; nil, если он ещё не выбрал роль
func (s *Service) resolveUser(ctx context.Context, from *domain.TelegramUser) (*domain.User, error) {
	user, err := s.UserRepo.GetByTelegramID(ctx, from.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) HandleCommand(ctx context.Context, botID domain.BotId, from *domain.TelegramUser, chatID int64, command string) error {
	user, err := s.resolveUser(ctx, from)
	if err != nil {
		return s.replyError(ctx, botID, chatID, err)
	}
	if user == nil {
		if command == "help" {
			return s.sendMessage(ctx, botID, chatID, texts.Help)
		}
		return s.sendMessageWithKeyboard(ctx, botID, chatID, texts.ChooseRole, texts.RoleKeyboard())
	}
	if user.Role == domain.RoleAdmin {
		return s.sendMessage(ctx, botID, chatID, texts.Help)
	}

	s.greet(ctx, botID, chatID, user)

	switch strings.ToLower(command) {
	case "start", "menu":
		return s.HandleStart(ctx, botID, chatID, user)
	case "orders":
		return s.HandleMyOrders(ctx, botID, chatID, user)
	case "cancel":
		return s.HandleCancel(ctx, botID, chatID, user)
	case "help":
		return s.sendMessage(ctx, botID, chatID, texts.Help)
	default:
		return s.sendMessage(ctx, botID, chatID, texts.UnknownInput)
	}
}

// HandleStart продолжает незавершённый мастер или показывает меню
func (s *Service) HandleStart(ctx context.Context, botID domain.BotId, chatID int64, user *domain.User) error {
	res, err := s.Engine.Handle(ctx, s.turn(botID, chatID, user), fsm.Input{})
	if err != nil {
		return s.replyError(ctx, botID, chatID, err)
	}
	if res != fsm.Exited {
		return nil
	}
	// отказавшийся от согласия родитель возвращается сразу к вопросу о согласии
	if user.Role == domain.RoleParent && user.HasName() && !user.Consent {
		if err := s.Engine.StartAt(ctx, s.turn(botID, chatID, user), s.registration, domain.StepAskConsent, nil); err != nil {
			return s.replyError(ctx, botID, chatID, err)
		}
		return nil
	}
	return s.showMenu(ctx, botID, chatID, user)
}

// HandleCancel прерывает текущий мастер
func (s *Service) HandleCancel(ctx context.Context, botID domain.BotId, chatID int64, user *domain.User) error {
	turn := s.turn(botID, chatID, user)
	if err := s.Engine.Clear(ctx, turn); err != nil {
		return s.replyError(ctx, botID, chatID, err)
	}
	if user.Role == domain.RoleParent {
		if err := s.Drafts.Delete(ctx, chatID); err != nil {
			s.Log.Warn("failed to delete order draft", "error", err, "chat_id", chatID)
		}
	}
	if err := s.sendMessage(ctx, botID, chatID, texts.Cancelled); err != nil {
		return err
	}
	// незавершённая регистрация начнётся заново
	return s.HandleStart(ctx, botID, chatID, user)
}

// HandleMyOrders последние заказы пользователя
func (s *Service) HandleMyOrders(ctx context.Context, botID domain.BotId, chatID int64, user *domain.User) error {
	orders, err := s.Orders.ListForUser(ctx, user)
	if err != nil {
		return s.replyError(ctx, botID, chatID, err)
	}
	if len(orders) == 0 {
		return s.sendMessage(ctx, botID, chatID, texts.NoOrders)
	}

	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, texts.OrderListItem(o))
	}
	return s.sendMessage(ctx, botID, chatID, strings.Join(lines, "\n"))
}
