package notifier

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/pkg/metrics"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/service"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/texts"
	"github.com/google/uuid"
)

// DefaultPause пауза между сообщениями рассылки (лимит Telegram ~30 сообщений в секунду)
const DefaultPause = 100 * time.Millisecond

// Sender отправка сообщений
type Sender interface {
	SendMessageWithKeyboard(ctx context.Context, botID domain.BotId, chatID int64, text string, keyboard map[string]interface{}) error
	SendMessage(ctx context.Context, botID domain.BotId, chatID int64, text string) error
}

// Service рассылка уведомлений. Состояния не хранит.
type Service struct {
	Users  repository.IUserRepo
	Sender Sender
	BotID  domain.BotId
	Pause  time.Duration
	Log    *slog.Logger
}

func New(users repository.IUserRepo, sender Sender, botID domain.BotId, pause time.Duration, log *slog.Logger) service.INotifier {
	return &Service{
		Users:  users,
		Sender: sender,
		BotID:  botID,
		Pause:  pause,
		Log:    log,
	}
}

// BroadcastNewOrder рассылает заказ всем VERIFIED няням.
// Ошибка доставки одной няне не прерывает рассылку остальным.
func (s *Service) BroadcastNewOrder(ctx context.Context, order *domain.Order) (int, error) {
	nannies, err := s.Users.ListVerifiedNannies(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list verified nannies: %w", err)
	}

	text := texts.NewOrderForNanny(order)
	keyboard := texts.ClaimKeyboard(order.ID)

	sent := 0
	for i, nanny := range nannies {
		if ctx.Err() != nil {
			s.Log.Warn("broadcast interrupted", "order_id", order.ID, "sent", sent, "total", len(nannies))
			return sent, ctx.Err()
		}

		if err := s.Sender.SendMessageWithKeyboard(ctx, s.BotID, nanny.TelegramChatID, text, keyboard); err != nil {
			metrics.NotificationsTotal.WithLabelValues("new_order", metrics.DeliveryFailed).Inc()
			s.Log.Warn("failed to deliver new order to nanny",
				"error", err,
				"order_id", order.ID,
				"nanny_id", nanny.ID)
		} else {
			metrics.NotificationsTotal.WithLabelValues("new_order", metrics.DeliverySent).Inc()
			sent++
		}

		if i < len(nannies)-1 {
			if err := s.wait(ctx); err != nil {
				s.Log.Warn("broadcast interrupted", "order_id", order.ID, "sent", sent, "total", len(nannies))
				return sent, err
			}
		}
	}

	s.Log.Info("new order broadcast",
		"order_id", order.ID,
		"sent", sent,
		"total", len(nannies))
	return sent, nil
}

// wait пауза между сообщениями рассылки, прерывается отменой контекста
func (s *Service) wait(ctx context.Context) error {
	if s.Pause <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.Pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Notify сообщение одному пользователю
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, text string, keyboard map[string]interface{}) error {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}

	if keyboard != nil {
		err = s.Sender.SendMessageWithKeyboard(ctx, s.BotID, user.TelegramChatID, text, keyboard)
	} else {
		err = s.Sender.SendMessage(ctx, s.BotID, user.TelegramChatID, text)
	}
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("direct", metrics.DeliveryFailed).Inc()
		return fmt.Errorf("failed to notify user %s: %w", userID, err)
	}
	metrics.NotificationsTotal.WithLabelValues("direct", metrics.DeliverySent).Inc()
	return nil
}
