package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/pkg/metrics"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/texts"
	"github.com/google/uuid"
)

func noResponseKey(orderID uuid.UUID) string {
	return fmt.Sprintf("order:%s:no_response", orderID)
}

func reviewKey(orderID uuid.UUID) string {
	return fmt.Sprintf("order:%s:review", orderID)
}

func broadcastKey(orderID uuid.UUID) string {
	return fmt.Sprintf("order:%s:broadcast", orderID)
}

// Create сохраняет заказ и ставит рассылку верифицированным няням.
// Рассылка идёт в планировщике со своим контекстом, а не в контексте входящего апдейта.
func (s *Service) Create(ctx context.Context, parent *domain.User, draft *domain.OrderDraft) (*domain.Order, error) {
	if parent.Role != domain.RoleParent {
		return nil, domain.ErrForbidden
	}

	order, err := draft.ToOrder(parent.ID)
	if err != nil {
		return nil, err
	}
	order.ID = uuid.New()
	order.CreatedAt = s.now()
	order.UpdatedAt = order.CreatedAt

	if err := s.Orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	metrics.OrdersCreated.Inc()

	s.Log.Info("order created",
		"order_id", order.ID,
		"parent_id", parent.ID,
		"date", order.Date.Format("2006-01-02"),
		"duration_hours", order.DurationHours)

	s.publish(ctx, domain.OrderEventCreated, order)

	orderID := order.ID
	s.Scheduler.Schedule(noResponseKey(orderID), s.Cfg.NoResponseTimeout, func(ctx context.Context) {
		s.Timeout(ctx, orderID)
	})

	created := *order
	s.Scheduler.Schedule(broadcastKey(orderID), 0, func(ctx context.Context) {
		s.broadcast(ctx, &created)
	})
	return order, nil
}

// broadcast рассылка нового заказа; если не доставлено ни одной няне, сообщаем родителю
func (s *Service) broadcast(ctx context.Context, order *domain.Order) {
	sent, err := s.Notifier.BroadcastNewOrder(ctx, order)
	if err != nil {
		s.Log.Error("failed to broadcast order", "error", err, "order_id", order.ID, "sent", sent)
		return
	}
	if sent == 0 {
		s.notify(ctx, order.ParentID, texts.OrderNoNannies, nil)
	}
}

// Claim атомарно назначает няню. Из нескольких одновременных откликов выигрывает ровно один.
func (s *Service) Claim(ctx context.Context, orderID uuid.UUID, nanny *domain.User) (*domain.Order, error) {
	if nanny.Role != domain.RoleNanny {
		return nil, domain.ErrForbidden
	}
	profile, err := s.Profiles.GetByUserID(ctx, nanny.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("failed to get nanny profile: %w", err)
	}
	if profile.Status != domain.ProfileVerified {
		return nil, domain.ErrForbidden
	}

	won, err := s.Orders.Claim(ctx, orderID, nanny.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to claim order: %w", err)
	}
	if !won {
		// отличаем несуществующий заказ от занятого; на исход CAS это не влияет
		if _, err := s.Orders.GetByID(ctx, orderID); errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		metrics.ClaimsTotal.WithLabelValues(metrics.ClaimTaken).Inc()
		s.Log.Info("order claim lost", "order_id", orderID, "nanny_id", nanny.ID)
		return nil, domain.ErrOrderTaken
	}
	metrics.ClaimsTotal.WithLabelValues(metrics.ClaimWon).Inc()
	metrics.OrderTransitions.WithLabelValues(string(domain.OrderAccepted)).Inc()
	s.Scheduler.Cancel(noResponseKey(orderID))

	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload claimed order: %w", err)
	}

	s.Log.Info("order claimed", "order_id", orderID, "nanny_id", nanny.ID)
	s.publish(ctx, domain.OrderEventClaimed, order)
	s.notify(ctx, order.ParentID, texts.OrderClaimedForParent(order, nanny, profile), texts.ParentDecisionKeyboard(order.ID))

	return order, nil
}

// Confirm родитель подтверждает няню: ACCEPTED -> IN_PROGRESS
func (s *Service) Confirm(ctx context.Context, orderID uuid.UUID, parent *domain.User) (*domain.Order, error) {
	order, err := s.parentOrder(ctx, orderID, parent)
	if err != nil {
		return nil, err
	}
	order, err = s.transition(ctx, order, domain.OrderInProgress)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.OrderEventConfirmed, order)
	s.notify(ctx, *order.NannyID, texts.OrderConfirmedForNanny(order, parent), texts.NannyVisitKeyboard(order.ID))
	if nanny, err := s.Users.GetByID(ctx, *order.NannyID); err == nil {
		s.notify(ctx, parent.ID, texts.OrderConfirmedForParent(order, nanny), texts.ParentCancelKeyboard(order.ID))
	} else {
		s.Log.Warn("failed to load nanny for confirmation", "error", err, "order_id", order.ID)
	}
	return order, nil
}

// Reject родитель отклоняет откликнувшуюся няню. Заказ отменяется и повторно не открывается.
func (s *Service) Reject(ctx context.Context, orderID uuid.UUID, parent *domain.User) (*domain.Order, error) {
	order, err := s.parentOrder(ctx, orderID, parent)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderAccepted {
		return nil, fmt.Errorf("%w: reject from %s", domain.ErrInvalidTransition, order.Status)
	}
	order, err = s.transitionFrom(ctx, order, []domain.OrderStatus{domain.OrderAccepted}, domain.OrderCancelled)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.OrderEventRejected, order)
	s.notify(ctx, *order.NannyID, texts.OrderRejectedForNanny(order), nil)
	return order, nil
}

// Cancel родитель отменяет назначенный заказ, няня остаётся в истории
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, parent *domain.User) (*domain.Order, error) {
	order, err := s.parentOrder(ctx, orderID, parent)
	if err != nil {
		return nil, err
	}
	order, err = s.transition(ctx, order, domain.OrderCancelled)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.OrderEventCancelled, order)
	s.notify(ctx, *order.NannyID, texts.OrderCancelledForNanny(order), nil)
	return order, nil
}

// Complete назначенная няня завершает визит. Родителю уходит ссылка на оплату, через ReviewDelay просьба об оценке.
func (s *Service) Complete(ctx context.Context, orderID uuid.UUID, nanny *domain.User) (*domain.Order, error) {
	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsAssignedTo(nanny.ID) {
		return nil, domain.ErrForbidden
	}
	order, err = s.transition(ctx, order, domain.OrderCompleted)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.OrderEventCompleted, order)
	s.notify(ctx, order.ParentID, texts.OrderCompletedForParent(order, nanny), nil)
	s.sendPaymentLink(ctx, order)

	completed := order
	s.Scheduler.Schedule(reviewKey(order.ID), s.Cfg.ReviewDelay, func(ctx context.Context) {
		s.notify(ctx, completed.ParentID, texts.AskRating(completed), texts.RatingKeyboard(completed.ID))
	})
	return order, nil
}

// Timeout напоминание родителю, если заказ всё ещё без отклика. Статус не меняет.
func (s *Service) Timeout(ctx context.Context, orderID uuid.UUID) {
	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		s.Log.Error("failed to load order for no-response check", "error", err, "order_id", orderID)
		return
	}
	if order.Status != domain.OrderPending {
		return
	}
	s.Log.Info("order has no response", "order_id", orderID)
	s.notify(ctx, order.ParentID, texts.OrderNoResponse(order), nil)
}

func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.Orders.GetByID(ctx, orderID)
}

// ListForUser последние заказы родителя или няни
func (s *Service) ListForUser(ctx context.Context, user *domain.User) ([]*domain.Order, error) {
	switch user.Role {
	case domain.RoleParent:
		return s.Orders.ListByParent(ctx, user.ID, listLimit)
	case domain.RoleNanny:
		return s.Orders.ListByNanny(ctx, user.ID, listLimit)
	default:
		return nil, domain.ErrInvalidRole
	}
}

func (s *Service) parentOrder(ctx context.Context, orderID uuid.UUID, parent *domain.User) (*domain.Order, error) {
	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ParentID != parent.ID {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *Service) transition(ctx context.Context, order *domain.Order, to domain.OrderStatus) (*domain.Order, error) {
	return s.transitionFrom(ctx, order, domain.SourcesFor(to), to)
}

// transitionFrom проверяет переход по таблице и применяет его условным UPDATE
func (s *Service) transitionFrom(ctx context.Context, order *domain.Order, from []domain.OrderStatus, to domain.OrderStatus) (*domain.Order, error) {
	if !order.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, to)
	}

	applied, err := s.Orders.UpdateStatus(ctx, order.ID, from, to, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: order %s changed concurrently", domain.ErrInvalidTransition, order.ID)
	}
	metrics.OrderTransitions.WithLabelValues(string(to)).Inc()

	updated, err := s.Orders.GetByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	s.Log.Info("order status changed",
		"order_id", order.ID,
		"from", order.Status,
		"to", updated.Status)
	return updated, nil
}

func (s *Service) sendPaymentLink(ctx context.Context, order *domain.Order) {
	if s.Payments == nil || order.NannyID == nil {
		return
	}
	profile, err := s.Profiles.GetByUserID(ctx, *order.NannyID)
	if err != nil {
		s.Log.Warn("failed to load nanny rate for payment", "error", err, "order_id", order.ID)
		return
	}
	if profile.HourlyRate == nil || *profile.HourlyRate <= 0 {
		return
	}

	amountRub := *profile.HourlyRate * int64(order.DurationHours)
	link, err := s.Payments.CreatePayment(ctx, domain.PaymentRequest{
		Amount:      amountRub * 100,
		Currency:    domain.DefaultCurrency,
		Description: fmt.Sprintf("Оплата визита няни %s", order.Date.Format("02.01.2006")),
		Reference:   order.ID,
	})
	if err != nil {
		s.Log.Error("failed to create payment", "error", err, "order_id", order.ID)
		return
	}
	s.notify(ctx, order.ParentID, texts.PaymentLink(link.ConfirmationURL, amountRub), nil)
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, text string, keyboard map[string]interface{}) {
	if err := s.Notifier.Notify(ctx, userID, text, keyboard); err != nil {
		s.Log.Warn("failed to notify user", "error", err, "user_id", userID)
	}
}

func (s *Service) publish(ctx context.Context, t domain.OrderEventType, order *domain.Order) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishOrderEvent(ctx, domain.NewOrderEvent(t, order)); err != nil {
		s.Log.Warn("failed to publish order event", "error", err, "order_id", order.ID, "type", t)
	}
}
