package service

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/google/uuid"
)

// INotifier рассылка уведомлений участникам заказа
type INotifier interface {
	// BroadcastNewOrder рассылает заказ всем верифицированным няням, возвращает число доставленных
	BroadcastNewOrder(ctx context.Context, order *domain.Order) (int, error)
	Notify(ctx context.Context, userID uuid.UUID, text string, keyboard map[string]interface{}) error
}
