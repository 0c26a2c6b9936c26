package usecase

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/google/uuid"
)

// IOrderUsecase жизненный цикл заказа
type IOrderUsecase interface {
	// Create сохраняет заказ из черновика; рассылка няням уходит в фоне
	Create(ctx context.Context, parent *domain.User, draft *domain.OrderDraft) (*domain.Order, error)
	// Claim атомарный отклик няни, проигравший получает domain.ErrOrderTaken
	Claim(ctx context.Context, orderID uuid.UUID, nanny *domain.User) (*domain.Order, error)
	Confirm(ctx context.Context, orderID uuid.UUID, parent *domain.User) (*domain.Order, error)
	Reject(ctx context.Context, orderID uuid.UUID, parent *domain.User) (*domain.Order, error)
	Complete(ctx context.Context, orderID uuid.UUID, nanny *domain.User) (*domain.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, parent *domain.User) (*domain.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	ListForUser(ctx context.Context, user *domain.User) ([]*domain.Order, error)
}
