package repository

import (
	"context"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

// IOrderRepo заказы
type IOrderRepo interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByIDTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID) (*domain.Order, error)
	// Claim атомарно назначает няню на заказ в PENDING. false - заказ уже занят
	Claim(ctx context.Context, orderID, nannyID uuid.UUID, at time.Time) (bool, error)
	// UpdateStatus переводит статус только из перечисленных from
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from []domain.OrderStatus, to domain.OrderStatus, at time.Time) (bool, error)
	ListByParent(ctx context.Context, parentID uuid.UUID, limit int) ([]*domain.Order, error)
	ListByNanny(ctx context.Context, nannyID uuid.UUID, limit int) ([]*domain.Order, error)
}
