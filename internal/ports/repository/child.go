package repository

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/google/uuid"
)

// IChildRepo дети родителей
type IChildRepo interface {
	Create(ctx context.Context, child *domain.Child) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Child, error)
	Update(ctx context.Context, child *domain.Child) error
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]*domain.Child, error)
}
