package repository

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

// IReviewRepo отзывы о нянях
type IReviewRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	UpdateComment(ctx context.Context, id uuid.UUID, comment string) error

	WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error

	// CreateTx возвращает domain.ErrReviewExists, если отзыв на заказ уже есть
	CreateTx(ctx context.Context, tx persistence.Transaction, review *domain.Review) error
	StatsForNannyTx(ctx context.Context, tx persistence.Transaction, nannyID uuid.UUID) (domain.RatingStats, error)
}
