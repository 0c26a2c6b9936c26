package usecase

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/google/uuid"
)

// IReviewUsecase отзывы и пересчёт рейтинга няни
type IReviewUsecase interface {
	Create(ctx context.Context, parent *domain.User, orderID uuid.UUID, rating int) (*domain.Review, error)
	AddComment(ctx context.Context, parent *domain.User, reviewID uuid.UUID, comment string) error
}
