package repository

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

// IUserRepo интерфейс для работы с пользователями Telegram
type IUserRepo interface {
	Create(ctx context.Context, user *domain.User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	UpdateConsent(ctx context.Context, id uuid.UUID, consent bool) error
	UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error
	ListVerifiedNannies(ctx context.Context) ([]*domain.User, error)

	WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error

	// Транзакционные методы
	CreateTx(ctx context.Context, tx persistence.Transaction, user *domain.User) error
	UpdateRatingTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID, stats domain.RatingStats) error
}
