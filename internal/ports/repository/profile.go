package repository

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

// IProfileRepo анкеты нянь
type IProfileRepo interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	// Update сохраняет редактируемые поля анкеты и статус, только если текущий статус равен from.
	// false - анкеты нет или статус уже изменился.
	Update(ctx context.Context, profile *domain.Profile, from domain.ProfileStatus) (bool, error)
	// UpdateStatus переводит статус только если текущий равен from
	UpdateStatus(ctx context.Context, userID uuid.UUID, from, to domain.ProfileStatus, reason *string) (bool, error)
	// ConsumeGreeting атомарно снимает флаг приветствия, true - если флаг был выставлен
	ConsumeGreeting(ctx context.Context, userID uuid.UUID) (bool, error)
	ListByStatus(ctx context.Context, status domain.ProfileStatus) ([]*domain.PendingProfile, error)

	CreateTx(ctx context.Context, tx persistence.Transaction, profile *domain.Profile) error
	UpdateRatingTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, stats domain.RatingStats) error
}
