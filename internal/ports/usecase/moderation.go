package usecase

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/google/uuid"
)

// Решение модератора и его источник (для метрик и логов)
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"

	SourceHTTP  = "http"
	SourceKafka = "kafka"
)

// IModerationUsecase проверка анкет нянь
type IModerationUsecase interface {
	// EditProfile применяет правку анкеты, NEW и REJECTED переходят в PENDING
	EditProfile(ctx context.Context, userID uuid.UUID, mutate func(*domain.Profile)) (*domain.Profile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	SubmitForReview(ctx context.Context, user *domain.User) error
	Approve(ctx context.Context, userID uuid.UUID, source string) error
	Reject(ctx context.Context, userID uuid.UUID, reason *string, source string) error
	// ConsumeGreeting true ровно один раз после одобрения анкеты
	ConsumeGreeting(ctx context.Context, userID uuid.UUID) (bool, error)
	ListPending(ctx context.Context) ([]*domain.PendingProfile, error)
}
