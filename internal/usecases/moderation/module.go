package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/pkg/metrics"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/service"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/usecase"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/texts"
	"github.com/google/uuid"
)

// Service проверка анкет нянь: NEW -> PENDING -> VERIFIED | REJECTED
type Service struct {
	Profiles       repository.IProfileRepo
	Users          repository.IUserRepo
	Notifier       service.INotifier
	AlerterService service.IAlerterService // канал модераторов, может быть nil
	Log            *slog.Logger
}

func New(
	profiles repository.IProfileRepo,
	users repository.IUserRepo,
	notifier service.INotifier,
	alerterService service.IAlerterService,
	log *slog.Logger,
) usecase.IModerationUsecase {
	return &Service{
		Profiles:       profiles,
		Users:          users,
		Notifier:       notifier,
		AlerterService: alerterService,
		Log:            log,
	}
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	return s.Profiles.GetByUserID(ctx, userID)
}

// editAttempts сколько раз перечитываем анкету, если статус поменялся между чтением и записью
const editAttempts = 3

// EditProfile применяет правку к анкете (создаёт её при первой правке).
// NEW и REJECTED уходят в PENDING, VERIFIED не возвращается на модерацию.
// Запись условная по прочитанному статусу: решение модератора, пришедшее в это время, не затирается.
func (s *Service) EditProfile(ctx context.Context, userID uuid.UUID, mutate func(*domain.Profile)) (*domain.Profile, error) {
	for attempt := 1; attempt <= editAttempts; attempt++ {
		profile, err := s.Profiles.GetByUserID(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return s.createProfile(ctx, userID, mutate)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}

		prev := profile.Status
		mutate(profile)
		profile.Status = prev.StatusAfterEdit()
		profile.UpdatedAt = time.Now()

		applied, err := s.Profiles.Update(ctx, profile, prev)
		if err != nil {
			return nil, fmt.Errorf("failed to save profile: %w", err)
		}
		if !applied {
			s.Log.Warn("profile changed during edit, retrying",
				"user_id", userID,
				"attempt", attempt,
				"read_status", prev)
			continue
		}

		if prev != profile.Status {
			s.Log.Info("profile status changed on edit",
				"user_id", userID,
				"from", prev,
				"to", profile.Status)
		}
		return profile, nil
	}
	return nil, fmt.Errorf("failed to save profile %s: %w", userID, domain.ErrConcurrentUpdate)
}

func (s *Service) createProfile(ctx context.Context, userID uuid.UUID, mutate func(*domain.Profile)) (*domain.Profile, error) {
	now := time.Now()
	profile := &domain.Profile{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    domain.ProfileNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	mutate(profile)
	profile.Status = domain.ProfileNew.StatusAfterEdit()

	if err := s.Profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	s.Log.Info("profile status changed on edit",
		"user_id", userID,
		"from", domain.ProfileNew,
		"to", profile.Status)
	return profile, nil
}

// SubmitForReview сообщает модераторам о заполненной анкете
func (s *Service) SubmitForReview(ctx context.Context, user *domain.User) error {
	profile, err := s.Profiles.GetByUserID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}
	if profile.Status != domain.ProfilePending {
		return nil
	}

	s.Log.Info("profile submitted for review", "user_id", user.ID)
	if s.AlerterService == nil {
		return nil
	}
	if err := s.AlerterService.SendAlert(ctx, texts.ModerationAlert(user, profile)); err != nil {
		s.Log.Warn("failed to alert moderators", "error", err, "user_id", user.ID)
	}
	return nil
}

// Approve PENDING -> VERIFIED, выставляет флаг приветствия
func (s *Service) Approve(ctx context.Context, userID uuid.UUID, source string) error {
	if err := s.decide(ctx, userID, domain.ProfileVerified, nil); err != nil {
		return err
	}
	metrics.ModerationDecisions.WithLabelValues(usecase.DecisionApprove, source).Inc()
	s.Log.Info("profile approved", "user_id", userID, "source", source)

	// поздравление покажется при следующем входе няни, здесь только короткое уведомление
	if err := s.Notifier.Notify(ctx, userID, texts.NannyApproved, nil); err != nil {
		s.Log.Warn("failed to notify approved nanny", "error", err, "user_id", userID)
	}
	return nil
}

// Reject PENDING -> REJECTED с причиной
func (s *Service) Reject(ctx context.Context, userID uuid.UUID, reason *string, source string) error {
	if err := s.decide(ctx, userID, domain.ProfileRejected, reason); err != nil {
		return err
	}
	metrics.ModerationDecisions.WithLabelValues(usecase.DecisionReject, source).Inc()
	s.Log.Info("profile rejected", "user_id", userID, "source", source)

	if err := s.Notifier.Notify(ctx, userID, texts.ProfileRejected(reason), texts.NannyMenuKeyboard()); err != nil {
		s.Log.Warn("failed to notify rejected nanny", "error", err, "user_id", userID)
	}
	return nil
}

func (s *Service) decide(ctx context.Context, userID uuid.UUID, to domain.ProfileStatus, reason *string) error {
	applied, err := s.Profiles.UpdateStatus(ctx, userID, domain.ProfilePending, to, reason)
	if err != nil {
		return fmt.Errorf("failed to update profile status: %w", err)
	}
	if applied {
		return nil
	}

	profile, err := s.Profiles.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: profile %s -> %s", domain.ErrInvalidTransition, profile.Status, to)
}

// ConsumeGreeting true ровно один раз после одобрения
func (s *Service) ConsumeGreeting(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.Profiles.ConsumeGreeting(ctx, userID)
}

func (s *Service) ListPending(ctx context.Context) ([]*domain.PendingProfile, error) {
	return s.Profiles.ListByStatus(ctx, domain.ProfilePending)
}
