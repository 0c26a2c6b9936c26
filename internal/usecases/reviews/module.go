package reviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/pkg/metrics"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/usecase"
	"github.com/google/uuid"
)

// Service отзывы и агрегат рейтинга няни
type Service struct {
	Reviews  repository.IReviewRepo
	Orders   repository.IOrderRepo
	Users    repository.IUserRepo
	Profiles repository.IProfileRepo
	Log      *slog.Logger
}

func New(
	reviews repository.IReviewRepo,
	orders repository.IOrderRepo,
	users repository.IUserRepo,
	profiles repository.IProfileRepo,
	log *slog.Logger,
) usecase.IReviewUsecase {
	return &Service{
		Reviews:  reviews,
		Orders:   orders,
		Users:    users,
		Profiles: profiles,
		Log:      log,
	}
}

// Create сохраняет отзыв и в той же транзакции пересчитывает рейтинг няни по всем её отзывам.
// Повторный отзыв на заказ даёт domain.ErrReviewExists, агрегаты при этом не трогаются.
func (s *Service) Create(ctx context.Context, parent *domain.User, orderID uuid.UUID, rating int) (*domain.Review, error) {
	if !domain.ValidRating(rating) {
		return nil, domain.ErrInvalidRating
	}

	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ParentID != parent.ID {
		return nil, domain.ErrForbidden
	}
	if order.Status != domain.OrderCompleted || order.NannyID == nil {
		return nil, fmt.Errorf("%w: review for %s order", domain.ErrInvalidTransition, order.Status)
	}

	review := &domain.Review{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ParentID:  parent.ID,
		NannyID:   *order.NannyID,
		Rating:    rating,
		CreatedAt: time.Now(),
	}

	var stats domain.RatingStats
	err = s.Reviews.WithTransaction(ctx, func(ctx context.Context, tx persistence.Transaction) error {
		if err := s.Reviews.CreateTx(ctx, tx, review); err != nil {
			return err
		}

		recomputed, err := s.Reviews.StatsForNannyTx(ctx, tx, review.NannyID)
		if err != nil {
			return fmt.Errorf("failed to recompute rating: %w", err)
		}
		stats = recomputed

		if err := s.Profiles.UpdateRatingTx(ctx, tx, review.NannyID, stats); err != nil {
			return fmt.Errorf("failed to update profile rating: %w", err)
		}
		if err := s.Users.UpdateRatingTx(ctx, tx, review.NannyID, stats); err != nil {
			return fmt.Errorf("failed to update user rating: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrReviewExists) {
			s.Log.Info("duplicate review rejected", "order_id", orderID, "parent_id", parent.ID)
		}
		return nil, err
	}

	metrics.ReviewsTotal.WithLabelValues(strconv.Itoa(rating)).Inc()
	s.Log.Info("review created",
		"review_id", review.ID,
		"order_id", order.ID,
		"nanny_id", review.NannyID,
		"rating", rating,
		"avg_rating", stats.AvgRating,
		"total_reviews", stats.TotalReviews)
	return review, nil
}

// AddComment дописывает комментарий к своему отзыву
func (s *Service) AddComment(ctx context.Context, parent *domain.User, reviewID uuid.UUID, comment string) error {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil
	}

	review, err := s.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.ParentID != parent.ID {
		return domain.ErrForbidden
	}
	if err := s.Reviews.UpdateComment(ctx, reviewID, comment); err != nil {
		return fmt.Errorf("failed to save review comment: %w", err)
	}
	return nil
}
