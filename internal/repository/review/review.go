package reviewRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/storage/pg"
	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	ports "github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
	"github.com/google/uuid"
)

type reviewColumns struct {
	TableName string
	ID        string
	OrderID   string
	ParentID  string
	NannyID   string
	Rating    string
	Comment   string
	CreatedAt string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns reviewColumns
}

func New(db persistence.Persistence, log *slog.Logger) ports.IReviewRepo {
	return &Repository{
		db:  db,
		Log: log,
		columns: reviewColumns{
			TableName: "reviews",
			ID:        "id",
			OrderID:   "order_id",
			ParentID:  "parent_id",
			NannyID:   "nanny_id",
			Rating:    "rating",
			Comment:   "comment",
			CreatedAt: "created_at",
		},
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.OrderID,
		r.columns.ParentID,
		r.columns.NannyID,
		r.columns.Rating,
		r.columns.Comment,
		r.columns.CreatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	var review domain.Review
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID)
	if err := r.db.Get(ctx, &review, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("review not found", "review_id", id)
			return nil, fmt.Errorf("review not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get review", "error", err, "review_id", id)
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

// UpdateComment комментарий не влияет на рейтинг, пересчёт не нужен
func (r *Repository) UpdateComment(ctx context.Context, id uuid.UUID, comment string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE %s = $2`,
		r.columns.TableName,
		r.columns.Comment,
		r.columns.ID)
	rowsAffected, err := r.db.ExecWithResult(ctx, query, comment, id)
	if err != nil {
		r.Log.Error("failed to update review comment", "error", err, "review_id", id)
		return fmt.Errorf("failed to update review comment: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("review not found: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	return r.db.WithTransaction(ctx, fn)
}

// CreateTx вставляет отзыв. Уникальность order_id проверяет БД, дубликат даёт domain.ErrReviewExists.
func (r *Repository) CreateTx(ctx context.Context, tx persistence.Transaction, review *domain.Review) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.columns.TableName,
		r.allColumns())
	err := tx.Exec(ctx, query,
		review.ID,
		review.OrderID,
		review.ParentID,
		review.NannyID,
		review.Rating,
		review.Comment,
		review.CreatedAt)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			r.Log.Warn("review already exists", "order_id", review.OrderID)
			return fmt.Errorf("order %s: %w", review.OrderID, domain.ErrReviewExists)
		}
		r.Log.Error("failed to create review in transaction",
			"error", err,
			"order_id", review.OrderID)
		return fmt.Errorf("failed to create review in transaction: %w", err)
	}
	r.Log.Debug("review created in transaction", "review_id", review.ID, "order_id", review.OrderID)
	return nil
}

// StatsForNannyTx считает среднее и количество по всем отзывам няни
func (r *Repository) StatsForNannyTx(ctx context.Context, tx persistence.Transaction, nannyID uuid.UUID) (domain.RatingStats, error) {
	var stats domain.RatingStats
	query := fmt.Sprintf(`SELECT COALESCE(AVG(%s), 0)::float8 AS avg_rating, COUNT(*) AS total_reviews
		FROM %s WHERE %s = $1`,
		r.columns.Rating,
		r.columns.TableName,
		r.columns.NannyID)
	if err := tx.Get(ctx, &stats, query, nannyID); err != nil {
		r.Log.Error("failed to compute rating stats", "error", err, "nanny_id", nannyID)
		return stats, fmt.Errorf("failed to compute rating stats: %w", err)
	}
	return stats, nil
}
