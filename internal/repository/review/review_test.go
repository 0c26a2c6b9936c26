package reviewRepo

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/storage/pg"
	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	ports "github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (ports.IReviewRepo, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := pg.NewDB(sqlx.NewDb(mockDB, "postgres"))
	return New(db, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func newReview() *domain.Review {
	return &domain.Review{
		ID:        uuid.New(),
		OrderID:   uuid.New(),
		ParentID:  uuid.New(),
		NannyID:   uuid.New(),
		Rating:    5,
		CreatedAt: time.Now(),
	}
}

func TestRepository_CreateTx_DuplicateIsTyped(t *testing.T) {
	repo, mock := newTestRepo(t)
	review := newReview()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reviews`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "reviews_order_id_key"})
	mock.ExpectRollback()

	err := repo.WithTransaction(context.Background(), func(ctx context.Context, tx persistence.Transaction) error {
		return repo.CreateTx(ctx, tx, review)
	})
	assert.ErrorIs(t, err, domain.ErrReviewExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateAndStats(t *testing.T) {
	repo, mock := newTestRepo(t)
	review := newReview()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reviews \(id, order_id, parent_id, nanny_id, rating, comment, created_at\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COALESCE\(AVG\(rating\), 0\)::float8 AS avg_rating, COUNT\(\*\) AS total_reviews`).
		WithArgs(review.NannyID).
		WillReturnRows(sqlmock.NewRows([]string{"avg_rating", "total_reviews"}).AddRow(4.5, 2))
	mock.ExpectCommit()

	var stats domain.RatingStats
	err := repo.WithTransaction(context.Background(), func(ctx context.Context, tx persistence.Transaction) error {
		if err := repo.CreateTx(ctx, tx, review); err != nil {
			return err
		}
		var err error
		stats, err = repo.StatsForNannyTx(ctx, tx, review.NannyID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 4.5, stats.AvgRating)
	assert.Equal(t, 2, stats.TotalReviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}
