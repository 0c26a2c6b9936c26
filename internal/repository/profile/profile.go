package profileRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	ports "github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
	"github.com/google/uuid"
)

type profileColumns struct {
	TableName       string
	ID              string
	UserID          string
	Status          string
	HourlyRate      string
	Experience      string
	Occupation      string
	HasMedicalCard  string
	AvatarKey       string
	AvgRating       string
	TotalReviews    string
	ShowGreeting    string
	RejectionReason string
	CreatedAt       string
	UpdatedAt       string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns profileColumns
}

func New(db persistence.Persistence, log *slog.Logger) ports.IProfileRepo {
	return &Repository{
		db:  db,
		Log: log,
		columns: profileColumns{
			TableName:       "profiles",
			ID:              "id",
			UserID:          "user_id",
			Status:          "status",
			HourlyRate:      "hourly_rate",
			Experience:      "experience",
			Occupation:      "occupation",
			HasMedicalCard:  "has_medical_card",
			AvatarKey:       "avatar_key",
			AvgRating:       "avg_rating",
			TotalReviews:    "total_reviews",
			ShowGreeting:    "show_greeting",
			RejectionReason: "rejection_reason",
			CreatedAt:       "created_at",
			UpdatedAt:       "updated_at",
		},
	}
}

func (r *Repository) columnList() []string {
	return []string{
		r.columns.ID,
		r.columns.UserID,
		r.columns.Status,
		r.columns.HourlyRate,
		r.columns.Experience,
		r.columns.Occupation,
		r.columns.HasMedicalCard,
		r.columns.AvatarKey,
		r.columns.AvgRating,
		r.columns.TotalReviews,
		r.columns.ShowGreeting,
		r.columns.RejectionReason,
		r.columns.CreatedAt,
		r.columns.UpdatedAt,
	}
}

// allColumns возвращает строку со всеми колонками (14 колонок)
func (r *Repository) allColumns() string {
	return strings.Join(r.columnList(), ", ")
}

func (r *Repository) insertQuery() string {
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		r.columns.TableName,
		r.allColumns())
}

func insertArgs(p *domain.Profile) []interface{} {
	return []interface{}{
		p.ID,
		p.UserID,
		p.Status,
		p.HourlyRate,
		p.Experience,
		p.Occupation,
		p.HasMedicalCard,
		p.AvatarKey,
		p.AvgRating,
		p.TotalReviews,
		p.ShowGreeting,
		p.RejectionReason,
		p.CreatedAt,
		p.UpdatedAt,
	}
}

func (r *Repository) Create(ctx context.Context, profile *domain.Profile) error {
	if err := r.db.Exec(ctx, r.insertQuery(), insertArgs(profile)...); err != nil {
		r.Log.Error("failed to create profile",
			"error", err,
			"user_id", profile.UserID)
		return fmt.Errorf("failed to create profile: %w", err)
	}
	r.Log.Debug("profile created", "user_id", profile.UserID, "status", profile.Status)
	return nil
}

func (r *Repository) CreateTx(ctx context.Context, tx persistence.Transaction, profile *domain.Profile) error {
	if err := tx.Exec(ctx, r.insertQuery(), insertArgs(profile)...); err != nil {
		r.Log.Error("failed to create profile in transaction",
			"error", err,
			"user_id", profile.UserID)
		return fmt.Errorf("failed to create profile in transaction: %w", err)
	}
	r.Log.Debug("profile created in transaction", "user_id", profile.UserID)
	return nil
}

func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var profile domain.Profile
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID)
	err := r.db.Get(ctx, &profile, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("profile not found", "user_id", userID)
			return nil, fmt.Errorf("profile not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get profile",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// Update сохраняет поля анкеты, если статус не поменялся с момента чтения.
// Рейтинг и флаг приветствия здесь не трогаются.
func (r *Repository) Update(ctx context.Context, profile *domain.Profile, from domain.ProfileStatus) (bool, error) {
	profile.UpdatedAt = time.Now()
	query := fmt.Sprintf(`UPDATE %s SET
		%s = $2, %s = $3, %s = $4, %s = $5,
		%s = $6, %s = $7, %s = $8
		WHERE %s = $1 AND %s = $9`,
		r.columns.TableName,
		r.columns.Status,
		r.columns.HourlyRate,
		r.columns.Experience,
		r.columns.Occupation,
		r.columns.HasMedicalCard,
		r.columns.AvatarKey,
		r.columns.UpdatedAt,
		r.columns.UserID,
		r.columns.Status)
	rowsAffected, err := r.db.ExecWithResult(ctx, query,
		profile.UserID,
		profile.Status,
		profile.HourlyRate,
		profile.Experience,
		profile.Occupation,
		profile.HasMedicalCard,
		profile.AvatarKey,
		profile.UpdatedAt,
		from)
	if err != nil {
		r.Log.Error("failed to update profile",
			"error", err,
			"user_id", profile.UserID)
		return false, fmt.Errorf("failed to update profile: %w", err)
	}
	if rowsAffected == 0 {
		r.Log.Warn("profile not updated: missing or status changed",
			"user_id", profile.UserID,
			"expected_status", from)
		return false, nil
	}
	r.Log.Debug("profile updated", "user_id", profile.UserID, "status", profile.Status)
	return true, nil
}

// UpdateStatus условный переход статуса: применяется только если текущий статус равен from.
// При переходе в VERIFIED выставляет флаг приветствия.
func (r *Repository) UpdateStatus(ctx context.Context, userID uuid.UUID, from, to domain.ProfileStatus, reason *string) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2, %s = $3, %s = $4
		WHERE %s = $5 AND %s = $6`,
		r.columns.TableName,
		r.columns.Status,
		r.columns.RejectionReason,
		r.columns.ShowGreeting,
		r.columns.UpdatedAt,
		r.columns.UserID,
		r.columns.Status)
	rowsAffected, err := r.db.ExecWithResult(ctx, query,
		to,
		reason,
		to == domain.ProfileVerified,
		time.Now(),
		userID,
		from)
	if err != nil {
		r.Log.Error("failed to update profile status",
			"error", err,
			"user_id", userID,
			"from", from,
			"to", to)
		return false, fmt.Errorf("failed to update profile status: %w", err)
	}
	r.Log.Debug("profile status update",
		"user_id", userID,
		"from", from,
		"to", to,
		"applied", rowsAffected > 0)
	return rowsAffected > 0, nil
}

// ConsumeGreeting снимает флаг приветствия одним UPDATE, поэтому приветствие срабатывает ровно один раз
func (r *Repository) ConsumeGreeting(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = FALSE WHERE %s = $1 AND %s = TRUE`,
		r.columns.TableName,
		r.columns.ShowGreeting,
		r.columns.UserID,
		r.columns.ShowGreeting)
	rowsAffected, err := r.db.ExecWithResult(ctx, query, userID)
	if err != nil {
		r.Log.Error("failed to consume greeting flag",
			"error", err,
			"user_id", userID)
		return false, fmt.Errorf("failed to consume greeting flag: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListByStatus анкеты в статусе вместе с именем, телефоном и chat_id няни
func (r *Repository) ListByStatus(ctx context.Context, status domain.ProfileStatus) ([]*domain.PendingProfile, error) {
	cols := r.columnList()
	for i, c := range cols {
		cols[i] = "p." + c
	}
	query := fmt.Sprintf(`SELECT %s, u.name, u.phone, u.chat_id
		FROM %s p JOIN users u ON u.id = p.%s
		WHERE p.%s = $1
		ORDER BY p.%s`,
		strings.Join(cols, ", "),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.Status,
		r.columns.UpdatedAt)

	var profiles []*domain.PendingProfile
	if err := r.db.Select(ctx, &profiles, query, status); err != nil {
		r.Log.Error("failed to list profiles by status",
			"error", err,
			"status", status)
		return nil, fmt.Errorf("failed to list profiles by status: %w", err)
	}
	r.Log.Debug("profiles listed", "status", status, "count", len(profiles))
	return profiles, nil
}

func (r *Repository) UpdateRatingTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, stats domain.RatingStats) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2, %s = $3 WHERE %s = $4`,
		r.columns.TableName,
		r.columns.AvgRating,
		r.columns.TotalReviews,
		r.columns.UpdatedAt,
		r.columns.UserID)
	rowsAffected, err := tx.ExecWithResult(ctx, query, stats.AvgRating, stats.TotalReviews, time.Now(), userID)
	if err != nil {
		r.Log.Error("failed to update profile rating in transaction",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to update profile rating in transaction: %w", err)
	}
	if rowsAffected == 0 {
		r.Log.Warn("profile not found for rating update", "user_id", userID)
		return fmt.Errorf("profile not found: %w", domain.ErrNotFound)
	}
	return nil
}
