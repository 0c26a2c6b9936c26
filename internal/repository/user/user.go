package userRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	ports "github.com/admin/tg-bots/nanny-bot/internal/ports/repository"

	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	"github.com/google/uuid"
)

type userColumns struct {
	TableName      string
	ID             string
	TelegramUserID string
	TelegramChatID string
	Role           string
	Name           string
	Phone          string
	Consent        string
	AvgRating      string
	TotalReviews   string
	CreatedAt      string
	UpdatedAt      string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns userColumns
}

// New создаёт новый репозиторий для работы с пользователями
func New(db persistence.Persistence, log *slog.Logger) ports.IUserRepo {
	cols := userColumns{
		TableName:      "users",
		ID:             "id",
		TelegramUserID: "tg_id",
		TelegramChatID: "chat_id",
		Role:           "role",
		Name:           "name",
		Phone:          "phone",
		Consent:        "consent",
		AvgRating:      "avg_rating",
		TotalReviews:   "total_reviews",
		CreatedAt:      "created_at",
		UpdatedAt:      "updated_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

// allColumns возвращает строку со всеми колонками (11 колонок)
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.TelegramUserID,
		r.columns.TelegramChatID,
		r.columns.Role,
		r.columns.Name,
		r.columns.Phone,
		r.columns.Consent,
		r.columns.AvgRating,
		r.columns.TotalReviews,
		r.columns.CreatedAt,
		r.columns.UpdatedAt)
}

func (r *Repository) insertQuery() string {
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.columns.TableName,
		r.allColumns())
}

func insertArgs(user *domain.User) []interface{} {
	return []interface{}{
		user.ID,
		user.TelegramUserID,
		user.TelegramChatID,
		user.Role,
		user.Name,
		user.Phone,
		user.Consent,
		user.AvgRating,
		user.TotalReviews,
		user.CreatedAt,
		user.UpdatedAt,
	}
}

// Create создаёт нового пользователя
func (r *Repository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.Exec(ctx, r.insertQuery(), insertArgs(user)...)
	if err != nil {
		r.Log.Error("failed to create user",
			"error", err,
			"telegram_user_id", user.TelegramUserID,
			"user_id", user.ID)
		return fmt.Errorf("failed to create user: %w", err)
	}
	r.Log.Debug("user created successfully",
		"id", user.ID,
		"telegram_user_id", user.TelegramUserID,
		"role", user.Role)
	return nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *Repository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	var user domain.User
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.TelegramUserID)
	err := r.db.Get(ctx, &user, query, telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Debug("user not found", "telegram_user_id", telegramID)
			return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get user by telegram id",
			"error", err,
			"telegram_user_id", telegramID)
		return nil, fmt.Errorf("failed to get user by telegram id: %w", err)
	}
	return &user, nil
}

// GetByID получает пользователя по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID)
	err := r.db.Get(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("user not found", "user_id", id)
			return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get user by id",
			"error", err,
			"user_id", id)
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// updateColumn общий UPDATE одной колонки по id
func (r *Repository) updateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2 WHERE %s = $3`,
		r.columns.TableName,
		column,
		r.columns.UpdatedAt,
		r.columns.ID)
	rowsAffected, err := r.db.ExecWithResult(ctx, query, value, time.Now(), id)
	if err != nil {
		r.Log.Error("failed to update user",
			"error", err,
			"column", column,
			"user_id", id)
		return fmt.Errorf("failed to update user %s: %w", column, err)
	}
	if rowsAffected == 0 {
		r.Log.Warn("user not found for update", "user_id", id, "column", column)
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	r.Log.Debug("user updated successfully", "user_id", id, "column", column)
	return nil
}

func (r *Repository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	return r.updateColumn(ctx, id, r.columns.Name, name)
}

func (r *Repository) UpdateConsent(ctx context.Context, id uuid.UUID, consent bool) error {
	return r.updateColumn(ctx, id, r.columns.Consent, consent)
}

// UpdatePhone телефон приходит из contact share, каждый новый контакт перезаписывает старый
func (r *Repository) UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error {
	return r.updateColumn(ctx, id, r.columns.Phone, phone)
}

// ListVerifiedNannies няни с анкетой в статусе VERIFIED, адресаты рассылки заказов
func (r *Repository) ListVerifiedNannies(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	query := fmt.Sprintf(`SELECT %s FROM %s u
		JOIN profiles p ON p.user_id = u.%s
		WHERE u.%s = $1 AND p.status = $2
		ORDER BY u.%s`,
		r.prefixedColumns("u"),
		r.columns.TableName,
		r.columns.ID,
		r.columns.Role,
		r.columns.CreatedAt)
	err := r.db.Select(ctx, &users, query, domain.RoleNanny, domain.ProfileVerified)
	if err != nil {
		r.Log.Error("failed to list verified nannies", "error", err)
		return nil, fmt.Errorf("failed to list verified nannies: %w", err)
	}
	r.Log.Debug("verified nannies listed", "count", len(users))
	return users, nil
}

func (r *Repository) prefixedColumns(alias string) string {
	cols := []string{
		r.columns.ID, r.columns.TelegramUserID, r.columns.TelegramChatID, r.columns.Role,
		r.columns.Name, r.columns.Phone, r.columns.Consent, r.columns.AvgRating,
		r.columns.TotalReviews, r.columns.CreatedAt, r.columns.UpdatedAt,
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// WithTransaction выполняет функцию в транзакции с автоматическим commit/rollback
func (r *Repository) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	return r.db.WithTransaction(ctx, fn)
}

// CreateTx создаёт пользователя в транзакции
func (r *Repository) CreateTx(ctx context.Context, tx persistence.Transaction, user *domain.User) error {
	err := tx.Exec(ctx, r.insertQuery(), insertArgs(user)...)
	if err != nil {
		r.Log.Error("failed to create user in transaction",
			"error", err,
			"telegram_user_id", user.TelegramUserID,
			"user_id", user.ID)
		return fmt.Errorf("failed to create user in transaction: %w", err)
	}
	r.Log.Debug("user created in transaction",
		"id", user.ID,
		"telegram_user_id", user.TelegramUserID)
	return nil
}

// UpdateRatingTx перезаписывает зеркало рейтинга няни
func (r *Repository) UpdateRatingTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID, stats domain.RatingStats) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2, %s = $3 WHERE %s = $4`,
		r.columns.TableName,
		r.columns.AvgRating,
		r.columns.TotalReviews,
		r.columns.UpdatedAt,
		r.columns.ID)
	rowsAffected, err := tx.ExecWithResult(ctx, query, stats.AvgRating, stats.TotalReviews, time.Now(), id)
	if err != nil {
		r.Log.Error("failed to update user rating in transaction",
			"error", err,
			"user_id", id)
		return fmt.Errorf("failed to update user rating in transaction: %w", err)
	}
	if rowsAffected == 0 {
		r.Log.Warn("user not found for rating update", "user_id", id)
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	r.Log.Debug("user rating updated in transaction",
		"user_id", id,
		"avg_rating", stats.AvgRating,
		"total_reviews", stats.TotalReviews)
	return nil
}
