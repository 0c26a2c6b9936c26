package stateRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	ports "github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
	"github.com/google/uuid"
)

type stateColumns struct {
	TableName   string
	UserID      string
	ParentState string
	NannyState  string
	UpdatedAt   string
}

// Repository состояние диалога: две независимые строки на пользователя, по одной на роль
type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns stateColumns
}

func New(db persistence.Persistence, log *slog.Logger) ports.IStateRepo {
	return &Repository{
		db:  db,
		Log: log,
		columns: stateColumns{
			TableName:   "conversation_states",
			UserID:      "user_id",
			ParentState: "parent_state",
			NannyState:  "nanny_state",
			UpdatedAt:   "updated_at",
		},
	}
}

// columnFor колонка состояния для роли. Имя колонки подставляется в SQL, поэтому только из этого списка.
func (r *Repository) columnFor(role domain.Role) (string, error) {
	switch role {
	case domain.RoleParent:
		return r.columns.ParentState, nil
	case domain.RoleNanny:
		return r.columns.NannyState, nil
	default:
		return "", fmt.Errorf("%w: no conversation state for role %q", domain.ErrInvalidRole, role)
	}
}

func (r *Repository) Get(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.ConversationState, error) {
	column, err := r.columnFor(role)
	if err != nil {
		return nil, err
	}

	var raw sql.NullString
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		column,
		r.columns.TableName,
		r.columns.UserID)
	if err := r.db.Get(ctx, &raw, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.Log.Error("failed to get conversation state",
			"error", err,
			"user_id", userID,
			"role", role)
		return nil, fmt.Errorf("failed to get conversation state: %w", err)
	}
	if !raw.Valid {
		return nil, nil
	}

	state, err := domain.ParseState(raw.String)
	if err != nil {
		// битое состояние наверх не пробрасываем, движок начнёт с меню
		r.Log.Warn("corrupt conversation state, treating as empty",
			"error", err,
			"user_id", userID,
			"role", role,
			"raw", raw.String)
		return nil, nil
	}
	return state, nil
}

// Set upsert одной колонки, вторая роль не затрагивается
func (r *Repository) Set(ctx context.Context, userID uuid.UUID, role domain.Role, state *domain.ConversationState) error {
	column, err := r.columnFor(role)
	if err != nil {
		return err
	}

	var value *string
	if state != nil {
		s := state.String()
		value = &s
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = EXCLUDED.%s`,
		r.columns.TableName,
		r.columns.UserID,
		column,
		r.columns.UpdatedAt,
		r.columns.UserID,
		column, column,
		r.columns.UpdatedAt, r.columns.UpdatedAt)
	if err := r.db.Exec(ctx, query, userID, value, time.Now()); err != nil {
		r.Log.Error("failed to set conversation state",
			"error", err,
			"user_id", userID,
			"role", role)
		return fmt.Errorf("failed to set conversation state: %w", err)
	}
	r.Log.Debug("conversation state set",
		"user_id", userID,
		"role", role,
		"state", state.String())
	return nil
}
