package childRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/persistence"
	ports "github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
	"github.com/google/uuid"
)

type childColumns struct {
	TableName string
	ID        string
	ParentID  string
	Name      string
	Age       string
	Notes     string
	CreatedAt string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns childColumns
}

func New(db persistence.Persistence, log *slog.Logger) ports.IChildRepo {
	return &Repository{
		db:  db,
		Log: log,
		columns: childColumns{
			TableName: "children",
			ID:        "id",
			ParentID:  "parent_id",
			Name:      "name",
			Age:       "age",
			Notes:     "notes",
			CreatedAt: "created_at",
		},
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.ParentID,
		r.columns.Name,
		r.columns.Age,
		r.columns.Notes,
		r.columns.CreatedAt)
}

func (r *Repository) Create(ctx context.Context, child *domain.Child) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6)`,
		r.columns.TableName,
		r.allColumns())
	err := r.db.Exec(ctx, query,
		child.ID,
		child.ParentID,
		child.Name,
		child.Age,
		child.Notes,
		child.CreatedAt)
	if err != nil {
		r.Log.Error("failed to create child",
			"error", err,
			"parent_id", child.ParentID)
		return fmt.Errorf("failed to create child: %w", err)
	}
	r.Log.Debug("child created", "child_id", child.ID, "parent_id", child.ParentID)
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Child, error) {
	var child domain.Child
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID)
	if err := r.db.Get(ctx, &child, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("child not found", "child_id", id)
			return nil, fmt.Errorf("child not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get child", "error", err, "child_id", id)
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return &child, nil
}

// Update сохраняет имя, возраст и заметки. Изменяет только строку, принадлежащую parent_id ребёнка.
func (r *Repository) Update(ctx context.Context, child *domain.Child) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2, %s = $3 WHERE %s = $4 AND %s = $5`,
		r.columns.TableName,
		r.columns.Name,
		r.columns.Age,
		r.columns.Notes,
		r.columns.ID,
		r.columns.ParentID)
	rowsAffected, err := r.db.ExecWithResult(ctx, query,
		child.Name,
		child.Age,
		child.Notes,
		child.ID,
		child.ParentID)
	if err != nil {
		r.Log.Error("failed to update child", "error", err, "child_id", child.ID)
		return fmt.Errorf("failed to update child: %w", err)
	}
	if rowsAffected == 0 {
		r.Log.Warn("child not found for update", "child_id", child.ID, "parent_id", child.ParentID)
		return fmt.Errorf("child not found: %w", domain.ErrNotFound)
	}
	r.Log.Debug("child updated", "child_id", child.ID)
	return nil
}

func (r *Repository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*domain.Child, error) {
	var children []*domain.Child
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ParentID,
		r.columns.CreatedAt)
	if err := r.db.Select(ctx, &children, query, parentID); err != nil {
		r.Log.Error("failed to list children", "error", err, "parent_id", parentID)
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return children, nil
}
