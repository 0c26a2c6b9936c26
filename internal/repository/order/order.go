package orderRepo

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

type orderColumns struct {
	TableName     string
	ID            string
	ParentID      string
	NannyID       string
	Date          string
	TimeRange     string
	DurationHours string
	Address       string
	Notes         string
	Status        string
	CreatedAt     string
	AcceptedAt    string
	CompletedAt   string
	UpdatedAt     string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns orderColumns
}

func New(db persistence.Persistence, log *slog.Logger) ports.IOrderRepo {
	return &Repository{
		db:  db,
		Log: log,
		columns: orderColumns{
			TableName:     "orders",
			ID:            "id",
			ParentID:      "parent_id",
			NannyID:       "nanny_id",
			Date:          "date",
			TimeRange:     "time_range",
			DurationHours: "duration_hours",
			Address:       "address",
			Notes:         "notes",
			Status:        "status",
			CreatedAt:     "created_at",
			AcceptedAt:    "accepted_at",
			CompletedAt:   "completed_at",
			UpdatedAt:     "updated_at",
		},
	}
}

// allColumns возвращает строку со всеми колонками (13 колонок)
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.ParentID,
		r.columns.NannyID,
		r.columns.Date,
		r.columns.TimeRange,
		r.columns.DurationHours,
		r.columns.Address,
		r.columns.Notes,
		r.columns.Status,
		r.columns.CreatedAt,
		r.columns.AcceptedAt,
		r.columns.CompletedAt,
		r.columns.UpdatedAt)
}

// Create сохраняет новый заказ. Заказ создаётся только в PENDING без няни.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	if order.Status != domain.OrderPending || order.NannyID != nil {
		return fmt.Errorf("%w: new order must be PENDING without nanny", domain.ErrInvalidTransition)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.columns.TableName,
		r.allColumns())
	err := r.db.Exec(ctx, query,
		order.ID,
		order.ParentID,
		order.NannyID,
		order.Date,
		order.TimeRange,
		order.DurationHours,
		order.Address,
		order.Notes,
		order.Status,
		order.CreatedAt,
		order.AcceptedAt,
		order.CompletedAt,
		order.UpdatedAt)
	if err != nil {
		r.Log.Error("failed to create order",
			"error", err,
			"parent_id", order.ParentID)
		return fmt.Errorf("failed to create order: %w", err)
	}
	r.Log.Debug("order created", "order_id", order.ID, "parent_id", order.ParentID)
	return nil
}

func (r *Repository) getByID(ctx context.Context, exec persistence.Executor, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID)
	if err := exec.Get(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("order not found", "order_id", id)
			return nil, fmt.Errorf("order not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get order", "error", err, "order_id", id)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *Repository) GetByIDTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID) (*domain.Order, error) {
	return r.getByID(ctx, tx, id)
}

// Claim назначает няню одним условным UPDATE (compare-and-swap по status и nanny_id).
// Число затронутых строк решает исход: 1 - няня выиграла, 0 - заказ уже занят или не в PENDING.
func (r *Repository) Claim(ctx context.Context, orderID, nannyID uuid.UUID, at time.Time) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $4
		WHERE %s = $1 AND %s = $5 AND %s IS NULL`,
		r.columns.TableName,
		r.columns.NannyID,
		r.columns.Status,
		r.columns.AcceptedAt,
		r.columns.UpdatedAt,
		r.columns.ID,
		r.columns.Status,
		r.columns.NannyID)
	rowsAffected, err := r.db.ExecWithResult(ctx, query,
		orderID,
		nannyID,
		domain.OrderAccepted,
		at,
		domain.OrderPending)
	if err != nil {
		r.Log.Error("failed to claim order",
			"error", err,
			"order_id", orderID,
			"nanny_id", nannyID)
		return false, fmt.Errorf("failed to claim order: %w", err)
	}
	won := rowsAffected == 1
	r.Log.Debug("order claim attempt",
		"order_id", orderID,
		"nanny_id", nannyID,
		"won", won)
	return won, nil
}

// UpdateStatus переводит заказ в to, только если текущий статус входит в from.
// nanny_id не меняется, поэтому отменённый заказ сохраняет историческое назначение.
func (r *Repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from []domain.OrderStatus, to domain.OrderStatus, at time.Time) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("%w: no source statuses for %s", domain.ErrInvalidTransition, to)
	}

	set := fmt.Sprintf("%s = $2, %s = $3", r.columns.Status, r.columns.UpdatedAt)
	if to == domain.OrderCompleted {
		set += fmt.Sprintf(", %s = $3", r.columns.CompletedAt)
	}

	args := []interface{}{orderID, to, at}
	placeholders := make([]string, 0, len(from))
	for _, st := range from {
		args = append(args, st)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 AND %s IN (%s)`,
		r.columns.TableName,
		set,
		r.columns.ID,
		r.columns.Status,
		strings.Join(placeholders, ", "))
	rowsAffected, err := r.db.ExecWithResult(ctx, query, args...)
	if err != nil {
		r.Log.Error("failed to update order status",
			"error", err,
			"order_id", orderID,
			"to", to)
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	r.Log.Debug("order status update",
		"order_id", orderID,
		"to", to,
		"applied", rowsAffected > 0)
	return rowsAffected > 0, nil
}

func (r *Repository) listBy(ctx context.Context, column string, id uuid.UUID, limit int) ([]*domain.Order, error) {
	var orders []*domain.Order
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC LIMIT $2`,
		r.allColumns(),
		r.columns.TableName,
		column,
		r.columns.CreatedAt)
	if err := r.db.Select(ctx, &orders, query, id, limit); err != nil {
		r.Log.Error("failed to list orders", "error", err, column, id)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *Repository) ListByParent(ctx context.Context, parentID uuid.UUID, limit int) ([]*domain.Order, error) {
	return r.listBy(ctx, r.columns.ParentID, parentID, limit)
}

func (r *Repository) ListByNanny(ctx context.Context, nannyID uuid.UUID, limit int) ([]*domain.Order, error) {
	return r.listBy(ctx, r.columns.NannyID, nannyID, limit)
}
