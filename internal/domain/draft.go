package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderDraft незавершённый заказ, который собирается по шагам
type OrderDraft struct {
	Date          *time.Time `json:"date,omitempty"`
	TimeRange     *string    `json:"time_range,omitempty"`
	DurationHours *int       `json:"duration_hours,omitempty"`
	Address       *string    `json:"address,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

// IsComplete все обязательные поля собраны
func (d *OrderDraft) IsComplete() bool {
	return d != nil && d.Date != nil && d.TimeRange != nil && d.DurationHours != nil && d.Address != nil
}

// ToOrder переносит черновик в заказ со статусом PENDING
func (d *OrderDraft) ToOrder(parentID uuid.UUID) (*Order, error) {
	if !d.IsComplete() {
		return nil, ErrDraftIncomplete
	}
	now := time.Now()
	return &Order{
		ParentID:      parentID,
		Date:          *d.Date,
		TimeRange:     *d.TimeRange,
		DurationHours: *d.DurationHours,
		Address:       *d.Address,
		Notes:         d.Notes,
		Status:        OrderPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
