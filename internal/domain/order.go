package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderAccepted   OrderStatus = "ACCEPTED"
	OrderInProgress OrderStatus = "IN_PROGRESS"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderPending, OrderAccepted, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	default:
		return false
	}
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: order status %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// orderTransitions допустимые переходы заказа.
// PENDING -> CANCELLED отсутствует: у заказа без няни nanny_id пуст только в PENDING.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderAccepted},
	OrderAccepted:   {OrderInProgress, OrderCompleted, OrderCancelled},
	OrderInProgress: {OrderCompleted, OrderCancelled},
}

// CanTransition проверяет переход по таблице статусов
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// SourcesFor статусы, из которых возможен переход в to
func SourcesFor(to OrderStatus) []OrderStatus {
	var sources []OrderStatus
	for _, from := range []OrderStatus{OrderPending, OrderAccepted, OrderInProgress} {
		if from.CanTransition(to) {
			sources = append(sources, from)
		}
	}
	return sources
}

type Order struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	ParentID      uuid.UUID   `json:"parent_id" db:"parent_id"`
	NannyID       *uuid.UUID  `json:"nanny_id,omitempty" db:"nanny_id"`
	Date          time.Time   `json:"date" db:"date"`
	TimeRange     string      `json:"time_range" db:"time_range"`
	DurationHours int         `json:"duration_hours" db:"duration_hours"`
	Address       string      `json:"address" db:"address"`
	Notes         *string     `json:"notes,omitempty" db:"notes"`
	Status        OrderStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	AcceptedAt    *time.Time  `json:"accepted_at,omitempty" db:"accepted_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// AssignmentConsistent nanny_id пуст тогда и только тогда, когда заказ в PENDING
func (o *Order) AssignmentConsistent() bool {
	return (o.NannyID == nil) == (o.Status == OrderPending)
}

func (o *Order) IsAssignedTo(nannyID uuid.UUID) bool {
	return o.NannyID != nil && *o.NannyID == nannyID
}

// OrderEventType тип события заказа для шины
type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "order.created"
	OrderEventClaimed   OrderEventType = "order.claimed"
	OrderEventConfirmed OrderEventType = "order.confirmed"
	OrderEventRejected  OrderEventType = "order.rejected"
	OrderEventCompleted OrderEventType = "order.completed"
	OrderEventCancelled OrderEventType = "order.cancelled"
)

type OrderEvent struct {
	Type       OrderEventType `json:"type"`
	OrderID    uuid.UUID      `json:"order_id"`
	ParentID   uuid.UUID      `json:"parent_id"`
	NannyID    *uuid.UUID     `json:"nanny_id,omitempty"`
	Status     OrderStatus    `json:"status"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func NewOrderEvent(t OrderEventType, o *Order) OrderEvent {
	return OrderEvent{
		Type:       t,
		OrderID:    o.ID,
		ParentID:   o.ParentID,
		NannyID:    o.NannyID,
		Status:     o.Status,
		OccurredAt: time.Now().UTC(),
	}
}
