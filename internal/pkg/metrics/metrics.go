// Package metrics бизнес-счётчики бота, отдаются на /metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ClaimWon   = "won"
	ClaimTaken = "taken"

	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

var (
	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nanny_bot_orders_created_total",
			Help: "Total number of orders created by parents",
		},
	)

	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nanny_bot_order_claims_total",
			Help: "Claim attempts by outcome (won, taken)",
		},
		[]string{"outcome"},
	)

	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nanny_bot_order_transitions_total",
			Help: "Applied order status transitions",
		},
		[]string{"to"},
	)

	ReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nanny_bot_reviews_total",
			Help: "Reviews by rating",
		},
		[]string{"rating"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nanny_bot_notifications_total",
			Help: "Outgoing notifications by kind and delivery result",
		},
		[]string{"kind", "result"},
	)

	ModerationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nanny_bot_moderation_decisions_total",
			Help: "Moderator decisions on nanny profiles",
		},
		[]string{"decision", "source"},
	)
)
