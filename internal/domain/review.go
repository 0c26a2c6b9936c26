package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ParentID  uuid.UUID `json:"parent_id" db:"parent_id"`
	NannyID   uuid.UUID `json:"nanny_id" db:"nanny_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RatingStats агрегат рейтинга, всегда пересчитывается по таблице отзывов
type RatingStats struct {
	AvgRating    float64 `db:"avg_rating"`
	TotalReviews int     `db:"total_reviews"`
}

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
