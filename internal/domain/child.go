package domain

import (
	"time"

	"github.com/google/uuid"
)

const MaxChildAge = 18

type Child struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ParentID  uuid.UUID `json:"parent_id" db:"parent_id"`
	Name      string    `json:"name" db:"name"`
	Age       *int      `json:"age,omitempty" db:"age"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
