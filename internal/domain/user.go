package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleParent Role = "PARENT"
	RoleNanny  Role = "NANNY"
	RoleAdmin  Role = "ADMIN"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleParent, RoleNanny, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole валидирует роль на входе из БД или callback
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TelegramUserID int64     `json:"telegram_user_id" db:"tg_id"`
	TelegramChatID int64     `json:"telegram_chat_id" db:"chat_id"`
	Role           Role      `json:"role" db:"role"`
	Name           *string   `json:"name,omitempty" db:"name"`
	Phone          *string   `json:"phone,omitempty" db:"phone"`
	Consent        bool      `json:"consent" db:"consent"`
	AvgRating      float64   `json:"avg_rating" db:"avg_rating"`
	TotalReviews   int       `json:"total_reviews" db:"total_reviews"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// HasName заполнено ли имя (признак вернувшегося пользователя)
func (u *User) HasName() bool {
	return u.Name != nil && *u.Name != ""
}

func (u *User) DisplayName() string {
	if u.HasName() {
		return *u.Name
	}
	return "—"
}
