package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ProfileStatus string

const (
	ProfileNew      ProfileStatus = "NEW"
	ProfilePending  ProfileStatus = "PENDING"
	ProfileVerified ProfileStatus = "VERIFIED"
	ProfileRejected ProfileStatus = "REJECTED"
)

func (s ProfileStatus) IsValid() bool {
	switch s {
	case ProfileNew, ProfilePending, ProfileVerified, ProfileRejected:
		return true
	default:
		return false
	}
}

func ParseProfileStatus(s string) (ProfileStatus, error) {
	st := ProfileStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: profile status %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// StatusAfterEdit статус анкеты после правки няней.
// NEW и REJECTED уходят на модерацию, PENDING и VERIFIED не меняются.
func (s ProfileStatus) StatusAfterEdit() ProfileStatus {
	switch s {
	case ProfileNew, ProfileRejected:
		return ProfilePending
	default:
		return s
	}
}

// CanModerate решение модератора возможно только из PENDING
func (s ProfileStatus) CanModerate(to ProfileStatus) bool {
	return s == ProfilePending && (to == ProfileVerified || to == ProfileRejected)
}

type Profile struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	UserID          uuid.UUID     `json:"user_id" db:"user_id"`
	Status          ProfileStatus `json:"status" db:"status"`
	HourlyRate      *int64        `json:"hourly_rate,omitempty" db:"hourly_rate"`
	Experience      *string       `json:"experience,omitempty" db:"experience"`
	Occupation      *string       `json:"occupation,omitempty" db:"occupation"`
	HasMedicalCard  bool          `json:"has_medical_card" db:"has_medical_card"`
	AvatarKey       *string       `json:"avatar_key,omitempty" db:"avatar_key"`
	AvgRating       float64       `json:"avg_rating" db:"avg_rating"`
	TotalReviews    int           `json:"total_reviews" db:"total_reviews"`
	ShowGreeting    bool          `json:"show_greeting" db:"show_greeting"`
	RejectionReason *string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// IsComplete заполнены ли обязательные поля анкеты
func (p *Profile) IsComplete() bool {
	return p.HourlyRate != nil && p.Experience != nil && p.Occupation != nil
}

// PendingProfile анкета в очереди модерации вместе с данными пользователя
type PendingProfile struct {
	Profile
	Name           *string `json:"name,omitempty" db:"name"`
	Phone          *string `json:"phone,omitempty" db:"phone"`
	TelegramChatID int64   `json:"telegram_chat_id" db:"chat_id"`
}
