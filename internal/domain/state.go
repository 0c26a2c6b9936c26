package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Step ключ шага диалога
type Step string

const (
	StepFinish Step = "FINISH"

	// регистрация родителя
	StepAskName    Step = "ASK_NAME"
	StepAskConsent Step = "ASK_CONSENT"

	// анкета ребёнка
	StepAskChildName  Step = "ASK_CHILD_NAME"
	StepAskChildAge   Step = "ASK_CHILD_AGE"
	StepAskChildNotes Step = "ASK_CHILD_NOTES"

	// анкета няни
	StepNannyAskName       Step = "NANNY_ASK_NAME"
	StepNannyAskPhone      Step = "NANNY_ASK_PHONE"
	StepNannyAskRate       Step = "NANNY_ASK_RATE"
	StepNannyAskExperience Step = "NANNY_ASK_EXPERIENCE"
	StepNannyAskOccupation Step = "NANNY_ASK_OCCUPATION"
	StepNannyAskMedical    Step = "NANNY_ASK_MEDICAL"
	StepNannyAskAvatar     Step = "NANNY_ASK_AVATAR"

	// создание заказа
	StepOrderAskDate    Step = "ORDER_ASK_DATE"
	StepOrderAskTime    Step = "ORDER_ASK_TIME"
	StepOrderAskAddress Step = "ORDER_ASK_ADDRESS"
	StepOrderAskNotes   Step = "ORDER_ASK_NOTES"
	StepOrderConfirm    Step = "ORDER_CONFIRM"

	// отзыв
	StepReviewAskComment Step = "REVIEW_ASK_COMMENT"
)

// ConversationState текущий шаг диалога и, опционально, сущность подпотока.
// В хранилище сериализуется как "STEP" или "STEP:<uuid>".
type ConversationState struct {
	Step     Step
	LinkedID *uuid.UUID
}

func NewState(step Step, linkedID *uuid.UUID) *ConversationState {
	return &ConversationState{Step: step, LinkedID: linkedID}
}

func (s *ConversationState) String() string {
	if s == nil {
		return ""
	}
	if s.LinkedID == nil {
		return string(s.Step)
	}
	return fmt.Sprintf("%s:%s", s.Step, s.LinkedID.String())
}

// IsEmptyStateValue значения, которые считаются отсутствием состояния
func IsEmptyStateValue(raw string) bool {
	switch strings.TrimSpace(raw) {
	case "", "null", "undefined":
		return true
	default:
		return false
	}
}

// ParseState разбирает строку состояния. Пустое значение даёт nil без ошибки.
func ParseState(raw string) (*ConversationState, error) {
	if IsEmptyStateValue(raw) {
		return nil, nil
	}
	raw = strings.TrimSpace(raw)

	key, linked, hasLinked := strings.Cut(raw, ":")
	if key == "" {
		return nil, fmt.Errorf("%w: empty step in %q", ErrInvalidState, raw)
	}

	state := &ConversationState{Step: Step(key)}
	if !hasLinked {
		return state, nil
	}

	id, err := uuid.Parse(linked)
	if err != nil {
		return nil, fmt.Errorf("%w: bad linked id in %q: %v", ErrInvalidState, raw, err)
	}
	state.LinkedID = &id
	return state, nil
}
