package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	kafkaPorts "github.com/admin/tg-bots/nanny-bot/internal/ports/kafka"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/usecase"
	"github.com/google/uuid"
)

// ModerationDecisionHandler решения модераторов из внешней админки
type ModerationDecisionHandler struct {
	Moderation usecase.IModerationUsecase
	Log        *slog.Logger
}

func NewModerationDecisionHandler(moderation usecase.IModerationUsecase, log *slog.Logger) kafkaPorts.MessageHandler {
	return &ModerationDecisionHandler{
		Moderation: moderation,
		Log:        log,
	}
}

// ModerationDecisionMessage {"user_id": "...", "decision": "approve|reject", "reason": "..."}
type ModerationDecisionMessage struct {
	UserID   string  `json:"user_id"`
	Decision string  `json:"decision"`
	Reason   *string `json:"reason,omitempty"`
}

func (h *ModerationDecisionHandler) HandleMessage(ctx context.Context, key string, value []byte, headers map[string]string) error {
	var msg ModerationDecisionMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return domain.WrapBusinessError(fmt.Errorf("failed to unmarshal moderation decision: %w", err))
	}

	userID, err := uuid.Parse(msg.UserID)
	if err != nil {
		return domain.WrapBusinessError(fmt.Errorf("invalid user_id %q: %w", msg.UserID, err))
	}

	h.Log.Debug("processing moderation decision",
		"key", key,
		"user_id", userID,
		"decision", msg.Decision,
		"request_id", headers["request_id"],
	)

	switch strings.ToLower(strings.TrimSpace(msg.Decision)) {
	case usecase.DecisionApprove:
		err = h.Moderation.Approve(ctx, userID, usecase.SourceKafka)
	case usecase.DecisionReject:
		err = h.Moderation.Reject(ctx, userID, msg.Reason, usecase.SourceKafka)
	default:
		return domain.WrapBusinessError(fmt.Errorf("unknown decision %q", msg.Decision))
	}

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
			h.Log.Warn("moderation decision skipped",
				"user_id", userID,
				"decision", msg.Decision,
				"error", err,
			)
			return domain.WrapBusinessError(err)
		}
		return fmt.Errorf("failed to apply moderation decision: %w", err)
	}
	return nil
}
