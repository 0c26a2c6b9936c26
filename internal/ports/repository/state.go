package repository

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/google/uuid"
)

// IStateRepo состояние диалога пользователя, отдельно для каждой роли
type IStateRepo interface {
	// Get возвращает nil, если состояния нет
	Get(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.ConversationState, error)
	// Set с nil очищает состояние
	Set(ctx context.Context, userID uuid.UUID, role domain.Role, state *domain.ConversationState) error
}

// IDraftStore черновики заказов по chat_id
type IDraftStore interface {
	// Get возвращает пустой черновик, если сохранённого нет
	Get(ctx context.Context, chatID int64) (*domain.OrderDraft, error)
	Save(ctx context.Context, chatID int64, draft *domain.OrderDraft) error
	Delete(ctx context.Context, chatID int64) error
}
