package draftRepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/cache"
	ports "github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
)

const (
	keyPrefix  = "draft:order:"
	DefaultTTL = 24 * time.Hour
)

// Store черновики заказов в кэше. Черновик перезаписывается целиком при каждом шаге.
type Store struct {
	cache cache.Cache
	ttl   time.Duration
	Log   *slog.Logger
}

func New(c cache.Cache, ttl time.Duration, log *slog.Logger) ports.IDraftStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		cache: c,
		ttl:   ttl,
		Log:   log,
	}
}

func key(chatID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, chatID)
}

func (s *Store) Get(ctx context.Context, chatID int64) (*domain.OrderDraft, error) {
	raw, err := s.cache.Get(ctx, key(chatID))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return &domain.OrderDraft{}, nil
		}
		s.Log.Error("failed to get order draft", "error", err, "chat_id", chatID)
		return nil, fmt.Errorf("failed to get order draft: %w", err)
	}

	var draft domain.OrderDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		// испорченный черновик выбрасываем, мастер начнёт заново
		s.Log.Warn("corrupt order draft, discarding", "error", err, "chat_id", chatID)
		_ = s.cache.Delete(ctx, key(chatID))
		return &domain.OrderDraft{}, nil
	}
	return &draft, nil
}

func (s *Store) Save(ctx context.Context, chatID int64, draft *domain.OrderDraft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal order draft: %w", err)
	}
	if err := s.cache.Set(ctx, key(chatID), string(raw), s.ttl); err != nil {
		s.Log.Error("failed to save order draft", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to save order draft: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, chatID int64) error {
	if err := s.cache.Delete(ctx, key(chatID)); err != nil {
		s.Log.Error("failed to delete order draft", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to delete order draft: %w", err)
	}
	return nil
}
