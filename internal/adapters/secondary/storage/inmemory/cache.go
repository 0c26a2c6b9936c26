package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/ports/cache"
)

type entry struct {
	value     string
	expiresAt time.Time // нулевое значение - без TTL
}

// Cache потокобезопасный кэш в памяти процесса.
// Используется вместо Redis, если он не настроен (локальная разработка).
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		items: make(map[string]entry),
		now:   time.Now,
	}
}

var _ cache.Cache = (*Cache)(nil)

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.expired(e) {
		if ok {
			c.mu.Lock()
			delete(c.items, key)
			c.mu.Unlock()
		}
		return "", fmt.Errorf("%w: %s", cache.ErrNotFound, key)
	}
	return e.value, nil
}

func (c *Cache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := c.Get(ctx, key); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Cache) Close() error {
	c.mu.Lock()
	c.items = make(map[string]entry)
	c.mu.Unlock()
	return nil
}

func (c *Cache) expired(e entry) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}
