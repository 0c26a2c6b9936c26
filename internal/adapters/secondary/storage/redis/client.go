package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/ports/cache"
	"github.com/redis/go-redis/v9"
)

// Client хранилище черновиков заказов в Redis, реализует cache.Cache.
// Все ключи получают prefix, чтобы делить инстанс с другими сервисами.
type Client struct {
	client *redis.Client
	prefix string
}

func NewClient(client *redis.Client, prefix string) cache.Cache {
	return &Client{
		client: client,
		prefix: prefix,
	}
}

func (c *Client) key(key string) string {
	return c.prefix + key
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", cache.ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

// Set ttl <= 0 означает ключ без срока жизни
func (c *Client) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return count > 0, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
