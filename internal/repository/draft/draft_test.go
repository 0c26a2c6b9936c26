package draftRepo

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/storage/inmemory"
	redisCache "github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/storage/redis"
	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_RoundTripRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	store := New(redisCache.NewClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ""), time.Hour, testLogger())
	ctx := context.Background()

	draft, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, draft.IsComplete())

	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	tr, hours, addr := "14:00 - 18:00", 4, "Lenina 1"
	draft.Date, draft.TimeRange, draft.DurationHours, draft.Address = &date, &tr, &hours, &addr
	require.NoError(t, store.Save(ctx, 42, draft))

	assert.True(t, mr.Exists("draft:order:42"))

	loaded, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.True(t, loaded.IsComplete())
	assert.Equal(t, 4, *loaded.DurationHours)
	assert.True(t, date.Equal(*loaded.Date))

	require.NoError(t, store.Delete(ctx, 42))
	loaded, err = store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, &domain.OrderDraft{}, loaded)
}

func TestStore_ExpiresWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	store := New(redisCache.NewClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ""), time.Minute, testLogger())
	ctx := context.Background()

	addr := "Mira 5"
	require.NoError(t, store.Save(ctx, 7, &domain.OrderDraft{Address: &addr}))
	mr.FastForward(2 * time.Minute)

	loaded, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, loaded.Address)
}

func TestStore_CorruptDraftDiscarded(t *testing.T) {
	c := inmemory.NewCache()
	store := New(c, 0, testLogger())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "draft:order:9", "{not json", 0))

	loaded, err := store.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, &domain.OrderDraft{}, loaded)

	exists, err := c.Exists(ctx, "draft:order:9")
	require.NoError(t, err)
	assert.False(t, exists)
}
