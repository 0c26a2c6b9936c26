package redis

import (
	"context"
	"testing"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/ports/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewClient(rdb, "nanny:"), mr
}

func TestClient_SetGetDelete(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "draft:order:1", `{"address":"Lenina 1"}`, time.Hour))

	val, err := c.Get(ctx, "draft:order:1")
	require.NoError(t, err)
	assert.Equal(t, `{"address":"Lenina 1"}`, val)

	exists, err := c.Exists(ctx, "draft:order:1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "draft:order:1"))

	_, err = c.Get(ctx, "draft:order:1")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestClient_TTLExpires(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestClient_KeysArePrefixed(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "draft:order:7", "{}", 0))

	assert.True(t, mr.Exists("nanny:draft:order:7"))
	assert.False(t, mr.Exists("draft:order:7"))
}
