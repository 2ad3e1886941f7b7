package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otphub/internal/otp/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client, instrument.NewNoop()), mr
}

func TestCache_Mirror(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "a@x.com", "login")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	entry := entity.CacheEntry{ID: "id-1", Hash: "hash", Attempts: 1}
	require.NoError(t, c.Put(ctx, "a@x.com", "login", entry, 5*time.Minute))

	assert.True(t, mr.Exists("otp:active:a@x.com:login"))
	assert.Equal(t, 5*time.Minute, mr.TTL("otp:active:a@x.com:login"))

	got, err := c.Get(ctx, "a@x.com", "login")
	require.NoError(t, err)
	assert.Equal(t, entry, *got)

	mr.FastForward(5 * time.Minute)
	_, err = c.Get(ctx, "a@x.com", "login")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	require.NoError(t, c.Put(ctx, "a@x.com", "login", entry, time.Minute))
	require.NoError(t, c.Invalidate(ctx, "a@x.com", "login"))
	assert.False(t, mr.Exists("otp:active:a@x.com:login"))
}

func TestCache_Get_Corrupted(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, mr.Set("otp:active:a@x.com:login", "not-json"))

	_, err := c.Get(context.Background(), "a@x.com", "login")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, goerror.ErrNotFound)
}

func TestCache_CheckAndConsume(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	window := 15 * time.Minute

	for i := range 5 {
		allowed, retryAfter, err := c.CheckAndConsume(ctx, "a@x.com", window, 5)
		require.NoError(t, err, "request %d", i+1)
		assert.True(t, allowed, "request %d", i+1)
		assert.Zero(t, retryAfter)
	}
	assert.Equal(t, window, mr.TTL("otp:ratelimit:a@x.com"))

	mr.FastForward(10 * time.Minute)

	allowed, retryAfter, err := c.CheckAndConsume(ctx, "a@x.com", window, 5)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 5*time.Minute, retryAfter)

	mr.FastForward(5 * time.Minute)

	allowed, _, err = c.CheckAndConsume(ctx, "a@x.com", window, 5)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = c.CheckAndConsume(ctx, "b@x.com", window, 5)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCache_CheckAndConsume_RepairsImmortalCounter(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, mr.Set("otp:ratelimit:a@x.com", "9"))

	allowed, retryAfter, err := c.CheckAndConsume(context.Background(), "a@x.com", time.Minute, 5)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retryAfter)
	assert.Equal(t, time.Minute, mr.TTL("otp:ratelimit:a@x.com"))
}

func TestCache_Unreachable(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, _, err := c.CheckAndConsume(context.Background(), "a@x.com", time.Minute, 5)
	assert.Error(t, err)

	_, err = c.Get(context.Background(), "a@x.com", "login")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, goerror.ErrNotFound)
}
