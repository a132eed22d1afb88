package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T, cfg Config) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisLimiter(rdb, cfg), mr
}

func TestRedisLimiter_WindowAndReset(t *testing.T) {
	l, mr := newRedisLimiter(t, DefaultConfig)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		ok, err := l.TryAdmit(ctx, "192.0.2.1")
		require.NoError(t, err)
		require.True(t, ok, "request %d", i)
	}

	ok, err := l.TryAdmit(ctx, "192.0.2.1")
	require.NoError(t, err)
	assert.False(t, ok)

	ttl := mr.TTL("rl:192.0.2.1")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %s", ttl)

	mr.FastForward(time.Minute + time.Second)

	ok, err = l.TryAdmit(ctx, "192.0.2.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	l, mr := newRedisLimiter(t, DefaultConfig)
	mr.Close()

	_, err := l.TryAdmit(context.Background(), "192.0.2.9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRedisUnavailable))
}
