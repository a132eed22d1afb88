package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps failures talking to the counter store.
var ErrRedisUnavailable = errors.New("redis unavailable")

// incrWithTTL increments the counter and starts the window TTL on the
// first hit, in one round trip so a crash cannot leave a key without expiry.
var incrWithTTL = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// RedisLimiter keeps windows in Redis so every instance shares them.
type RedisLimiter struct {
	redis  redis.UniversalClient
	config Config
	prefix string
}

// NewRedisLimiter creates a rate limiter backed by the given Redis client.
func NewRedisLimiter(redisClient redis.UniversalClient, cfg Config) *RedisLimiter {
	return &RedisLimiter{
		redis:  redisClient,
		config: cfg,
		prefix: "rl:",
	}
}

// TryAdmit implements Limiter.
func (l *RedisLimiter) TryAdmit(ctx context.Context, key string) (bool, error) {
	count, err := incrWithTTL.Run(ctx, l.redis, []string{l.prefix + key}, l.config.Window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count <= int64(l.config.MaxRequests), nil
}
