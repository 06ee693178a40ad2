package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements a fixed-window counter on Redis. It is used to
// throttle credential-bearing endpoints (login, PIN sign-off attempts).
type RateLimiter struct {
	client   *redis.Client
	prefix   string
	limit    int
	interval time.Duration
}

// NewRateLimiter constructs a limiter allowing `limit` hits per interval.
func NewRateLimiter(client *redis.Client, prefix string, limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &RateLimiter{client: client, prefix: prefix, limit: limit, interval: interval}
}

// Allow increments the counter for key and reports whether the caller is
// still within the window. A nil client disables limiting entirely.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}

	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.interval).Err(); err != nil {
			return true, err
		}
	}
	return count <= int64(l.limit), nil
}
