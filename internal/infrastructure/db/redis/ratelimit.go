package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is the Redis-backed fixed-window limiter, for deployments
// where multiple gateway instances must share one counter per caller.
// Key format: ratelimit:<key>
type RateLimiter struct {
	client *redis.Client
	window time.Duration
}

// NewRateLimiter wraps the given Redis client with a fixed window.
func NewRateLimiter(client *redis.Client, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{client: client, window: window}
}

// Allow implements ports.RateLimiter. The first INCR in a window sets the
// key's expiry, which is the window boundary for every later request.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int) (bool, int, error) {
	k := r.key(key)

	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit incr: %w", err)
	}
	if n == 1 {
		if err := r.client.Expire(ctx, k, r.window).Err(); err != nil {
			return false, 0, fmt.Errorf("ratelimit expire: %w", err)
		}
	}

	if n > int64(limit) {
		ttl, err := r.client.TTL(ctx, k).Result()
		if err != nil || ttl < 0 {
			ttl = r.window
		}
		return false, int(ttl.Seconds()) + 1, nil
	}

	return true, 0, nil
}

func (r *RateLimiter) key(key string) string {
	return fmt.Sprintf("ratelimit:%s", key)
}
