package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:checkout:"

// RateLimiter is an IP-keyed fixed-window counter shielding the Batcher
// from abusive clients at checkout. State lives in Redis, not in
// process memory, because multi-worker deployments share only the
// ledger, the session store, and the order store (spec §5) — an
// in-process limiter would let each worker grant its own quota to the
// same client.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRateLimiter builds a RateLimiter allowing up to limit requests per
// window, per IP.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow increments the caller's counter for the current window and
// reports whether the request is within budget.
func (r *RateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	key := rateLimitKeyPrefix + ip

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("increment rate counter: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return false, fmt.Errorf("set rate counter expiry: %w", err)
		}
	}

	return count <= r.limit, nil
}
