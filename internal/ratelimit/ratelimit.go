// Package ratelimit throttles writes with fixed-window counters kept in Redis,
// so every API instance shares the same budget per user.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rl:"

// Limiter counts requests per key. A Limiter without a Redis client allows
// everything.
type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// New creates a limiter allowing limit requests per key and window
func New(client *redis.Client, limit int64, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window}
}

// Enabled reports whether requests are actually counted
func (l *Limiter) Enabled() bool {
	return l != nil && l.client != nil
}

// Allow counts one request for key and reports whether it fits in the
// current window, along with the count so far
func (l *Limiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	if !l.Enabled() {
		return true, 0, nil
	}

	k := keyPrefix + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	n := incr.Val()
	return n <= l.limit, n, nil
}

// Limit is the number of requests allowed per window
func (l *Limiter) Limit() int64 {
	return l.limit
}

// Window is the length of one counting window
func (l *Limiter) Window() time.Duration {
	return l.window
}
