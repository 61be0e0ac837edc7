// Package ratelimit throttles redemption attempts per user with a
// fixed redis window, slowing down brute-force guessing of card codes.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter allows at most limit events per key per window. A nil
// Limiter or a nil client allows everything, so redis stays optional.
type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// New constructs a Limiter. client may be nil to disable limiting.
func New(client *redis.Client, limit int64, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window}
}

// Allow records one event for key and reports whether it is within the
// window's budget. Redis failures fail open: billing must not depend
// on the cache being up.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil || l.limit <= 0 {
		return true
	}

	count, errIncr := l.client.Incr(ctx, key).Result()
	if errIncr != nil {
		return true
	}
	if count == 1 {
		_ = l.client.Expire(ctx, key, l.window).Err()
	}
	return count <= l.limit
}
