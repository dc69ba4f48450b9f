// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beaconapp/beacon/internal/platform/constants"
)

// RedisLimiter implements [AttemptLimiter] on Redis INCR counters.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter creates a Redis-backed fixed-window limiter.
//
// # Parameters
//   - client: Connected Redis client.
//   - limit: Maximum attempts per key per window.
//   - window: Fixed window duration.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

/*
Allow records one attempt for the key and checks it against the cap.

Description: INCR is atomic per key, so concurrent attempts from the same
client are counted exactly. The window TTL is attached on the first attempt
only, giving fixed-window (not sliding) semantics.

Parameters:
  - ctx: context.Context
  - key: Client identity (IP address)

Returns:
  - Verdict: Allowed flag and remaining budget
  - error: Redis connectivity failures
*/
func (limiter *RedisLimiter) Allow(ctx context.Context, key string) (Verdict, error) {
	redisKey := constants.RedisPrefixLoginAttempts + key

	count, err := limiter.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Verdict{}, fmt.Errorf("ratelimit_redis_incr_failed: %w", err)
	}

	// First attempt in a fresh window: arm the expiry.
	if count == 1 {
		if err := limiter.client.Expire(ctx, redisKey, limiter.window).Err(); err != nil {
			return Verdict{}, fmt.Errorf("ratelimit_redis_expire_failed: %w", err)
		}
	}

	remaining := limiter.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Verdict{
		Allowed:   count <= int64(limiter.limit),
		Remaining: remaining,
	}, nil
}
