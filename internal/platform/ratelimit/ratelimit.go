// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

/*
Package ratelimit implements fixed-window attempt counting keyed by client
identity.

It backs the login endpoint's brute-force protection: a hard cap on attempts
per client IP inside a long fixed window, independent from the coarse
per-IP token bucket applied to all routes.

Implementations:

  - RedisLimiter: atomic INCR counters with a window TTL. Survives restarts
    and is shared across replicas. The production choice.
  - MemoryLimiter: mutex-guarded counters with a background sweep. Used in
    development and tests.

Counting is strict: increments are atomic per key, and the window expires on
wall-clock time only. A counter never resets early.
*/
package ratelimit

import "context"

// Verdict is the outcome of recording one attempt.
type Verdict struct {
	// Allowed reports whether the attempt is within the window cap.
	Allowed bool
	// Remaining is the number of attempts left in the current window.
	Remaining int
}

// AttemptLimiter records attempts per key within a fixed window.
type AttemptLimiter interface {
	// Allow records an attempt for key and reports whether it stays within
	// the cap. The attempt is counted even when rejected, so hammering the
	// endpoint never shortens the wait.
	Allow(ctx context.Context, key string) (Verdict, error)
}
