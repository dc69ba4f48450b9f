// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// windowCounter tracks one client's attempts inside the current window.
type windowCounter struct {
	count       int
	windowStart time.Time
}

// MemoryLimiter implements [AttemptLimiter] with in-process counters.
//
// # Scope
//
// Counters are local to the process, so this implementation is only correct
// for single-replica deployments. Production uses [RedisLimiter].
type MemoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*windowCounter
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter creates an in-memory fixed-window limiter and starts a
// background sweep that drops counters whose window has long expired.
// The sweep stops when ctx is cancelled.
func NewMemoryLimiter(ctx context.Context, limit int, window time.Duration) *MemoryLimiter {
	limiter := &MemoryLimiter{
		clients: make(map[string]*windowCounter),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}

	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				limiter.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()

	return limiter
}

// Allow records one attempt for the key and checks it against the cap.
//
// Window expiry is wall-clock based: once windowStart is more than one
// window in the past, the counter resets and the attempt starts a new window.
func (limiter *MemoryLimiter) Allow(_ context.Context, key string) (Verdict, error) {
	currentTime := limiter.now()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	counter, found := limiter.clients[key]
	if !found || currentTime.Sub(counter.windowStart) >= limiter.window {
		counter = &windowCounter{windowStart: currentTime}
		limiter.clients[key] = counter
	}

	counter.count++

	remaining := limiter.limit - counter.count
	if remaining < 0 {
		remaining = 0
	}

	return Verdict{
		Allowed:   counter.count <= limiter.limit,
		Remaining: remaining,
	}, nil
}

// sweep removes counters whose window expired, bounding memory growth.
func (limiter *MemoryLimiter) sweep() {
	currentTime := limiter.now()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	for key, counter := range limiter.clients {
		if currentTime.Sub(counter.windowStart) >= limiter.window {
			delete(limiter.clients, key)
		}
	}
}
