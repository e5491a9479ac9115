// Package ratelimit provides a keyed token-bucket rate limiter. Each key
// (a client IP for the auth endpoints) gets its own limiter; idle keys are
// evicted periodically so the map does not grow without bound.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// entry pairs a limiter with the last time it was used.
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting.
type KeyedRateLimiter struct {
	mu      sync.RWMutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a keyed rate limiter allowing rps requests per second per key
// with the given burst. Keys unused for idleTTL are evicted.
func New(rps float64, burst int, idleTTL time.Duration) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	go krl.cleanupLoop()

	return krl
}

// Allow reports whether a request for key may proceed now. Never blocks.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).Allow()
}

// Wait blocks until a request for key is allowed or ctx is done.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.getLimiter(key).Wait(ctx)
}

// getLimiter returns the limiter for a key, creating one if needed.
func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	now := krl.now()

	// Fast path: read lock. lastSeen is refreshed under the write lock only
	// when it is stale enough to matter for eviction.
	krl.mu.RLock()
	e, exists := krl.entries[key]
	fresh := exists && now.Sub(e.lastSeen) < time.Second
	krl.mu.RUnlock()

	if fresh {
		return e.limiter
	}

	krl.mu.Lock()
	defer krl.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, exists = krl.entries[key]; exists {
		e.lastSeen = now
		return e.limiter
	}

	e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst), lastSeen: now}
	krl.entries[key] = e
	return e.limiter
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.RLock()
	defer krl.mu.RUnlock()
	return len(krl.entries)
}

// evictIdle removes keys not seen within idleTTL.
func (krl *KeyedRateLimiter) evictIdle() {
	cutoff := krl.now().Add(-krl.idleTTL)

	krl.mu.Lock()
	defer krl.mu.Unlock()
	for key, e := range krl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(krl.entries, key)
		}
	}
}

// Stop shuts down the cleanup goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) cleanupLoop() {
	interval := krl.idleTTL
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.evictIdle()
		}
	}
}
