package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, calls: 5, wantPass: 2},
		{name: "single token", rps: 0.2, burst: 1, calls: 4, wantPass: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst, time.Minute)
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("203.0.113.7") {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := New(0.1, 1, time.Minute)
	defer rl.Stop()

	if !rl.Allow("a") {
		t.Fatal("first request for a should pass")
	}
	if rl.Allow("a") {
		t.Fatal("second request for a should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("b has its own bucket")
	}
}

func TestKeyedRateLimiter_ConcurrentAllowSharesBucket(t *testing.T) {
	rl := New(0.001, 5, time.Minute)
	defer rl.Stop()

	var passed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("shared") {
				passed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := passed.Load(); got != 5 {
		t.Errorf("expected exactly burst (5) passes, got %d", got)
	}
	if rl.Len() != 1 {
		t.Errorf("expected one tracked key, got %d", rl.Len())
	}
}

func TestKeyedRateLimiter_EvictIdle(t *testing.T) {
	rl := New(1, 1, time.Minute)
	defer rl.Stop()

	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return current }

	rl.Allow("old")
	current = current.Add(2 * time.Minute)
	rl.Allow("fresh")

	rl.evictIdle()

	if rl.Len() != 1 {
		t.Fatalf("expected only the fresh key to survive, got %d keys", rl.Len())
	}
}

func TestKeyedRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := New(0.01, 1, time.Minute)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx, "k"); err != nil {
		t.Fatalf("first Wait() should succeed: %v", err)
	}
	if err := rl.Wait(ctx, "k"); err == nil {
		t.Fatal("second Wait() should fail before the next token")
	}
}
