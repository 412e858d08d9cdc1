package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_BurstWithinBudget(t *testing.T) {
	limiter := New(3, time.Minute)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Acquire(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("acquiring within the budget should not block, took %v", elapsed)
	}
}

func TestLimiter_BlocksPastBudget(t *testing.T) {
	// 2 tokens per 100ms: a third acquire must wait for refill.
	limiter := New(2, 100*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Acquire(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("third acquire should have waited for refill, took %v", elapsed)
	}
}

func TestLimiter_SharedAcrossGoroutines(t *testing.T) {
	// 5 callers against a 2-per-100ms budget: the whole batch cannot
	// finish faster than the refill allows.
	limiter := New(2, 100*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			if err := limiter.Acquire(ctx); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}

	// 2 immediate + 3 refills at 50ms each.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("5 acquires against a 2/100ms budget finished too fast: %v", elapsed)
	}
}

func TestLimiter_AcquireCancelled(t *testing.T) {
	limiter := New(1, time.Hour)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := limiter.Acquire(cancelCtx); err == nil {
		t.Error("expected cancellation error when no token can arrive in time")
	}
}

func TestNew_ZeroConfigStillServes(t *testing.T) {
	limiter := New(0, 0)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
