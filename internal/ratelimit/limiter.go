package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is the token bucket shared by every outbound call to the remote
// tabular source. Capacity tokens refill continuously across the window,
// so the aggregate call rate never exceeds capacity per window no matter
// how many subscriptions poll concurrently.
type Limiter struct {
	bucket *rate.Limiter
}

// New creates a limiter granting capacity calls per window, e.g.
// New(50, time.Minute) for 50 calls per 60 seconds.
func New(capacity int, window time.Duration) *Limiter {
	if capacity <= 0 {
		capacity = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	refill := rate.Limit(float64(capacity) / window.Seconds())
	return &Limiter{bucket: rate.NewLimiter(refill, capacity)}
}

// Acquire blocks until one token is available or the context is
// cancelled. Cancellation is the only error.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.bucket.Wait(ctx)
}

// AcquireN blocks until n tokens are available or the context is
// cancelled.
func (l *Limiter) AcquireN(ctx context.Context, n int) error {
	return l.bucket.WaitN(ctx, n)
}
