package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates scheduler ticks across instances so two
// replicas never poll and deliver the same rows concurrently.
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns true if the lock was acquired, false if another instance
	// holds it. The lock auto-expires after TTL (implementation dependent).
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock. Best-effort; TTL-based
	// implementations auto-expire anyway. Safe to call when not held.
	Release(ctx context.Context, name string) error

	// Extend extends the TTL of a currently held lock. Returns an error
	// if the lock is not held by this instance. Implementations without
	// TTL may treat this as a no-op.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
