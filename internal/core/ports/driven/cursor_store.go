package driven

import (
	"context"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
)

// CursorStore persists, per (tenant, source, worksheet) key, the count of
// rows already delivered. Callers enforce monotonicity; Set overwrites
// unconditionally.
type CursorStore interface {
	// Get retrieves the cursor for a key. Returns 0 when absent.
	Get(ctx context.Context, key domain.CursorKey) (int, error)

	// Set upserts the cursor for a key. Idempotent.
	Set(ctx context.Context, key domain.CursorKey, index int) error

	// DeleteSubscription removes every worksheet cursor under a
	// subscription. Called when the subscription is removed.
	DeleteSubscription(ctx context.Context, tenantID, sourceID string) error
}
