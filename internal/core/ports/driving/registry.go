package driving

import (
	"context"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
)

// Registry is the subscription API exposed to the setup front-end. The
// front-end only creates and removes subscriptions through this contract;
// cursors are owned by the engine and never touched directly.
type Registry interface {
	// Add registers a subscription and seeds its cursors to the current
	// remote row counts so historical rows are not replayed.
	Add(ctx context.Context, sub *domain.Subscription) error

	// Remove unregisters a subscription and cascades cursor deletion.
	Remove(ctx context.Context, tenantID, sourceID string) error

	// ListAll returns a snapshot of every subscription.
	ListAll() []*domain.Subscription

	// ListByTenant returns a snapshot of one tenant's subscriptions.
	ListByTenant(tenantID string) []*domain.Subscription
}
