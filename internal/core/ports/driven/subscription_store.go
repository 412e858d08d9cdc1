package driven

import (
	"context"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
)

// SubscriptionStore handles subscription persistence (PostgreSQL).
// The in-memory registry is a cache of this store, never a second source
// of truth: registry mutations go through the store first.
type SubscriptionStore interface {
	// Save creates or updates a subscription
	Save(ctx context.Context, sub *domain.Subscription) error

	// Get retrieves a subscription by key
	Get(ctx context.Context, tenantID, sourceID string) (*domain.Subscription, error)

	// List retrieves all subscriptions across all tenants
	List(ctx context.Context) ([]*domain.Subscription, error)

	// Delete removes a subscription
	Delete(ctx context.Context, tenantID, sourceID string) error
}
