package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
	"github.com/custodia-labs/rowfeed/internal/core/ports/driven"
	"github.com/custodia-labs/rowfeed/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.Registry = (*Registry)(nil)

// Registry is the in-memory index of subscriptions, rebuilt from the
// backing store at startup. The map is a write-through cache: every
// mutation hits the store first and touches memory only when the store
// write succeeded, so the two can never drift apart.
type Registry struct {
	store   driven.SubscriptionStore
	cursors driven.CursorStore
	source  *SourceClient
	logger  *slog.Logger

	mu   sync.RWMutex
	subs map[domain.SubscriptionKey]*domain.Subscription
}

// RegistryConfig holds dependencies for Registry.
type RegistryConfig struct {
	Store   driven.SubscriptionStore
	Cursors driven.CursorStore

	// Source is used to seed cursors to the current remote row counts
	// when a subscription is created. Optional: without it new
	// subscriptions start at cursor 0 and replay historical rows.
	Source *SourceClient

	Logger *slog.Logger
}

// NewRegistry creates a new subscription registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		store:   cfg.Store,
		cursors: cfg.Cursors,
		source:  cfg.Source,
		logger:  logger,
		subs:    make(map[domain.SubscriptionKey]*domain.Subscription),
	}
}

// Load rebuilds the in-memory map from the backing store. Stored entries
// missing required fields are skipped and logged, never fatal; an
// unreadable store is fatal because the process cannot serve without a
// registry.
func (r *Registry) Load(ctx context.Context) error {
	subs, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs = make(map[domain.SubscriptionKey]*domain.Subscription, len(subs))
	skipped := 0
	for _, sub := range subs {
		if err := sub.Validate(); err != nil {
			r.logger.Warn("skipping malformed stored subscription",
				"tenant_id", sub.TenantID,
				"source_id", sub.SourceID,
				"error", err,
			)
			skipped++
			continue
		}
		r.subs[sub.Key()] = sub
	}

	r.logger.Info("registry loaded", "subscriptions", len(r.subs), "skipped", skipped)
	return nil
}

// Add registers a subscription, persisting it before mutating the map.
// Cursors are seeded to the current remote row counts so the first tick
// does not replay every historical row; seeding is best-effort.
func (r *Registry) Add(ctx context.Context, sub *domain.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	stored := sub.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	// The store write happens under the lock so two concurrent Adds of
	// the same key cannot both pass the exists check and upsert over
	// each other.
	r.mu.Lock()
	if _, exists := r.subs[stored.Key()]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: subscription %s/%s", domain.ErrAlreadyExists, stored.TenantID, stored.SourceID)
	}
	if err := r.store.Save(ctx, stored); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("save subscription: %w", err)
	}
	r.subs[stored.Key()] = stored
	r.mu.Unlock()

	r.seedCursors(ctx, stored)

	r.logger.Info("subscription added",
		"tenant_id", stored.TenantID,
		"source_id", stored.SourceID,
		"sink_id", stored.SinkID,
	)
	return nil
}

// Remove unregisters a subscription. The store delete happens first; the
// map entry survives a failed store write so memory stays a faithful
// cache. Cursor cleanup cascades and is best-effort.
func (r *Registry) Remove(ctx context.Context, tenantID, sourceID string) error {
	key := domain.SubscriptionKey{TenantID: tenantID, SourceID: sourceID}

	r.mu.RLock()
	_, exists := r.subs[key]
	r.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: subscription %s/%s", domain.ErrNotFound, tenantID, sourceID)
	}

	if err := r.store.Delete(ctx, tenantID, sourceID); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	r.mu.Lock()
	delete(r.subs, key)
	r.mu.Unlock()

	if err := r.cursors.DeleteSubscription(ctx, tenantID, sourceID); err != nil {
		r.logger.Warn("failed to delete cursors for removed subscription",
			"tenant_id", tenantID,
			"source_id", sourceID,
			"error", err,
		)
	}

	r.logger.Info("subscription removed", "tenant_id", tenantID, "source_id", sourceID)
	return nil
}

// ListAll returns a snapshot of every subscription.
func (r *Registry) ListAll() []*domain.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		out = append(out, sub.Clone())
	}
	return out
}

// ListByTenant returns a snapshot of one tenant's subscriptions.
func (r *Registry) ListByTenant(tenantID string) []*domain.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Subscription
	for key, sub := range r.subs {
		if key.TenantID == tenantID {
			out = append(out, sub.Clone())
		}
	}
	return out
}

// Len returns the number of registered subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// seedCursors marks every current row as already delivered. A failure
// here leaves the cursor at 0, which means the first tick replays
// history; that is logged rather than failing the Add.
func (r *Registry) seedCursors(ctx context.Context, sub *domain.Subscription) {
	if r.source == nil {
		return
	}

	names, err := r.source.ListWorksheets(ctx, sub.SourceID)
	if err != nil {
		r.logger.Warn("cursor seeding skipped, historical rows may replay",
			"tenant_id", sub.TenantID,
			"source_id", sub.SourceID,
			"error", err,
		)
		return
	}

	for _, name := range names {
		data, err := r.source.Fetch(ctx, sub.SourceID, name)
		if err != nil {
			r.logger.Warn("cursor seeding skipped for worksheet",
				"source_id", sub.SourceID,
				"worksheet", name,
				"error", err,
			)
			continue
		}
		key := domain.CursorKey{TenantID: sub.TenantID, SourceID: sub.SourceID, Worksheet: name}
		if err := r.cursors.Set(ctx, key, len(data.Rows)); err != nil {
			r.logger.Warn("failed to seed cursor",
				"source_id", sub.SourceID,
				"worksheet", name,
				"error", err,
			)
		}
	}
}
