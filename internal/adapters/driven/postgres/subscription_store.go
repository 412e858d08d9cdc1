package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
	"github.com/custodia-labs/rowfeed/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SubscriptionStore = (*SubscriptionStore)(nil)

// SubscriptionStore implements driven.SubscriptionStore using PostgreSQL
type SubscriptionStore struct {
	db *DB
}

// NewSubscriptionStore creates a new SubscriptionStore
func NewSubscriptionStore(db *DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// Save creates or updates a subscription
func (s *SubscriptionStore) Save(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (tenant_id, source_id, sink_id, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, source_id) DO UPDATE SET
			sink_id = EXCLUDED.sink_id,
			display_name = EXCLUDED.display_name
	`

	_, err := s.db.ExecContext(ctx, query,
		sub.TenantID,
		sub.SourceID,
		sub.SinkID,
		sub.DisplayName,
		sub.CreatedAt,
	)
	return err
}

// Get retrieves a subscription by key
func (s *SubscriptionStore) Get(ctx context.Context, tenantID, sourceID string) (*domain.Subscription, error) {
	query := `
		SELECT tenant_id, source_id, sink_id, display_name, created_at
		FROM subscriptions
		WHERE tenant_id = $1 AND source_id = $2
	`

	var sub domain.Subscription
	err := s.db.QueryRowContext(ctx, query, tenantID, sourceID).Scan(
		&sub.TenantID,
		&sub.SourceID,
		&sub.SinkID,
		&sub.DisplayName,
		&sub.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

// List retrieves all subscriptions across all tenants
func (s *SubscriptionStore) List(ctx context.Context) ([]*domain.Subscription, error) {
	query := `
		SELECT tenant_id, source_id, sink_id, display_name, created_at
		FROM subscriptions
		ORDER BY tenant_id, source_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		err := rows.Scan(
			&sub.TenantID,
			&sub.SourceID,
			&sub.SinkID,
			&sub.DisplayName,
			&sub.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subs, nil
}

// Delete removes a subscription
func (s *SubscriptionStore) Delete(ctx context.Context, tenantID, sourceID string) error {
	query := `DELETE FROM subscriptions WHERE tenant_id = $1 AND source_id = $2`
	_, err := s.db.ExecContext(ctx, query, tenantID, sourceID)
	return err
}
