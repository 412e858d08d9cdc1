package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
	"github.com/custodia-labs/rowfeed/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CursorStore = (*CursorStore)(nil)

// CursorStore implements driven.CursorStore using PostgreSQL
type CursorStore struct {
	db *DB
}

// NewCursorStore creates a new CursorStore
func NewCursorStore(db *DB) *CursorStore {
	return &CursorStore{db: db}
}

// Get retrieves the cursor for a key. Returns 0 when absent.
func (s *CursorStore) Get(ctx context.Context, key domain.CursorKey) (int, error) {
	query := `
		SELECT last_row_index
		FROM cursors
		WHERE tenant_id = $1 AND source_id = $2 AND worksheet = $3
	`

	var index int
	err := s.db.QueryRowContext(ctx, query, key.TenantID, key.SourceID, key.Worksheet).Scan(&index)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return index, nil
}

// Set upserts the cursor for a key
func (s *CursorStore) Set(ctx context.Context, key domain.CursorKey, index int) error {
	query := `
		INSERT INTO cursors (tenant_id, source_id, worksheet, last_row_index, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (tenant_id, source_id, worksheet) DO UPDATE SET
			last_row_index = EXCLUDED.last_row_index,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, key.TenantID, key.SourceID, key.Worksheet, index)
	return err
}

// DeleteSubscription removes every worksheet cursor under a subscription
func (s *CursorStore) DeleteSubscription(ctx context.Context, tenantID, sourceID string) error {
	query := `DELETE FROM cursors WHERE tenant_id = $1 AND source_id = $2`
	_, err := s.db.ExecContext(ctx, query, tenantID, sourceID)
	return err
}
