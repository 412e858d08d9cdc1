package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
	"github.com/custodia-labs/rowfeed/internal/core/ports/driven"
)

// Syncer runs the per-subscription sync flow:
//  1. List worksheets of the source
//  2. For each worksheet, fetch header + all rows
//  3. Diff the row count against the stored cursor
//  4. Deliver the trailing new rows, one message per row
//  5. Advance the cursor only after the whole diff was delivered
//
// Steps within one worksheet are strictly sequential so the cursor
// invariant holds; worksheets of one subscription are processed in the
// source's order.
type Syncer struct {
	source  *SourceClient
	cursors driven.CursorStore
	sink    driven.DeliverySink
	logger  *slog.Logger
}

// SyncerConfig holds dependencies for Syncer.
type SyncerConfig struct {
	Source  *SourceClient
	Cursors driven.CursorStore
	Sink    driven.DeliverySink
	Logger  *slog.Logger
}

// NewSyncer creates a new syncer.
func NewSyncer(cfg SyncerConfig) *Syncer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Syncer{
		source:  cfg.Source,
		cursors: cfg.Cursors,
		sink:    cfg.Sink,
		logger:  logger,
	}
}

// SyncSubscription syncs one subscription and converts every error into a
// recorded outcome; nothing escapes to the scheduler. A permanent source
// error sets Evicted so the scheduler removes the subscription.
func (s *Syncer) SyncSubscription(ctx context.Context, sub *domain.Subscription) *domain.SubscriptionOutcome {
	start := time.Now()
	out := &domain.SubscriptionOutcome{TenantID: sub.TenantID, SourceID: sub.SourceID}
	defer func() { out.Duration = time.Since(start) }()

	names, err := s.source.ListWorksheets(ctx, sub.SourceID)
	if err != nil {
		out.Err = err
		out.Evicted = domain.IsPermanent(err)
		return out
	}

	var errs []error
	for _, name := range names {
		delivered, err := s.syncWorksheet(ctx, sub, name)
		out.RowsDelivered += delivered
		out.Worksheets++
		if err == nil {
			continue
		}
		if domain.IsPermanent(err) {
			out.Err = err
			out.Evicted = true
			return out
		}
		// Transient fetch or delivery failure: the cursor for this
		// worksheet is untouched, the remaining worksheets still run.
		errs = append(errs, fmt.Errorf("worksheet %q: %w", name, err))
	}
	out.Err = errors.Join(errs...)
	return out
}

// syncWorksheet fetches one worksheet, delivers the rows past the cursor
// and advances the cursor on full delivery success. Returns the number of
// rows delivered.
func (s *Syncer) syncWorksheet(ctx context.Context, sub *domain.Subscription, worksheet string) (int, error) {
	data, err := s.source.Fetch(ctx, sub.SourceID, worksheet)
	if err != nil {
		return 0, err
	}

	key := domain.CursorKey{TenantID: sub.TenantID, SourceID: sub.SourceID, Worksheet: worksheet}
	last, err := s.cursors.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("read cursor: %w", err)
	}

	fresh := data.NewRows(last)
	if len(fresh) == 0 {
		return 0, nil
	}

	delivered, err := s.sink.Deliver(ctx, sub.SinkID, data.Headers, fresh, worksheet)
	if err != nil {
		// Cursor stays put: the whole diff is redelivered next tick.
		return delivered, fmt.Errorf("%w: %d of %d rows sent: %v", domain.ErrDelivery, delivered, len(fresh), err)
	}

	if err := s.cursors.Set(ctx, key, len(data.Rows)); err != nil {
		// Delivery succeeded but the new cursor did not persist; the same
		// rows will legitimately be redelivered next tick (at-least-once).
		s.logger.Warn("cursor not persisted, rows will be redelivered",
			"tenant_id", sub.TenantID,
			"source_id", sub.SourceID,
			"worksheet", worksheet,
			"cursor", len(data.Rows),
			"error", err,
		)
		return delivered, nil
	}

	s.logger.Info("rows delivered",
		"tenant_id", sub.TenantID,
		"source_id", sub.SourceID,
		"worksheet", worksheet,
		"rows", delivered,
		"cursor", len(data.Rows),
	)
	return delivered, nil
}
