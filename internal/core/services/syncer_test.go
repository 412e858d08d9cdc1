package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
	"github.com/custodia-labs/rowfeed/internal/core/ports/driven/mocks"
)

func newTestSyncer(t *testing.T) (*Syncer, *mocks.MockSheetAPI, *mocks.MockCursorStore, *mocks.MockDeliverySink) {
	t.Helper()

	api := mocks.NewMockSheetAPI()
	cursors := mocks.NewMockCursorStore()
	sink := mocks.NewMockDeliverySink()

	source := NewSourceClient(SourceClientConfig{
		API:    api,
		Logger: discardLogger(),
		Sleep:  func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
	})

	syncer := NewSyncer(SyncerConfig{
		Source:  source,
		Cursors: cursors,
		Sink:    sink,
		Logger:  discardLogger(),
	})
	return syncer, api, cursors, sink
}

var testSub = &domain.Subscription{TenantID: "G1", SourceID: "S1", SinkID: "CH1"}

func TestSyncer_DeliversNewRowsAndAdvancesCursor(t *testing.T) {
	syncer, api, cursors, sink := newTestSyncer(t)

	// Cursor at 3, remote now has 5 data rows: rows 4-5 are new.
	api.Put("S1", "Sheet1", []string{"Name"}, [][]string{{"r1"}, {"r2"}, {"r3"}, {"r4"}, {"r5"}})
	key := domain.CursorKey{TenantID: "G1", SourceID: "S1", Worksheet: "Sheet1"}
	cursors.Seed(key, 3)

	out := syncer.SyncSubscription(context.Background(), testSub)

	require.NoError(t, out.Err)
	assert.False(t, out.Evicted)
	assert.Equal(t, 2, out.RowsDelivered)

	deliveries := sink.Deliveries()
	require.Len(t, deliveries, 2)
	assert.Equal(t, "CH1", deliveries[0].SinkID)
	assert.Equal(t, []string{"r4"}, deliveries[0].Row)
	assert.Equal(t, []string{"r5"}, deliveries[1].Row)
	assert.Equal(t, 5, cursors.Cursor(key))
}

func TestSyncer_NoOpTickIsIdempotent(t *testing.T) {
	syncer, api, cursors, sink := newTestSyncer(t)

	api.Put("S1", "Sheet1", []string{"Name"}, [][]string{{"r1"}, {"r2"}})
	key := domain.CursorKey{TenantID: "G1", SourceID: "S1", Worksheet: "Sheet1"}

	out := syncer.SyncSubscription(context.Background(), testSub)
	require.NoError(t, out.Err)
	assert.Equal(t, 2, out.RowsDelivered)
	assert.Equal(t, 2, cursors.Cursor(key))

	// Second pass with no remote change: zero deliveries, cursor stays.
	sink.Reset()
	out = syncer.SyncSubscription(context.Background(), testSub)
	require.NoError(t, out.Err)
	assert.Equal(t, 0, out.RowsDelivered)
	assert.Empty(t, sink.Deliveries())
	assert.Equal(t, 2, cursors.Cursor(key))
}

func TestSyncer_CursorMonotonicWhenRemoteShrinks(t *testing.T) {
	syncer, api, cursors, sink := newTestSyncer(t)

	api.Put("S1", "Sheet1", []string{"Name"}, [][]string{{"r1"}})
	key := domain.CursorKey{TenantID: "G1", SourceID: "S1", Worksheet: "Sheet1"}
	cursors.Seed(key, 4)

	out := syncer.SyncSubscription(context.Background(), testSub)

	require.NoError(t, out.Err)
	assert.Empty(t, sink.Deliveries())
	assert.Equal(t, 4, cursors.Cursor(key), "cursor must never decrease")
}

func TestSyncer_DeliveryFailureLeavesCursor(t *testing.T) {
	syncer, api, cursors, sink := newTestSyncer(t)

	api.Put("S1", "Sheet1", []string{"Name"}, [][]string{{"r1"}, {"bad"}, {"r3"}})
	sink.FailRows = map[string]bool{"bad": true}
	key := domain.CursorKey{TenantID: "G1", SourceID: "S1", Worksheet: "Sheet1"}

	out := syncer.SyncSubscription(context.Background(), testSub)

	require.Error(t, out.Err)
	assert.ErrorIs(t, out.Err, domain.ErrDelivery)
	assert.False(t, out.Evicted, "delivery trouble never evicts")
	assert.Equal(t, 0, cursors.Cursor(key), "cursor untouched on partial delivery")

	// The remaining rows were still attempted.
	require.Len(t, sink.Deliveries(), 2)

	// Next cycle redelivers the whole diff: at-least-once, not at-most-once.
	sink.FailRows = nil
	sink.Reset()
	out = syncer.SyncSubscription(context.Background(), testSub)
	require.NoError(t, out.Err)
	assert.Equal(t, 3, out.RowsDelivered)
	assert.Equal(t, 3, cursors.Cursor(key))
}

func TestSyncer_CursorWriteFailureRedelivers(t *testing.T) {
	syncer, api, cursors, sink := newTestSyncer(t)

	api.Put("S1", "Sheet1", []string{"Name"}, [][]string{{"r1"}})
	cursors.SetErr = assert.AnError

	out := syncer.SyncSubscription(context.Background(), testSub)

	// Persistence trouble after successful delivery is not an error for
	// this cycle; the rows simply redeliver next tick.
	require.NoError(t, out.Err)
	assert.Equal(t, 1, out.RowsDelivered)

	cursors.SetErr = nil
	sink.Reset()
	out = syncer.SyncSubscription(context.Background(), testSub)
	require.NoError(t, out.Err)
	assert.Equal(t, 1, out.RowsDelivered, "same row redelivered after lost cursor write")
}

func TestSyncer_PermanentErrorMarksEviction(t *testing.T) {
	syncer, _, _, sink := newTestSyncer(t)

	// Source does not exist at all.
	out := syncer.SyncSubscription(context.Background(), testSub)

	require.Error(t, out.Err)
	assert.ErrorIs(t, out.Err, domain.ErrSourceNotFound)
	assert.True(t, out.Evicted)
	assert.Empty(t, sink.Deliveries())
}

func TestSyncer_TransientFetchRetainsSubscription(t *testing.T) {
	syncer, api, cursors, _ := newTestSyncer(t)

	api.Put("S1", "Sheet1", []string{"Name"}, [][]string{{"r1"}})
	api.FetchErr = domain.ErrUnavailable
	key := domain.CursorKey{TenantID: "G1", SourceID: "S1", Worksheet: "Sheet1"}

	out := syncer.SyncSubscription(context.Background(), testSub)

	require.Error(t, out.Err)
	assert.False(t, out.Evicted, "transient trouble must not evict")
	assert.Equal(t, 0, cursors.Cursor(key))
}

func TestSyncer_MultipleWorksheets(t *testing.T) {
	syncer, api, cursors, sink := newTestSyncer(t)

	api.Put("S1", "Sheet1", []string{"A"}, [][]string{{"a1"}})
	api.Put("S1", "Sheet2", []string{"B"}, [][]string{{"b1"}, {"b2"}})

	out := syncer.SyncSubscription(context.Background(), testSub)

	require.NoError(t, out.Err)
	assert.Equal(t, 2, out.Worksheets)
	assert.Equal(t, 3, out.RowsDelivered)
	assert.Equal(t, 1, cursors.Cursor(domain.CursorKey{TenantID: "G1", SourceID: "S1", Worksheet: "Sheet1"}))
	assert.Equal(t, 2, cursors.Cursor(domain.CursorKey{TenantID: "G1", SourceID: "S1", Worksheet: "Sheet2"}))
	assert.Len(t, sink.Deliveries(), 3)
}
