package driven

import "context"

// DeliverySink sends a batch of freshly appended rows to a notification
// channel, one message per row so sinks with message-size limits never
// have to split a batch.
//
// A failure on one row must not stop the remaining rows from being
// attempted, but any failure makes the returned error non-nil so the
// caller leaves the cursor untouched and the rows are redelivered next
// tick (at-least-once).
type DeliverySink interface {
	// Deliver sends rows to the sink identified by sinkID, labelling each
	// field with the matching header. Returns how many rows were actually
	// delivered and a non-nil error if any row failed.
	Deliver(ctx context.Context, sinkID string, headers []string, rows [][]string, worksheet string) (delivered int, err error)
}
