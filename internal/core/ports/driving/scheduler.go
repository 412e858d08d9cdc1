package driving

import (
	"context"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
)

// Scheduler drives periodic sync ticks.
type Scheduler interface {
	// Start begins the tick loop. Returns immediately; the loop runs
	// until Stop is called or the context is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully stops the tick loop, waiting for in-flight work.
	Stop()

	// RunOnce executes a single tick immediately. Used by the manual
	// "check for updates now" command. Returns domain.ErrSyncInProgress
	// when another instance holds the tick lock.
	RunOnce(ctx context.Context) (domain.TickSummary, error)

	// OnTickComplete registers a hook invoked after every tick settles.
	// Must be called before Start.
	OnTickComplete(fn func(domain.TickSummary))
}
