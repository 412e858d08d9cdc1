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
var _ driving.Scheduler = (*Scheduler)(nil)

const tickLockName = "sync-tick"

// Scheduler fires periodic sync ticks. Within a tick every subscription
// runs as its own goroutine so one broken tenant never blocks or poisons
// the others; outcomes are joined with wait-for-all semantics and
// subscriptions whose source is permanently gone are evicted from the
// registry.
//
// For multi-instance deployments, configure a DistributedLock so two
// replicas never deliver the same rows.
type Scheduler struct {
	registry *Registry
	syncer   *Syncer
	lock     driven.DistributedLock
	logger   *slog.Logger

	interval   time.Duration
	subTimeout time.Duration
	lockTTL    time.Duration

	// Internal state
	mu      sync.RWMutex
	tickMu  sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	hooks   []func(domain.TickSummary)
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Registry *Registry
	Syncer   *Syncer
	Lock     driven.DistributedLock // Optional: tick coordination across instances
	Logger   *slog.Logger

	// PollInterval is the time between ticks (default: 10s).
	PollInterval time.Duration

	// SubscriptionTimeout bounds one subscription's work inside a tick.
	// An overrunning subscription is abandoned and retried next tick;
	// the other subscriptions keep their own in-flight work (default: 2m).
	SubscriptionTimeout time.Duration

	// LockTTL is the TTL for the distributed tick lock (default: 2x
	// SubscriptionTimeout).
	LockTTL time.Duration
}

// NewScheduler creates a new sync scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.PollInterval
	if interval == 0 {
		interval = 10 * time.Second
	}

	subTimeout := cfg.SubscriptionTimeout
	if subTimeout == 0 {
		subTimeout = 2 * time.Minute
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 2 * subTimeout
	}

	return &Scheduler{
		registry:   cfg.Registry,
		syncer:     cfg.Syncer,
		lock:       cfg.Lock,
		logger:     logger,
		interval:   interval,
		subTimeout: subTimeout,
		lockTTL:    lockTTL,
	}
}

// OnTickComplete registers a hook invoked with the summary once all of a
// tick's tasks settle. Must be called before Start.
func (s *Scheduler) OnTickComplete(fn func(domain.TickSummary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Start begins the tick loop. It runs until Stop is called or the context
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("scheduler starting", "poll_interval", s.interval)

	go s.run(ctx)

	return nil
}

// Stop gracefully stops the scheduler, waiting for an in-flight tick.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// RunOnce executes a single tick immediately, sharing the lock path with
// the periodic loop. Returns domain.ErrSyncInProgress when another
// instance holds the tick lock.
func (s *Scheduler) RunOnce(ctx context.Context) (domain.TickSummary, error) {
	summary, ran, err := s.tick(ctx)
	if err != nil {
		return domain.TickSummary{}, err
	}
	if !ran {
		return domain.TickSummary{}, domain.ErrSyncInProgress
	}
	return summary, nil
}

// run is the main tick loop.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Tick immediately on start
	s.tickLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tickLogged(ctx)
		}
	}
}

func (s *Scheduler) tickLogged(ctx context.Context) {
	if _, _, err := s.tick(ctx); err != nil {
		s.logger.Error("tick failed", "error", err)
	}
}

// tick runs one sync cycle under the distributed lock if one is
// configured. ran is false when another instance holds the lock.
func (s *Scheduler) tick(ctx context.Context) (summary domain.TickSummary, ran bool, err error) {
	// One tick at a time per instance, even when a manual RunOnce races
	// the periodic loop.
	if !s.tickMu.TryLock() {
		return domain.TickSummary{}, false, nil
	}
	defer s.tickMu.Unlock()

	if s.lock != nil {
		acquired, lockErr := s.lock.Acquire(ctx, tickLockName, s.lockTTL)
		if lockErr != nil {
			return domain.TickSummary{}, false, fmt.Errorf("acquire tick lock: %w", lockErr)
		}
		if !acquired {
			s.logger.Debug("tick lock held by another instance, skipping cycle")
			return domain.TickSummary{}, false, nil
		}
		defer func() {
			if relErr := s.lock.Release(ctx, tickLockName); relErr != nil {
				s.logger.Warn("failed to release tick lock", "error", relErr)
			}
		}()
	}

	summary = s.runTick(ctx)

	s.mu.RLock()
	hooks := s.hooks
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(summary)
	}

	return summary, true, nil
}

// runTick fans the registry snapshot out to one goroutine per
// subscription, joins all outcomes and evicts permanently broken
// subscriptions.
func (s *Scheduler) runTick(ctx context.Context) domain.TickSummary {
	start := time.Now()
	subs := s.registry.ListAll()

	summary := domain.TickSummary{
		StartedAt:     start,
		Subscriptions: len(subs),
	}
	if len(subs) == 0 {
		summary.Duration = time.Since(start)
		return summary
	}

	outcomes := make(chan *domain.SubscriptionOutcome, len(subs))
	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *domain.Subscription) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes <- &domain.SubscriptionOutcome{
						TenantID: sub.TenantID,
						SourceID: sub.SourceID,
						Err:      fmt.Errorf("sync panic: %v", r),
					}
				}
			}()

			subCtx, cancel := context.WithTimeout(ctx, s.subTimeout)
			defer cancel()
			outcomes <- s.syncer.SyncSubscription(subCtx, sub)
		}(sub)
	}
	wg.Wait()
	close(outcomes)

	for out := range outcomes {
		summary.RowsDelivered += out.RowsDelivered
		summary.Outcomes = append(summary.Outcomes, *out)

		switch {
		case out.Evicted:
			summary.Evicted++
			s.logger.Info("evicting subscription, source permanently unreachable",
				"tenant_id", out.TenantID,
				"source_id", out.SourceID,
				"error", out.Err,
			)
			if err := s.registry.Remove(ctx, out.TenantID, out.SourceID); err != nil {
				s.logger.Error("failed to evict subscription",
					"tenant_id", out.TenantID,
					"source_id", out.SourceID,
					"error", err,
				)
			}
		case out.Failed():
			summary.Failures++
			s.logger.Warn("subscription sync failed, will retry next tick",
				"tenant_id", out.TenantID,
				"source_id", out.SourceID,
				"error", out.Err,
			)
		}
	}

	summary.Duration = time.Since(start)
	s.logger.Info("sync tick complete",
		"subscriptions", summary.Subscriptions,
		"rows_delivered", summary.RowsDelivered,
		"evicted", summary.Evicted,
		"failures", summary.Failures,
		"duration", summary.Duration,
	)
	return summary
}
