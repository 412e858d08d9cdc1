package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
	"github.com/custodia-labs/rowfeed/internal/core/ports/driven"
	"github.com/custodia-labs/rowfeed/internal/ratelimit"
)

// RetryPolicy bounds how a transient source failure is retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// Backoff is the delay before a retry. With Exponential set, the
	// delay doubles after every failed attempt.
	Backoff time.Duration

	// Exponential switches from fixed to exponential backoff.
	Exponential bool
}

// DefaultRetryPolicy matches the source defaults: 3 attempts, 5s fixed.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 5 * time.Second}
}

// Delay returns the backoff before retrying after the given 1-based
// attempt number.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if !p.Exponential || attempt <= 1 {
		return p.Backoff
	}
	return p.Backoff << (attempt - 1)
}

// SourceClient fetches worksheet data through the shared rate limiter,
// retrying transient failures with backoff. Permanent failures (source or
// worksheet gone, access revoked) short-circuit the retry loop so the
// caller can evict the subscription immediately.
type SourceClient struct {
	api     driven.SheetAPI
	limiter *ratelimit.Limiter
	retry   RetryPolicy
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// SourceClientConfig holds dependencies for SourceClient.
type SourceClientConfig struct {
	API     driven.SheetAPI
	Limiter *ratelimit.Limiter
	Retry   RetryPolicy
	Logger  *slog.Logger

	// Sleep overrides the backoff wait. Tests inject a fake so retries
	// run without wall-clock delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewSourceClient creates a new source client.
func NewSourceClient(cfg SourceClientConfig) *SourceClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	return &SourceClient{
		api:     cfg.API,
		limiter: cfg.Limiter,
		retry:   retry,
		logger:  logger,
		sleep:   sleep,
	}
}

// ListWorksheets returns the worksheet names of a source.
func (c *SourceClient) ListWorksheets(ctx context.Context, sourceID string) ([]string, error) {
	var names []string
	err := c.withRetry(ctx, "list worksheets", sourceID, func(ctx context.Context) error {
		if err := c.acquire(ctx); err != nil {
			return err
		}
		var err error
		names, err = c.api.ListWorksheets(ctx, sourceID)
		return err
	})
	return names, err
}

// Fetch returns the header row and all data rows of a worksheet. The two
// reads share one rate-limiter token and run concurrently.
func (c *SourceClient) Fetch(ctx context.Context, sourceID, worksheet string) (*domain.SheetData, error) {
	var data *domain.SheetData
	err := c.withRetry(ctx, "fetch worksheet", sourceID, func(ctx context.Context) error {
		if err := c.acquire(ctx); err != nil {
			return err
		}

		var (
			headers []string
			rows    [][]string
			hdrErr  error
			rowsErr error
			wg      sync.WaitGroup
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			headers, hdrErr = c.api.GetHeader(ctx, sourceID, worksheet)
		}()
		go func() {
			defer wg.Done()
			rows, rowsErr = c.api.GetRows(ctx, sourceID, worksheet)
		}()
		wg.Wait()

		if hdrErr != nil {
			return hdrErr
		}
		if rowsErr != nil {
			return rowsErr
		}
		data = &domain.SheetData{Headers: headers, Rows: rows}
		return nil
	})
	return data, err
}

// withRetry runs fn up to MaxAttempts times, backing off between attempts.
// Permanent errors and context cancellation stop the loop immediately.
func (c *SourceClient) withRetry(ctx context.Context, op, sourceID string, fn func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if domain.IsPermanent(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt >= c.retry.MaxAttempts {
			break
		}

		delay := c.retry.Delay(attempt)
		c.logger.Warn("transient source error, retrying",
			"op", op,
			"source_id", sourceID,
			"attempt", attempt,
			"backoff", delay,
			"error", err,
		)
		if serr := c.sleep(ctx, delay); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("%s for source %s: %d attempts exhausted: %w", op, sourceID, c.retry.MaxAttempts, err)
}

func (c *SourceClient) acquire(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Acquire(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
