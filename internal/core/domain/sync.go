package domain

import "time"

// SubscriptionOutcome records what happened to one subscription during a
// tick. Every per-subscription error is captured here instead of escaping
// to the scheduler.
type SubscriptionOutcome struct {
	TenantID      string        `json:"tenant_id"`
	SourceID      string        `json:"source_id"`
	Worksheets    int           `json:"worksheets"`
	RowsDelivered int           `json:"rows_delivered"`
	Evicted       bool          `json:"evicted"`
	Err           error         `json:"-"`
	Duration      time.Duration `json:"duration"`
}

// Failed reports whether the subscription completed with an error.
func (o *SubscriptionOutcome) Failed() bool {
	return o.Err != nil
}

// TickSummary aggregates the outcomes of one scheduler tick. It is passed
// to completion hooks for observability.
type TickSummary struct {
	StartedAt     time.Time             `json:"started_at"`
	Duration      time.Duration         `json:"duration"`
	Subscriptions int                   `json:"subscriptions"`
	RowsDelivered int                   `json:"rows_delivered"`
	Evicted       int                   `json:"evicted"`
	Failures      int                   `json:"failures"`
	Outcomes      []SubscriptionOutcome `json:"outcomes,omitempty"`
}
