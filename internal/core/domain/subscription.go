package domain

import (
	"fmt"
	"time"
)

// Subscription binds one tenant's interest in a remote tabular source to a
// delivery sink. Subscriptions are unique by (TenantID, SourceID).
type Subscription struct {
	TenantID    string    `json:"tenant_id"`
	SourceID    string    `json:"source_id"`
	SinkID      string    `json:"sink_id"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubscriptionKey identifies a subscription in the registry.
type SubscriptionKey struct {
	TenantID string
	SourceID string
}

// Key returns the registry key for this subscription.
func (s *Subscription) Key() SubscriptionKey {
	return SubscriptionKey{TenantID: s.TenantID, SourceID: s.SourceID}
}

// Validate checks that the subscription carries every required field.
// DisplayName is informational and may be empty.
func (s *Subscription) Validate() error {
	if s.TenantID == "" {
		return fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	if s.SourceID == "" {
		return fmt.Errorf("%w: source id is required", ErrInvalidInput)
	}
	if s.SinkID == "" {
		return fmt.Errorf("%w: sink id is required", ErrInvalidInput)
	}
	return nil
}

// Clone returns a copy safe to hand out of the registry.
func (s *Subscription) Clone() *Subscription {
	c := *s
	return &c
}
