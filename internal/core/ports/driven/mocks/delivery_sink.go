package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
)

// Delivery records one delivered row for assertions.
type Delivery struct {
	SinkID    string
	Worksheet string
	Headers   []string
	Row       []string
}

// MockDeliverySink is a mock implementation of DeliverySink for testing
type MockDeliverySink struct {
	mu         sync.Mutex
	deliveries []Delivery

	// FailRows fails delivery of any row whose first cell matches.
	FailRows map[string]bool

	// Err fails the whole batch after attempting every row.
	Err error
}

// NewMockDeliverySink creates a new MockDeliverySink
func NewMockDeliverySink() *MockDeliverySink {
	return &MockDeliverySink{}
}

func (m *MockDeliverySink) Deliver(ctx context.Context, sinkID string, headers []string, rows [][]string, worksheet string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delivered := 0
	failed := 0
	for _, row := range rows {
		if len(row) > 0 && m.FailRows[row[0]] {
			failed++
			continue
		}
		m.deliveries = append(m.deliveries, Delivery{
			SinkID:    sinkID,
			Worksheet: worksheet,
			Headers:   headers,
			Row:       row,
		})
		delivered++
	}

	if m.Err != nil {
		return delivered, m.Err
	}
	if failed > 0 {
		return delivered, domain.ErrDelivery
	}
	return delivered, nil
}

// Deliveries returns a copy of everything delivered so far.
func (m *MockDeliverySink) Deliveries() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Delivery(nil), m.deliveries...)
}

// Reset clears recorded deliveries.
func (m *MockDeliverySink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = nil
}
