package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
)

// MockCursorStore is a mock implementation of CursorStore for testing
type MockCursorStore struct {
	mu      sync.RWMutex
	cursors map[domain.CursorKey]int

	// Error injection
	GetErr error
	SetErr error
}

// NewMockCursorStore creates a new MockCursorStore
func NewMockCursorStore() *MockCursorStore {
	return &MockCursorStore{
		cursors: make(map[domain.CursorKey]int),
	}
}

func (m *MockCursorStore) Get(ctx context.Context, key domain.CursorKey) (int, error) {
	if m.GetErr != nil {
		return 0, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cursors[key], nil
}

func (m *MockCursorStore) Set(ctx context.Context, key domain.CursorKey, index int) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[key] = index
	return nil
}

func (m *MockCursorStore) DeleteSubscription(ctx context.Context, tenantID, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.cursors {
		if key.TenantID == tenantID && key.SourceID == sourceID {
			delete(m.cursors, key)
		}
	}
	return nil
}

// Seed places a cursor directly, for test setup.
func (m *MockCursorStore) Seed(key domain.CursorKey, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[key] = index
}

// Cursor reads a cursor directly, for test assertions.
func (m *MockCursorStore) Cursor(key domain.CursorKey) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cursors[key]
}

// Len returns the number of stored cursors.
func (m *MockCursorStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cursors)
}
