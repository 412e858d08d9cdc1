package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
)

// MockSubscriptionStore is a mock implementation of SubscriptionStore for testing
type MockSubscriptionStore struct {
	mu   sync.RWMutex
	subs map[domain.SubscriptionKey]*domain.Subscription

	// Error injection
	SaveErr   error
	ListErr   error
	DeleteErr error
}

// NewMockSubscriptionStore creates a new MockSubscriptionStore
func NewMockSubscriptionStore() *MockSubscriptionStore {
	return &MockSubscriptionStore{
		subs: make(map[domain.SubscriptionKey]*domain.Subscription),
	}
}

func (m *MockSubscriptionStore) Save(ctx context.Context, sub *domain.Subscription) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.Key()] = sub.Clone()
	return nil
}

func (m *MockSubscriptionStore) Get(ctx context.Context, tenantID, sourceID string) (*domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subs[domain.SubscriptionKey{TenantID: tenantID, SourceID: sourceID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sub.Clone(), nil
}

func (m *MockSubscriptionStore) List(ctx context.Context) ([]*domain.Subscription, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Subscription
	for _, sub := range m.subs {
		result = append(result, sub.Clone())
	}
	return result, nil
}

func (m *MockSubscriptionStore) Delete(ctx context.Context, tenantID, sourceID string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, domain.SubscriptionKey{TenantID: tenantID, SourceID: sourceID})
	return nil
}

// Contains reports whether a subscription is stored, for test assertions.
func (m *MockSubscriptionStore) Contains(tenantID, sourceID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.subs[domain.SubscriptionKey{TenantID: tenantID, SourceID: sourceID}]
	return ok
}
