package mocks

import (
	"context"
	"sync"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// MockReferenceStore is an in-memory ReferenceStore for testing.
type MockReferenceStore struct {
	mu        sync.RWMutex
	producers map[string]*domain.Producer
	routes    []*domain.Route
	windows   []*domain.SessionWindow
	items     map[string]*domain.PricedItem

	// Error injection
	SaveErr error
	GetErr  error
}

// NewMockReferenceStore creates a new MockReferenceStore.
func NewMockReferenceStore() *MockReferenceStore {
	return &MockReferenceStore{
		producers: make(map[string]*domain.Producer),
		items:     make(map[string]*domain.PricedItem),
	}
}

func (m *MockReferenceStore) SaveProducers(ctx context.Context, producers []*domain.Producer) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.producers = make(map[string]*domain.Producer, len(producers))
	for _, p := range producers {
		cp := *p
		m.producers[p.ID] = &cp
	}
	return nil
}

func (m *MockReferenceStore) GetProducer(ctx context.Context, id string) (*domain.Producer, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.producers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockReferenceStore) ListRestrictedProducers(ctx context.Context) ([]*domain.Producer, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Producer
	for _, p := range m.producers {
		if p.SinglePerSession {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockReferenceStore) SaveRoutes(ctx context.Context, routes []*domain.Route) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = routes
	return nil
}

func (m *MockReferenceStore) SaveSessionWindows(ctx context.Context, windows []*domain.SessionWindow) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows = windows
	return nil
}

func (m *MockReferenceStore) SavePricedItems(ctx context.Context, items []*domain.PricedItem) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*domain.PricedItem, len(items))
	for _, it := range items {
		cp := *it
		m.items[it.Code] = &cp
	}
	return nil
}

func (m *MockReferenceStore) GetPricedItem(ctx context.Context, code string) (*domain.PricedItem, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *MockReferenceStore) Ping(ctx context.Context) error { return nil }

// MockClerkStore is an in-memory ClerkStore for testing.
type MockClerkStore struct {
	mu     sync.RWMutex
	clerks map[string]*domain.Clerk
}

// NewMockClerkStore creates a new MockClerkStore.
func NewMockClerkStore() *MockClerkStore {
	return &MockClerkStore{clerks: make(map[string]*domain.Clerk)}
}

func (m *MockClerkStore) SaveClerk(ctx context.Context, clerk *domain.Clerk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *clerk
	m.clerks[clerk.ID] = &cp
	return nil
}

func (m *MockClerkStore) GetClerk(ctx context.Context, id string) (*domain.Clerk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clerks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}
