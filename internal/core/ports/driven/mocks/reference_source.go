package mocks

import (
	"context"
	"sync"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// MockReferenceSource is an in-memory ReferenceSource for testing.
type MockReferenceSource struct {
	mu        sync.RWMutex
	Producers []*domain.Producer
	Routes    []*domain.Route
	Windows   []*domain.SessionWindow
	Items     []*domain.PricedItem

	// Per-dataset error injection
	ProducersErr error
	RoutesErr    error
	WindowsErr   error
	ItemsErr     error
}

// NewMockReferenceSource creates a new MockReferenceSource.
func NewMockReferenceSource() *MockReferenceSource {
	return &MockReferenceSource{}
}

func (m *MockReferenceSource) FetchProducers(ctx context.Context) ([]*domain.Producer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ProducersErr != nil {
		return nil, m.ProducersErr
	}
	return m.Producers, nil
}

func (m *MockReferenceSource) FetchRoutes(ctx context.Context) ([]*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.RoutesErr != nil {
		return nil, m.RoutesErr
	}
	return m.Routes, nil
}

func (m *MockReferenceSource) FetchSessionWindows(ctx context.Context) ([]*domain.SessionWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.WindowsErr != nil {
		return nil, m.WindowsErr
	}
	return m.Windows, nil
}

func (m *MockReferenceSource) FetchPricedItems(ctx context.Context) ([]*domain.PricedItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ItemsErr != nil {
		return nil, m.ItemsErr
	}
	return m.Items, nil
}
