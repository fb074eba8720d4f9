package mocks

import (
	"context"
	"strconv"
	"sync"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// MockDeliveryQueue is an in-memory DeliveryQueue for testing.
type MockDeliveryQueue struct {
	mu         sync.RWMutex
	deliveries []*domain.DeliveryRecord
	sales      []*domain.SaleRecord
	nextKey    int

	// Error injection
	EnqueueErr error
	ListErr    error
	DeleteErr  error

	// Call counters
	DeleteCalls int
}

// NewMockDeliveryQueue creates a new MockDeliveryQueue.
func NewMockDeliveryQueue() *MockDeliveryQueue {
	return &MockDeliveryQueue{}
}

func (m *MockDeliveryQueue) EnqueueDelivery(ctx context.Context, rec *domain.DeliveryRecord) error {
	if m.EnqueueErr != nil {
		return m.EnqueueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.LocalKey == "" {
		m.nextKey++
		rec.LocalKey = localKey(m.nextKey)
	}
	cp := *rec
	m.deliveries = append(m.deliveries, &cp)
	return nil
}

func (m *MockDeliveryQueue) EnqueueSale(ctx context.Context, rec *domain.SaleRecord) error {
	if m.EnqueueErr != nil {
		return m.EnqueueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.LocalKey == "" {
		m.nextKey++
		rec.LocalKey = localKey(m.nextKey)
	}
	cp := *rec
	m.sales = append(m.sales, &cp)
	return nil
}

func (m *MockDeliveryQueue) ListUnsyncedDeliveries(ctx context.Context) ([]*domain.DeliveryRecord, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.DeliveryRecord, 0, len(m.deliveries))
	for _, d := range m.deliveries {
		if !d.Synced {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockDeliveryQueue) ListUnsyncedSales(ctx context.Context) ([]*domain.SaleRecord, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.SaleRecord, 0, len(m.sales))
	for _, s := range m.sales {
		if !s.Synced {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockDeliveryQueue) UnsyncedDeliveriesFor(ctx context.Context, producerID string, session domain.Session, date string) ([]*domain.DeliveryRecord, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.DeliveryRecord
	for _, d := range m.deliveries {
		if d.Synced || d.ProducerID != producerID || d.Session != session {
			continue
		}
		if d.CaptureDate() != date {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockDeliveryQueue) Delete(ctx context.Context, localKey string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	for i, d := range m.deliveries {
		if d.LocalKey == localKey {
			m.deliveries = append(m.deliveries[:i], m.deliveries[i+1:]...)
			return nil
		}
	}
	for i, s := range m.sales {
		if s.LocalKey == localKey {
			m.sales = append(m.sales[:i], m.sales[i+1:]...)
			return nil
		}
	}
	// Absent key is a no-op success
	return nil
}

func (m *MockDeliveryQueue) MarkFailed(ctx context.Context, localKey string, reason string, flagged bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deliveries {
		if d.LocalKey == localKey {
			d.Attempts++
			d.FailureReason = &reason
			d.Flagged = flagged
			return nil
		}
	}
	for _, s := range m.sales {
		if s.LocalKey == localKey {
			s.Attempts++
			s.FailureReason = &reason
			s.Flagged = flagged
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockDeliveryQueue) PendingCount(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, d := range m.deliveries {
		if !d.Synced {
			count++
		}
	}
	for _, s := range m.sales {
		if !s.Synced {
			count++
		}
	}
	return count, nil
}

func (m *MockDeliveryQueue) Ping(ctx context.Context) error { return nil }

func (m *MockDeliveryQueue) Close() error { return nil }

// GetDelivery returns a stored delivery by local key, for assertions.
func (m *MockDeliveryQueue) GetDelivery(localKey string) *domain.DeliveryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.deliveries {
		if d.LocalKey == localKey {
			cp := *d
			return &cp
		}
	}
	return nil
}

// GetSale returns a stored sale line by local key, for assertions.
func (m *MockDeliveryQueue) GetSale(localKey string) *domain.SaleRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sales {
		if s.LocalKey == localKey {
			cp := *s
			return &cp
		}
	}
	return nil
}

func localKey(n int) string {
	return "local-" + strconv.Itoa(n)
}
