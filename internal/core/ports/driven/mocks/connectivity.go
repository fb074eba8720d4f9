package mocks

import (
	"context"
	"sync"
	"time"
)

// MockConnectivity is a controllable ConnectivityMonitor for testing.
type MockConnectivity struct {
	mu       sync.Mutex
	online   bool
	listener func(online bool)
}

// NewMockConnectivity creates a monitor in the given initial state.
func NewMockConnectivity(online bool) *MockConnectivity {
	return &MockConnectivity{online: online}
}

func (m *MockConnectivity) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *MockConnectivity) Watch(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = fn
}

func (m *MockConnectivity) Probe(ctx context.Context) bool {
	return m.Online()
}

// SetOnline flips the state and notifies the listener on change.
func (m *MockConnectivity) SetOnline(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	listener := m.listener
	m.mu.Unlock()
	if changed && listener != nil {
		listener(online)
	}
}

// FakeClock is a manually advanced Clock for debounce-timing tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a FakeClock at the given instant.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
