package mocks

import (
	"context"
	"sync"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// MockLedgerClient is an in-memory LedgerClient for testing. Accepted
// submissions become lookup-able entries, so a test backend behaves like the
// real ledger across a pass.
type MockLedgerClient struct {
	mu      sync.RWMutex
	entries map[string]*domain.LedgerEntry // keyed by producer|session|date
	refs    map[string]bool                // accepted reference ids

	// Results programs the outcome per reference id; unprogrammed ids are
	// accepted.
	Results map[string]*domain.SubmitResult

	// Error injection
	CreateErr error
	LookupErr error
	VerifyErr error

	// VerifyOK overrides the verification answer when set.
	VerifyOK *bool

	// Call counters
	CreateDeliveryCalls  int
	CreateSaleBatchCalls int
	LookupCalls          int
}

// NewMockLedgerClient creates a new MockLedgerClient.
func NewMockLedgerClient() *MockLedgerClient {
	return &MockLedgerClient{
		entries: make(map[string]*domain.LedgerEntry),
		refs:    make(map[string]bool),
		Results: make(map[string]*domain.SubmitResult),
	}
}

func entryKey(producerID string, session domain.Session, date string) string {
	return producerID + "|" + string(session) + "|" + date
}

// AddEntry seeds a pre-existing ledger entry.
func (m *MockLedgerClient) AddEntry(entry *domain.LedgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entryKey(entry.ProducerID, entry.Session, entry.Date)] = entry
}

func (m *MockLedgerClient) CreateDelivery(ctx context.Context, rec *domain.DeliveryRecord) (*domain.SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateDeliveryCalls++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if res, ok := m.Results[rec.ReferenceID]; ok {
		return res, nil
	}
	if m.refs[rec.ReferenceID] {
		return &domain.SubmitResult{Status: domain.SubmitDuplicate, ExistingWorkflowID: rec.WorkflowID}, nil
	}
	key := entryKey(rec.ProducerID, rec.Session, rec.CaptureDate())
	if existing, ok := m.entries[key]; ok && rec.SinglePerSession && existing.WorkflowID != rec.WorkflowID {
		return &domain.SubmitResult{
			Status:             domain.SubmitDuplicate,
			ExistingWorkflowID: existing.WorkflowID,
		}, nil
	}
	m.refs[rec.ReferenceID] = true
	if _, ok := m.entries[key]; !ok {
		m.entries[key] = &domain.LedgerEntry{
			EntryID:    domain.GenerateID(),
			ProducerID: rec.ProducerID,
			Session:    rec.Session,
			Date:       rec.CaptureDate(),
			WorkflowID: rec.WorkflowID,
			WeightKg:   rec.NetKg(),
		}
	}
	return &domain.SubmitResult{Status: domain.SubmitAccepted, EntryID: m.entries[key].EntryID}, nil
}

func (m *MockLedgerClient) CreateSaleBatch(ctx context.Context, batch *domain.SaleBatch) (*domain.SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateSaleBatchCalls++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if res, ok := m.Results[batch.WorkflowID]; ok {
		return res, nil
	}
	if m.refs[batch.WorkflowID] {
		return &domain.SubmitResult{Status: domain.SubmitDuplicate}, nil
	}
	m.refs[batch.WorkflowID] = true
	return &domain.SubmitResult{Status: domain.SubmitAccepted, EntryID: domain.GenerateID()}, nil
}

func (m *MockLedgerClient) LookupDelivery(ctx context.Context, producerID string, session domain.Session, date string) (*domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LookupCalls++
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	entry, ok := m.entries[entryKey(producerID, session, date)]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

func (m *MockLedgerClient) VerifyDelivery(ctx context.Context, referenceID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.VerifyErr != nil {
		return false, m.VerifyErr
	}
	if m.VerifyOK != nil {
		return *m.VerifyOK, nil
	}
	return m.refs[referenceID], nil
}

// Entry returns the ledger entry for a tuple, or nil.
func (m *MockLedgerClient) Entry(producerID string, session domain.Session, date string) *domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[entryKey(producerID, session, date)]
	if !ok {
		return nil
	}
	cp := *entry
	return &cp
}

// HasReference reports whether a reference id was accepted.
func (m *MockLedgerClient) HasReference(referenceID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refs[referenceID]
}
