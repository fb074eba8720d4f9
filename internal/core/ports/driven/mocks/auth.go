package mocks

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// MockAuthAdapter is a trivially reversible AuthAdapter for testing. Hashes
// are "hashed:"+pin and tokens carry the claims as JSON.
type MockAuthAdapter struct {
	mu sync.Mutex

	// Error injection
	GenerateErr error
	ParseErr    error

	GenerateCalls int
}

// NewMockAuthAdapter creates a new MockAuthAdapter.
func NewMockAuthAdapter() *MockAuthAdapter {
	return &MockAuthAdapter{}
}

func (m *MockAuthAdapter) HashPin(pin string) (string, error) {
	return "hashed:" + pin, nil
}

func (m *MockAuthAdapter) VerifyPin(pin, hash string) bool {
	return hash == "hashed:"+pin
}

func (m *MockAuthAdapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	m.mu.Lock()
	m.GenerateCalls++
	m.mu.Unlock()
	if m.GenerateErr != nil {
		return "", m.GenerateErr
	}
	b, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (m *MockAuthAdapter) ParseToken(token string) (*domain.TokenClaims, error) {
	if m.ParseErr != nil {
		return nil, m.ParseErr
	}
	var claims domain.TokenClaims
	if err := json.Unmarshal([]byte(token), &claims); err != nil {
		return nil, errors.Join(domain.ErrTokenInvalid, err)
	}
	return &claims, nil
}
