package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

func TestNewAdapter(t *testing.T) {
	adapter := NewAdapter("test-secret")
	if adapter == nil {
		t.Fatal("expected non-nil adapter")
	}
	if string(adapter.jwtSecret) != "test-secret" {
		t.Error("expected jwt secret to be set")
	}
}

func TestNewAdapterWithCost(t *testing.T) {
	adapter := NewAdapterWithCost("test-secret", 4)
	if adapter == nil {
		t.Fatal("expected non-nil adapter")
	}
	if adapter.bcryptCost != 4 {
		t.Errorf("expected bcrypt cost 4, got %d", adapter.bcryptCost)
	}
}

func TestHashPin(t *testing.T) {
	adapter := NewAdapterWithCost("secret", 4) // Low cost for faster tests

	hash, err := adapter.HashPin("4821")
	if err != nil {
		t.Fatalf("failed to hash pin: %v", err)
	}

	if hash == "" {
		t.Error("expected non-empty hash")
	}

	if hash == "4821" {
		t.Error("hash should not equal plaintext pin")
	}

	// Hash should start with bcrypt prefix
	if len(hash) < 60 {
		t.Error("expected bcrypt hash to be at least 60 characters")
	}
}

func TestHashPin_DifferentHashesForSamePin(t *testing.T) {
	adapter := NewAdapterWithCost("secret", 4)

	hash1, _ := adapter.HashPin("4821")
	hash2, _ := adapter.HashPin("4821")

	if hash1 == hash2 {
		t.Error("expected different hashes for same pin (due to salt)")
	}
}

func TestVerifyPin(t *testing.T) {
	adapter := NewAdapterWithCost("secret", 4)

	hash, _ := adapter.HashPin("4821")

	if !adapter.VerifyPin("4821", hash) {
		t.Error("expected pin verification to succeed")
	}
	if adapter.VerifyPin("0000", hash) {
		t.Error("expected pin verification to fail for wrong pin")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	adapter := NewAdapter("test-secret")

	now := time.Now()
	claims := &domain.TokenClaims{
		ClerkID:   "C1",
		DeviceID:  "DEV-1",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(12 * time.Hour).Unix(),
	}

	token, err := adapter.GenerateToken(claims)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	parsed, err := adapter.ParseToken(token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if parsed.ClerkID != "C1" {
		t.Errorf("expected clerk id C1, got %s", parsed.ClerkID)
	}
	if parsed.DeviceID != "DEV-1" {
		t.Errorf("expected device id DEV-1, got %s", parsed.DeviceID)
	}
	if parsed.ExpiresAt != claims.ExpiresAt {
		t.Errorf("expected expiry %d, got %d", claims.ExpiresAt, parsed.ExpiresAt)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	adapter := NewAdapter("secret-a")
	other := NewAdapter("secret-b")

	now := time.Now()
	token, _ := adapter.GenerateToken(&domain.TokenClaims{
		ClerkID:   "C1",
		DeviceID:  "DEV-1",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	})

	if _, err := other.ParseToken(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected token invalid for wrong secret, got %v", err)
	}
}

func TestParseToken_Expired(t *testing.T) {
	adapter := NewAdapter("test-secret")

	past := time.Now().Add(-2 * time.Hour)
	token, _ := adapter.GenerateToken(&domain.TokenClaims{
		ClerkID:   "C1",
		DeviceID:  "DEV-1",
		IssuedAt:  past.Unix(),
		ExpiresAt: past.Add(time.Hour).Unix(),
	})

	if _, err := adapter.ParseToken(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected token expired, got %v", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	adapter := NewAdapter("test-secret")

	if _, err := adapter.ParseToken("not-a-token"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected token invalid for garbage, got %v", err)
	}
}
