package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.AuthService = (*AuthManager)(nil)

// DefaultTokenTTL is the clerk session lifetime, roughly one collection day.
const DefaultTokenTTL = 12 * time.Hour

// AuthManager signs clerks in against the device-local credential store.
// Sign-in works fully offline; the ledger never participates.
type AuthManager struct {
	clerks   driven.ClerkStore
	adapter  driven.AuthAdapter
	clock    driven.Clock
	deviceID string
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewAuthManager creates a new auth manager.
func NewAuthManager(clerks driven.ClerkStore, adapter driven.AuthAdapter, clock driven.Clock, deviceID string, tokenTTL time.Duration, logger *slog.Logger) *AuthManager {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = driven.SystemClock{}
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &AuthManager{
		clerks:   clerks,
		adapter:  adapter,
		clock:    clock,
		deviceID: deviceID,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Login authenticates a clerk id/PIN pair and issues a session token.
// Unknown clerk, wrong PIN and deactivated clerk all map to the same
// credential error so the response does not leak which one it was.
func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.ClerkID == "" || req.Pin == "" {
		return nil, domain.ErrInvalidCredentials
	}

	clerk, err := a.clerks.GetClerk(ctx, req.ClerkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !clerk.Active || !a.adapter.VerifyPin(req.Pin, clerk.PinHash) {
		a.logger.Warn("failed login attempt", "clerk_id", req.ClerkID)
		return nil, domain.ErrInvalidCredentials
	}

	now := a.clock.Now()
	expiresAt := now.Add(a.tokenTTL)
	token, err := a.adapter.GenerateToken(&domain.TokenClaims{
		ClerkID:   clerk.ID,
		DeviceID:  a.deviceID,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("clerk signed in", "clerk_id", clerk.ID)
	return &domain.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		ClerkID:   clerk.ID,
		ClerkName: clerk.Name,
	}, nil
}

// Verify validates a session token and returns the auth context.
func (a *AuthManager) Verify(ctx context.Context, token string) (*domain.AuthContext, error) {
	claims, err := a.adapter.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if a.clock.Now().Unix() >= claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}

	// Re-check the clerk so a deactivation takes effect before expiry.
	clerk, err := a.clerks.GetClerk(ctx, claims.ClerkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if !clerk.Active {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.AuthContext{
		ClerkID:  claims.ClerkID,
		DeviceID: claims.DeviceID,
	}, nil
}
