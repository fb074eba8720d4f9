package driving

import (
	"context"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// AuthService handles clerk sign-in on the device.
type AuthService interface {
	// Login authenticates a clerk id/PIN pair and issues a token.
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// Verify validates a token and returns the auth context.
	Verify(ctx context.Context, token string) (*domain.AuthContext, error)
}
