package driven

import "github.com/mkulima-labs/daftari-core/internal/core/domain"

// AuthAdapter handles PIN hashing and token operations.
type AuthAdapter interface {
	// HashPin generates a hash from a plaintext PIN.
	HashPin(pin string) (string, error)

	// VerifyPin checks if a PIN matches a hash.
	VerifyPin(pin, hash string) bool

	// GenerateToken creates a signed token from domain claims.
	GenerateToken(claims *domain.TokenClaims) (string, error)

	// ParseToken validates a token and extracts domain claims.
	ParseToken(token string) (*domain.TokenClaims, error)
}
