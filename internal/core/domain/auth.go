package domain

import "time"

// Clerk is a device operator who signs in with an id and PIN.
type Clerk struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	PinHash string `json:"-"`
	Active  bool   `json:"active"`
}

// LoginRequest represents a clerk sign-in attempt.
type LoginRequest struct {
	ClerkID string `json:"clerk_id"`
	Pin     string `json:"pin"`
}

// LoginResponse is returned after successful authentication.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClerkID   string    `json:"clerk_id"`
	ClerkName string    `json:"clerk_name"`
}

// TokenClaims represents the JWT token payload for a clerk session on a
// device. DeviceID travels in the token so the ledger can attribute
// submissions and revoke a device independently of its clerks.
type TokenClaims struct {
	ClerkID   string `json:"clerk_id"`
	DeviceID  string `json:"device_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// AuthContext carries the authenticated clerk through request handling.
type AuthContext struct {
	ClerkID  string `json:"clerk_id"`
	DeviceID string `json:"device_id"`
}
