package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "valid bearer token",
			header:   "Bearer abc123",
			expected: "abc123",
		},
		{
			name:     "bearer with extra spaces",
			header:   "Bearer   token-with-spaces   ",
			expected: "token-with-spaces",
		},
		{
			name:     "lowercase bearer",
			header:   "bearer token123",
			expected: "token123",
		},
		{
			name:     "empty header",
			header:   "",
			expected: "",
		},
		{
			name:     "no bearer prefix",
			header:   "token123",
			expected: "",
		},
		{
			name:     "basic auth",
			header:   "Basic dXNlcjpwYXNz",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			result := extractBearerToken(req)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestGetAuthContext(t *testing.T) {
	if result := GetAuthContext(context.Background()); result != nil {
		t.Error("expected nil for context without auth")
	}

	authCtx := &domain.AuthContext{ClerkID: "clerk-1", DeviceID: "dev-1"}
	ctx := context.WithValue(context.Background(), authContextKey, authCtx)

	result := GetAuthContext(ctx)
	if result == nil {
		t.Fatal("expected auth context")
	}
	if result.ClerkID != "clerk-1" {
		t.Errorf("expected clerk 'clerk-1', got %s", result.ClerkID)
	}
}

func TestAuthenticate_Success(t *testing.T) {
	mockAuth := &mockAuthService{
		verifyFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			if token != "good-token" {
				return nil, domain.ErrTokenInvalid
			}
			return &domain.AuthContext{ClerkID: "clerk-1", DeviceID: "dev-1"}, nil
		},
	}
	middleware := NewAuthMiddleware(mockAuth)

	var seen *domain.AuthContext
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAuthContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/pending", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if seen == nil || seen.ClerkID != "clerk-1" {
		t.Errorf("expected auth context for clerk-1, got %+v", seen)
	}
}

func TestAuthenticate_MissingToken(t *testing.T) {
	middleware := NewAuthMiddleware(&mockAuthService{})

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/v1/pending", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	mockAuth := &mockAuthService{
		verifyFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			return nil, domain.ErrTokenExpired
		},
	}
	middleware := NewAuthMiddleware(mockAuth)

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/v1/pending", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	middleware := NewRecoveryMiddleware()

	handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
}
