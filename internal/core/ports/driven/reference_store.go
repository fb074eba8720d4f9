package driven

import (
	"context"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// ReferenceStore is the local cache of lookup datasets.
// Implementations can use Redis (preferred when reachable) or SQLite
// (fallback, same file as the queue).
type ReferenceStore interface {
	// SaveProducers replaces the cached producer directory.
	SaveProducers(ctx context.Context, producers []*domain.Producer) error

	// GetProducer returns a producer by id, or domain.ErrNotFound.
	GetProducer(ctx context.Context, id string) (*domain.Producer, error)

	// ListRestrictedProducers returns the producers whose policy flag limits
	// them to one delivery per session per day.
	ListRestrictedProducers(ctx context.Context) ([]*domain.Producer, error)

	// SaveRoutes replaces the cached route list.
	SaveRoutes(ctx context.Context, routes []*domain.Route) error

	// SaveSessionWindows replaces the cached session windows.
	SaveSessionWindows(ctx context.Context, windows []*domain.SessionWindow) error

	// SavePricedItems replaces the cached item price list.
	SavePricedItems(ctx context.Context, items []*domain.PricedItem) error

	// GetPricedItem returns an item by code, or domain.ErrNotFound.
	GetPricedItem(ctx context.Context, code string) (*domain.PricedItem, error)

	// Ping checks if the cache backend is healthy.
	Ping(ctx context.Context) error
}

// ClerkStore persists device-local clerk credentials.
type ClerkStore interface {
	// SaveClerk creates or updates a clerk.
	SaveClerk(ctx context.Context, clerk *domain.Clerk) error

	// GetClerk returns a clerk by id, or domain.ErrNotFound.
	GetClerk(ctx context.Context, id string) (*domain.Clerk, error)
}
