package driven

import (
	"context"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// LedgerClient talks to the canonical remote ledger. Create calls return a
// structured SubmitResult; a non-nil error means the call never produced a
// classifiable outcome (transport failure before a response).
type LedgerClient interface {
	// CreateDelivery submits one delivery record.
	CreateDelivery(ctx context.Context, rec *domain.DeliveryRecord) (*domain.SubmitResult, error)

	// CreateSaleBatch submits every line of one purchase event atomically.
	CreateSaleBatch(ctx context.Context, batch *domain.SaleBatch) (*domain.SubmitResult, error)

	// LookupDelivery returns the ledger entry for (producer, session, date),
	// or nil when none exists.
	LookupDelivery(ctx context.Context, producerID string, session domain.Session, date string) (*domain.LedgerEntry, error)

	// VerifyDelivery checks that a previously submitted reference id was
	// persisted. Used by the strict verification policy after a create.
	VerifyDelivery(ctx context.Context, referenceID string) (bool, error)
}

// ReferenceSource pulls read-only lookup datasets from the backend.
type ReferenceSource interface {
	FetchProducers(ctx context.Context) ([]*domain.Producer, error)
	FetchRoutes(ctx context.Context) ([]*domain.Route, error)
	FetchSessionWindows(ctx context.Context) ([]*domain.SessionWindow, error)
	FetchPricedItems(ctx context.Context) ([]*domain.PricedItem, error)
}
