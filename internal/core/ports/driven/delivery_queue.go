package driven

import (
	"context"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// DeliveryQueue is the on-device durable store of not-yet-acknowledged
// delivery and sale records. It survives process restarts.
// Implementations can use SQLite (device) or Postgres (collection-centre hub).
type DeliveryQueue interface {
	// EnqueueDelivery persists a delivery capture, assigning a local key if
	// the record does not carry one.
	EnqueueDelivery(ctx context.Context, rec *domain.DeliveryRecord) error

	// EnqueueSale persists a sale line, assigning a local key if absent.
	EnqueueSale(ctx context.Context, rec *domain.SaleRecord) error

	// ListUnsyncedDeliveries returns all delivery records with synced=false
	// in insertion order.
	ListUnsyncedDeliveries(ctx context.Context) ([]*domain.DeliveryRecord, error)

	// ListUnsyncedSales returns all sale records with synced=false in
	// insertion order.
	ListUnsyncedSales(ctx context.Context) ([]*domain.SaleRecord, error)

	// UnsyncedDeliveriesFor returns the unsynced delivery records for one
	// producer, session and capture date. Guard input.
	UnsyncedDeliveriesFor(ctx context.Context, producerID string, session domain.Session, date string) ([]*domain.DeliveryRecord, error)

	// Delete removes a record by local key. Deleting an absent key is a
	// no-op success: the duplicate-detection and confirmed-success paths may
	// both attempt removal of the same entry.
	Delete(ctx context.Context, localKey string) error

	// MarkFailed increments the attempt counter and records the failure
	// reason. Flagged marks a validation failure for manual resolution.
	MarkFailed(ctx context.Context, localKey string, reason string, flagged bool) error

	// PendingCount returns the number of records with synced=false.
	PendingCount(ctx context.Context) (int, error)

	// Ping checks if the store is healthy.
	Ping(ctx context.Context) error

	// Close cleans up resources.
	Close() error
}
