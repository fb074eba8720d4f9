package driving

import (
	"context"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// DeliveryCaptureRequest is what the capture screen hands the engine: the
// engine never sees the instrument protocol, only the resulting reading.
type DeliveryCaptureRequest struct {
	// WorkflowID is empty for a new delivery; continuations of a
	// multi-bucket workflow carry the id of the first capture.
	WorkflowID string `json:"workflow_id,omitempty"`

	ProducerID string         `json:"producer_id"`
	Session    domain.Session `json:"session"`

	WeightKg float64  `json:"weight_kg"`
	GrossKg  *float64 `json:"gross_kg,omitempty"`
	TareKg   *float64 `json:"tare_kg,omitempty"`

	EntryMethod domain.EntryMethod `json:"entry_method"`
	CapturedAt  time.Time          `json:"captured_at"`
	ClerkID     string             `json:"clerk_id"`
}

// SaleLineRequest is one line of a sale capture.
type SaleLineRequest struct {
	ItemCode  string  `json:"item_code"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price,omitempty"` // 0 means price from the cached item list
}

// SaleCaptureRequest captures one purchase event of one or more lines.
type SaleCaptureRequest struct {
	WorkflowID    string            `json:"workflow_id,omitempty"`
	ProducerID    string            `json:"producer_id"`
	Lines         []SaleLineRequest `json:"lines"`
	AttachmentRef string            `json:"attachment_ref,omitempty"`
	CapturedAt    time.Time         `json:"captured_at"`
	ClerkID       string            `json:"clerk_id"`
}

// QueueListing exposes the outstanding queue for support diagnosis, flagged
// records included.
type QueueListing struct {
	Deliveries []*domain.DeliveryRecord `json:"deliveries"`
	Sales      []*domain.SaleRecord     `json:"sales"`
}

// CaptureService is the engine's capture surface.
type CaptureService interface {
	// CaptureDelivery validates, guard-checks and enqueues a delivery.
	// Returns domain.ErrDeliveryBlocked when the advisory guard refuses.
	CaptureDelivery(ctx context.Context, req DeliveryCaptureRequest) (*domain.DeliveryRecord, error)

	// CaptureSale enqueues the lines of one purchase event under a shared
	// workflow id.
	CaptureSale(ctx context.Context, req SaleCaptureRequest) ([]*domain.SaleRecord, error)

	// Pending returns the pending-count read model.
	Pending(ctx context.Context) (*domain.PendingStatus, error)

	// ListQueue returns all outstanding records.
	ListQueue(ctx context.Context) (*QueueListing, error)
}
