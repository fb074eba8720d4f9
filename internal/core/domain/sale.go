package domain

import "time"

// SaleRecord is one line item of an over-the-counter purchase, queued in the
// same durable store as deliveries. Records sharing a WorkflowID are siblings
// of a single purchase event and are submitted as one atomic batch.
type SaleRecord struct {
	LocalKey    string `json:"local_key"`
	ReferenceID string `json:"reference_id"`
	WorkflowID  string `json:"workflow_id"`

	ProducerID string  `json:"producer_id"`
	ItemCode   string  `json:"item_code"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`

	// AttachmentRef points at an optional shared attachment (e.g. a photo)
	// keyed by the workflow id. All siblings carry the same reference.
	AttachmentRef string `json:"attachment_ref,omitempty"`

	CapturedAt time.Time `json:"captured_at"`
	ClerkID    string    `json:"clerk_id"`
	DeviceID   string    `json:"device_id"`

	Synced        bool    `json:"synced"`
	Attempts      int     `json:"attempts"`
	FailureReason *string `json:"failure_reason,omitempty"`
	Flagged       bool    `json:"flagged"`
}

// Total returns the line total.
func (s *SaleRecord) Total() float64 {
	return s.Quantity * s.UnitPrice
}

// Validate checks the fields a sale line must carry before it is queued.
func (s *SaleRecord) Validate() error {
	if s.ReferenceID == "" || s.WorkflowID == "" || s.ItemCode == "" {
		return ErrInvalidInput
	}
	if s.Quantity <= 0 || s.UnitPrice < 0 {
		return ErrInvalidInput
	}
	return nil
}

// SaleBatch is the unit submitted to the ledger: every queued line sharing
// one workflow id plus the one shared attachment.
type SaleBatch struct {
	WorkflowID    string        `json:"workflow_id"`
	Lines         []*SaleRecord `json:"lines"`
	AttachmentRef string        `json:"attachment_ref,omitempty"`
}

// LocalKeys returns the queue keys of every line in the batch.
func (b *SaleBatch) LocalKeys() []string {
	keys := make([]string, 0, len(b.Lines))
	for _, line := range b.Lines {
		keys = append(keys, line.LocalKey)
	}
	return keys
}
