package domain

import "time"

// LedgerEntry is the backend's authoritative record for a
// (producer, session, date) tuple. It is read via lookup only, never cached
// long-term: the engine consults it for guard checks and duplicate
// resolution, and writes to the ledger happen only through the create calls.
type LedgerEntry struct {
	EntryID    string    `json:"entry_id"`
	ProducerID string    `json:"producer_id"`
	Session    Session   `json:"session"`
	Date       string    `json:"date"`
	WorkflowID string    `json:"workflow_id"`
	WeightKg   float64   `json:"weight_kg"`
	RecordedAt time.Time `json:"recorded_at"`
}

// SubmitStatus classifies the outcome of a ledger create call. The ledger
// client returns a structured status; nothing in the engine inspects error
// message text to classify outcomes.
type SubmitStatus string

const (
	// SubmitAccepted means the ledger persisted the record.
	SubmitAccepted SubmitStatus = "accepted"

	// SubmitDuplicate means the ledger already holds a record for this
	// reference id or (producer, session, date) tuple.
	SubmitDuplicate SubmitStatus = "duplicate"

	// SubmitValidationFailed means the ledger rejected the record's content.
	SubmitValidationFailed SubmitStatus = "validation_failed"

	// SubmitUnauthorized means the device is not currently approved.
	SubmitUnauthorized SubmitStatus = "unauthorized"

	// SubmitTransientError means a timeout, connection drop or 5xx-class
	// failure; the record stays queued for the next pass.
	SubmitTransientError SubmitStatus = "transient_error"
)

// SubmitResult is the structured outcome of a create call.
type SubmitResult struct {
	Status SubmitStatus `json:"status"`

	// EntryID is set when Status is SubmitAccepted.
	EntryID string `json:"entry_id,omitempty"`

	// ExistingWorkflowID is set when Status is SubmitDuplicate and the
	// ledger entry belongs to a different workflow.
	ExistingWorkflowID string `json:"existing_workflow_id,omitempty"`

	// Message carries the server's human-readable detail for diagnosis. It
	// is recorded on the queued record, never parsed.
	Message string `json:"message,omitempty"`
}
