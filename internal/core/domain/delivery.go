package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique random ID for purely local identifiers.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// NewReferenceID creates a client-generated reference id understood by the
// canonical ledger. Reference ids survive retries: the same capture keeps the
// same id across passes so the backend can recognize resubmissions.
func NewReferenceID() string {
	return uuid.NewString()
}

// NewWorkflowID creates a workflow id grouping the physical capture lines
// (multiple buckets, multiple sale items) of one logical transaction.
func NewWorkflowID() string {
	return uuid.NewString()
}

// Session identifies the delivery session window.
type Session string

const (
	SessionAM Session = "AM"
	SessionPM Session = "PM"
)

// Valid reports whether the session value is one the ledger understands.
func (s Session) Valid() bool {
	return s == SessionAM || s == SessionPM
}

// EntryMethod records how the weight reading was obtained.
type EntryMethod string

const (
	// EntryMethodScale means the weight came from the instrument reading
	EntryMethodScale EntryMethod = "scale"
	// EntryMethodManual means the clerk keyed the weight in by hand
	EntryMethodManual EntryMethod = "manual"
)

// DateFormat is the calendar-date key used for guard checks and ledger
// lookups. Dates are taken from the capture timestamp in local time.
const DateFormat = "2006-01-02"

// CaptureDate returns the guard/ledger date key for a capture timestamp.
func CaptureDate(t time.Time) string {
	return t.Local().Format(DateFormat)
}

// DeliveryRecord is one produce-delivery capture awaiting reconciliation.
//
// While Synced is false the record is visible to the delivery guard. Once the
// remote ledger confirms persistence the record is deleted from the queue, not
// flagged: the queue only ever holds outstanding work.
type DeliveryRecord struct {
	// LocalKey is assigned at enqueue time and stable for the record's life.
	LocalKey string `json:"local_key"`

	// ReferenceID is the client-generated id the ledger deduplicates on.
	ReferenceID string `json:"reference_id"`

	// WorkflowID groups multiple weighings of one logical delivery.
	WorkflowID string `json:"workflow_id"`

	ProducerID   string  `json:"producer_id"`
	ProducerName string  `json:"producer_name"`
	RouteCode    string  `json:"route_code"`
	Session      Session `json:"session"`

	// WeightKg is the captured weight. In dual-weight mode the gross/tare/net
	// components are carried alongside and WeightKg holds the net value.
	WeightKg float64  `json:"weight_kg"`
	GrossKg  *float64 `json:"gross_kg,omitempty"`
	TareKg   *float64 `json:"tare_kg,omitempty"`

	CapturedAt  time.Time   `json:"captured_at"`
	ClerkID     string      `json:"clerk_id"`
	DeviceID    string      `json:"device_id"`
	EntryMethod EntryMethod `json:"entry_method"`

	// SinglePerSession snapshots the producer's delivery-policy flag at
	// capture time.
	SinglePerSession bool `json:"single_per_session"`

	Synced        bool    `json:"synced"`
	Attempts      int     `json:"attempts"`
	FailureReason *string `json:"failure_reason,omitempty"`

	// Flagged marks a validation failure awaiting manual resolution. Flagged
	// records stay queued and visible; they are never silently dropped.
	Flagged bool `json:"flagged"`
}

// CaptureDate returns the guard date key for this record.
func (r *DeliveryRecord) CaptureDate() string {
	return CaptureDate(r.CapturedAt)
}

// NetKg returns the effective net weight for dual-weight captures.
func (r *DeliveryRecord) NetKg() float64 {
	if r.GrossKg != nil && r.TareKg != nil {
		return *r.GrossKg - *r.TareKg
	}
	return r.WeightKg
}

// Validate checks the fields a capture must carry before it is queued.
func (r *DeliveryRecord) Validate() error {
	if r.ProducerID == "" || r.ReferenceID == "" || r.WorkflowID == "" {
		return ErrInvalidInput
	}
	if !r.Session.Valid() {
		return ErrInvalidInput
	}
	if r.NetKg() <= 0 {
		return ErrInvalidInput
	}
	if r.CapturedAt.IsZero() {
		return ErrInvalidInput
	}
	return nil
}
