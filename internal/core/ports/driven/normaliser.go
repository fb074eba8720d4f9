package driven

import "github.com/mkulima-labs/daftari-core/internal/core/domain"

// Capture kinds a normaliser can claim.
const (
	KindDelivery = "delivery"
	KindSale     = "sale"
)

// RecordNormaliser cleans one class of clerk input before validation: keyed
// identifiers, scale jitter, anything the ledger would reject or dedup on
// inconsistently. A normaliser only receives records of the kinds it claims.
type RecordNormaliser interface {
	// Name identifies the normaliser in diagnostics.
	Name() string

	// SupportedKinds returns the capture kinds this normaliser applies to.
	// "*" matches every kind.
	SupportedKinds() []string

	// Priority orders application when multiple normalisers match.
	// Higher runs first.
	Priority() int

	// NormaliseDelivery mutates a delivery record in place.
	NormaliseDelivery(rec *domain.DeliveryRecord)

	// NormaliseSale mutates a sale record in place.
	NormaliseSale(rec *domain.SaleRecord)
}

// NormaliserRegistry selects normalisers by capture kind.
type NormaliserRegistry interface {
	// Register adds a normaliser.
	Register(n RecordNormaliser)

	// GetAll returns all normalisers matching a kind, highest priority first.
	GetAll(kind string) []RecordNormaliser

	// List returns all registered kinds.
	List() []string
}
