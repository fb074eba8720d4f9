package normalisers

import (
	"strings"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecordNormaliser = (*IdentifierNormaliser)(nil)

// IdentifierNormaliser cleans keyed identifiers: surrounding whitespace from
// hand-typed ids, and case on codes the ledger matches case-sensitively.
// Runs before any other normaliser so later ones see canonical ids.
type IdentifierNormaliser struct{}

// NewIdentifierNormaliser creates an identifier normaliser.
func NewIdentifierNormaliser() *IdentifierNormaliser {
	return &IdentifierNormaliser{}
}

func (n *IdentifierNormaliser) Name() string {
	return "identifier"
}

func (n *IdentifierNormaliser) SupportedKinds() []string {
	return []string{"*"}
}

func (n *IdentifierNormaliser) Priority() int {
	return 100
}

func (n *IdentifierNormaliser) NormaliseDelivery(rec *domain.DeliveryRecord) {
	rec.ProducerID = strings.TrimSpace(rec.ProducerID)
	rec.RouteCode = strings.ToUpper(strings.TrimSpace(rec.RouteCode))
	rec.Session = domain.Session(strings.ToUpper(strings.TrimSpace(string(rec.Session))))
}

func (n *IdentifierNormaliser) NormaliseSale(rec *domain.SaleRecord) {
	rec.ProducerID = strings.TrimSpace(rec.ProducerID)
	rec.ItemCode = strings.ToUpper(strings.TrimSpace(rec.ItemCode))
}
