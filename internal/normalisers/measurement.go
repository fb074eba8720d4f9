package normalisers

import (
	"math"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecordNormaliser = (*MeasurementNormaliser)(nil)

// MeasurementNormaliser rounds captured quantities to the precision the
// ledger stores. Scale instruments jitter in the far decimals, and two
// readings of the same bucket must not differ once queued.
type MeasurementNormaliser struct{}

// NewMeasurementNormaliser creates a measurement normaliser.
func NewMeasurementNormaliser() *MeasurementNormaliser {
	return &MeasurementNormaliser{}
}

func (n *MeasurementNormaliser) Name() string {
	return "measurement"
}

func (n *MeasurementNormaliser) SupportedKinds() []string {
	return []string{driven.KindDelivery, driven.KindSale}
}

func (n *MeasurementNormaliser) Priority() int {
	return 50
}

func (n *MeasurementNormaliser) NormaliseDelivery(rec *domain.DeliveryRecord) {
	rec.WeightKg = round2(rec.WeightKg)
	if rec.GrossKg != nil {
		g := round2(*rec.GrossKg)
		rec.GrossKg = &g
	}
	if rec.TareKg != nil {
		t := round2(*rec.TareKg)
		rec.TareKg = &t
	}
}

func (n *MeasurementNormaliser) NormaliseSale(rec *domain.SaleRecord) {
	rec.Quantity = round2(rec.Quantity)
	rec.UnitPrice = round2(rec.UnitPrice)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
