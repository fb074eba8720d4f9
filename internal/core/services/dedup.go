package services

import (
	"log/slog"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// DeliveryUnit is one delivery submission with the physical queue entries it
// collapsed: the representative is submitted, the duplicates are removed
// together with it once the representative's outcome is known.
type DeliveryUnit struct {
	Record     *domain.DeliveryRecord
	Duplicates []*domain.DeliveryRecord
}

// SaleDedup is one sale line with its collapsed duplicate entries.
type SaleDedup struct {
	Record     *domain.SaleRecord
	Duplicates []*domain.SaleRecord
}

// Deduplicator collapses queue entries that logically represent the same
// transaction. Multiple physical entries sharing one reference id are an
// artifact of a prior partial failure that re-enqueued before cleanup.
type Deduplicator struct {
	logger *slog.Logger
}

// NewDeduplicator creates a new deduplicator.
func NewDeduplicator(logger *slog.Logger) *Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{logger: logger}
}

// CollapseDeliveries returns one unit per reference id, first seen wins.
// Skipped entries stay attached to their representative so storage is only
// touched once the representative's sync outcome is known. The orchestrator
// never issues more than one remote create per reference id in a pass.
func (d *Deduplicator) CollapseDeliveries(records []*domain.DeliveryRecord) []*DeliveryUnit {
	byRef := make(map[string]*DeliveryUnit, len(records))
	var units []*DeliveryUnit
	for _, rec := range records {
		if unit, ok := byRef[rec.ReferenceID]; ok {
			d.logger.Info("skipping duplicate queue entry",
				"reference_id", rec.ReferenceID,
				"local_key", rec.LocalKey,
				"representative", unit.Record.LocalKey,
			)
			unit.Duplicates = append(unit.Duplicates, rec)
			continue
		}
		unit := &DeliveryUnit{Record: rec}
		byRef[rec.ReferenceID] = unit
		units = append(units, unit)
	}
	return units
}

// CollapseSales is CollapseDeliveries for sale lines.
func (d *Deduplicator) CollapseSales(records []*domain.SaleRecord) []*SaleDedup {
	byRef := make(map[string]*SaleDedup, len(records))
	var units []*SaleDedup
	for _, rec := range records {
		if unit, ok := byRef[rec.ReferenceID]; ok {
			d.logger.Info("skipping duplicate queue entry",
				"reference_id", rec.ReferenceID,
				"local_key", rec.LocalKey,
				"representative", unit.Record.LocalKey,
			)
			unit.Duplicates = append(unit.Duplicates, rec)
			continue
		}
		unit := &SaleDedup{Record: rec}
		byRef[rec.ReferenceID] = unit
		units = append(units, unit)
	}
	return units
}
