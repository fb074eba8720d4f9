package services

import "github.com/mkulima-labs/daftari-core/internal/core/domain"

// DefaultChunkSize bounds how many delivery submissions run back to back
// before the inter-chunk pause.
const DefaultChunkSize = 10

// SaleUnit is one atomic remote call: every queued line sharing a workflow
// id, plus any collapsed duplicate entries to remove with them.
type SaleUnit struct {
	Batch      *domain.SaleBatch
	Duplicates []*domain.SaleRecord
}

// GroupSales combines deduplicated sale lines that share a workflow id into
// single batches carrying all line items and the one shared attachment.
// Grouping preserves first-seen workflow order and line insertion order.
func GroupSales(lines []*SaleDedup) []*SaleUnit {
	byWorkflow := make(map[string]*SaleUnit, len(lines))
	var units []*SaleUnit
	for _, line := range lines {
		unit, ok := byWorkflow[line.Record.WorkflowID]
		if !ok {
			unit = &SaleUnit{
				Batch: &domain.SaleBatch{
					WorkflowID:    line.Record.WorkflowID,
					AttachmentRef: line.Record.AttachmentRef,
				},
			}
			byWorkflow[line.Record.WorkflowID] = unit
			units = append(units, unit)
		}
		unit.Batch.Lines = append(unit.Batch.Lines, line.Record)
		unit.Duplicates = append(unit.Duplicates, line.Duplicates...)
		if unit.Batch.AttachmentRef == "" {
			unit.Batch.AttachmentRef = line.Record.AttachmentRef
		}
	}
	return units
}

// ChunkDeliveries splits delivery units into fixed-size chunks. Deliveries
// are never grouped across workflow ids; chunking only bounds peak radio
// load and gives the pass natural cancellation points.
func ChunkDeliveries(units []*DeliveryUnit, size int) [][]*DeliveryUnit {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]*DeliveryUnit
	for len(units) > size {
		chunks = append(chunks, units[:size])
		units = units[size:]
	}
	if len(units) > 0 {
		chunks = append(chunks, units)
	}
	return chunks
}
