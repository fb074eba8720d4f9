package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.CaptureService = (*CaptureManager)(nil)

// CaptureManager accepts deliveries and sales from the capture screens,
// validates them, runs the advisory guard check, and enqueues them durably.
// Enqueueing never depends on connectivity.
type CaptureManager struct {
	queue       driven.DeliveryQueue
	refs        driven.ReferenceStore
	guard       driving.GuardService
	sync        driving.SyncService
	monitor     driven.ConnectivityMonitor
	clock       driven.Clock
	normalisers driven.NormaliserRegistry
	deviceID    string
	logger      *slog.Logger
}

// CaptureManagerConfig holds dependencies for the capture manager.
type CaptureManagerConfig struct {
	Queue       driven.DeliveryQueue
	Refs        driven.ReferenceStore
	Guard       driving.GuardService
	Sync        driving.SyncService
	Monitor     driven.ConnectivityMonitor
	Clock       driven.Clock
	Normalisers driven.NormaliserRegistry // optional
	DeviceID    string
	Logger      *slog.Logger
}

// NewCaptureManager creates a new capture manager.
func NewCaptureManager(cfg CaptureManagerConfig) *CaptureManager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = driven.SystemClock{}
	}
	return &CaptureManager{
		queue:       cfg.Queue,
		refs:        cfg.Refs,
		guard:       cfg.Guard,
		sync:        cfg.Sync,
		monitor:     cfg.Monitor,
		clock:       clock,
		normalisers: cfg.Normalisers,
		deviceID:    cfg.DeviceID,
		logger:      logger,
	}
}

// CaptureDelivery validates, guard-checks and enqueues one delivery capture.
func (m *CaptureManager) CaptureDelivery(ctx context.Context, req driving.DeliveryCaptureRequest) (*domain.DeliveryRecord, error) {
	capturedAt := req.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = m.clock.Now()
	}
	workflowID := req.WorkflowID
	if workflowID == "" {
		workflowID = domain.NewWorkflowID()
	}

	rec := &domain.DeliveryRecord{
		ReferenceID: domain.NewReferenceID(),
		WorkflowID:  workflowID,
		ProducerID:  req.ProducerID,
		Session:     req.Session,
		WeightKg:    req.WeightKg,
		GrossKg:     req.GrossKg,
		TareKg:      req.TareKg,
		CapturedAt:  capturedAt,
		ClerkID:     req.ClerkID,
		DeviceID:    m.deviceID,
		EntryMethod: req.EntryMethod,
	}
	if rec.EntryMethod == "" {
		rec.EntryMethod = domain.EntryMethodScale
	}
	if rec.GrossKg != nil && rec.TareKg != nil {
		rec.WeightKg = rec.NetKg()
	}

	// Normalise before the reference lookup so the cleaned producer id is
	// what the directory is queried with.
	if m.normalisers != nil {
		for _, n := range m.normalisers.GetAll(driven.KindDelivery) {
			n.NormaliseDelivery(rec)
		}
	}

	// Snapshot the producer's policy flag at capture time so the pass does
	// not depend on the directory still holding the producer later.
	producer, err := m.refs.GetProducer(ctx, rec.ProducerID)
	switch {
	case err == nil:
		rec.ProducerName = producer.Name
		rec.RouteCode = producer.RouteCode
		rec.SinglePerSession = producer.SinglePerSession
	case errors.Is(err, domain.ErrNotFound):
		// A producer missing from a stale directory can still deliver.
		m.logger.Warn("producer not in local directory", "producer_id", rec.ProducerID)
	default:
		return nil, err
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	if rec.SinglePerSession {
		decision, err := m.guard.Check(ctx, rec.ProducerID, rec.Session, rec.CaptureDate(), rec.WorkflowID)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			m.logger.Info("capture blocked by delivery guard",
				"producer_id", rec.ProducerID,
				"session", rec.Session,
				"reason", decision.Reason,
			)
			return nil, domain.ErrDeliveryBlocked
		}
		if decision.Continuation {
			m.logger.Debug("continuation capture allowed",
				"producer_id", rec.ProducerID,
				"workflow_id", rec.WorkflowID,
			)
		}
	}

	if err := m.queue.EnqueueDelivery(ctx, rec); err != nil {
		return nil, err
	}
	m.logger.Info("delivery queued",
		"local_key", rec.LocalKey,
		"producer_id", rec.ProducerID,
		"session", rec.Session,
		"weight_kg", rec.WeightKg,
	)
	return rec, nil
}

// CaptureSale enqueues the lines of one purchase event under one shared
// workflow id. All lines are validated before any is queued.
func (m *CaptureManager) CaptureSale(ctx context.Context, req driving.SaleCaptureRequest) ([]*domain.SaleRecord, error) {
	if len(req.Lines) == 0 || req.ProducerID == "" {
		return nil, domain.ErrInvalidInput
	}
	capturedAt := req.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = m.clock.Now()
	}
	workflowID := req.WorkflowID
	if workflowID == "" {
		workflowID = domain.NewWorkflowID()
	}

	records := make([]*domain.SaleRecord, 0, len(req.Lines))
	for _, line := range req.Lines {
		rec := &domain.SaleRecord{
			ReferenceID:   domain.NewReferenceID(),
			WorkflowID:    workflowID,
			ProducerID:    req.ProducerID,
			ItemCode:      line.ItemCode,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			AttachmentRef: req.AttachmentRef,
			CapturedAt:    capturedAt,
			ClerkID:       req.ClerkID,
			DeviceID:      m.deviceID,
		}
		if m.normalisers != nil {
			for _, n := range m.normalisers.GetAll(driven.KindSale) {
				n.NormaliseSale(rec)
			}
		}
		if rec.UnitPrice == 0 {
			item, err := m.refs.GetPricedItem(ctx, rec.ItemCode)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, domain.ErrInvalidInput
				}
				return nil, err
			}
			rec.UnitPrice = item.UnitPrice
		}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	for _, rec := range records {
		if err := m.queue.EnqueueSale(ctx, rec); err != nil {
			return nil, err
		}
	}
	m.logger.Info("sale queued",
		"workflow_id", workflowID,
		"producer_id", req.ProducerID,
		"lines", len(records),
	)
	return records, nil
}

// Pending returns the pending-count read model the UI banner polls.
func (m *CaptureManager) Pending(ctx context.Context) (*domain.PendingStatus, error) {
	count, err := m.queue.PendingCount(ctx)
	if err != nil {
		return nil, err
	}
	status := &domain.PendingStatus{
		PendingCount: count,
		Online:       m.monitor.Online(),
	}
	if last, ok := m.sync.LastResult(); ok {
		status.LastPass = last
	}
	if at, ok := m.sync.LastPassAt(); ok {
		status.LastPassAt = &at
	}
	return status, nil
}

// ListQueue returns every outstanding record, flagged ones included.
func (m *CaptureManager) ListQueue(ctx context.Context) (*driving.QueueListing, error) {
	deliveries, err := m.queue.ListUnsyncedDeliveries(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := m.queue.ListUnsyncedSales(ctx)
	if err != nil {
		return nil, err
	}
	return &driving.QueueListing{Deliveries: deliveries, Sales: sales}, nil
}
