package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.SyncService = (*Orchestrator)(nil)

// VerifyPolicy controls what happens when the post-create verification read
// fails after the ledger accepted a record.
type VerifyPolicy string

const (
	// VerifyStrict leaves the record queued when verification cannot
	// confirm persistence; the next pass resubmits and relies on the
	// ledger's reference-id dedup.
	VerifyStrict VerifyPolicy = "strict"
	// VerifyOptimistic treats a failed verification read as success and
	// purges the record. This matches historical field behaviour but risks
	// a false purge after a lost acknowledgment.
	VerifyOptimistic VerifyPolicy = "optimistic"
)

// Default pacing between remote submissions within a pass.
const (
	DefaultInterItemDelay  = 100 * time.Millisecond
	DefaultInterChunkDelay = 200 * time.Millisecond
)

// Orchestrator drives one reconciliation pass: acquire the gate, dedup and
// group the queue, recheck the delivery guard against current remote state,
// submit each unit, classify outcomes, and purge or retry accordingly.
//
// Failures of one work unit never abort the pass for the others. The only
// pass-wide stop is an unauthorized device, which suspends the remaining
// submissions without purging anything.
type Orchestrator struct {
	queue     driven.DeliveryQueue
	ledger    driven.LedgerClient
	gate      *SyncGate
	monitor   driven.ConnectivityMonitor
	dedup     *Deduplicator
	refresher *ReferenceRefresher
	logger    *slog.Logger

	chunkSize       int
	interItemDelay  time.Duration
	interChunkDelay time.Duration
	verifyPolicy    VerifyPolicy

	mu         sync.RWMutex
	lastResult *domain.PassResult
	lastPassAt time.Time

	subMu sync.Mutex
	subs  []func(domain.SyncEvent)
}

// OrchestratorConfig holds dependencies for the orchestrator.
type OrchestratorConfig struct {
	Queue     driven.DeliveryQueue
	Ledger    driven.LedgerClient
	Gate      *SyncGate
	Monitor   driven.ConnectivityMonitor
	Refresher *ReferenceRefresher // optional; reference refresh is best-effort
	Logger    *slog.Logger

	ChunkSize       int           // default 10
	InterItemDelay  time.Duration // default 100ms
	InterChunkDelay time.Duration // default 200ms
	VerifyPolicy    VerifyPolicy  // default strict
}

// NewOrchestrator creates a new sync orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	interItem := cfg.InterItemDelay
	if interItem == 0 {
		interItem = DefaultInterItemDelay
	}
	interChunk := cfg.InterChunkDelay
	if interChunk == 0 {
		interChunk = DefaultInterChunkDelay
	}
	policy := cfg.VerifyPolicy
	if policy == "" {
		policy = VerifyStrict
	}
	return &Orchestrator{
		queue:           cfg.Queue,
		ledger:          cfg.Ledger,
		gate:            cfg.Gate,
		monitor:         cfg.Monitor,
		dedup:           NewDeduplicator(logger),
		refresher:       cfg.Refresher,
		logger:          logger,
		chunkSize:       chunkSize,
		interItemDelay:  interItem,
		interChunkDelay: interChunk,
		verifyPolicy:    policy,
	}
}

// Subscribe registers a callback for pass boundary events.
func (o *Orchestrator) Subscribe(fn func(domain.SyncEvent)) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	o.subs = append(o.subs, fn)
}

// LastResult returns the most recent pass result.
func (o *Orchestrator) LastResult() (*domain.PassResult, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.lastResult == nil {
		return nil, false
	}
	cp := *o.lastResult
	return &cp, true
}

// LastPassAt returns when the most recent pass finished.
func (o *Orchestrator) LastPassAt() (time.Time, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastPassAt, !o.lastPassAt.IsZero()
}

func (o *Orchestrator) emit(event domain.SyncEvent) {
	o.subMu.Lock()
	subs := make([]func(domain.SyncEvent), len(o.subs))
	copy(subs, o.subs)
	o.subMu.Unlock()
	for _, fn := range subs {
		fn(event)
	}
}

// RunPass executes one reconciliation pass. Gate refusal and an offline
// backend both yield skipped results, never errors.
func (o *Orchestrator) RunPass(ctx context.Context) (*domain.PassResult, error) {
	start := time.Now()

	if !o.gate.TryAcquire() {
		return &domain.PassResult{Status: domain.PassSkipped}, nil
	}

	if !o.monitor.Probe(ctx) {
		o.gate.Release(false)
		o.logger.Info("sync skipped, backend offline")
		return &domain.PassResult{Status: domain.PassSkippedOffline}, nil
	}

	o.logger.Info("sync pass starting")
	o.emit(domain.SyncEvent{Type: domain.SyncStarted, At: time.Now()})

	result, err := o.runLocked(ctx)
	result.Duration = time.Since(start)

	// Only a completed pass arms the debounce window; a suspended pass
	// may be retried as soon as the device is re-approved.
	o.gate.Release(result.Status == domain.PassCompleted)

	now := time.Now()
	o.mu.Lock()
	o.lastResult = result
	o.lastPassAt = now
	o.mu.Unlock()

	o.logger.Info("sync pass finished",
		"status", result.Status,
		"synced", result.Synced,
		"failed", result.Failed,
		"resolved", result.Resolved,
		"duration", result.Duration,
	)
	o.emit(domain.SyncEvent{Type: domain.SyncCompleted, Result: result, At: now})

	return result, err
}

// runLocked is the pass body; the caller holds the gate.
func (o *Orchestrator) runLocked(ctx context.Context) (*domain.PassResult, error) {
	result := &domain.PassResult{Status: domain.PassCompleted}

	deliveries, err := o.queue.ListUnsyncedDeliveries(ctx)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	sales, err := o.queue.ListUnsyncedSales(ctx)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	deliveryUnits := o.dedup.CollapseDeliveries(deliveries)
	saleUnits := GroupSales(o.dedup.CollapseSales(sales))
	chunks := ChunkDeliveries(deliveryUnits, o.chunkSize)

	suspended := false

	for ci, chunk := range chunks {
		for _, unit := range chunk {
			if ctx.Err() != nil {
				// Teardown mid-pass: work not yet submitted stays queued
				// for the next pass.
				return result, ctx.Err()
			}
			outcome, suspend := o.processDelivery(ctx, unit)
			o.tally(result, outcome)
			if suspend {
				suspended = true
				break
			}
			o.pause(ctx, o.interItemDelay)
		}
		if suspended {
			break
		}
		if ci < len(chunks)-1 {
			o.pause(ctx, o.interChunkDelay)
		}
	}

	if !suspended {
		for _, unit := range saleUnits {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			outcome, suspend := o.processSaleBatch(ctx, unit)
			o.tally(result, outcome)
			if suspend {
				suspended = true
				break
			}
			o.pause(ctx, o.interItemDelay)
		}
	}

	if suspended {
		result.Status = domain.PassSuspended
		result.Error = domain.ErrDeviceNotApproved.Error()
		return result, nil
	}

	if o.refresher != nil {
		// Best effort: a failed refresh never fails the pass.
		o.refresher.RefreshAll(ctx)
	}

	return result, nil
}

func (o *Orchestrator) tally(result *domain.PassResult, outcome domain.UnitOutcome) {
	switch outcome {
	case domain.UnitConfirmed:
		result.Synced++
	case domain.UnitDuplicateDetected:
		result.Resolved++
	case domain.UnitTransientFailure, domain.UnitValidationFailure:
		result.Failed++
	}
}

func (o *Orchestrator) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// processDelivery submits one delivery unit. The second return value is true
// when the device was reported unauthorized and the pass must suspend.
func (o *Orchestrator) processDelivery(ctx context.Context, unit *DeliveryUnit) (domain.UnitOutcome, bool) {
	rec := unit.Record
	logger := o.logger.With("reference_id", rec.ReferenceID, "producer_id", rec.ProducerID)

	if rec.Flagged {
		// Flagged validation failures wait for manual resolution; they are
		// not resubmitted automatically.
		logger.Debug("skipping flagged record")
		return "", false
	}

	// Authoritative guard recheck against current remote state. An existing
	// entry under a different workflow can never succeed: purge locally and
	// count it resolved, not failed.
	if rec.SinglePerSession {
		entry, err := o.ledger.LookupDelivery(ctx, rec.ProducerID, rec.Session, rec.CaptureDate())
		if err != nil {
			logger.Warn("guard recheck failed", "error", err)
			o.markFailed(ctx, rec.LocalKey, "guard recheck: "+err.Error(), false)
			return domain.UnitTransientFailure, false
		}
		if entry != nil && entry.WorkflowID != rec.WorkflowID {
			logger.Info("blocked duplicate, purging local copy",
				"existing_workflow_id", entry.WorkflowID,
			)
			o.deleteUnit(ctx, rec.LocalKey, deliveryDupKeys(unit))
			return domain.UnitDuplicateDetected, false
		}
	}

	res, err := o.ledger.CreateDelivery(ctx, rec)
	if err != nil {
		logger.Warn("submit failed", "error", err)
		o.markFailed(ctx, rec.LocalKey, err.Error(), false)
		return domain.UnitTransientFailure, false
	}

	switch res.Status {
	case domain.SubmitAccepted:
		if !o.verified(ctx, rec.ReferenceID, logger) {
			o.markFailed(ctx, rec.LocalKey, "verification failed after accept", false)
			return domain.UnitTransientFailure, false
		}
		o.deleteUnit(ctx, rec.LocalKey, deliveryDupKeys(unit))
		logger.Info("delivery confirmed", "entry_id", res.EntryID)
		return domain.UnitConfirmed, false

	case domain.SubmitDuplicate:
		// The ledger already holds this transaction; purging is success.
		o.deleteUnit(ctx, rec.LocalKey, deliveryDupKeys(unit))
		logger.Info("delivery already in ledger, purged",
			"existing_workflow_id", res.ExistingWorkflowID,
		)
		return domain.UnitDuplicateDetected, false

	case domain.SubmitValidationFailed:
		logger.Warn("delivery rejected", "reason", res.Message)
		o.markFailed(ctx, rec.LocalKey, res.Message, true)
		return domain.UnitValidationFailure, false

	case domain.SubmitUnauthorized:
		logger.Error("device not approved, suspending pass")
		return "", true

	default: // SubmitTransientError
		o.markFailed(ctx, rec.LocalKey, res.Message, false)
		return domain.UnitTransientFailure, false
	}
}

// processSaleBatch submits one sale batch. All lines succeed or stay queued
// together; none are partially removed.
func (o *Orchestrator) processSaleBatch(ctx context.Context, unit *SaleUnit) (domain.UnitOutcome, bool) {
	batch := unit.Batch
	logger := o.logger.With("workflow_id", batch.WorkflowID, "lines", len(batch.Lines))

	flagged := 0
	for _, line := range batch.Lines {
		if line.Flagged {
			flagged++
		}
	}
	if flagged == len(batch.Lines) {
		logger.Debug("skipping flagged sale batch")
		return "", false
	}

	res, err := o.ledger.CreateSaleBatch(ctx, batch)
	if err != nil {
		logger.Warn("submit failed", "error", err)
		o.markLinesFailed(ctx, batch, err.Error(), false)
		return domain.UnitTransientFailure, false
	}

	switch res.Status {
	case domain.SubmitAccepted, domain.SubmitDuplicate:
		keys := batch.LocalKeys()
		for _, dup := range unit.Duplicates {
			keys = append(keys, dup.LocalKey)
		}
		for _, key := range keys {
			if err := o.queue.Delete(ctx, key); err != nil {
				logger.Error("failed to delete synced sale line", "local_key", key, "error", err)
			}
		}
		logger.Info("sale batch confirmed")
		if res.Status == domain.SubmitDuplicate {
			return domain.UnitDuplicateDetected, false
		}
		return domain.UnitConfirmed, false

	case domain.SubmitValidationFailed:
		logger.Warn("sale batch rejected", "reason", res.Message)
		o.markLinesFailed(ctx, batch, res.Message, true)
		return domain.UnitValidationFailure, false

	case domain.SubmitUnauthorized:
		logger.Error("device not approved, suspending pass")
		return "", true

	default:
		o.markLinesFailed(ctx, batch, res.Message, false)
		return domain.UnitTransientFailure, false
	}
}

// verified applies the configured verification policy after an accept.
func (o *Orchestrator) verified(ctx context.Context, referenceID string, logger *slog.Logger) bool {
	ok, err := o.ledger.VerifyDelivery(ctx, referenceID)
	if err != nil {
		if o.verifyPolicy == VerifyOptimistic {
			logger.Warn("verification read failed, assuming success", "error", err)
			return true
		}
		logger.Warn("verification read failed, keeping record queued", "error", err)
		return false
	}
	return ok
}

func (o *Orchestrator) deleteUnit(ctx context.Context, key string, dupKeys []string) {
	if err := o.queue.Delete(ctx, key); err != nil {
		o.logger.Error("failed to delete queue entry", "local_key", key, "error", err)
	}
	for _, dup := range dupKeys {
		if err := o.queue.Delete(ctx, dup); err != nil {
			o.logger.Error("failed to delete duplicate queue entry", "local_key", dup, "error", err)
		}
	}
}

func (o *Orchestrator) markFailed(ctx context.Context, key, reason string, flagged bool) {
	if err := o.queue.MarkFailed(ctx, key, reason, flagged); err != nil {
		o.logger.Error("failed to record failure reason", "local_key", key, "error", err)
	}
}

func (o *Orchestrator) markLinesFailed(ctx context.Context, batch *domain.SaleBatch, reason string, flagged bool) {
	for _, line := range batch.Lines {
		o.markFailed(ctx, line.LocalKey, reason, flagged)
	}
}

func deliveryDupKeys(unit *DeliveryUnit) []string {
	keys := make([]string, 0, len(unit.Duplicates))
	for _, dup := range unit.Duplicates {
		keys = append(keys, dup.LocalKey)
	}
	return keys
}
