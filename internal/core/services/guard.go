package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.GuardService = (*DeliveryGuard)(nil)

// DefaultGuardConcurrency bounds simultaneous remote existence checks.
const DefaultGuardConcurrency = 5

// DeliveryGuard computes, per restricted producer, whether a new independent
// capture must currently be refused. The blocked set is recomputed on demand
// rather than incrementally maintained: the restricted set is small and the
// check is cheap to redo.
//
// The guard is advisory at capture time. Authoritative rejection still
// happens during the sync pass, because remote state can change between a
// local block-check and an eventual sync.
type DeliveryGuard struct {
	queue       driven.DeliveryQueue
	ledger      driven.LedgerClient
	refs        driven.ReferenceStore
	concurrency int
	logger      *slog.Logger
}

// GuardConfig holds dependencies for the delivery guard.
type GuardConfig struct {
	Queue       driven.DeliveryQueue
	Ledger      driven.LedgerClient
	Refs        driven.ReferenceStore
	Concurrency int // default 5
	Logger      *slog.Logger
}

// NewDeliveryGuard creates a new delivery guard.
func NewDeliveryGuard(cfg GuardConfig) *DeliveryGuard {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultGuardConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryGuard{
		queue:       cfg.Queue,
		ledger:      cfg.Ledger,
		refs:        cfg.Refs,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Check evaluates one capture attempt. An attempt sharing the workflow id of
// an existing queued or ledger entry is a continuation of an already
// authorized delivery and is allowed through; an attempt with a different
// workflow id against an existing entry is refused.
func (g *DeliveryGuard) Check(ctx context.Context, producerID string, session domain.Session, date, workflowID string) (*driving.GuardDecision, error) {
	producer, err := g.refs.GetProducer(ctx, producerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Producer not in the cached directory: nothing restricts it.
			return &driving.GuardDecision{Allowed: true}, nil
		}
		return nil, err
	}
	if !producer.SinglePerSession {
		return &driving.GuardDecision{Allowed: true}, nil
	}

	// Step 1: unsynced queue entries for this producer, session and date.
	queued, err := g.queue.UnsyncedDeliveriesFor(ctx, producerID, session, date)
	if err != nil {
		return nil, fmt.Errorf("list queued deliveries: %w", err)
	}
	for _, rec := range queued {
		if workflowID != "" && rec.WorkflowID == workflowID {
			return &driving.GuardDecision{
				Allowed:            true,
				Continuation:       true,
				ExistingWorkflowID: rec.WorkflowID,
			}, nil
		}
	}
	if len(queued) > 0 {
		return &driving.GuardDecision{
			Allowed:            false,
			Reason:             "producer already delivered this session",
			ExistingWorkflowID: queued[0].WorkflowID,
		}, nil
	}

	// Step 2: remote existence check. A lookup failure leaves the decision
	// to the authoritative recheck during sync; refusing captures while
	// offline would defeat the point of the queue.
	entry, err := g.ledger.LookupDelivery(ctx, producerID, session, date)
	if err != nil {
		g.logger.Warn("guard ledger lookup failed, allowing capture",
			"producer_id", producerID,
			"error", err,
		)
		return &driving.GuardDecision{Allowed: true}, nil
	}
	if entry == nil {
		return &driving.GuardDecision{Allowed: true}, nil
	}
	if workflowID != "" && entry.WorkflowID == workflowID {
		return &driving.GuardDecision{
			Allowed:            true,
			Continuation:       true,
			ExistingWorkflowID: entry.WorkflowID,
		}, nil
	}
	return &driving.GuardDecision{
		Allowed:            false,
		Reason:             "producer already delivered this session",
		ExistingWorkflowID: entry.WorkflowID,
	}, nil
}

// Blocked recomputes the full blocked set for the current session/date
// window: first the unsynced queue, then concurrency-bounded remote
// existence checks for restricted producers not already blocked locally.
func (g *DeliveryGuard) Blocked(ctx context.Context, session domain.Session, date string) (map[string]bool, error) {
	restricted, err := g.refs.ListRestrictedProducers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restricted producers: %w", err)
	}

	blocked := make(map[string]bool)
	var remaining []*domain.Producer
	for _, p := range restricted {
		queued, err := g.queue.UnsyncedDeliveriesFor(ctx, p.ID, session, date)
		if err != nil {
			return nil, fmt.Errorf("list queued deliveries: %w", err)
		}
		if len(queued) > 0 {
			blocked[p.ID] = true
			continue
		}
		remaining = append(remaining, p)
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for _, p := range remaining {
		eg.Go(func() error {
			entry, err := g.ledger.LookupDelivery(egCtx, p.ID, session, date)
			if err != nil {
				g.logger.Warn("guard ledger lookup failed",
					"producer_id", p.ID,
					"error", err,
				)
				return nil
			}
			if entry != nil {
				mu.Lock()
				blocked[p.ID] = true
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return blocked, nil
}
