package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
)

// ReferenceRefresher pulls reference data from the backend into the local
// store after a pass. Each dataset is independent: one failing fetch leaves
// the previous snapshot of that dataset in place and never blocks the rest.
type ReferenceRefresher struct {
	source driven.ReferenceSource
	store  driven.ReferenceStore
	logger *slog.Logger
}

// NewReferenceRefresher creates a new reference data refresher.
func NewReferenceRefresher(source driven.ReferenceSource, store driven.ReferenceStore, logger *slog.Logger) *ReferenceRefresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReferenceRefresher{
		source: source,
		store:  store,
		logger: logger,
	}
}

// RefreshAll refreshes every dataset best effort. It never returns an error:
// stale reference data is usable, an aborted refresh is not an emergency.
func (r *ReferenceRefresher) RefreshAll(ctx context.Context) *domain.RefreshResult {
	result := &domain.RefreshResult{At: time.Now()}

	r.record(result, domain.DatasetProducers, r.refreshProducers(ctx))
	r.record(result, domain.DatasetRoutes, r.refreshRoutes(ctx))
	r.record(result, domain.DatasetSessions, r.refreshSessionWindows(ctx))
	r.record(result, domain.DatasetItems, r.refreshPricedItems(ctx))

	return result
}

func (r *ReferenceRefresher) record(result *domain.RefreshResult, ds domain.ReferenceDataset, err error) {
	if err != nil {
		r.logger.Warn("reference refresh failed, keeping previous snapshot",
			"dataset", ds, "error", err)
		result.Failed = append(result.Failed, ds)
		return
	}
	result.Refreshed = append(result.Refreshed, ds)
}

func (r *ReferenceRefresher) refreshProducers(ctx context.Context) error {
	producers, err := r.source.FetchProducers(ctx)
	if err != nil {
		return err
	}
	if err := r.store.SaveProducers(ctx, producers); err != nil {
		return err
	}
	r.logger.Debug("producers refreshed", "count", len(producers))
	return nil
}

func (r *ReferenceRefresher) refreshRoutes(ctx context.Context) error {
	routes, err := r.source.FetchRoutes(ctx)
	if err != nil {
		return err
	}
	if err := r.store.SaveRoutes(ctx, routes); err != nil {
		return err
	}
	r.logger.Debug("routes refreshed", "count", len(routes))
	return nil
}

func (r *ReferenceRefresher) refreshSessionWindows(ctx context.Context) error {
	windows, err := r.source.FetchSessionWindows(ctx)
	if err != nil {
		return err
	}
	if err := r.store.SaveSessionWindows(ctx, windows); err != nil {
		return err
	}
	r.logger.Debug("session windows refreshed", "count", len(windows))
	return nil
}

func (r *ReferenceRefresher) refreshPricedItems(ctx context.Context) error {
	items, err := r.source.FetchPricedItems(ctx)
	if err != nil {
		return err
	}
	if err := r.store.SavePricedItems(ctx, items); err != nil {
		return err
	}
	r.logger.Debug("priced items refreshed", "count", len(items))
	return nil
}
