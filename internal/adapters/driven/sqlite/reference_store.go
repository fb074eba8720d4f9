package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
)

// Ensure ReferenceStore implements driven.ReferenceStore
var _ driven.ReferenceStore = (*ReferenceStore)(nil)

// ReferenceStore caches lookup datasets in the device SQLite file. It is the
// fallback when Redis is not configured; both backends expose the same port.
// Saves replace the whole dataset in one transaction so readers never see a
// half-applied refresh.
type ReferenceStore struct {
	db *DB
}

// NewReferenceStore creates a new SQLite-backed reference store.
func NewReferenceStore(db *DB) *ReferenceStore {
	return &ReferenceStore{db: db}
}

// SaveProducers replaces the cached producer directory.
func (s *ReferenceStore) SaveProducers(ctx context.Context, producers []*domain.Producer) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM producers`); err != nil {
			return fmt.Errorf("clear producers: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO producers (id, name, route_code, single_per_session, active)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()
		for _, p := range producers {
			if _, err := stmt.ExecContext(ctx, p.ID, p.Name, p.RouteCode, p.SinglePerSession, p.Active); err != nil {
				return fmt.Errorf("insert producer %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// GetProducer returns a producer by id, or domain.ErrNotFound.
func (s *ReferenceStore) GetProducer(ctx context.Context, id string) (*domain.Producer, error) {
	var p domain.Producer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, route_code, single_per_session, active
		FROM producers WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.RouteCode, &p.SinglePerSession, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get producer: %w", err)
	}
	return &p, nil
}

// ListRestrictedProducers returns active producers limited to one delivery
// per session per day.
func (s *ReferenceStore) ListRestrictedProducers(ctx context.Context) ([]*domain.Producer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, route_code, single_per_session, active
		FROM producers
		WHERE single_per_session = 1 AND active = 1
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list restricted producers: %w", err)
	}
	defer rows.Close()

	var out []*domain.Producer
	for rows.Next() {
		var p domain.Producer
		if err := rows.Scan(&p.ID, &p.Name, &p.RouteCode, &p.SinglePerSession, &p.Active); err != nil {
			return nil, fmt.Errorf("scan producer: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// SaveRoutes replaces the cached route list.
func (s *ReferenceStore) SaveRoutes(ctx context.Context, routes []*domain.Route) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM routes`); err != nil {
			return fmt.Errorf("clear routes: %w", err)
		}
		for _, r := range routes {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO routes (code, name, active) VALUES (?, ?, ?)
			`, r.Code, r.Name, r.Active)
			if err != nil {
				return fmt.Errorf("insert route %s: %w", r.Code, err)
			}
		}
		return nil
	})
}

// SaveSessionWindows replaces the cached session windows.
func (s *ReferenceStore) SaveSessionWindows(ctx context.Context, windows []*domain.SessionWindow) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_windows`); err != nil {
			return fmt.Errorf("clear session windows: %w", err)
		}
		for _, w := range windows {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO session_windows (session, opens, closes) VALUES (?, ?, ?)
			`, w.Session, w.Opens, w.Closes)
			if err != nil {
				return fmt.Errorf("insert session window %s: %w", w.Session, err)
			}
		}
		return nil
	})
}

// SavePricedItems replaces the cached item price list.
func (s *ReferenceStore) SavePricedItems(ctx context.Context, items []*domain.PricedItem) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM priced_items`); err != nil {
			return fmt.Errorf("clear priced items: %w", err)
		}
		for _, it := range items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO priced_items (code, name, unit_price, active) VALUES (?, ?, ?, ?)
			`, it.Code, it.Name, it.UnitPrice, it.Active)
			if err != nil {
				return fmt.Errorf("insert priced item %s: %w", it.Code, err)
			}
		}
		return nil
	})
}

// GetPricedItem returns an item by code, or domain.ErrNotFound.
func (s *ReferenceStore) GetPricedItem(ctx context.Context, code string) (*domain.PricedItem, error) {
	var it domain.PricedItem
	err := s.db.QueryRowContext(ctx, `
		SELECT code, name, unit_price, active
		FROM priced_items WHERE code = ?
	`, code).Scan(&it.Code, &it.Name, &it.UnitPrice, &it.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get priced item: %w", err)
	}
	return &it, nil
}

// Ping checks if the database is reachable
func (s *ReferenceStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
