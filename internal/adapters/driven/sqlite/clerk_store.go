package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
)

// Ensure ClerkStore implements driven.ClerkStore
var _ driven.ClerkStore = (*ClerkStore)(nil)

// ClerkStore persists clerk credentials in the device SQLite file so sign-in
// works with no connectivity at all.
type ClerkStore struct {
	db *DB
}

// NewClerkStore creates a new SQLite-backed clerk store.
func NewClerkStore(db *DB) *ClerkStore {
	return &ClerkStore{db: db}
}

// SaveClerk creates or updates a clerk.
func (s *ClerkStore) SaveClerk(ctx context.Context, clerk *domain.Clerk) error {
	query := `
		INSERT INTO clerks (id, name, pin_hash, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			pin_hash = excluded.pin_hash,
			active = excluded.active
	`
	if _, err := s.db.ExecContext(ctx, query, clerk.ID, clerk.Name, clerk.PinHash, clerk.Active); err != nil {
		return fmt.Errorf("save clerk: %w", err)
	}
	return nil
}

// GetClerk returns a clerk by id, or domain.ErrNotFound.
func (s *ClerkStore) GetClerk(ctx context.Context, id string) (*domain.Clerk, error) {
	var c domain.Clerk
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, pin_hash, active FROM clerks WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.PinHash, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get clerk: %w", err)
	}
	return &c, nil
}
