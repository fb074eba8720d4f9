package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
)

// Ensure Queue implements DeliveryQueue
var _ driven.DeliveryQueue = (*Queue)(nil)

// Queue implements DeliveryQueue on the device-local SQLite file. This is the
// default backend: every capture is durable before the capture call returns.
type Queue struct {
	db *DB
}

// NewQueue creates a new SQLite-backed delivery queue.
func NewQueue(db *DB) *Queue {
	return &Queue{db: db}
}

const deliveryColumns = `
	local_key, reference_id, workflow_id, producer_id, producer_name,
	route_code, session, weight_kg, gross_kg, tare_kg, captured_at,
	capture_date, clerk_id, device_id, entry_method, single_per_session,
	synced, attempts, failure_reason, flagged
`

// EnqueueDelivery persists a delivery record. The local key is assigned here
// when the record does not carry one yet.
func (q *Queue) EnqueueDelivery(ctx context.Context, rec *domain.DeliveryRecord) error {
	if rec.LocalKey == "" {
		rec.LocalKey = domain.GenerateID()
	}

	query := `
		INSERT INTO deliveries (` + deliveryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, query,
		rec.LocalKey,
		rec.ReferenceID,
		rec.WorkflowID,
		rec.ProducerID,
		rec.ProducerName,
		rec.RouteCode,
		rec.Session,
		rec.WeightKg,
		NullFloat(rec.GrossKg),
		NullFloat(rec.TareKg),
		rec.CapturedAt,
		rec.CaptureDate(),
		rec.ClerkID,
		rec.DeviceID,
		rec.EntryMethod,
		rec.SinglePerSession,
		rec.Synced,
		rec.Attempts,
		NullString(rec.FailureReason),
		rec.Flagged,
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// EnqueueSale persists one sale line.
func (q *Queue) EnqueueSale(ctx context.Context, rec *domain.SaleRecord) error {
	if rec.LocalKey == "" {
		rec.LocalKey = domain.GenerateID()
	}

	query := `
		INSERT INTO sales (
			local_key, reference_id, workflow_id, producer_id, item_code,
			quantity, unit_price, attachment_ref, captured_at, clerk_id,
			device_id, synced, attempts, failure_reason, flagged
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	attachment := sql.NullString{String: rec.AttachmentRef, Valid: rec.AttachmentRef != ""}
	_, err := q.db.ExecContext(ctx, query,
		rec.LocalKey,
		rec.ReferenceID,
		rec.WorkflowID,
		rec.ProducerID,
		rec.ItemCode,
		rec.Quantity,
		rec.UnitPrice,
		attachment,
		rec.CapturedAt,
		rec.ClerkID,
		rec.DeviceID,
		rec.Synced,
		rec.Attempts,
		NullString(rec.FailureReason),
		rec.Flagged,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// ListUnsyncedDeliveries returns outstanding deliveries in insertion order.
func (q *Queue) ListUnsyncedDeliveries(ctx context.Context) ([]*domain.DeliveryRecord, error) {
	query := `
		SELECT ` + deliveryColumns + `
		FROM deliveries
		WHERE synced = 0
		ORDER BY created_at, local_key
	`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()
	return scanDeliveries(rows)
}

// ListUnsyncedSales returns outstanding sale lines in insertion order.
func (q *Queue) ListUnsyncedSales(ctx context.Context) ([]*domain.SaleRecord, error) {
	query := `
		SELECT local_key, reference_id, workflow_id, producer_id, item_code,
		       quantity, unit_price, attachment_ref, captured_at, clerk_id,
		       device_id, synced, attempts, failure_reason, flagged
		FROM sales
		WHERE synced = 0
		ORDER BY created_at, local_key
	`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []*domain.SaleRecord
	for rows.Next() {
		rec, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UnsyncedDeliveriesFor returns outstanding deliveries for a producer,
// session and capture date, the guard's local view.
func (q *Queue) UnsyncedDeliveriesFor(ctx context.Context, producerID string, session domain.Session, date string) ([]*domain.DeliveryRecord, error) {
	query := `
		SELECT ` + deliveryColumns + `
		FROM deliveries
		WHERE synced = 0 AND producer_id = ? AND session = ? AND capture_date = ?
		ORDER BY created_at, local_key
	`
	rows, err := q.db.QueryContext(ctx, query, producerID, session, date)
	if err != nil {
		return nil, fmt.Errorf("list deliveries for producer: %w", err)
	}
	defer rows.Close()
	return scanDeliveries(rows)
}

// Delete removes a record by local key. Deleting an absent key is a no-op:
// a completed removal retried after a crash must not fail.
func (q *Queue) Delete(ctx context.Context, localKey string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM deliveries WHERE local_key = ?`, localKey)
	if err != nil {
		return fmt.Errorf("delete delivery: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM sales WHERE local_key = ?`, localKey); err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	return nil
}

// MarkFailed records a failure reason and bumps the attempt counter.
func (q *Queue) MarkFailed(ctx context.Context, localKey string, reason string, flagged bool) error {
	query := `
		UPDATE deliveries
		SET attempts = attempts + 1, failure_reason = ?, flagged = ?
		WHERE local_key = ?
	`
	res, err := q.db.ExecContext(ctx, query, reason, flagged, localKey)
	if err != nil {
		return fmt.Errorf("mark delivery failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	query = `
		UPDATE sales
		SET attempts = attempts + 1, failure_reason = ?, flagged = ?
		WHERE local_key = ?
	`
	res, err = q.db.ExecContext(ctx, query, reason, flagged, localKey)
	if err != nil {
		return fmt.Errorf("mark sale failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// PendingCount returns the number of outstanding records across both tables.
func (q *Queue) PendingCount(ctx context.Context) (int, error) {
	var count int
	query := `
		SELECT (SELECT COUNT(*) FROM deliveries WHERE synced = 0)
		     + (SELECT COUNT(*) FROM sales WHERE synced = 0)
	`
	if err := q.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return count, nil
}

// Ping checks if the database is reachable
func (q *Queue) Ping(ctx context.Context) error {
	return q.db.Ping(ctx)
}

// Close closes the underlying database
func (q *Queue) Close() error {
	return q.db.Close()
}

func scanDeliveries(rows *sql.Rows) ([]*domain.DeliveryRecord, error) {
	var out []*domain.DeliveryRecord
	for rows.Next() {
		var (
			rec         domain.DeliveryRecord
			gross, tare sql.NullFloat64
			captureDate string
			capturedAt  time.Time
			reason      sql.NullString
		)
		err := rows.Scan(
			&rec.LocalKey,
			&rec.ReferenceID,
			&rec.WorkflowID,
			&rec.ProducerID,
			&rec.ProducerName,
			&rec.RouteCode,
			&rec.Session,
			&rec.WeightKg,
			&gross,
			&tare,
			&capturedAt,
			&captureDate,
			&rec.ClerkID,
			&rec.DeviceID,
			&rec.EntryMethod,
			&rec.SinglePerSession,
			&rec.Synced,
			&rec.Attempts,
			&reason,
			&rec.Flagged,
		)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		rec.GrossKg = FloatPtr(gross)
		rec.TareKg = FloatPtr(tare)
		rec.CapturedAt = capturedAt
		rec.FailureReason = StringPtr(reason)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func scanSale(rows *sql.Rows) (*domain.SaleRecord, error) {
	var (
		rec        domain.SaleRecord
		attachment sql.NullString
		reason     sql.NullString
	)
	err := rows.Scan(
		&rec.LocalKey,
		&rec.ReferenceID,
		&rec.WorkflowID,
		&rec.ProducerID,
		&rec.ItemCode,
		&rec.Quantity,
		&rec.UnitPrice,
		&attachment,
		&rec.CapturedAt,
		&rec.ClerkID,
		&rec.DeviceID,
		&rec.Synced,
		&rec.Attempts,
		&reason,
		&rec.Flagged,
	)
	if err != nil {
		return nil, fmt.Errorf("scan sale: %w", err)
	}
	rec.AttachmentRef = attachment.String
	rec.FailureReason = StringPtr(reason)
	return &rec, nil
}
