package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Connect(context.Background(), DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleDelivery(producerID, workflowID string) *domain.DeliveryRecord {
	return &domain.DeliveryRecord{
		ReferenceID:      domain.NewReferenceID(),
		WorkflowID:       workflowID,
		ProducerID:       producerID,
		ProducerName:     "Producer " + producerID,
		RouteCode:        "RT-1",
		Session:          domain.SessionAM,
		WeightKg:         12.5,
		CapturedAt:       time.Now().Truncate(time.Second),
		ClerkID:          "C1",
		DeviceID:         "DEV-1",
		EntryMethod:      domain.EntryMethodScale,
		SinglePerSession: true,
	}
}

func TestQueue_EnqueueAndListDeliveries(t *testing.T) {
	queue := NewQueue(testDB(t))
	ctx := context.Background()

	gross, tare := 14.5, 2.0
	rec := sampleDelivery("P1", "W1")
	rec.GrossKg = &gross
	rec.TareKg = &tare
	if err := queue.EnqueueDelivery(ctx, rec); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if rec.LocalKey == "" {
		t.Fatal("expected local key assigned on enqueue")
	}

	list, err := queue.ListUnsyncedDeliveries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(list))
	}
	got := list[0]
	if got.ReferenceID != rec.ReferenceID || got.ProducerID != "P1" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.GrossKg == nil || *got.GrossKg != 14.5 || got.TareKg == nil || *got.TareKg != 2.0 {
		t.Error("expected dual-weight components persisted")
	}
	if !got.SinglePerSession {
		t.Error("expected policy flag persisted")
	}
}

func TestQueue_UnsyncedDeliveriesForFiltersByGuardKey(t *testing.T) {
	queue := NewQueue(testDB(t))
	ctx := context.Background()

	am := sampleDelivery("P1", "W1")
	pm := sampleDelivery("P1", "W2")
	pm.Session = domain.SessionPM
	other := sampleDelivery("P2", "W3")
	for _, r := range []*domain.DeliveryRecord{am, pm, other} {
		if err := queue.EnqueueDelivery(ctx, r); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	got, err := queue.UnsyncedDeliveriesFor(ctx, "P1", domain.SessionAM, am.CaptureDate())
	if err != nil {
		t.Fatalf("list for producer: %v", err)
	}
	if len(got) != 1 || got[0].WorkflowID != "W1" {
		t.Fatalf("expected only the AM record for P1, got %d", len(got))
	}

	got, err = queue.UnsyncedDeliveriesFor(ctx, "P1", domain.SessionAM, "1999-01-01")
	if err != nil {
		t.Fatalf("list for producer: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records for a different date, got %d", len(got))
	}
}

func TestQueue_DeleteIsIdempotent(t *testing.T) {
	queue := NewQueue(testDB(t))
	ctx := context.Background()

	rec := sampleDelivery("P1", "W1")
	if err := queue.EnqueueDelivery(ctx, rec); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := queue.Delete(ctx, rec.LocalKey); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Retrying the same removal after a crash must succeed silently.
	if err := queue.Delete(ctx, rec.LocalKey); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if err := queue.Delete(ctx, "never-existed"); err != nil {
		t.Fatalf("delete of absent key: %v", err)
	}

	count, err := queue.PendingCount(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty queue, got %d", count)
	}
}

func TestQueue_MarkFailedRecordsReasonAndAttempts(t *testing.T) {
	queue := NewQueue(testDB(t))
	ctx := context.Background()

	rec := sampleDelivery("P1", "W1")
	if err := queue.EnqueueDelivery(ctx, rec); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := queue.MarkFailed(ctx, rec.LocalKey, "gateway timeout", false); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := queue.MarkFailed(ctx, rec.LocalKey, "weight exceeds route maximum", true); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	list, _ := queue.ListUnsyncedDeliveries(ctx)
	if len(list) != 1 {
		t.Fatalf("expected the record still queued, got %d", len(list))
	}
	got := list[0]
	if got.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", got.Attempts)
	}
	if got.FailureReason == nil || *got.FailureReason != "weight exceeds route maximum" {
		t.Error("expected the latest failure reason recorded")
	}
	if !got.Flagged {
		t.Error("expected the record flagged")
	}

	if err := queue.MarkFailed(ctx, "never-existed", "x", false); err != domain.ErrNotFound {
		t.Errorf("expected not found for absent key, got %v", err)
	}
}

func TestQueue_SaleRoundTrip(t *testing.T) {
	queue := NewQueue(testDB(t))
	ctx := context.Background()

	rec := &domain.SaleRecord{
		ReferenceID:   domain.NewReferenceID(),
		WorkflowID:    "WS1",
		ProducerID:    "P1",
		ItemCode:      "FEED-50",
		Quantity:      2,
		UnitPrice:     2500,
		AttachmentRef: "att-1",
		CapturedAt:    time.Now().Truncate(time.Second),
		ClerkID:       "C1",
		DeviceID:      "DEV-1",
	}
	if err := queue.EnqueueSale(ctx, rec); err != nil {
		t.Fatalf("enqueue sale: %v", err)
	}

	list, err := queue.ListUnsyncedSales(ctx)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(list))
	}
	got := list[0]
	if got.ItemCode != "FEED-50" || got.AttachmentRef != "att-1" || got.Total() != 5000 {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	count, _ := queue.PendingCount(ctx)
	if count != 1 {
		t.Errorf("expected 1 pending, got %d", count)
	}

	if err := queue.Delete(ctx, got.LocalKey); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	count, _ = queue.PendingCount(ctx)
	if count != 0 {
		t.Errorf("expected 0 pending after delete, got %d", count)
	}
}
