package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

func TestReferenceStore_ProducerRoundTrip(t *testing.T) {
	store := NewReferenceStore(testDB(t))
	ctx := context.Background()

	err := store.SaveProducers(ctx, []*domain.Producer{
		{ID: "P1", Name: "Amina Yusuf", RouteCode: "RT-1", SinglePerSession: true, Active: true},
		{ID: "P2", Name: "Joseph Kariuki", RouteCode: "RT-2", Active: true},
	})
	if err != nil {
		t.Fatalf("save producers: %v", err)
	}

	p, err := store.GetProducer(ctx, "P1")
	if err != nil {
		t.Fatalf("get producer: %v", err)
	}
	if p.Name != "Amina Yusuf" || !p.SinglePerSession {
		t.Errorf("round-trip mismatch: %+v", p)
	}

	if _, err := store.GetProducer(ctx, "P404"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	restricted, err := store.ListRestrictedProducers(ctx)
	if err != nil {
		t.Fatalf("list restricted: %v", err)
	}
	if len(restricted) != 1 || restricted[0].ID != "P1" {
		t.Errorf("expected only P1 restricted, got %+v", restricted)
	}
}

func TestReferenceStore_SaveReplacesDataset(t *testing.T) {
	store := NewReferenceStore(testDB(t))
	ctx := context.Background()

	_ = store.SaveProducers(ctx, []*domain.Producer{{ID: "P1", Name: "Old", Active: true}})
	_ = store.SaveProducers(ctx, []*domain.Producer{{ID: "P2", Name: "New", Active: true}})

	if _, err := store.GetProducer(ctx, "P1"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("expected old snapshot replaced")
	}
	if _, err := store.GetProducer(ctx, "P2"); err != nil {
		t.Errorf("expected new snapshot present: %v", err)
	}
}

func TestReferenceStore_PricedItems(t *testing.T) {
	store := NewReferenceStore(testDB(t))
	ctx := context.Background()

	err := store.SavePricedItems(ctx, []*domain.PricedItem{
		{Code: "FEED-50", Name: "Feed 50kg", UnitPrice: 2500, Active: true},
	})
	if err != nil {
		t.Fatalf("save items: %v", err)
	}

	it, err := store.GetPricedItem(ctx, "FEED-50")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if it.UnitPrice != 2500 {
		t.Errorf("expected price 2500, got %v", it.UnitPrice)
	}
	if _, err := store.GetPricedItem(ctx, "NOPE"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestClerkStore_SaveAndUpdate(t *testing.T) {
	db := testDB(t)
	store := NewClerkStore(db)
	ctx := context.Background()

	clerk := &domain.Clerk{ID: "C1", Name: "Amina", PinHash: "hash-1", Active: true}
	if err := store.SaveClerk(ctx, clerk); err != nil {
		t.Fatalf("save clerk: %v", err)
	}

	got, err := store.GetClerk(ctx, "C1")
	if err != nil {
		t.Fatalf("get clerk: %v", err)
	}
	if got.PinHash != "hash-1" || !got.Active {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	clerk.PinHash = "hash-2"
	clerk.Active = false
	if err := store.SaveClerk(ctx, clerk); err != nil {
		t.Fatalf("update clerk: %v", err)
	}
	got, _ = store.GetClerk(ctx, "C1")
	if got.PinHash != "hash-2" || got.Active {
		t.Errorf("expected upsert to replace fields, got %+v", got)
	}

	if _, err := store.GetClerk(ctx, "C404"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
