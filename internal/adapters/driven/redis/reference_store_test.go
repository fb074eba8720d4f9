package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// setupTestStore creates a miniredis-backed ReferenceStore
func setupTestStore(t *testing.T) (*ReferenceStore, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return NewReferenceStore(client), func() {
		client.Close()
		mr.Close()
	}
}

func TestReferenceStore_ProducerRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
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
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := store.SaveProducers(ctx, []*domain.Producer{
		{ID: "P1", Name: "Old", SinglePerSession: true, Active: true},
	})
	if err != nil {
		t.Fatalf("save producers: %v", err)
	}
	err = store.SaveProducers(ctx, []*domain.Producer{
		{ID: "P2", Name: "New", Active: true},
	})
	if err != nil {
		t.Fatalf("save producers: %v", err)
	}

	if _, err := store.GetProducer(ctx, "P1"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("expected old producer removed with the old snapshot")
	}
	restricted, _ := store.ListRestrictedProducers(ctx)
	if len(restricted) != 0 {
		t.Errorf("expected restricted index rebuilt, got %+v", restricted)
	}
}

func TestReferenceStore_PricedItems(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := store.SavePricedItems(ctx, []*domain.PricedItem{
		{Code: "FEED-50", Name: "Feed 50kg", UnitPrice: 2500, Active: true},
		{Code: "SALT-2", Name: "Salt 2kg", UnitPrice: 300, Active: true},
	})
	if err != nil {
		t.Fatalf("save items: %v", err)
	}

	it, err := store.GetPricedItem(ctx, "SALT-2")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if it.UnitPrice != 300 {
		t.Errorf("expected price 300, got %v", it.UnitPrice)
	}

	if _, err := store.GetPricedItem(ctx, "NOPE"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestReferenceStore_RoutesAndWindows(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := store.SaveRoutes(ctx, []*domain.Route{{Code: "RT-1", Name: "North", Active: true}})
	if err != nil {
		t.Fatalf("save routes: %v", err)
	}
	err = store.SaveSessionWindows(ctx, []*domain.SessionWindow{
		{Session: domain.SessionAM, Opens: "05:30", Closes: "12:00"},
	})
	if err != nil {
		t.Fatalf("save windows: %v", err)
	}

	if err := store.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}
