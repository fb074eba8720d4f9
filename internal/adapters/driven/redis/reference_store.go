package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ReferenceStore = (*ReferenceStore)(nil)

const (
	// Key prefixes for Redis
	producerPrefix   = "ref:producer:"
	itemPrefix       = "ref:item:"
	restrictedSetKey = "ref:producers:restricted"
	producerSetKey   = "ref:producers:all"
	itemSetKey       = "ref:items:all"
	routesKey        = "ref:routes"
	sessionsKey      = "ref:sessions"
)

// ReferenceStore implements driven.ReferenceStore using Redis. Preferred on
// hub deployments where several stations share one cache; datasets have no
// TTL because stale reference data is explicitly usable until the next
// refresh replaces it.
type ReferenceStore struct {
	client *redis.Client
}

// NewReferenceStore creates a new Redis-backed ReferenceStore
func NewReferenceStore(client *redis.Client) *ReferenceStore {
	return &ReferenceStore{client: client}
}

// SaveProducers replaces the cached producer directory atomically.
func (s *ReferenceStore) SaveProducers(ctx context.Context, producers []*domain.Producer) error {
	// Collect old keys so a shrunk directory does not leave orphans.
	oldIDs, err := s.client.SMembers(ctx, producerSetKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read producer index: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, id := range oldIDs {
		pipe.Del(ctx, producerPrefix+id)
	}
	pipe.Del(ctx, producerSetKey, restrictedSetKey)

	for _, p := range producers {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal producer %s: %w", p.ID, err)
		}
		pipe.Set(ctx, producerPrefix+p.ID, data, 0)
		pipe.SAdd(ctx, producerSetKey, p.ID)
		if p.SinglePerSession && p.Active {
			pipe.SAdd(ctx, restrictedSetKey, p.ID)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save producers: %w", err)
	}
	return nil
}

// GetProducer retrieves a producer by id
func (s *ReferenceStore) GetProducer(ctx context.Context, id string) (*domain.Producer, error) {
	data, err := s.client.Get(ctx, producerPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get producer: %w", err)
	}

	var p domain.Producer
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal producer: %w", err)
	}
	return &p, nil
}

// ListRestrictedProducers returns the producers limited to one delivery per
// session per day.
func (s *ReferenceStore) ListRestrictedProducers(ctx context.Context) ([]*domain.Producer, error) {
	ids, err := s.client.SMembers(ctx, restrictedSetKey).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read restricted index: %w", err)
	}

	out := make([]*domain.Producer, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetProducer(ctx, id)
		if err == domain.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// SaveRoutes replaces the cached route list.
func (s *ReferenceStore) SaveRoutes(ctx context.Context, routes []*domain.Route) error {
	data, err := json.Marshal(routes)
	if err != nil {
		return fmt.Errorf("failed to marshal routes: %w", err)
	}
	if err := s.client.Set(ctx, routesKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save routes: %w", err)
	}
	return nil
}

// SaveSessionWindows replaces the cached session windows.
func (s *ReferenceStore) SaveSessionWindows(ctx context.Context, windows []*domain.SessionWindow) error {
	data, err := json.Marshal(windows)
	if err != nil {
		return fmt.Errorf("failed to marshal session windows: %w", err)
	}
	if err := s.client.Set(ctx, sessionsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session windows: %w", err)
	}
	return nil
}

// SavePricedItems replaces the cached item price list atomically.
func (s *ReferenceStore) SavePricedItems(ctx context.Context, items []*domain.PricedItem) error {
	oldCodes, err := s.client.SMembers(ctx, itemSetKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read item index: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, code := range oldCodes {
		pipe.Del(ctx, itemPrefix+code)
	}
	pipe.Del(ctx, itemSetKey)

	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("failed to marshal item %s: %w", it.Code, err)
		}
		pipe.Set(ctx, itemPrefix+it.Code, data, 0)
		pipe.SAdd(ctx, itemSetKey, it.Code)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save priced items: %w", err)
	}
	return nil
}

// GetPricedItem retrieves an item by code
func (s *ReferenceStore) GetPricedItem(ctx context.Context, code string) (*domain.PricedItem, error) {
	data, err := s.client.Get(ctx, itemPrefix+code).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get priced item: %w", err)
	}

	var it domain.PricedItem
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal priced item: %w", err)
	}
	return &it, nil
}

// Ping checks if Redis is reachable
func (s *ReferenceStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
