package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/commercekit/commerce-core/internal/domains/carts/domain"
	"github.com/commercekit/commerce-core/internal/domains/carts/ports"
)

var _ ports.Store = (*Store)(nil)

// DefaultCartTTL is how long an untouched cart survives.
const DefaultCartTTL = 30 * 24 * time.Hour

const keyPrefix = "cart:"

// Store keeps carts in Redis keyed by shopper GUID with a sliding TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore wires a Redis-backed cart store. Caller manages client lifecycle.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, shopperGUID string) (*domain.Cart, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, keyPrefix+shopperGUID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *Store) Put(ctx context.Context, cart *domain.Cart) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	if cart == nil {
		return errors.New("cart is nil")
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+cart.ShopperGUID, data, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context, shopperGUID string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	deleted, err := s.client.Del(ctx, keyPrefix+shopperGUID).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) ensureClient() error {
	if s == nil || s.client == nil {
		return errors.New("redis cart store not configured")
	}
	return nil
}
