package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/commercekit/commerce-core/internal/domains/customers/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// DefaultSessionTTL provides the fallback TTL when none is configured.
const DefaultSessionTTL = 24 * time.Hour

const keyPrefix = "session:"

// SessionStore keeps shopper sessions in Redis; expiry rides on the key TTL so
// no purge pass is needed.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore wires a Redis-backed session store. Caller manages client lifecycle.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, customerGUID, token string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+customerGUID, token, s.ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, customerGUID string) (string, error) {
	if err := s.ensureClient(); err != nil {
		return "", err
	}
	token, err := s.client.Get(ctx, keyPrefix+customerGUID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ports.ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *SessionStore) Delete(ctx context.Context, customerGUID string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	return s.client.Del(ctx, keyPrefix+customerGUID).Err()
}

func (s *SessionStore) ensureClient() error {
	if s == nil || s.client == nil {
		return errors.New("redis session store not configured")
	}
	return nil
}
