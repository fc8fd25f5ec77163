package memory

import (
	"context"
	"sync"
	"time"

	"github.com/commercekit/commerce-core/internal/domains/customers/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory session store with TTL expiry.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]session
	ttl      time.Duration
	now      func() time.Time
}

type session struct {
	token     string
	expiresAt time.Time
}

// DefaultSessionTTL provides the fallback TTL when none is configured.
const DefaultSessionTTL = 24 * time.Hour

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{sessions: map[string]session{}, ttl: ttl, now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, customerGUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[customerGUID] = session{token: token, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *SessionStore) Get(_ context.Context, customerGUID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[customerGUID]
	if !ok || s.now().After(sess.expiresAt) {
		delete(s.sessions, customerGUID)
		return "", ports.ErrNoSession
	}
	return sess.token, nil
}

func (s *SessionStore) Delete(_ context.Context, customerGUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, customerGUID)
	return nil
}

// PurgeExpired drops every expired session.
func (s *SessionStore) PurgeExpired(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for guid, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, guid)
		}
	}
	return nil
}
