package ports

import "context"

// SessionStore abstracts shopper session token persistence. Implementations
// expire tokens after their configured TTL.
type SessionStore interface {
	Save(ctx context.Context, customerGUID, token string) error
	Get(ctx context.Context, customerGUID string) (string, error)
	Delete(ctx context.Context, customerGUID string) error
}

// NoopSessionStore is a safe default when callers do not need session persistence.
var NoopSessionStore SessionStore = noopSessionStore{}

type noopSessionStore struct{}

func (noopSessionStore) Save(_ context.Context, _ string, _ string) error { return nil }
func (noopSessionStore) Get(_ context.Context, _ string) (string, error)  { return "", ErrNoSession }
func (noopSessionStore) Delete(_ context.Context, _ string) error         { return nil }
