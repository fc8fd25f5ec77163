package ports

import (
	"context"
	"errors"

	"github.com/commercekit/commerce-core/internal/domains/customers/domain"
)

var (
	ErrNoSession       = errors.New("no active session")
	ErrAccountDisabled = errors.New("customer account is disabled")
)

// Service exposes customer account use cases.
type Service interface {
	Register(ctx context.Context, storeCode, userID, email, name string) (*domain.Customer, error)
	Get(ctx context.Context, guid string) (*domain.Customer, error)
	GetByUserID(ctx context.Context, storeCode, userID string) (*domain.Customer, error)
	UpdateProfile(ctx context.Context, guid, name, email string) (*domain.Customer, error)
	Delete(ctx context.Context, guid string) error

	StartSession(ctx context.Context, guid string) (string, error)
	EndSession(ctx context.Context, guid string) error
}
