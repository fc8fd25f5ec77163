package ports

import (
	"context"
	"errors"

	"github.com/commercekit/commerce-core/internal/domains/customers/domain"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

var ErrNotFound = errors.New("customer not found")

type Repository interface {
	Save(ctx context.Context, customer *domain.Customer, recording ...events.Event) (*domain.Customer, error)
	GetByGUID(ctx context.Context, guid string) (*domain.Customer, error)
	// FindByUserID resolves the customer registered under the user id within
	// the store, or ErrNotFound.
	FindByUserID(ctx context.Context, storeCode, userID string) (*domain.Customer, error)
	Delete(ctx context.Context, guid string) error
	List(ctx context.Context, storeCode string) ([]*domain.Customer, error)
}
