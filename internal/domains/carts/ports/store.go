package ports

import (
	"context"
	"errors"

	"github.com/commercekit/commerce-core/internal/domains/carts/domain"
)

var ErrNotFound = errors.New("cart not found")

// Store keeps transient carts keyed by shopper GUID.
type Store interface {
	Get(ctx context.Context, shopperGUID string) (*domain.Cart, error)
	Put(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, shopperGUID string) error
}
