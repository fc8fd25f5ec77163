package ports

import (
	"context"

	"github.com/commercekit/commerce-core/internal/domains/carts/domain"
)

// Service exposes cart use cases to adapters.
type Service interface {
	GetCart(ctx context.Context, shopperGUID, storeCode string) (*domain.Cart, error)
	AddLine(ctx context.Context, shopperGUID, storeCode string, line domain.LineItem) (*domain.Cart, error)
	MergeCarts(ctx context.Context, currentShopperGUID, previousShopperGUID, storeCode string) (*domain.Cart, error)
	ClearCart(ctx context.Context, shopperGUID string) error
}
