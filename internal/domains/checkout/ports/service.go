package ports

import (
	"context"

	"github.com/commercekit/commerce-core/internal/domains/checkout/domain"
)

// Service runs the checkout orchestration.
type Service interface {
	Checkout(ctx context.Context, req domain.Request) (*domain.Result, error)
}
