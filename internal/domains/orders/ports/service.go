package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/commercekit/commerce-core/internal/domains/orders/domain"
)

// Service exposes order fulfilment use cases to adapters.
type Service interface {
	GetOrder(ctx context.Context, guid string) (*domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerGUID string) ([]*domain.Order, error)

	ReleaseShipment(ctx context.Context, orderGUID, shipmentGUID string) (*domain.Order, error)
	CompleteShipment(ctx context.Context, orderGUID, shipmentGUID string) (*domain.Order, error)
	CancelShipment(ctx context.Context, orderGUID, shipmentGUID string) (*domain.Order, error)

	CancelOrder(ctx context.Context, guid string) (*domain.Order, error)
	HoldOrder(ctx context.Context, guid string) (*domain.Order, error)
	ReleaseHold(ctx context.Context, guid string) (*domain.Order, error)

	AdjustShipmentTotal(ctx context.Context, orderGUID, shipmentGUID string, newTotal decimal.Decimal) (*domain.Order, error)
	Refund(ctx context.Context, orderGUID, shipmentGUID string, amount decimal.Decimal) (*domain.Order, error)
}
