package checkout

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	checkoutdomain "github.com/commercekit/commerce-core/internal/domains/checkout/domain"
	checkoutports "github.com/commercekit/commerce-core/internal/domains/checkout/ports"
	ordersdomain "github.com/commercekit/commerce-core/internal/domains/orders/domain"
	ordersports "github.com/commercekit/commerce-core/internal/domains/orders/ports"
)

const (
	// ProcessCheckoutActivityName runs the reversible checkout chain.
	ProcessCheckoutActivityName = "checkout.activities.ProcessCheckout"
	// ReleaseElectronicShipmentsActivityName completes electronic shipments
	// of a freshly placed order.
	ReleaseElectronicShipmentsActivityName = "checkout.activities.ReleaseElectronicShipments"
)

// Activities groups activities that operate on the checkout bounded context.
type Activities struct {
	checkout checkoutports.Service
	orders   ordersports.Service
}

// NewActivities wires the checkout collaborators into the Temporal activities bundle.
func NewActivities(checkout checkoutports.Service, orders ordersports.Service) *Activities {
	return &Activities{checkout: checkout, orders: orders}
}

// ProcessCheckout places an order through the reversible chain and returns
// the result, failed orders included.
func (a *Activities) ProcessCheckout(ctx context.Context, req checkoutdomain.Request) (*checkoutdomain.Result, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.checkout == nil {
		logger.Error("checkout activity not initialized")
		return nil, errors.New("checkout activity not initialized")
	}
	logger.Info("ProcessCheckout activity started", "shopper", req.Session.ShopperGUID)
	result, err := a.checkout.Checkout(ctx, req)
	if err != nil {
		logger.Error("ProcessCheckout activity failed", "shopper", req.Session.ShopperGUID, "error", err)
		return nil, err
	}
	if result != nil && result.Order != nil {
		logger.Info("ProcessCheckout activity completed", "order", result.Order.GUID, "failed", result.Failed)
	}
	return result, nil
}

// ReleaseElectronicShipments completes every electronic shipment still
// awaiting fulfilment. Re-runs skip shipments that already shipped, so the
// activity is safe to retry.
func (a *Activities) ReleaseElectronicShipments(ctx context.Context, orderGUID string) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.orders == nil {
		logger.Error("electronic fulfilment activity not initialized", "order", orderGUID)
		return errors.New("electronic fulfilment activity not initialized")
	}
	order, err := a.orders.GetOrder(ctx, orderGUID)
	if err != nil {
		logger.Error("ReleaseElectronicShipments failed to load order", "order", orderGUID, "error", err)
		return err
	}
	for _, shipment := range order.Shipments {
		if shipment.Type != ordersdomain.ShipmentElectronic {
			continue
		}
		if shipment.Status != ordersdomain.ShipmentInventoryAssigned && shipment.Status != ordersdomain.ShipmentReleased {
			continue
		}
		if _, err := a.orders.CompleteShipment(ctx, orderGUID, shipment.GUID); err != nil {
			logger.Error("ReleaseElectronicShipments failed", "order", orderGUID, "shipment", shipment.GUID, "error", err)
			return err
		}
		logger.Info("electronic shipment completed", "order", orderGUID, "shipment", shipment.GUID)
	}
	return nil
}
