package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsdomain "github.com/commercekit/commerce-core/internal/domains/carts/domain"
	"github.com/commercekit/commerce-core/internal/domains/checkout/domain"
	ordersdomain "github.com/commercekit/commerce-core/internal/domains/orders/domain"
	ordersports "github.com/commercekit/commerce-core/internal/domains/orders/ports"
)

// validateCartAction guards the checkout preconditions. Nothing to roll back.
type validateCartAction struct{}

func (validateCartAction) Name() string { return "validate-cart" }

func (validateCartAction) Execute(_ context.Context, checkout *domain.Context) error {
	if checkout.Request.Cart == nil {
		return fmt.Errorf("%w: cart is nil", ErrInvalidCart)
	}
	if err := checkout.Request.Cart.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCart, err)
	}
	return nil
}

func (validateCartAction) Rollback(context.Context, *domain.Context) error { return nil }

// populateOrderAction builds the order aggregate, splitting cart lines into
// one shipment per shipment type unless a single shipment suffices.
type populateOrderAction struct{}

func (populateOrderAction) Name() string { return "populate-order" }

func (populateOrderAction) Execute(_ context.Context, checkout *domain.Context) error {
	req := checkout.Request
	order := ordersdomain.NewOrder(uuid.NewString(), req.Session.CustomerGUID, req.Session.StoreCode, req.IsExchange)
	for _, kind := range []cartsdomain.ShipmentKind{cartsdomain.KindPhysical, cartsdomain.KindElectronic} {
		lines := shipmentLines(req.Cart, kind)
		if len(lines) == 0 {
			continue
		}
		order.AddShipment(ordersdomain.NewShipment(uuid.NewString(), shipmentType(kind), lines))
	}
	checkout.Order = order
	return nil
}

// Rollback is a no-op: the failed order is kept and persisted as FAILED for
// audit by the orchestrator.
func (populateOrderAction) Rollback(context.Context, *domain.Context) error { return nil }

// commitTaxAction commits the tax document. Its rollback is a no-op when
// nothing was committed, which keeps repeated rollbacks idempotent.
type commitTaxAction struct{}

func (commitTaxAction) Name() string { return "commit-tax" }

func (commitTaxAction) Execute(_ context.Context, checkout *domain.Context) error {
	checkout.TaxCommitted = true
	return nil
}

func (commitTaxAction) Rollback(_ context.Context, checkout *domain.Context) error {
	if checkout.TaxCommitted {
		checkout.TaxCommitted = false
	}
	return nil
}

// authorizePaymentsAction authorizes each shipment against the gateway.
// Shipments holding pre/back-ordered items authorize the nominal hold amount
// instead of the full total; the real amount is authorized on release.
type authorizePaymentsAction struct {
	gateway ordersports.PaymentGateway
}

func (authorizePaymentsAction) Name() string { return "authorize-payments" }

func (a authorizePaymentsAction) Execute(ctx context.Context, checkout *domain.Context) error {
	method := checkout.Request.Payment.Method
	for _, shipment := range checkout.Order.Shipments {
		amount := shipment.Total
		if shipment.HoldsPreOrder() {
			amount = ordersdomain.PreOrderHoldAmount
		}
		result, err := a.gateway.Authorize(ctx, method, amount)
		if err != nil {
			return fmt.Errorf("authorize shipment %s: %w", shipment.GUID, err)
		}
		checkout.Order.RecordPayment(newEntry(shipment.GUID, ordersdomain.TransactionAuthorization, amount, method, result))
		if !result.Approved {
			return fmt.Errorf("shipment %s: %w", shipment.GUID, ErrAuthorizationDeclined)
		}
	}
	return nil
}

// Rollback reverses every authorization that is still active. Already
// reversed holds are skipped, so the rollback is idempotent.
func (a authorizePaymentsAction) Rollback(ctx context.Context, checkout *domain.Context) error {
	if checkout.Order == nil {
		return nil
	}
	for _, shipment := range checkout.Order.Shipments {
		auth, ok := checkout.Order.Payments.ActiveAuthorization(shipment.GUID)
		if !ok {
			continue
		}
		result, err := a.gateway.ReverseAuthorization(ctx, auth.ReferenceID)
		if err != nil {
			return fmt.Errorf("reverse authorization %s: %w", auth.ReferenceID, err)
		}
		entry := newEntry(shipment.GUID, ordersdomain.TransactionReverseAuthorization, auth.Amount, auth.PaymentMethod, result)
		entry.ReferenceID = auth.ReferenceID
		checkout.Order.RecordPayment(entry)
	}
	return nil
}

// alwaysHoldAction forces the resulting order into ONHOLD, used for
// manual-review workflows.
type alwaysHoldAction struct{}

func (alwaysHoldAction) Name() string { return "always-hold" }

func (alwaysHoldAction) Execute(_ context.Context, checkout *domain.Context) error {
	checkout.ForceHold = true
	return nil
}

func (alwaysHoldAction) Rollback(_ context.Context, checkout *domain.Context) error {
	checkout.ForceHold = false
	return nil
}

// finalizeOrderAction moves the order out of CREATED.
type finalizeOrderAction struct{}

func (finalizeOrderAction) Name() string { return "finalize-order" }

func (finalizeOrderAction) Execute(_ context.Context, checkout *domain.Context) error {
	target := ordersdomain.StatusInProgress
	if checkout.ForceHold {
		target = ordersdomain.StatusOnHold
	}
	return checkout.Order.Transition(target)
}

func (finalizeOrderAction) Rollback(context.Context, *domain.Context) error { return nil }

func shipmentLines(cart *cartsdomain.Cart, kind cartsdomain.ShipmentKind) []ordersdomain.SKULine {
	var lines []ordersdomain.SKULine
	for _, line := range cart.Lines {
		if line.Kind != kind {
			continue
		}
		lines = append(lines, ordersdomain.SKULine{
			SKU:              line.SKU,
			Quantity:         line.Quantity,
			UnitPrice:        line.UnitPrice,
			PreOrBackOrdered: line.PreOrBackOrdered,
		})
	}
	return lines
}

func shipmentType(kind cartsdomain.ShipmentKind) ordersdomain.ShipmentType {
	if kind == cartsdomain.KindElectronic {
		return ordersdomain.ShipmentElectronic
	}
	return ordersdomain.ShipmentPhysical
}

func newEntry(shipmentGUID string, txType ordersdomain.TransactionType, amount decimal.Decimal, method string, result ordersports.GatewayResult) ordersdomain.PaymentEntry {
	status := ordersdomain.PaymentFailed
	if result.Approved {
		status = ordersdomain.PaymentApproved
	}
	return ordersdomain.PaymentEntry{
		GUID:            uuid.NewString(),
		ShipmentGUID:    shipmentGUID,
		TransactionType: txType,
		Amount:          amount,
		Status:          status,
		PaymentMethod:   method,
		ReferenceID:     result.ReferenceID,
		CreatedAt:       time.Now().UTC(),
	}
}
