package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	cartsmemory "github.com/commercekit/commerce-core/internal/domains/carts/adapters/memory"
	cartsdomain "github.com/commercekit/commerce-core/internal/domains/carts/domain"
	cartsports "github.com/commercekit/commerce-core/internal/domains/carts/ports"
	"github.com/commercekit/commerce-core/internal/domains/checkout/domain"
	"github.com/commercekit/commerce-core/internal/domains/orders/adapters/gateway"
	ordersmemory "github.com/commercekit/commerce-core/internal/domains/orders/adapters/memory"
	ordersdomain "github.com/commercekit/commerce-core/internal/domains/orders/domain"
	"github.com/commercekit/commerce-core/internal/platform/outbox"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

type fixture struct {
	svc    *Service
	orders *ordersmemory.Repository
	carts  cartsports.Store
	sink   *outbox.Buffer
}

func newFixture(t *testing.T, cfg gateway.Config) *fixture {
	t.Helper()
	sink := outbox.NewBuffer()
	orders := ordersmemory.NewRepository(sink)
	carts := cartsmemory.NewStore()
	return &fixture{
		svc:    NewService(orders, gateway.NewSimulated(cfg), carts),
		orders: orders,
		carts:  carts,
		sink:   sink,
	}
}

func (f *fixture) storeCart(t *testing.T, cart *cartsdomain.Cart) {
	t.Helper()
	require.NoError(t, f.carts.Put(context.Background(), cart))
}

func pricedCart(shopperGUID string, lines ...cartsdomain.LineItem) *cartsdomain.Cart {
	cart := cartsdomain.NewCart(shopperGUID, "store")
	cart.Lines = append(cart.Lines, lines...)
	return cart
}

func physical(sku string, qty int32, price int64) cartsdomain.LineItem {
	return cartsdomain.LineItem{SKU: sku, Quantity: qty, UnitPrice: decimal.NewFromInt(price), Kind: cartsdomain.KindPhysical}
}

func electronic(sku string, qty int32, price int64) cartsdomain.LineItem {
	return cartsdomain.LineItem{SKU: sku, Quantity: qty, UnitPrice: decimal.NewFromInt(price), Kind: cartsdomain.KindElectronic}
}

func request(cart *cartsdomain.Cart) domain.Request {
	return domain.Request{
		Cart: cart,
		Tax:  domain.TaxSnapshot{DocumentID: "tax-1", TaxTotal: decimal.NewFromInt(3)},
		Session: domain.CustomerSession{
			ShopperGUID:  cart.ShopperGUID,
			CustomerGUID: "cust-1",
			StoreCode:    cart.StoreCode,
		},
		Payment: domain.PaymentTemplate{Method: "card"},
	}
}

func TestCheckoutSplitsShipmentsByKind(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	cart := pricedCart("shopper-1", physical("sku-1", 2, 10), electronic("ebook-1", 1, 5))
	f.storeCart(t, cart)

	result, err := f.svc.Checkout(context.Background(), request(cart))
	require.NoError(t, err)
	require.False(t, result.IsOrderFailed())

	order := result.Order
	require.Equal(t, ordersdomain.StatusInProgress, order.Status)
	require.Len(t, order.Shipments, 2)
	require.Equal(t, ordersdomain.ShipmentPhysical, order.Shipments[0].Type)
	require.Equal(t, ordersdomain.ShipmentElectronic, order.Shipments[1].Type)
	require.True(t, order.Total.Equal(decimal.NewFromInt(25)))

	// One approved authorization per shipment.
	require.Len(t, order.Payments, 2)
	for _, shipment := range order.Shipments {
		auth, ok := order.Payments.ActiveAuthorization(shipment.GUID)
		require.True(t, ok)
		require.True(t, auth.Amount.Equal(shipment.Total))
	}

	require.Len(t, f.sink.OfType(events.TypeOrderCreated), 1)

	// The shopper's cart is gone after a successful placement.
	_, err = f.carts.Get(context.Background(), "shopper-1")
	require.ErrorIs(t, err, cartsports.ErrNotFound)
}

func TestCheckoutPreOrderAuthorizesNominalHold(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	line := physical("sku-1", 1, 80)
	line.PreOrBackOrdered = true
	cart := pricedCart("shopper-1", line)
	f.storeCart(t, cart)

	result, err := f.svc.Checkout(context.Background(), request(cart))
	require.NoError(t, err)

	order := result.Order
	require.Len(t, order.Payments, 1)
	require.True(t, order.Payments[0].Amount.Equal(ordersdomain.PreOrderHoldAmount))
}

func TestCheckoutAlwaysHoldRoutesToOnHold(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	cart := pricedCart("shopper-1", physical("sku-1", 1, 10))
	f.storeCart(t, cart)

	req := request(cart)
	req.AlwaysHold = true
	result, err := f.svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusOnHold, result.Order.Status)
	require.Len(t, f.sink.OfType(events.TypeOrderHeld), 1)
}

func TestCheckoutDeclinePersistsFailedOrder(t *testing.T) {
	f := newFixture(t, gateway.Config{DeclineAuthorizations: true})
	cart := pricedCart("shopper-1", physical("sku-1", 1, 10))
	f.storeCart(t, cart)

	result, err := f.svc.Checkout(context.Background(), request(cart))
	require.NoError(t, err)
	require.True(t, result.IsOrderFailed())

	order := result.Order
	require.Equal(t, ordersdomain.StatusFailed, order.Status)
	require.Equal(t, ordersdomain.ShipmentFailedOrder, order.Shipments[0].Status)
	// Exactly one row: the declined authorization. Nothing to reverse.
	require.Len(t, order.Payments, 1)
	require.Equal(t, ordersdomain.PaymentFailed, order.Payments[0].Status)

	persisted, err := f.orders.GetByGUID(context.Background(), order.GUID)
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusFailed, persisted.Status)
	require.Len(t, f.sink.OfType(events.TypeOrderFailed), 1)
	require.Len(t, f.sink.OfType(events.TypePaymentDeclined), 1)

	// The cart survives a failed checkout.
	_, err = f.carts.Get(context.Background(), "shopper-1")
	require.NoError(t, err)
}

func TestCheckoutRollbackReversesEarlierAuthorizations(t *testing.T) {
	limit := decimal.NewFromInt(50)
	f := newFixture(t, gateway.Config{DeclineOver: &limit})
	// The physical shipment authorizes fine, the electronic one exceeds the
	// limit and triggers the rollback of the first hold.
	cart := pricedCart("shopper-1", physical("sku-1", 1, 20), electronic("ebook-1", 1, 90))
	f.storeCart(t, cart)

	result, err := f.svc.Checkout(context.Background(), request(cart))
	require.NoError(t, err)
	require.True(t, result.IsOrderFailed())

	order := result.Order
	require.Len(t, order.Payments, 3)
	require.Equal(t, ordersdomain.TransactionAuthorization, order.Payments[0].TransactionType)
	require.Equal(t, ordersdomain.PaymentApproved, order.Payments[0].Status)
	require.Equal(t, ordersdomain.TransactionAuthorization, order.Payments[1].TransactionType)
	require.Equal(t, ordersdomain.PaymentFailed, order.Payments[1].Status)
	require.Equal(t, ordersdomain.TransactionReverseAuthorization, order.Payments[2].TransactionType)
	require.Equal(t, order.Payments[0].ReferenceID, order.Payments[2].ReferenceID)

	for _, shipment := range order.Shipments {
		_, ok := order.Payments.ActiveAuthorization(shipment.GUID)
		require.False(t, ok)
	}
}

func TestCheckoutEmptyCartProducesNoOrder(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	cart := cartsdomain.NewCart("shopper-1", "store")

	_, err := f.svc.Checkout(context.Background(), request(cart))
	require.ErrorIs(t, err, ErrInvalidCart)
	require.ErrorIs(t, err, cartsdomain.ErrEmptyCart)

	orders, err := f.orders.ListByCustomer(context.Background(), "cust-1")
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestCheckoutUnpricedCartRejected(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	cart := pricedCart("shopper-1", cartsdomain.LineItem{SKU: "sku-1", Quantity: 1, Kind: cartsdomain.KindPhysical})

	_, err := f.svc.Checkout(context.Background(), request(cart))
	require.ErrorIs(t, err, ErrInvalidCart)
	require.ErrorIs(t, err, cartsdomain.ErrUnpricedCart)
}

func TestCheckoutNilCartStoreLeavesCartAlone(t *testing.T) {
	sink := outbox.NewBuffer()
	orders := ordersmemory.NewRepository(sink)
	svc := NewService(orders, gateway.NewSimulated(gateway.Config{}), nil)
	cart := pricedCart("shopper-1", physical("sku-1", 1, 10))

	result, err := svc.Checkout(context.Background(), request(cart))
	require.NoError(t, err)
	require.False(t, result.IsOrderFailed())
}
