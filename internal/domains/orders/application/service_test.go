package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/commerce-core/internal/domains/orders/adapters/gateway"
	"github.com/commercekit/commerce-core/internal/domains/orders/adapters/memory"
	"github.com/commercekit/commerce-core/internal/domains/orders/domain"
	"github.com/commercekit/commerce-core/internal/domains/orders/ports"
	"github.com/commercekit/commerce-core/internal/platform/outbox"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

type fixture struct {
	svc     *Service
	repo    *memory.Repository
	gateway *gateway.Simulated
	sink    *outbox.Buffer
}

func newFixture(t *testing.T, cfg gateway.Config) *fixture {
	t.Helper()
	sink := outbox.NewBuffer()
	repo := memory.NewRepository(sink)
	gw := gateway.NewSimulated(cfg)
	return &fixture{svc: NewService(repo, gw), repo: repo, gateway: gw, sink: sink}
}

// seedOrder persists an IN_PROGRESS order with one physical shipment and an
// approved authorization issued through the fixture gateway, so later captures
// and reversals resolve against a live reference.
func (f *fixture) seedOrder(t *testing.T, total int64, preOrder bool, authAmount decimal.Decimal) (*domain.Order, *domain.Shipment) {
	t.Helper()
	order := domain.NewOrder(uuid.NewString(), "cust-1", "store", false)
	shipment := domain.NewShipment(uuid.NewString(), domain.ShipmentPhysical, []domain.SKULine{
		{SKU: "sku-1", Quantity: 1, UnitPrice: decimal.NewFromInt(total), PreOrBackOrdered: preOrder},
	})
	order.AddShipment(shipment)
	require.NoError(t, order.Transition(domain.StatusInProgress))
	f.authorize(t, order, shipment, authAmount)
	_, err := f.repo.Save(context.Background(), order)
	require.NoError(t, err)
	return order, shipment
}

func (f *fixture) authorize(t *testing.T, order *domain.Order, shipment *domain.Shipment, amount decimal.Decimal) {
	t.Helper()
	result, err := f.gateway.Authorize(context.Background(), "card", amount)
	require.NoError(t, err)
	require.True(t, result.Approved)
	order.RecordPayment(domain.PaymentEntry{
		GUID:            uuid.NewString(),
		ShipmentGUID:    shipment.GUID,
		TransactionType: domain.TransactionAuthorization,
		Amount:          amount,
		Status:          domain.PaymentApproved,
		PaymentMethod:   "card",
		ReferenceID:     result.ReferenceID,
		CreatedAt:       time.Now().UTC(),
	})
}

func shipmentRows(ledger domain.Ledger, shipmentGUID string) []domain.PaymentEntry {
	var rows []domain.PaymentEntry
	for _, entry := range ledger {
		if entry.ShipmentGUID == shipmentGUID {
			rows = append(rows, entry)
		}
	}
	return rows
}

func TestReleaseShipmentKeepsFullAuthorization(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, shipment := f.seedOrder(t, 40, false, decimal.NewFromInt(40))

	updated, err := f.svc.ReleaseShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)

	got, err := updated.Shipment(shipment.GUID)
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentReleased, got.Status)
	require.Len(t, updated.Payments, 1)
	require.Len(t, f.sink.OfType(events.TypeShipmentReleased), 1)
}

func TestReleaseShipmentSwapsPreOrderHold(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, shipment := f.seedOrder(t, 50, true, domain.PreOrderHoldAmount)

	updated, err := f.svc.ReleaseShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)

	rows := shipmentRows(updated.Payments, shipment.GUID)
	require.Len(t, rows, 3)
	require.Equal(t, domain.TransactionAuthorization, rows[0].TransactionType)
	require.True(t, rows[0].Amount.Equal(domain.PreOrderHoldAmount))
	require.Equal(t, domain.TransactionReverseAuthorization, rows[1].TransactionType)
	require.Equal(t, rows[0].ReferenceID, rows[1].ReferenceID)
	require.Equal(t, domain.TransactionAuthorization, rows[2].TransactionType)
	require.True(t, rows[2].Amount.Equal(decimal.NewFromInt(50)))

	auth, ok := updated.Payments.ActiveAuthorization(shipment.GUID)
	require.True(t, ok)
	require.True(t, auth.Amount.Equal(decimal.NewFromInt(50)))
}

func TestReleaseShipmentDeclinedReauthorization(t *testing.T) {
	f := newFixture(t, gateway.Config{DeclineAuthorizations: true})
	order := domain.NewOrder(uuid.NewString(), "cust-1", "store", false)
	shipment := domain.NewShipment(uuid.NewString(), domain.ShipmentPhysical, []domain.SKULine{
		{SKU: "sku-1", Quantity: 1, UnitPrice: decimal.NewFromInt(50), PreOrBackOrdered: true},
	})
	order.AddShipment(shipment)
	require.NoError(t, order.Transition(domain.StatusInProgress))
	// The hold predates the decline configuration, so it is seeded directly.
	order.RecordPayment(domain.PaymentEntry{
		GUID:            uuid.NewString(),
		ShipmentGUID:    shipment.GUID,
		TransactionType: domain.TransactionAuthorization,
		Amount:          domain.PreOrderHoldAmount,
		Status:          domain.PaymentApproved,
		PaymentMethod:   "card",
		ReferenceID:     "auth-hold",
		CreatedAt:       time.Now().UTC(),
	})
	_, err := f.repo.Save(context.Background(), order)
	require.NoError(t, err)

	_, err = f.svc.ReleaseShipment(context.Background(), order.GUID, shipment.GUID)
	require.ErrorIs(t, err, ErrReleaseShipmentFailed)

	// The shipment stays put and the declined attempt is on the ledger.
	persisted, err := f.repo.GetByGUID(context.Background(), order.GUID)
	require.NoError(t, err)
	got, err := persisted.Shipment(shipment.GUID)
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentInventoryAssigned, got.Status)
	rows := shipmentRows(persisted.Payments, shipment.GUID)
	require.Len(t, rows, 3)
	require.Equal(t, domain.PaymentFailed, rows[2].Status)
	require.Len(t, f.sink.OfType(events.TypePaymentDeclined), 1)
}

func TestCompleteShipmentCapturesAndCompletes(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, shipment := f.seedOrder(t, 40, false, decimal.NewFromInt(40))
	_, err := f.svc.ReleaseShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)

	updated, err := f.svc.CompleteShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)

	got, err := updated.Shipment(shipment.GUID)
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentShipped, got.Status)
	require.Equal(t, domain.StatusCompleted, updated.Status)
	require.True(t, updated.Payments.CapturedTotal(shipment.GUID).Equal(decimal.NewFromInt(40)))
	require.Len(t, f.sink.OfType(events.TypeShipmentShipped), 1)
	require.Len(t, f.sink.OfType(events.TypeOrderCompleted), 1)
}

func TestCompleteShipmentDeclinedCapture(t *testing.T) {
	f := newFixture(t, gateway.Config{DeclineCaptures: true})
	order, shipment := f.seedOrder(t, 40, false, decimal.NewFromInt(40))
	_, err := f.svc.ReleaseShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)

	_, err = f.svc.CompleteShipment(context.Background(), order.GUID, shipment.GUID)
	require.ErrorIs(t, err, ErrCompleteShipmentFailed)

	persisted, err := f.repo.GetByGUID(context.Background(), order.GUID)
	require.NoError(t, err)
	got, err := persisted.Shipment(shipment.GUID)
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentReleased, got.Status)
	rows := shipmentRows(persisted.Payments, shipment.GUID)
	require.Equal(t, domain.TransactionCapture, rows[len(rows)-1].TransactionType)
	require.Equal(t, domain.PaymentFailed, rows[len(rows)-1].Status)
}

func TestCompleteShipmentRequiresAuthorization(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order := domain.NewOrder(uuid.NewString(), "cust-1", "store", false)
	shipment := domain.NewShipment(uuid.NewString(), domain.ShipmentPhysical, []domain.SKULine{
		{SKU: "sku-1", Quantity: 1, UnitPrice: decimal.NewFromInt(40)},
	})
	require.NoError(t, shipment.Release())
	order.AddShipment(shipment)
	require.NoError(t, order.Transition(domain.StatusInProgress))
	_, err := f.repo.Save(context.Background(), order)
	require.NoError(t, err)

	_, err = f.svc.CompleteShipment(context.Background(), order.GUID, shipment.GUID)
	require.ErrorIs(t, err, ErrNoActiveAuthorization)
}

func TestCompleteElectronicShipmentReleasesImplicitly(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order := domain.NewOrder(uuid.NewString(), "cust-1", "store", false)
	shipment := domain.NewShipment(uuid.NewString(), domain.ShipmentElectronic, []domain.SKULine{
		{SKU: "ebook-1", Quantity: 1, UnitPrice: decimal.NewFromInt(15)},
	})
	order.AddShipment(shipment)
	require.NoError(t, order.Transition(domain.StatusInProgress))
	f.authorize(t, order, shipment, shipment.Total)
	_, err := f.repo.Save(context.Background(), order)
	require.NoError(t, err)

	updated, err := f.svc.CompleteShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)
	got, err := updated.Shipment(shipment.GUID)
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentShipped, got.Status)
	require.Equal(t, domain.StatusCompleted, updated.Status)
}

// TestPreOrderLedgerAfterReleaseAndCapture walks the full pre/back-order money
// trail: nominal hold, reversal, real authorization, capture.
func TestPreOrderLedgerAfterReleaseAndCapture(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, shipment := f.seedOrder(t, 50, true, domain.PreOrderHoldAmount)

	_, err := f.svc.ReleaseShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)
	updated, err := f.svc.CompleteShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)

	rows := shipmentRows(updated.Payments, shipment.GUID)
	require.Len(t, rows, 4)
	wantTypes := []domain.TransactionType{
		domain.TransactionAuthorization,
		domain.TransactionReverseAuthorization,
		domain.TransactionAuthorization,
		domain.TransactionCapture,
	}
	for i, want := range wantTypes {
		require.Equal(t, want, rows[i].TransactionType)
		require.Equal(t, domain.PaymentApproved, rows[i].Status)
	}
	require.True(t, rows[3].Amount.Equal(decimal.NewFromInt(50)))
}

func TestCancelShipmentReversesAuthorization(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, shipment := f.seedOrder(t, 40, false, decimal.NewFromInt(40))

	updated, err := f.svc.CancelShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, updated.Status)
	_, ok := updated.Payments.ActiveAuthorization(shipment.GUID)
	require.False(t, ok)
	require.Len(t, f.sink.OfType(events.TypeShipmentCancelled), 1)
	require.Len(t, f.sink.OfType(events.TypeOrderCancelled), 1)
}

func TestCancelOrderBlockedByShippedShipment(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, shipment := f.seedOrder(t, 40, false, decimal.NewFromInt(40))
	_, err := f.svc.ReleaseShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)
	_, err = f.svc.CompleteShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(context.Background(), order.GUID)
	require.ErrorIs(t, err, domain.ErrOrderNotCancellable)
}

func TestCancelOrderReversesOpenAuthorizations(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, shipment := f.seedOrder(t, 40, false, decimal.NewFromInt(40))

	updated, err := f.svc.CancelOrder(context.Background(), order.GUID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, updated.Status)
	_, ok := updated.Payments.ActiveAuthorization(shipment.GUID)
	require.False(t, ok)
}

func TestHoldAndReleaseHold(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, _ := f.seedOrder(t, 40, false, decimal.NewFromInt(40))

	held, err := f.svc.HoldOrder(context.Background(), order.GUID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOnHold, held.Status)

	released, err := f.svc.ReleaseHold(context.Background(), order.GUID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, released.Status)

	_, err = f.svc.ReleaseHold(context.Background(), order.GUID)
	require.ErrorIs(t, err, domain.ErrOrderNotOnHold)
}

func TestAdjustShipmentTotalSupersedesAuthorization(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, shipment := f.seedOrder(t, 40, false, decimal.NewFromInt(40))

	updated, err := f.svc.AdjustShipmentTotal(context.Background(), order.GUID, shipment.GUID, decimal.NewFromInt(55))
	require.NoError(t, err)

	got, err := updated.Shipment(shipment.GUID)
	require.NoError(t, err)
	require.True(t, got.Total.Equal(decimal.NewFromInt(55)))
	require.True(t, updated.Total.Equal(decimal.NewFromInt(55)))

	rows := shipmentRows(updated.Payments, shipment.GUID)
	require.Len(t, rows, 3)
	require.Equal(t, domain.TransactionReverseAuthorization, rows[1].TransactionType)
	auth, ok := updated.Payments.ActiveAuthorization(shipment.GUID)
	require.True(t, ok)
	require.True(t, auth.Amount.Equal(decimal.NewFromInt(55)))
}

func TestAdjustShipmentTotalRejectsNegative(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, shipment := f.seedOrder(t, 40, false, decimal.NewFromInt(40))
	_, err := f.svc.AdjustShipmentTotal(context.Background(), order.GUID, shipment.GUID, decimal.NewFromInt(-5))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRefundPartialAndCapGuard(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, shipment := f.seedOrder(t, 40, false, decimal.NewFromInt(40))
	_, err := f.svc.ReleaseShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)
	_, err = f.svc.CompleteShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)

	updated, err := f.svc.Refund(context.Background(), order.GUID, shipment.GUID, decimal.NewFromInt(25))
	require.NoError(t, err)
	require.True(t, updated.Payments.CreditedTotal(shipment.GUID).Equal(decimal.NewFromInt(25)))

	// Remaining refundable is 15, so 20 exceeds the captured total.
	_, err = f.svc.Refund(context.Background(), order.GUID, shipment.GUID, decimal.NewFromInt(20))
	require.ErrorIs(t, err, domain.ErrRefundExceedsCaptured)

	updated, err = f.svc.Refund(context.Background(), order.GUID, shipment.GUID, decimal.NewFromInt(15))
	require.NoError(t, err)
	require.True(t, updated.Payments.CreditedTotal(shipment.GUID).Equal(decimal.NewFromInt(40)))
	require.Len(t, f.sink.OfType(events.TypePaymentCredited), 2)
}

func TestRefundRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, shipment := f.seedOrder(t, 40, false, decimal.NewFromInt(40))
	_, err := f.svc.Refund(context.Background(), order.GUID, shipment.GUID, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRefundDeclinedByGateway(t *testing.T) {
	f := newFixture(t, gateway.Config{DeclineCredits: true})
	order, shipment := f.seedOrder(t, 40, false, decimal.NewFromInt(40))
	_, err := f.svc.ReleaseShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)
	_, err = f.svc.CompleteShipment(context.Background(), order.GUID, shipment.GUID)
	require.NoError(t, err)

	_, err = f.svc.Refund(context.Background(), order.GUID, shipment.GUID, decimal.NewFromInt(10))
	require.ErrorIs(t, err, ErrRefundDeclined)

	persisted, err := f.repo.GetByGUID(context.Background(), order.GUID)
	require.NoError(t, err)
	rows := shipmentRows(persisted.Payments, shipment.GUID)
	last := rows[len(rows)-1]
	require.Equal(t, domain.TransactionCredit, last.TransactionType)
	require.Equal(t, domain.PaymentFailed, last.Status)
}

func TestGetOrderAndListByCustomer(t *testing.T) {
	f := newFixture(t, gateway.Config{})
	order, _ := f.seedOrder(t, 40, false, decimal.NewFromInt(40))

	got, err := f.svc.GetOrder(context.Background(), order.GUID)
	require.NoError(t, err)
	require.Equal(t, order.GUID, got.GUID)

	list, err := f.svc.ListOrdersByCustomer(context.Background(), "cust-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.svc.GetOrder(context.Background(), "missing")
	require.ErrorIs(t, err, ports.ErrNotFound)
}
