package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercekit/commerce-core/internal/domains/orders/domain"
	"github.com/commercekit/commerce-core/internal/domains/orders/ports"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

// Service orchestrates order fulfilment use cases: shipment release and
// completion, cancellation, holds, total adjustments, and refunds. Every
// gateway outcome, approved or declined, lands in the order's payment ledger.
type Service struct {
	repo    ports.Repository
	gateway ports.PaymentGateway
}

func NewService(repo ports.Repository, gateway ports.PaymentGateway) *Service {
	return &Service{repo: repo, gateway: gateway}
}

func (s *Service) GetOrder(ctx context.Context, guid string) (*domain.Order, error) {
	return s.repo.GetByGUID(ctx, guid)
}

func (s *Service) ListOrdersByCustomer(ctx context.Context, customerGUID string) ([]*domain.Order, error) {
	return s.repo.ListByCustomer(ctx, customerGUID)
}

// ReleaseShipment moves a shipment to RELEASED. When the shipment was placed
// under the nominal pre/back-order hold, the hold is reversed and the real
// amount authorized before the status changes; a declined re-authorization
// leaves the shipment untouched with the FAILED row recorded.
func (s *Service) ReleaseShipment(ctx context.Context, orderGUID, shipmentGUID string) (*domain.Order, error) {
	order, err := s.repo.GetByGUID(ctx, orderGUID)
	if err != nil {
		return nil, err
	}
	shipment, err := order.Shipment(shipmentGUID)
	if err != nil {
		return nil, err
	}
	if shipment.Status != domain.ShipmentInventoryAssigned {
		return nil, mapError(domain.ErrShipmentNotReleasable)
	}

	evts := []events.Event{}
	auth, ok := order.Payments.ActiveAuthorization(shipmentGUID)
	if ok && shipment.HoldsPreOrder() && auth.Amount.Equal(domain.PreOrderHoldAmount) && !shipment.Total.Equal(domain.PreOrderHoldAmount) {
		reversed, err := s.reverseAuthorization(ctx, order, shipment, auth)
		if err != nil {
			return nil, err
		}
		if !reversed {
			if _, err := s.repo.Save(ctx, order); err != nil {
				return nil, err
			}
			return nil, ErrReleaseShipmentFailed
		}
		approved, err := s.authorize(ctx, order, shipment, auth.PaymentMethod, shipment.Total)
		if err != nil {
			return nil, err
		}
		if !approved {
			if _, err := s.repo.Save(ctx, order, events.New(events.TypePaymentDeclined, order.GUID, map[string]string{"shipment": shipmentGUID})); err != nil {
				return nil, err
			}
			return nil, ErrReleaseShipmentFailed
		}
	}

	if err := shipment.Release(); err != nil {
		return nil, mapError(err)
	}
	evts = append(evts, events.New(events.TypeShipmentReleased, order.GUID, map[string]string{"shipment": shipmentGUID}))
	return s.repo.Save(ctx, order, evts...)
}

// CompleteShipment captures the latest active authorization and marks the
// shipment SHIPPED. Electronic shipments are released implicitly since they
// have no warehouse stage. A declined capture records a FAILED capture row,
// leaves the shipment status unchanged, and surfaces ErrCompleteShipmentFailed.
func (s *Service) CompleteShipment(ctx context.Context, orderGUID, shipmentGUID string) (*domain.Order, error) {
	order, err := s.repo.GetByGUID(ctx, orderGUID)
	if err != nil {
		return nil, err
	}
	shipment, err := order.Shipment(shipmentGUID)
	if err != nil {
		return nil, err
	}
	if shipment.Type == domain.ShipmentElectronic && shipment.Status == domain.ShipmentInventoryAssigned {
		if _, err := s.ReleaseShipment(ctx, orderGUID, shipmentGUID); err != nil {
			return nil, err
		}
		order, err = s.repo.GetByGUID(ctx, orderGUID)
		if err != nil {
			return nil, err
		}
		shipment, err = order.Shipment(shipmentGUID)
		if err != nil {
			return nil, err
		}
	}
	if shipment.Status != domain.ShipmentReleased {
		return nil, mapError(domain.ErrShipmentNotShippable)
	}

	auth, ok := order.Payments.ActiveAuthorization(shipmentGUID)
	if !ok {
		return nil, ErrNoActiveAuthorization
	}
	result, err := s.gateway.Capture(ctx, auth.ReferenceID, shipment.Total)
	if err != nil {
		return nil, fmt.Errorf("capture shipment %s: %w", shipmentGUID, err)
	}
	order.RecordPayment(s.entry(shipment, domain.TransactionCapture, shipment.Total, auth.PaymentMethod, result))
	if !result.Approved {
		// Shipment status deliberately unchanged; the ledger still reflects
		// the declined attempt.
		if _, err := s.repo.Save(ctx, order, events.New(events.TypePaymentDeclined, order.GUID, map[string]string{"shipment": shipmentGUID})); err != nil {
			return nil, err
		}
		return nil, ErrCompleteShipmentFailed
	}

	if err := shipment.MarkShipped(); err != nil {
		return nil, mapError(err)
	}
	order.SettleAfterShipment()
	evts := []events.Event{
		events.New(events.TypePaymentApproved, order.GUID, map[string]string{"shipment": shipmentGUID, "type": string(domain.TransactionCapture)}),
		events.New(events.TypeShipmentShipped, order.GUID, map[string]string{"shipment": shipmentGUID}),
	}
	if order.Status == domain.StatusCompleted {
		evts = append(evts, events.New(events.TypeOrderCompleted, order.GUID, nil))
	}
	return s.repo.Save(ctx, order, evts...)
}

// CancelShipment cancels one shipment, reversing its active authorization.
// When every sibling has already shipped the order settles to COMPLETED, not
// CANCELLED.
func (s *Service) CancelShipment(ctx context.Context, orderGUID, shipmentGUID string) (*domain.Order, error) {
	order, err := s.repo.GetByGUID(ctx, orderGUID)
	if err != nil {
		return nil, err
	}
	shipment, err := order.Shipment(shipmentGUID)
	if err != nil {
		return nil, err
	}
	if !shipment.Cancellable() {
		return nil, domain.ErrShipmentNotCancellable
	}
	if auth, ok := order.Payments.ActiveAuthorization(shipmentGUID); ok {
		if _, err := s.reverseAuthorization(ctx, order, shipment, auth); err != nil {
			return nil, err
		}
	}
	if err := order.CancelShipment(shipmentGUID); err != nil {
		return nil, err
	}
	evts := []events.Event{events.New(events.TypeShipmentCancelled, order.GUID, map[string]string{"shipment": shipmentGUID})}
	switch order.Status {
	case domain.StatusCompleted:
		evts = append(evts, events.New(events.TypeOrderCompleted, order.GUID, nil))
	case domain.StatusCancelled:
		evts = append(evts, events.New(events.TypeOrderCancelled, order.GUID, nil))
	}
	return s.repo.Save(ctx, order, evts...)
}

// CancelOrder performs a wholesale cancel. The guard fails without any state
// change when a shipment already shipped.
func (s *Service) CancelOrder(ctx context.Context, guid string) (*domain.Order, error) {
	order, err := s.repo.GetByGUID(ctx, guid)
	if err != nil {
		return nil, err
	}
	if !order.Cancellable() {
		return nil, domain.ErrOrderNotCancellable
	}
	for _, shipment := range order.Shipments {
		if !shipment.Cancellable() {
			continue
		}
		if auth, ok := order.Payments.ActiveAuthorization(shipment.GUID); ok {
			if _, err := s.reverseAuthorization(ctx, order, shipment, auth); err != nil {
				return nil, err
			}
		}
	}
	if err := order.Cancel(); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, order, events.New(events.TypeOrderCancelled, order.GUID, nil))
}

func (s *Service) HoldOrder(ctx context.Context, guid string) (*domain.Order, error) {
	order, err := s.repo.GetByGUID(ctx, guid)
	if err != nil {
		return nil, err
	}
	if err := order.Hold(); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, order, events.New(events.TypeOrderHeld, order.GUID, nil))
}

func (s *Service) ReleaseHold(ctx context.Context, guid string) (*domain.Order, error) {
	order, err := s.repo.GetByGUID(ctx, guid)
	if err != nil {
		return nil, err
	}
	if err := order.ReleaseHold(); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, order, events.New(events.TypeOrderHoldReleased, order.GUID, nil))
}

// AdjustShipmentTotal supersedes the active authorization: a reverse row for
// the old amount plus a fresh authorization for the new one. The original
// authorization row is never mutated.
func (s *Service) AdjustShipmentTotal(ctx context.Context, orderGUID, shipmentGUID string, newTotal decimal.Decimal) (*domain.Order, error) {
	if newTotal.IsNegative() {
		return nil, fmt.Errorf("%w: shipment total cannot be negative", ErrInvalidInput)
	}
	order, err := s.repo.GetByGUID(ctx, orderGUID)
	if err != nil {
		return nil, err
	}
	shipment, err := order.Shipment(shipmentGUID)
	if err != nil {
		return nil, err
	}
	auth, ok := order.Payments.ActiveAuthorization(shipmentGUID)
	if !ok {
		return nil, ErrNoActiveAuthorization
	}
	reversed, err := s.reverseAuthorization(ctx, order, shipment, auth)
	if err != nil {
		return nil, err
	}
	if !reversed {
		if _, err := s.repo.Save(ctx, order); err != nil {
			return nil, err
		}
		return nil, ErrReleaseShipmentFailed
	}
	approved, err := s.authorize(ctx, order, shipment, auth.PaymentMethod, newTotal)
	if err != nil {
		return nil, err
	}
	if !approved {
		if _, err := s.repo.Save(ctx, order, events.New(events.TypePaymentDeclined, order.GUID, map[string]string{"shipment": shipmentGUID})); err != nil {
			return nil, err
		}
		return nil, ErrReleaseShipmentFailed
	}
	order.Total = order.Total.Sub(shipment.Total).Add(newTotal)
	shipment.Total = newTotal
	return s.repo.Save(ctx, order, events.New(events.TypePaymentApproved, order.GUID, map[string]string{"shipment": shipmentGUID, "type": string(domain.TransactionAuthorization)}))
}

// Refund appends a CREDIT row. Multiple partial refunds are allowed; the
// cumulative credit may not exceed the captured total.
func (s *Service) Refund(ctx context.Context, orderGUID, shipmentGUID string, amount decimal.Decimal) (*domain.Order, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: refund amount must be positive", ErrInvalidInput)
	}
	order, err := s.repo.GetByGUID(ctx, orderGUID)
	if err != nil {
		return nil, err
	}
	shipment, err := order.Shipment(shipmentGUID)
	if err != nil {
		return nil, err
	}
	captured := order.Payments.CapturedTotal(shipmentGUID)
	credited := order.Payments.CreditedTotal(shipmentGUID)
	if credited.Add(amount).GreaterThan(captured) {
		return nil, domain.ErrRefundExceedsCaptured
	}
	reference := ""
	if auth, ok := lastCapture(order.Payments, shipmentGUID); ok {
		reference = auth.ReferenceID
	}
	result, err := s.gateway.Credit(ctx, reference, amount)
	if err != nil {
		return nil, fmt.Errorf("refund shipment %s: %w", shipmentGUID, err)
	}
	order.RecordPayment(s.entry(shipment, domain.TransactionCredit, amount, paymentMethodOf(order.Payments, shipmentGUID), result))
	if !result.Approved {
		if _, err := s.repo.Save(ctx, order, events.New(events.TypePaymentDeclined, order.GUID, map[string]string{"shipment": shipmentGUID})); err != nil {
			return nil, err
		}
		return nil, ErrRefundDeclined
	}
	return s.repo.Save(ctx, order, events.New(events.TypePaymentCredited, order.GUID, map[string]string{"shipment": shipmentGUID, "amount": amount.String()}))
}

// authorize runs a gateway authorization and records the outcome row.
func (s *Service) authorize(ctx context.Context, order *domain.Order, shipment *domain.Shipment, method string, amount decimal.Decimal) (bool, error) {
	result, err := s.gateway.Authorize(ctx, method, amount)
	if err != nil {
		return false, fmt.Errorf("authorize shipment %s: %w", shipment.GUID, err)
	}
	order.RecordPayment(s.entry(shipment, domain.TransactionAuthorization, amount, method, result))
	return result.Approved, nil
}

// reverseAuthorization runs a gateway reversal and records the outcome row.
func (s *Service) reverseAuthorization(ctx context.Context, order *domain.Order, shipment *domain.Shipment, auth domain.PaymentEntry) (bool, error) {
	result, err := s.gateway.ReverseAuthorization(ctx, auth.ReferenceID)
	if err != nil {
		return false, fmt.Errorf("reverse authorization %s: %w", auth.ReferenceID, err)
	}
	entry := s.entry(shipment, domain.TransactionReverseAuthorization, auth.Amount, auth.PaymentMethod, result)
	// A reversal supersedes by reference id, so it carries the original's.
	entry.ReferenceID = auth.ReferenceID
	order.RecordPayment(entry)
	return result.Approved, nil
}

func (s *Service) entry(shipment *domain.Shipment, txType domain.TransactionType, amount decimal.Decimal, method string, result ports.GatewayResult) domain.PaymentEntry {
	status := domain.PaymentFailed
	if result.Approved {
		status = domain.PaymentApproved
	}
	return domain.PaymentEntry{
		GUID:            uuid.NewString(),
		ShipmentGUID:    shipment.GUID,
		TransactionType: txType,
		Amount:          amount,
		Status:          status,
		PaymentMethod:   method,
		ReferenceID:     result.ReferenceID,
		CreatedAt:       time.Now().UTC(),
	}
}

func lastCapture(ledger domain.Ledger, shipmentGUID string) (domain.PaymentEntry, bool) {
	for i := len(ledger) - 1; i >= 0; i-- {
		entry := ledger[i]
		if entry.ShipmentGUID == shipmentGUID && entry.TransactionType == domain.TransactionCapture && entry.Approved() {
			return entry, true
		}
	}
	return domain.PaymentEntry{}, false
}

func paymentMethodOf(ledger domain.Ledger, shipmentGUID string) string {
	for i := len(ledger) - 1; i >= 0; i-- {
		if ledger[i].ShipmentGUID == shipmentGUID {
			return ledger[i].PaymentMethod
		}
	}
	return ""
}

var _ ports.Service = (*Service)(nil)
