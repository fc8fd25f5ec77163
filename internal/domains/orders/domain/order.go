package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order progression.
type Status string

const (
	StatusCreated          Status = "CREATED"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusOnHold           Status = "ONHOLD"
	StatusPartiallyShipped Status = "PARTIALLY_SHIPPED"
	StatusCompleted        Status = "COMPLETED"
	StatusCancelled        Status = "CANCELLED"
	StatusFailed           Status = "FAILED"
)

var (
	ErrInvalidStatus         = errors.New("order status is invalid")
	ErrIllegalTransition     = errors.New("illegal order status transition")
	ErrOrderNotCancellable   = errors.New("order has shipped shipments and cannot be cancelled")
	ErrOrderNotOnHold        = errors.New("order is not on hold")
	ErrOrderTerminal         = errors.New("order is in a terminal state")
	ErrShipmentNotFound      = errors.New("shipment does not belong to this order")
	ErrRefundExceedsCaptured = errors.New("refund exceeds captured amount")
)

// statusTransitions captures the legal edges of the order state machine.
// Transitions are monotonic except the explicit ONHOLD release edge.
var statusTransitions = map[Status][]Status{
	StatusCreated:          {StatusInProgress, StatusOnHold, StatusFailed},
	StatusInProgress:       {StatusOnHold, StatusPartiallyShipped, StatusCompleted, StatusCancelled, StatusFailed},
	StatusOnHold:           {StatusInProgress, StatusCancelled, StatusFailed},
	StatusPartiallyShipped: {StatusCompleted, StatusFailed},
}

// Order is the aggregate root owning shipments and the payment ledger.
type Order struct {
	GUID         string
	CustomerGUID string
	StoreCode    string
	Status       Status
	Total        decimal.Decimal
	Exchange     bool
	Shipments    []*Shipment
	Payments     Ledger
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// NewOrder builds an order in CREATED with no shipments or payments.
func NewOrder(guid, customerGUID, storeCode string, isExchange bool) *Order {
	now := time.Now().UTC()
	return &Order{
		GUID:         guid,
		CustomerGUID: customerGUID,
		StoreCode:    storeCode,
		Status:       StatusCreated,
		Total:        decimal.Zero,
		Exchange:     isExchange,
		CreatedAt:    now,
		ModifiedAt:   now,
	}
}

// AddShipment attaches a shipment and folds its total into the order total.
func (o *Order) AddShipment(shipment *Shipment) {
	o.Shipments = append(o.Shipments, shipment)
	o.Total = o.Total.Add(shipment.Total)
	o.touch()
}

// Shipment finds an owned shipment by GUID.
func (o *Order) Shipment(guid string) (*Shipment, error) {
	for _, s := range o.Shipments {
		if s.GUID == guid {
			return s, nil
		}
	}
	return nil, ErrShipmentNotFound
}

// RecordPayment appends a ledger entry. The ledger only ever grows; failed
// gateway transactions are recorded too, never omitted.
func (o *Order) RecordPayment(entry PaymentEntry) {
	o.Payments = o.Payments.Append(entry)
	o.touch()
}

// Transition moves the order to the target status if the edge is legal.
func (o *Order) Transition(target Status) error {
	if o.Status == target {
		return nil
	}
	for _, allowed := range statusTransitions[o.Status] {
		if allowed == target {
			o.Status = target
			o.touch()
			return nil
		}
	}
	if o.Terminal() {
		return ErrOrderTerminal
	}
	return ErrIllegalTransition
}

// Terminal reports whether no further transitions are possible.
func (o *Order) Terminal() bool {
	switch o.Status {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// Hold parks the order for manual review.
func (o *Order) Hold() error { return o.Transition(StatusOnHold) }

// ReleaseHold resumes a held order.
func (o *Order) ReleaseHold() error {
	if o.Status != StatusOnHold {
		return ErrOrderNotOnHold
	}
	return o.Transition(StatusInProgress)
}

// Fail marks the order failed and propagates FAILED_ORDER to shipments that
// never reached a fulfilment status. The order stays persisted for audit.
func (o *Order) Fail() {
	for _, s := range o.Shipments {
		if s.Status == ShipmentInventoryAssigned {
			s.FailOrder()
		}
	}
	o.Status = StatusFailed
	o.touch()
}

// Cancellable reports whether a wholesale cancel is allowed: every shipment
// must still be in a cancellable state.
func (o *Order) Cancellable() bool {
	if o.Terminal() {
		return false
	}
	for _, s := range o.Shipments {
		if s.Status == ShipmentShipped {
			return false
		}
	}
	return true
}

// Cancel performs a wholesale cancel. It fails without state change when any
// shipment has already shipped.
func (o *Order) Cancel() error {
	if !o.Cancellable() {
		return ErrOrderNotCancellable
	}
	for _, s := range o.Shipments {
		if s.Cancellable() {
			if err := s.Cancel(); err != nil {
				return err
			}
		}
	}
	return o.Transition(StatusCancelled)
}

// CancelShipment cancels a single shipment and settles the order status from
// the remaining shipments: an order whose other shipments already shipped
// becomes COMPLETED rather than CANCELLED.
func (o *Order) CancelShipment(shipmentGUID string) error {
	shipment, err := o.Shipment(shipmentGUID)
	if err != nil {
		return err
	}
	if err := shipment.Cancel(); err != nil {
		return err
	}
	o.settleStatus()
	return nil
}

// SettleAfterShipment recomputes the order status after a shipment reached
// SHIPPED: COMPLETED when everything settled, PARTIALLY_SHIPPED otherwise.
func (o *Order) SettleAfterShipment() {
	o.settleStatus()
}

func (o *Order) settleStatus() {
	if o.Terminal() {
		return
	}
	var shipped, cancelled, open int
	for _, s := range o.Shipments {
		switch s.Status {
		case ShipmentShipped:
			shipped++
		case ShipmentCancelled, ShipmentFailedOrder:
			cancelled++
		default:
			open++
		}
	}
	switch {
	case open == 0 && shipped > 0:
		o.Status = StatusCompleted
	case open == 0 && shipped == 0 && cancelled > 0:
		o.Status = StatusCancelled
	case shipped > 0:
		o.Status = StatusPartiallyShipped
	}
	o.touch()
}

func (o *Order) touch() {
	o.ModifiedAt = time.Now().UTC()
}

// Validate enforces aggregate invariants before persistence.
func (o *Order) Validate() error {
	switch o.Status {
	case StatusCreated, StatusInProgress, StatusOnHold, StatusPartiallyShipped,
		StatusCompleted, StatusCancelled, StatusFailed:
	default:
		return ErrInvalidStatus
	}
	return nil
}
