package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ShipmentType distinguishes fulfilment channels.
type ShipmentType string

const (
	ShipmentPhysical   ShipmentType = "PHYSICAL"
	ShipmentElectronic ShipmentType = "ELECTRONIC"
)

// ShipmentStatus enumerates the per-shipment state machine.
type ShipmentStatus string

const (
	ShipmentInventoryAssigned ShipmentStatus = "INVENTORY_ASSIGNED"
	ShipmentReleased          ShipmentStatus = "RELEASED"
	ShipmentShipped           ShipmentStatus = "SHIPPED"
	ShipmentCancelled         ShipmentStatus = "CANCELLED"
	ShipmentFailedOrder       ShipmentStatus = "FAILED_ORDER"
)

var (
	ErrShipmentNotReleasable  = errors.New("shipment can only be released once inventory is assigned")
	ErrShipmentNotShippable   = errors.New("shipment must be released before it can ship")
	ErrShipmentNotCancellable = errors.New("shipment already shipped and cannot be cancelled")
)

// SKULine is one ordered SKU within a shipment.
type SKULine struct {
	SKU              string
	Quantity         int32
	UnitPrice        decimal.Decimal
	PreOrBackOrdered bool
}

// Total is the extended price of the line.
func (l SKULine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// Shipment is a subset of an order's lines fulfilled together. Its lifetime
// is owned by the order.
type Shipment struct {
	GUID   string
	Type   ShipmentType
	Status ShipmentStatus
	Lines  []SKULine
	Total  decimal.Decimal
}

// NewShipment builds a shipment in INVENTORY_ASSIGNED with the total derived
// from its lines.
func NewShipment(guid string, shipmentType ShipmentType, lines []SKULine) *Shipment {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total())
	}
	return &Shipment{
		GUID:   guid,
		Type:   shipmentType,
		Status: ShipmentInventoryAssigned,
		Lines:  lines,
		Total:  total,
	}
}

// HoldsPreOrder reports whether any line is pre/back-ordered, which switches
// checkout to the nominal hold policy.
func (s *Shipment) HoldsPreOrder() bool {
	for _, line := range s.Lines {
		if line.PreOrBackOrdered {
			return true
		}
	}
	return false
}

// Release moves the shipment out of INVENTORY_ASSIGNED into RELEASED.
// Capture may only happen after release.
func (s *Shipment) Release() error {
	if s.Status != ShipmentInventoryAssigned {
		return ErrShipmentNotReleasable
	}
	s.Status = ShipmentReleased
	return nil
}

// MarkShipped completes a released physical shipment.
func (s *Shipment) MarkShipped() error {
	if s.Status != ShipmentReleased {
		return ErrShipmentNotShippable
	}
	s.Status = ShipmentShipped
	return nil
}

// Cancel is allowed any time before the shipment ships.
func (s *Shipment) Cancel() error {
	if !s.Cancellable() {
		return ErrShipmentNotCancellable
	}
	s.Status = ShipmentCancelled
	return nil
}

// Cancellable reports whether the shipment has not yet shipped or failed.
func (s *Shipment) Cancellable() bool {
	switch s.Status {
	case ShipmentInventoryAssigned, ShipmentReleased:
		return true
	default:
		return false
	}
}

// FailOrder marks the shipment as belonging to a failed order. Applied before
// any fulfilment status was reached.
func (s *Shipment) FailOrder() {
	s.Status = ShipmentFailedOrder
}
