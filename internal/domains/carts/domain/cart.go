package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart       = errors.New("cart has no line items")
	ErrUnpricedCart    = errors.New("cart line items are not priced")
	ErrInvalidQuantity = errors.New("line quantity must be greater than zero")
	ErrEmptySKU        = errors.New("line sku is required")
)

// ShipmentKind tells checkout which shipment a line belongs in.
type ShipmentKind string

const (
	KindPhysical   ShipmentKind = "PHYSICAL"
	KindElectronic ShipmentKind = "ELECTRONIC"
)

// LineItem is one SKU entry in a cart. A bundle line is an atomic unit: its
// constituents ship and price together and it never merges with other lines.
type LineItem struct {
	SKU              string
	Quantity         int32
	UnitPrice        decimal.Decimal
	Kind             ShipmentKind
	PreOrBackOrdered bool
	Bundle           bool
	Constituents     []string
}

// Priced reports whether the line carries a usable price.
func (l LineItem) Priced() bool { return l.UnitPrice.IsPositive() }

// Total is the extended price of the line.
func (l LineItem) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// Cart is the transient aggregation of a shopper's line items.
type Cart struct {
	ShopperGUID string
	StoreCode   string
	Lines       []LineItem
	ModifiedAt  time.Time
}

func NewCart(shopperGUID, storeCode string) *Cart {
	return &Cart{ShopperGUID: shopperGUID, StoreCode: storeCode, ModifiedAt: time.Now().UTC()}
}

// AddLine validates and appends or merges a line. Same-SKU non-bundle lines
// merge by summing quantities; bundles always append.
func (c *Cart) AddLine(line LineItem) error {
	if line.SKU == "" {
		return ErrEmptySKU
	}
	if line.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if line.Kind == "" {
		line.Kind = KindPhysical
	}
	if !line.Bundle {
		for i := range c.Lines {
			if c.Lines[i].SKU == line.SKU && !c.Lines[i].Bundle {
				c.Lines[i].Quantity += line.Quantity
				c.touch()
				return nil
			}
		}
	}
	c.Lines = append(c.Lines, line)
	c.touch()
	return nil
}

// Merge folds a previous cart into this one by SKU-identity union. Bundle
// items are atomic, non-mergeable units: a previous bundle line is carried
// over as its own line and never combined with a same-SKU line.
func (c *Cart) Merge(previous *Cart) {
	if previous == nil {
		return
	}
	for _, line := range previous.Lines {
		if line.Bundle {
			c.Lines = append(c.Lines, line)
			continue
		}
		merged := false
		for i := range c.Lines {
			if c.Lines[i].SKU == line.SKU && !c.Lines[i].Bundle {
				c.Lines[i].Quantity += line.Quantity
				merged = true
				break
			}
		}
		if !merged {
			c.Lines = append(c.Lines, line)
		}
	}
	c.touch()
}

// Total sums the extended prices of all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Total())
	}
	return total
}

// Validate enforces the checkout preconditions: non-empty and fully priced.
func (c *Cart) Validate() error {
	if len(c.Lines) == 0 {
		return ErrEmptyCart
	}
	for _, line := range c.Lines {
		if !line.Priced() {
			return ErrUnpricedCart
		}
	}
	return nil
}

// Clear drops all lines.
func (c *Cart) Clear() {
	c.Lines = nil
	c.touch()
}

func (c *Cart) touch() {
	c.ModifiedAt = time.Now().UTC()
}
