package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates payment ledger entry kinds.
type TransactionType string

const (
	TransactionAuthorization        TransactionType = "AUTHORIZATION"
	TransactionCapture              TransactionType = "CAPTURE"
	TransactionReverseAuthorization TransactionType = "REVERSE_AUTHORIZATION"
	TransactionCredit               TransactionType = "CREDIT"
)

// PaymentStatus is the gateway outcome recorded with each entry.
type PaymentStatus string

const (
	PaymentApproved PaymentStatus = "APPROVED"
	PaymentFailed   PaymentStatus = "FAILED"
)

// PreOrderHoldAmount is the nominal hold authorized for carts containing only
// pre/back-ordered items. The real amount is authorized on shipment release.
var PreOrderHoldAmount = decimal.NewFromInt(1)

// PaymentEntry is one append-only row of an order's payment ledger. Entries
// are never mutated after creation; adjustments supersede them with new rows.
type PaymentEntry struct {
	GUID            string
	ShipmentGUID    string
	TransactionType TransactionType
	Amount          decimal.Decimal
	Status          PaymentStatus
	PaymentMethod   string
	ReferenceID     string
	CreatedAt       time.Time
}

// Approved reports whether the gateway accepted the transaction.
func (p PaymentEntry) Approved() bool { return p.Status == PaymentApproved }

// Ledger is the ordered, append-only payment log of a single order.
type Ledger []PaymentEntry

// Append returns a new ledger with the entry added. The receiver is never
// modified in place so earlier snapshots stay valid.
func (l Ledger) Append(entry PaymentEntry) Ledger {
	out := make(Ledger, len(l), len(l)+1)
	copy(out, l)
	return append(out, entry)
}

// ActiveAuthorization returns the latest approved authorization for the given
// shipment that has not been superseded by a reverse authorization carrying
// the same reference id. The boolean is false when none remains active.
func (l Ledger) ActiveAuthorization(shipmentGUID string) (PaymentEntry, bool) {
	reversed := map[string]bool{}
	for _, entry := range l {
		if entry.TransactionType == TransactionReverseAuthorization && entry.Approved() {
			reversed[entry.ReferenceID] = true
		}
	}
	for i := len(l) - 1; i >= 0; i-- {
		entry := l[i]
		if entry.ShipmentGUID != shipmentGUID {
			continue
		}
		if entry.TransactionType != TransactionAuthorization || !entry.Approved() {
			continue
		}
		if reversed[entry.ReferenceID] {
			continue
		}
		return entry, true
	}
	return PaymentEntry{}, false
}

// CapturedTotal sums approved captures for the shipment.
func (l Ledger) CapturedTotal(shipmentGUID string) decimal.Decimal {
	return l.sumByType(shipmentGUID, TransactionCapture)
}

// CreditedTotal sums approved credits for the shipment.
func (l Ledger) CreditedTotal(shipmentGUID string) decimal.Decimal {
	return l.sumByType(shipmentGUID, TransactionCredit)
}

func (l Ledger) sumByType(shipmentGUID string, txType TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range l {
		if entry.ShipmentGUID == shipmentGUID && entry.TransactionType == txType && entry.Approved() {
			total = total.Add(entry.Amount)
		}
	}
	return total
}
