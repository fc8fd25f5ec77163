package domain

import (
	"github.com/shopspring/decimal"

	cartsdomain "github.com/commercekit/commerce-core/internal/domains/carts/domain"
	ordersdomain "github.com/commercekit/commerce-core/internal/domains/orders/domain"
)

// TaxSnapshot is the priced tax document computed before checkout starts.
type TaxSnapshot struct {
	DocumentID string
	TaxTotal   decimal.Decimal
}

// CustomerSession identifies who is checking out and against which store.
type CustomerSession struct {
	ShopperGUID  string
	CustomerGUID string
	StoreCode    string
}

// PaymentTemplate carries the payment method details used to authorize each
// shipment.
type PaymentTemplate struct {
	Method string
}

// Request is the input of one checkout attempt.
type Request struct {
	Cart       *cartsdomain.Cart
	Tax        TaxSnapshot
	Session    CustomerSession
	Payment    PaymentTemplate
	IsExchange bool
	// AlwaysHold routes the order into ONHOLD for manual review instead of
	// IN_PROGRESS.
	AlwaysHold bool
}

// Context is the mutable state threaded through the reversible action chain.
type Context struct {
	Request Request
	// Order is built by the populate step and persisted even when the
	// checkout fails, for audit.
	Order *ordersdomain.Order
	// TaxCommitted tracks whether the tax document was committed, so the
	// rollback stays a no-op when nothing happened.
	TaxCommitted bool
	// ForceHold is set by the hold step variant.
	ForceHold bool
}

// Result is what a checkout attempt returns. The order is always persisted,
// even on failure.
type Result struct {
	Order  *ordersdomain.Order
	Failed bool
}

// IsOrderFailed reports whether the checkout left the order in FAILED.
func (r *Result) IsOrderFailed() bool {
	return r != nil && r.Failed
}
