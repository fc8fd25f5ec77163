package application

import "errors"

var (
	// ErrInvalidCart signals the cart failed checkout preconditions.
	ErrInvalidCart = errors.New("cart is not checkout-ready")
	// ErrAuthorizationDeclined halts the chain when the gateway declines a
	// shipment authorization. The FAILED row is already on the ledger.
	ErrAuthorizationDeclined = errors.New("payment authorization declined")
)
