package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// GatewayResult is the outcome of one gateway call. Declines are results, not
// errors: errors are reserved for infrastructure failures.
type GatewayResult struct {
	ReferenceID   string
	Approved      bool
	DeclineReason string
}

// PaymentGateway abstracts the external payment processor. Implementations
// carry their own configuration; there is no process-global state.
type PaymentGateway interface {
	Authorize(ctx context.Context, method string, amount decimal.Decimal) (GatewayResult, error)
	Capture(ctx context.Context, referenceID string, amount decimal.Decimal) (GatewayResult, error)
	ReverseAuthorization(ctx context.Context, referenceID string) (GatewayResult, error)
	Credit(ctx context.Context, referenceID string, amount decimal.Decimal) (GatewayResult, error)
}
