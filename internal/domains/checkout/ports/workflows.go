package ports

import (
	"context"

	"github.com/commercekit/commerce-core/internal/domains/checkout/domain"
)

// WorkflowOrchestrator starts a checkout either inline or on a durable
// workflow engine.
type WorkflowOrchestrator interface {
	Checkout(ctx context.Context, req domain.Request) (*domain.Result, error)
}
