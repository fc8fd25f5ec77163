package checkout

import (
	"go.temporal.io/sdk/workflow"

	checkoutdomain "github.com/commercekit/commerce-core/internal/domains/checkout/domain"
	"github.com/commercekit/commerce-core/internal/platform/temporal/sequences"
)

const (
	// CheckoutWorkflowName is the public identifier for registering the workflow.
	CheckoutWorkflowName = "checkout.workflows.Placement"
	// CheckoutTaskQueue is the queue consumed by the worker processing checkouts.
	CheckoutTaskQueue = "ORDER_CHECKOUT"
)

// CheckoutWorkflowInput captures the payload required to place an order.
type CheckoutWorkflowInput struct {
	Request checkoutdomain.Request
	TraceID string
}

// CheckoutWorkflow orchestrates the activities needed to place an order and
// fulfil its electronic shipments.
func CheckoutWorkflow(ctx workflow.Context, input CheckoutWorkflowInput) (*checkoutdomain.Result, error) {
	logger := workflow.GetLogger(ctx)
	shopper := input.Request.Session.ShopperGUID
	logger.Info("CheckoutWorkflow started", withTraceID(input.TraceID, "shopper", shopper)...)
	result, err := sequences.RunCheckoutSequence(ctx, input.Request)
	if err != nil {
		logger.Error("CheckoutWorkflow failed", withTraceID(input.TraceID, "shopper", shopper, "error", err)...)
		return nil, err
	}
	if result != nil && result.Order != nil {
		logger.Info("CheckoutWorkflow completed", withTraceID(input.TraceID, "order", result.Order.GUID, "failed", result.Failed)...)
	} else {
		logger.Info("CheckoutWorkflow completed", withTraceID(input.TraceID)...)
	}
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
