package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	checkoutdomain "github.com/commercekit/commerce-core/internal/domains/checkout/domain"
	checkoutactivities "github.com/commercekit/commerce-core/internal/platform/temporal/activities/checkout"
)

// RunCheckoutSequence executes the ordered set of activities needed to place
// an order. The placement activity is never retried: the reversible chain
// already rolled back and re-running would re-authorize the shopper's card.
func RunCheckoutSequence(ctx workflow.Context, req checkoutdomain.Request) (*checkoutdomain.Result, error) {
	logger := workflow.GetLogger(ctx)
	shopper := req.Session.ShopperGUID
	logger.Info("checkout sequence started", "shopper", shopper)

	placeOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	fulfilOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}

	var result checkoutdomain.Result
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, placeOptions), checkoutactivities.ProcessCheckoutActivityName, req).Get(ctx, &result)
	if err != nil {
		logger.Error("checkout sequence failed", "shopper", shopper, "error", err)
		return nil, err
	}
	if result.Order == nil || result.Failed {
		logger.Info("checkout sequence placed failed order", "shopper", shopper)
		return &result, nil
	}
	logger.Info("checkout sequence placed order", "order", result.Order.GUID)

	// Electronic shipments have no warehouse stage and complete right away,
	// with a separate retry policy since capture is idempotent per shipment
	// state.
	if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, fulfilOptions), checkoutactivities.ReleaseElectronicShipmentsActivityName, result.Order.GUID).Get(ctx, nil); err != nil {
		logger.Error("checkout sequence electronic fulfilment failed", "order", result.Order.GUID, "error", err)
		return &result, err
	}
	return &result, nil
}
