package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrRollbackFailed wraps rollback errors so the original cause survives.
var ErrRollbackFailed = errors.New("checkout rollback failed")

// ReversibleAction is one step of the checkout pipeline. Execute is applied
// in chain order; Rollback must be idempotent and safe to call when the step
// only partially applied.
type ReversibleAction interface {
	Name() string
	Execute(ctx context.Context, checkout *Context) error
	Rollback(ctx context.Context, checkout *Context) error
}

// Chain is a statically composed, ordered list of reversible actions.
type Chain struct {
	actions []ReversibleAction
}

func NewChain(actions ...ReversibleAction) *Chain {
	return &Chain{actions: actions}
}

// Run executes the actions in order. The first error halts forward execution
// and rolls back in reverse order, starting with the failing action itself
// since it may have partially applied, before the error is returned.
func (c *Chain) Run(ctx context.Context, checkout *Context) error {
	for i, action := range c.actions {
		if err := action.Execute(ctx, checkout); err != nil {
			rollbackErr := c.rollback(ctx, checkout, i)
			if rollbackErr != nil {
				return fmt.Errorf("%s: %w (%w: %w)", action.Name(), err, ErrRollbackFailed, rollbackErr)
			}
			return fmt.Errorf("%s: %w", action.Name(), err)
		}
	}
	return nil
}

func (c *Chain) rollback(ctx context.Context, checkout *Context, from int) error {
	var errs error
	for i := from; i >= 0; i-- {
		if err := c.actions[i].Rollback(ctx, checkout); err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", c.actions[i].Name(), err))
		}
	}
	return errs
}
