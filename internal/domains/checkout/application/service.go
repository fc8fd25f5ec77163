package application

import (
	"context"
	"errors"

	cartsports "github.com/commercekit/commerce-core/internal/domains/carts/ports"
	"github.com/commercekit/commerce-core/internal/domains/checkout/domain"
	"github.com/commercekit/commerce-core/internal/domains/checkout/ports"
	ordersports "github.com/commercekit/commerce-core/internal/domains/orders/ports"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

// Service is the checkout orchestrator. It composes the reversible action
// chain, persists the order whatever the outcome, and clears the shopper's
// cart on success.
type Service struct {
	orders  ordersports.Repository
	gateway ordersports.PaymentGateway
	carts   cartsports.Store
}

// NewService wires the orchestrator. The cart store is optional; when nil the
// shopper's cart is left in place after checkout.
func NewService(orders ordersports.Repository, gateway ordersports.PaymentGateway, carts cartsports.Store) *Service {
	return &Service{orders: orders, gateway: gateway, carts: carts}
}

// Checkout runs the action chain. A gateway decline rolls back completed
// steps, persists the order as FAILED for audit, and reports the failure on
// the result rather than as an error; errors are reserved for requests that
// never produced an order and for infrastructure faults.
func (s *Service) Checkout(ctx context.Context, req domain.Request) (*domain.Result, error) {
	checkout := &domain.Context{Request: req}
	chain := s.buildChain(req)

	if err := chain.Run(ctx, checkout); err != nil {
		if checkout.Order == nil {
			return nil, err
		}
		checkout.Order.Fail()
		failEvents := []events.Event{events.New(events.TypeOrderFailed, checkout.Order.GUID, nil)}
		if errors.Is(err, ErrAuthorizationDeclined) {
			failEvents = append(failEvents, events.New(events.TypePaymentDeclined, checkout.Order.GUID, nil))
		}
		persisted, saveErr := s.orders.Save(ctx, checkout.Order, failEvents...)
		if saveErr != nil {
			return nil, errors.Join(err, saveErr)
		}
		if errors.Is(err, ErrAuthorizationDeclined) {
			return &domain.Result{Order: persisted, Failed: true}, nil
		}
		return &domain.Result{Order: persisted, Failed: true}, err
	}

	evts := []events.Event{events.New(events.TypeOrderCreated, checkout.Order.GUID, map[string]string{
		"customer": req.Session.CustomerGUID,
		"store":    req.Session.StoreCode,
	})}
	if checkout.ForceHold {
		evts = append(evts, events.New(events.TypeOrderHeld, checkout.Order.GUID, nil))
	}
	persisted, err := s.orders.Save(ctx, checkout.Order, evts...)
	if err != nil {
		return nil, err
	}
	if s.carts != nil {
		if err := s.carts.Delete(ctx, req.Session.ShopperGUID); err != nil && !errors.Is(err, cartsports.ErrNotFound) {
			return nil, err
		}
	}
	return &domain.Result{Order: persisted}, nil
}

func (s *Service) buildChain(req domain.Request) *domain.Chain {
	actions := []domain.ReversibleAction{
		validateCartAction{},
		populateOrderAction{},
		commitTaxAction{},
		authorizePaymentsAction{gateway: s.gateway},
	}
	if req.AlwaysHold {
		actions = append(actions, alwaysHoldAction{})
	}
	actions = append(actions, finalizeOrderAction{})
	return domain.NewChain(actions...)
}

var _ ports.Service = (*Service)(nil)
