package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/commercekit/commerce-core/internal/domains/carts/domain"
	"github.com/commercekit/commerce-core/internal/domains/carts/ports"
)

// ErrInvalidInput signals the request violated a cart invariant.
var ErrInvalidInput = errors.New("invalid cart input")

// Service orchestrates cart use cases. A missing cart is materialized empty
// rather than treated as an error.
type Service struct {
	store ports.Store
}

func NewService(store ports.Store) *Service {
	return &Service{store: store}
}

func (s *Service) GetCart(ctx context.Context, shopperGUID, storeCode string) (*domain.Cart, error) {
	cart, err := s.store.Get(ctx, shopperGUID)
	if errors.Is(err, ports.ErrNotFound) {
		return domain.NewCart(shopperGUID, storeCode), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) AddLine(ctx context.Context, shopperGUID, storeCode string, line domain.LineItem) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, shopperGUID, storeCode)
	if err != nil {
		return nil, err
	}
	if err := cart.AddLine(line); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.store.Put(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// MergeCarts folds the previous shopper's cart into the current one, e.g.
// an anonymous cart into the cart of the account it signed in to. The
// previous cart is removed after a successful merge.
func (s *Service) MergeCarts(ctx context.Context, currentShopperGUID, previousShopperGUID, storeCode string) (*domain.Cart, error) {
	current, err := s.GetCart(ctx, currentShopperGUID, storeCode)
	if err != nil {
		return nil, err
	}
	previous, err := s.store.Get(ctx, previousShopperGUID)
	if errors.Is(err, ports.ErrNotFound) {
		return current, nil
	}
	if err != nil {
		return nil, err
	}
	current.Merge(previous)
	if err := s.store.Put(ctx, current); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, previousShopperGUID); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *Service) ClearCart(ctx context.Context, shopperGUID string) error {
	err := s.store.Delete(ctx, shopperGUID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	return err
}

var _ ports.Service = (*Service)(nil)
