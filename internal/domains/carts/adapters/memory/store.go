package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/commercekit/commerce-core/internal/domains/carts/domain"
	"github.com/commercekit/commerce-core/internal/domains/carts/ports"
)

var _ ports.Store = (*Store)(nil)

// Store is an in-memory cart adapter.
type Store struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewStore() *Store {
	return &Store{carts: map[string]*domain.Cart{}}
}

func (s *Store) Get(_ context.Context, shopperGUID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, ok := s.carts[shopperGUID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *cart
	clone.Lines = append([]domain.LineItem(nil), cart.Lines...)
	return &clone, nil
}

func (s *Store) Put(_ context.Context, cart *domain.Cart) error {
	if cart == nil {
		return errors.New("cart is nil")
	}
	clone := *cart
	clone.Lines = append([]domain.LineItem(nil), cart.Lines...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.ShopperGUID] = &clone
	return nil
}

func (s *Store) Delete(_ context.Context, shopperGUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carts[shopperGUID]; !ok {
		return ports.ErrNotFound
	}
	delete(s.carts, shopperGUID)
	return nil
}
