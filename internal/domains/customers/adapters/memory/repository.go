package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/commercekit/commerce-core/internal/domains/customers/domain"
	"github.com/commercekit/commerce-core/internal/domains/customers/ports"
	"github.com/commercekit/commerce-core/internal/platform/outbox"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory customer store.
type Repository struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer
	sink      *outbox.Buffer
}

func NewRepository(sink *outbox.Buffer) *Repository {
	return &Repository{customers: map[string]*domain.Customer{}, sink: sink}
}

func (r *Repository) Save(ctx context.Context, customer *domain.Customer, recording ...events.Event) (*domain.Customer, error) {
	if customer == nil {
		return nil, errors.New("customer is nil")
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	clone := *customer
	r.mu.Lock()
	r.customers[clone.GUID] = &clone
	r.mu.Unlock()
	if r.sink != nil && len(recording) > 0 {
		if err := r.sink.Record(ctx, recording...); err != nil {
			return nil, err
		}
	}
	copied := clone
	return &copied, nil
}

func (r *Repository) GetByGUID(_ context.Context, guid string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	customer, ok := r.customers[guid]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *customer
	return &clone, nil
}

func (r *Repository) FindByUserID(_ context.Context, storeCode, userID string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, customer := range r.customers {
		if customer.StoreCode == storeCode && customer.UserID == userID {
			clone := *customer
			return &clone, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) Delete(_ context.Context, guid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[guid]; !ok {
		return ports.ErrNotFound
	}
	delete(r.customers, guid)
	return nil
}

func (r *Repository) List(_ context.Context, storeCode string) ([]*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Customer
	for _, customer := range r.customers {
		if customer.StoreCode == storeCode {
			clone := *customer
			list = append(list, &clone)
		}
	}
	return list, nil
}
