package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/commercekit/commerce-core/internal/domains/orders/domain"
	"github.com/commercekit/commerce-core/internal/domains/orders/ports"
	"github.com/commercekit/commerce-core/internal/platform/outbox"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter. Recorded events go to
// the optional buffer so tests can assert on emitted messages.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	sink   *outbox.Buffer
}

func NewRepository(sink *outbox.Buffer) *Repository {
	return &Repository{orders: map[string]*domain.Order{}, sink: sink}
}

func (r *Repository) Save(ctx context.Context, order *domain.Order, recording ...events.Event) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	clone := cloneOrder(order)
	r.mu.Lock()
	r.orders[clone.GUID] = clone
	r.mu.Unlock()
	if r.sink != nil && len(recording) > 0 {
		if err := r.sink.Record(ctx, recording...); err != nil {
			return nil, err
		}
	}
	return cloneOrder(clone), nil
}

func (r *Repository) GetByGUID(_ context.Context, guid string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[guid]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *Repository) ListByCustomer(_ context.Context, customerGUID string) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Order
	for _, order := range r.orders {
		if order.CustomerGUID == customerGUID {
			list = append(list, cloneOrder(order))
		}
	}
	return list, nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Shipments = make([]*domain.Shipment, 0, len(order.Shipments))
	for _, shipment := range order.Shipments {
		s := *shipment
		s.Lines = append([]domain.SKULine(nil), shipment.Lines...)
		clone.Shipments = append(clone.Shipments, &s)
	}
	clone.Payments = append(domain.Ledger(nil), order.Payments...)
	return &clone
}
