package ports

import (
	"context"
	"errors"

	"github.com/commercekit/commerce-core/internal/domains/orders/domain"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

var ErrNotFound = errors.New("order not found")

// Repository persists order aggregates. Save writes the aggregate and the
// supplied event records in one unit of work so consumers never observe
// uncommitted state.
type Repository interface {
	Save(ctx context.Context, order *domain.Order, recording ...events.Event) (*domain.Order, error)
	GetByGUID(ctx context.Context, guid string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerGUID string) ([]*domain.Order, error)
}
