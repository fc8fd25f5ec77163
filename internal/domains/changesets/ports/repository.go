package ports

import (
	"context"
	"errors"

	"github.com/commercekit/commerce-core/internal/domains/changesets/domain"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

var ErrNotFound = errors.New("change set not found")

// PageRequest selects a window of change-set members.
type PageRequest struct {
	StartIndex int
	PageSize   int
}

// MemberPage is one stable window plus the total count at snapshot time.
type MemberPage struct {
	Members    []domain.Member
	TotalCount int
	StartIndex int
	PageSize   int
}

// Repository persists change sets. SavePair writes two sets in one unit of
// work so moves are atomic: failure leaves both unchanged.
type Repository interface {
	Save(ctx context.Context, changeSet *domain.ChangeSet, recording ...events.Event) (*domain.ChangeSet, error)
	SavePair(ctx context.Context, first, second *domain.ChangeSet, recording ...events.Event) (*domain.ChangeSet, *domain.ChangeSet, error)
	GetByGUID(ctx context.Context, guid string) (*domain.ChangeSet, error)
	// FindActiveByDescriptor returns the non-finalized set holding the
	// object, or ErrNotFound when the object is unclaimed.
	FindActiveByDescriptor(ctx context.Context, descriptor domain.ObjectDescriptor) (*domain.ChangeSet, error)
	ListMembers(ctx context.Context, guid string, page PageRequest) (*MemberPage, error)
}
