package ports

import (
	"context"

	"github.com/commercekit/commerce-core/internal/domains/changesets/domain"
)

// Service exposes change-set use cases to adapters.
type Service interface {
	Create(ctx context.Context, name, createdBy string) (*domain.ChangeSet, error)
	Get(ctx context.Context, guid string) (*domain.ChangeSet, error)

	AddObject(ctx context.Context, changeSetGUID string, descriptor domain.ObjectDescriptor, metadata map[string]string) (*domain.ChangeSet, error)
	RemoveObject(ctx context.Context, changeSetGUID string, descriptor domain.ObjectDescriptor) (*domain.ChangeSet, error)
	MoveObjects(ctx context.Context, sourceGUID, targetGUID string, descriptors []domain.ObjectDescriptor) (*domain.ChangeSet, *domain.ChangeSet, error)
	Status(ctx context.Context, descriptor domain.ObjectDescriptor) (domain.MembershipStatus, error)

	Lock(ctx context.Context, guid string) (*domain.ChangeSet, error)
	MarkReadyToPublish(ctx context.Context, guid string) (*domain.ChangeSet, error)
	Finalize(ctx context.Context, guid string) (*domain.ChangeSet, error)

	ListMembers(ctx context.Context, guid string, page PageRequest) (*MemberPage, error)
}
