package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercekit/commerce-core/internal/domains/changesets/domain"
	"github.com/commercekit/commerce-core/internal/domains/changesets/ports"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

// ErrInvalidInput signals the request violated a change-set invariant.
var ErrInvalidInput = errors.New("invalid change set input")

// Service orchestrates change-set use cases and enforces the exclusivity
// invariant: an object belongs to at most one non-finalized set at a time.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, name, createdBy string) (*domain.ChangeSet, error) {
	changeSet, err := domain.NewChangeSet(uuid.NewString(), name, createdBy)
	if err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, changeSet, events.New(events.TypeChangeSetCreated, changeSet.GUID, map[string]string{"name": changeSet.Name}))
}

func (s *Service) Get(ctx context.Context, guid string) (*domain.ChangeSet, error) {
	return s.repo.GetByGUID(ctx, guid)
}

// AddObject claims the object for the set after checking no other active set
// holds it.
func (s *Service) AddObject(ctx context.Context, changeSetGUID string, descriptor domain.ObjectDescriptor, metadata map[string]string) (*domain.ChangeSet, error) {
	changeSet, err := s.repo.GetByGUID(ctx, changeSetGUID)
	if err != nil {
		return nil, err
	}
	holder, err := s.repo.FindActiveByDescriptor(ctx, descriptor)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}
	if holder != nil && holder.GUID != changeSetGUID {
		return nil, fmt.Errorf("%w: held by %s", domain.ErrObjectNotAvailable, holder.GUID)
	}
	if err := changeSet.AddMember(descriptor, metadata); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, changeSet, events.New(events.TypeObjectAdded, changeSet.GUID, map[string]string{
		"object_type": descriptor.ObjectType,
		"object_id":   descriptor.ObjectID,
	}))
}

func (s *Service) RemoveObject(ctx context.Context, changeSetGUID string, descriptor domain.ObjectDescriptor) (*domain.ChangeSet, error) {
	changeSet, err := s.repo.GetByGUID(ctx, changeSetGUID)
	if err != nil {
		return nil, err
	}
	if err := changeSet.RemoveMember(descriptor); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, changeSet, events.New(events.TypeObjectRemoved, changeSet.GUID, map[string]string{
		"object_type": descriptor.ObjectType,
		"object_id":   descriptor.ObjectID,
	}))
}

// MoveObjects transfers descriptors from source to target as one atomic
// operation: both sets are mutated in memory first, then persisted together,
// so a failure leaves both unchanged.
func (s *Service) MoveObjects(ctx context.Context, sourceGUID, targetGUID string, descriptors []domain.ObjectDescriptor) (*domain.ChangeSet, *domain.ChangeSet, error) {
	if sourceGUID == targetGUID {
		return nil, nil, fmt.Errorf("%w: source and target are the same change set", ErrInvalidInput)
	}
	source, err := s.repo.GetByGUID(ctx, sourceGUID)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.repo.GetByGUID(ctx, targetGUID)
	if err != nil {
		return nil, nil, err
	}
	for _, descriptor := range descriptors {
		if err := source.RemoveMember(descriptor); err != nil {
			return nil, nil, mapError(err)
		}
		if err := target.AddMember(descriptor, nil); err != nil {
			return nil, nil, mapError(err)
		}
	}
	return s.repo.SavePair(ctx, source, target, events.New(events.TypeObjectsMoved, sourceGUID, map[string]string{
		"target": targetGUID,
		"moved":  fmt.Sprintf("%d", len(descriptors)),
	}))
}

// Status answers membership and availability for a single object.
func (s *Service) Status(ctx context.Context, descriptor domain.ObjectDescriptor) (domain.MembershipStatus, error) {
	holder, err := s.repo.FindActiveByDescriptor(ctx, descriptor)
	if errors.Is(err, ports.ErrNotFound) {
		return domain.MembershipStatus{}, nil
	}
	if err != nil {
		return domain.MembershipStatus{}, err
	}
	return domain.MembershipStatus{ActiveChangeSetGUID: holder.GUID}, nil
}

func (s *Service) Lock(ctx context.Context, guid string) (*domain.ChangeSet, error) {
	return s.stateChange(ctx, guid, events.TypeChangeSetLocked, (*domain.ChangeSet).Lock)
}

func (s *Service) MarkReadyToPublish(ctx context.Context, guid string) (*domain.ChangeSet, error) {
	return s.stateChange(ctx, guid, events.TypeChangeSetReady, (*domain.ChangeSet).MarkReadyToPublish)
}

// Finalize closes the set; every member becomes available to new change sets
// the moment the save commits.
func (s *Service) Finalize(ctx context.Context, guid string) (*domain.ChangeSet, error) {
	return s.stateChange(ctx, guid, events.TypeChangeSetFinalized, (*domain.ChangeSet).Finalize)
}

func (s *Service) ListMembers(ctx context.Context, guid string, page ports.PageRequest) (*ports.MemberPage, error) {
	if page.PageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive", ErrInvalidInput)
	}
	if page.StartIndex < 0 {
		return nil, fmt.Errorf("%w: start index cannot be negative", ErrInvalidInput)
	}
	return s.repo.ListMembers(ctx, guid, page)
}

func (s *Service) stateChange(ctx context.Context, guid, eventType string, change func(*domain.ChangeSet) error) (*domain.ChangeSet, error) {
	changeSet, err := s.repo.GetByGUID(ctx, guid)
	if err != nil {
		return nil, err
	}
	if err := change(changeSet); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, changeSet, events.New(eventType, changeSet.GUID, nil))
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyName) ||
		errors.Is(err, domain.ErrMemberExists) ||
		errors.Is(err, domain.ErrMemberNotFound) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

var _ ports.Service = (*Service)(nil)
