package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/commercekit/commerce-core/internal/domains/changesets/domain"
	"github.com/commercekit/commerce-core/internal/domains/changesets/ports"
	"github.com/commercekit/commerce-core/internal/platform/outbox"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory change-set store. SavePair holds the write lock
// across both sets so a move is observed atomically.
type Repository struct {
	mu   sync.RWMutex
	sets map[string]*domain.ChangeSet
	sink *outbox.Buffer
}

func NewRepository(sink *outbox.Buffer) *Repository {
	return &Repository{sets: map[string]*domain.ChangeSet{}, sink: sink}
}

func (r *Repository) Save(ctx context.Context, changeSet *domain.ChangeSet, recording ...events.Event) (*domain.ChangeSet, error) {
	if changeSet == nil {
		return nil, errors.New("change set is nil")
	}
	r.mu.Lock()
	r.sets[changeSet.GUID] = cloneChangeSet(changeSet)
	r.mu.Unlock()
	if r.sink != nil && len(recording) > 0 {
		if err := r.sink.Record(ctx, recording...); err != nil {
			return nil, err
		}
	}
	return cloneChangeSet(changeSet), nil
}

func (r *Repository) SavePair(ctx context.Context, first, second *domain.ChangeSet, recording ...events.Event) (*domain.ChangeSet, *domain.ChangeSet, error) {
	if first == nil || second == nil {
		return nil, nil, errors.New("change set is nil")
	}
	r.mu.Lock()
	r.sets[first.GUID] = cloneChangeSet(first)
	r.sets[second.GUID] = cloneChangeSet(second)
	r.mu.Unlock()
	if r.sink != nil && len(recording) > 0 {
		if err := r.sink.Record(ctx, recording...); err != nil {
			return nil, nil, err
		}
	}
	return cloneChangeSet(first), cloneChangeSet(second), nil
}

func (r *Repository) GetByGUID(_ context.Context, guid string) (*domain.ChangeSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	changeSet, ok := r.sets[guid]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneChangeSet(changeSet), nil
}

func (r *Repository) FindActiveByDescriptor(_ context.Context, descriptor domain.ObjectDescriptor) (*domain.ChangeSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, changeSet := range r.sets {
		if changeSet.Active() && changeSet.HasMember(descriptor) {
			return cloneChangeSet(changeSet), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) ListMembers(_ context.Context, guid string, page ports.PageRequest) (*ports.MemberPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	changeSet, ok := r.sets[guid]
	if !ok {
		return nil, ports.ErrNotFound
	}
	total := len(changeSet.Members)
	start := page.StartIndex
	if start > total {
		start = total
	}
	end := start + page.PageSize
	if end > total {
		end = total
	}
	members := make([]domain.Member, end-start)
	copy(members, changeSet.Members[start:end])
	return &ports.MemberPage{
		Members:    members,
		TotalCount: total,
		StartIndex: page.StartIndex,
		PageSize:   page.PageSize,
	}, nil
}

func cloneChangeSet(changeSet *domain.ChangeSet) *domain.ChangeSet {
	clone := *changeSet
	clone.AssignedUsers = append([]string(nil), changeSet.AssignedUsers...)
	clone.Members = make([]domain.Member, len(changeSet.Members))
	for i, member := range changeSet.Members {
		m := member
		if member.Metadata != nil {
			m.Metadata = make(map[string]string, len(member.Metadata))
			for k, v := range member.Metadata {
				m.Metadata[k] = v
			}
		}
		clone.Members[i] = m
	}
	return &clone
}
