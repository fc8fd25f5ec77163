package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/commercekit/commerce-core/internal/domains/changesets/adapters/memory"
	"github.com/commercekit/commerce-core/internal/domains/changesets/domain"
	"github.com/commercekit/commerce-core/internal/domains/changesets/ports"
	"github.com/commercekit/commerce-core/internal/platform/outbox"
	"github.com/commercekit/commerce-core/internal/shared/events"
)

func newFixture(t *testing.T) (*Service, *outbox.Buffer) {
	t.Helper()
	sink := outbox.NewBuffer()
	return NewService(memory.NewRepository(sink)), sink
}

func product(id string) domain.ObjectDescriptor {
	return domain.ObjectDescriptor{ObjectType: "product", ObjectID: id}
}

func TestCreateEmitsEvent(t *testing.T) {
	svc, sink := newFixture(t)

	changeSet, err := svc.Create(context.Background(), "spring promo", "csr")
	require.NoError(t, err)
	require.Equal(t, domain.StateOpen, changeSet.State)

	created := sink.OfType(events.TypeChangeSetCreated)
	require.Len(t, created, 1)
	require.Equal(t, changeSet.GUID, created[0].SubjectGUID)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc, _ := newFixture(t)
	_, err := svc.Create(context.Background(), "", "csr")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestObjectExclusivity(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "first", "csr")
	require.NoError(t, err)
	second, err := svc.Create(ctx, "second", "csr")
	require.NoError(t, err)

	_, err = svc.AddObject(ctx, first.GUID, product("sku-1"), nil)
	require.NoError(t, err)

	// Claimed by first, so second cannot take it.
	_, err = svc.AddObject(ctx, second.GUID, product("sku-1"), nil)
	require.ErrorIs(t, err, domain.ErrObjectNotAvailable)

	// Re-adding to the holder reports the duplicate, not availability.
	_, err = svc.AddObject(ctx, first.GUID, product("sku-1"), nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	status, err := svc.Status(ctx, product("sku-1"))
	require.NoError(t, err)
	require.True(t, status.IsMember(first.GUID))
	require.False(t, status.IsAvailable(second.GUID))
}

func TestFinalizeReleasesMembers(t *testing.T) {
	svc, sink := newFixture(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "first", "csr")
	require.NoError(t, err)
	_, err = svc.AddObject(ctx, first.GUID, product("sku-1"), nil)
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, first.GUID)
	require.NoError(t, err)
	require.Len(t, sink.OfType(events.TypeChangeSetFinalized), 1)

	second, err := svc.Create(ctx, "second", "csr")
	require.NoError(t, err)
	_, err = svc.AddObject(ctx, second.GUID, product("sku-1"), nil)
	require.NoError(t, err)

	status, err := svc.Status(ctx, product("sku-1"))
	require.NoError(t, err)
	require.True(t, status.IsMember(second.GUID))
}

func TestRemoveObjectReleasesAvailability(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "first", "csr")
	require.NoError(t, err)
	_, err = svc.AddObject(ctx, first.GUID, product("sku-1"), nil)
	require.NoError(t, err)
	_, err = svc.RemoveObject(ctx, first.GUID, product("sku-1"))
	require.NoError(t, err)

	status, err := svc.Status(ctx, product("sku-1"))
	require.NoError(t, err)
	require.True(t, status.IsAvailable(first.GUID))
	require.Empty(t, status.ActiveChangeSetGUID)
}

func TestMoveObjectsIsAllOrNothing(t *testing.T) {
	svc, sink := newFixture(t)
	ctx := context.Background()

	source, err := svc.Create(ctx, "source", "csr")
	require.NoError(t, err)
	target, err := svc.Create(ctx, "target", "csr")
	require.NoError(t, err)

	for _, id := range []string{"sku-1", "sku-2"} {
		_, err = svc.AddObject(ctx, source.GUID, product(id), nil)
		require.NoError(t, err)
	}

	// One descriptor missing from source fails the whole move.
	_, _, err = svc.MoveObjects(ctx, source.GUID, target.GUID, []domain.ObjectDescriptor{
		product("sku-1"),
		product("missing"),
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	unchanged, err := svc.Get(ctx, source.GUID)
	require.NoError(t, err)
	require.Len(t, unchanged.Members, 2)
	untouched, err := svc.Get(ctx, target.GUID)
	require.NoError(t, err)
	require.Empty(t, untouched.Members)

	movedSource, movedTarget, err := svc.MoveObjects(ctx, source.GUID, target.GUID, []domain.ObjectDescriptor{
		product("sku-1"),
		product("sku-2"),
	})
	require.NoError(t, err)
	require.Empty(t, movedSource.Members)
	require.Len(t, movedTarget.Members, 2)
	require.Len(t, sink.OfType(events.TypeObjectsMoved), 1)
}

func TestMoveObjectsRejectsSameSet(t *testing.T) {
	svc, _ := newFixture(t)
	_, _, err := svc.MoveObjects(context.Background(), "cs-1", "cs-1", nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestStateChangeOperations(t *testing.T) {
	svc, sink := newFixture(t)
	ctx := context.Background()

	changeSet, err := svc.Create(ctx, "promo", "csr")
	require.NoError(t, err)

	locked, err := svc.Lock(ctx, changeSet.GUID)
	require.NoError(t, err)
	require.Equal(t, domain.StateLocked, locked.State)

	ready, err := svc.MarkReadyToPublish(ctx, changeSet.GUID)
	require.NoError(t, err)
	require.Equal(t, domain.StateReadyToPublish, ready.State)

	final, err := svc.Finalize(ctx, changeSet.GUID)
	require.NoError(t, err)
	require.Equal(t, domain.StateFinalized, final.State)

	require.Len(t, sink.OfType(events.TypeChangeSetLocked), 1)
	require.Len(t, sink.OfType(events.TypeChangeSetReady), 1)

	// Membership edits after lock surface as invalid input.
	_, err = svc.Lock(ctx, changeSet.GUID)
	require.Error(t, err)
}

func TestListMembersPagination(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	changeSet, err := svc.Create(ctx, "bulk", "csr")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = svc.AddObject(ctx, changeSet.GUID, product(fmt.Sprintf("sku-%d", i)), nil)
		require.NoError(t, err)
	}

	page, err := svc.ListMembers(ctx, changeSet.GUID, ports.PageRequest{StartIndex: 0, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Members, 2)
	require.Equal(t, 5, page.TotalCount)
	require.Equal(t, "sku-0", page.Members[0].Descriptor.ObjectID)

	last, err := svc.ListMembers(ctx, changeSet.GUID, ports.PageRequest{StartIndex: 4, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, last.Members, 1)
	require.Equal(t, "sku-4", last.Members[0].Descriptor.ObjectID)

	past, err := svc.ListMembers(ctx, changeSet.GUID, ports.PageRequest{StartIndex: 10, PageSize: 2})
	require.NoError(t, err)
	require.Empty(t, past.Members)

	_, err = svc.ListMembers(ctx, changeSet.GUID, ports.PageRequest{StartIndex: 0, PageSize: 0})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetUnknownChangeSet(t *testing.T) {
	svc, _ := newFixture(t)
	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ports.ErrNotFound)
}
