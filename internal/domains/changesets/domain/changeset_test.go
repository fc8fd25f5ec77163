package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func descriptor(objectType, objectID string) ObjectDescriptor {
	return ObjectDescriptor{ObjectType: objectType, ObjectID: objectID}
}

func TestNewChangeSetRequiresName(t *testing.T) {
	_, err := NewChangeSet("cs-1", "   ", "csr")
	require.ErrorIs(t, err, ErrEmptyName)

	changeSet, err := NewChangeSet("cs-1", "  Spring Promo  ", "csr")
	require.NoError(t, err)
	require.Equal(t, "Spring Promo", changeSet.Name)
	require.Equal(t, StateOpen, changeSet.State)
}

func TestMembershipEditsRequireOpenState(t *testing.T) {
	changeSet, err := NewChangeSet("cs-1", "promo", "csr")
	require.NoError(t, err)

	product := descriptor("product", "sku-100")
	require.NoError(t, changeSet.AddMember(product, map[string]string{"store": "mobee"}))
	require.ErrorIs(t, changeSet.AddMember(product, nil), ErrMemberExists)
	require.True(t, changeSet.HasMember(product))

	require.NoError(t, changeSet.Lock())
	require.ErrorIs(t, changeSet.AddMember(descriptor("product", "sku-200"), nil), ErrNotEditable)
	require.ErrorIs(t, changeSet.RemoveMember(product), ErrNotEditable)
}

func TestRemoveMember(t *testing.T) {
	changeSet, err := NewChangeSet("cs-1", "promo", "csr")
	require.NoError(t, err)
	product := descriptor("product", "sku-100")
	require.NoError(t, changeSet.AddMember(product, nil))

	require.ErrorIs(t, changeSet.RemoveMember(descriptor("product", "missing")), ErrMemberNotFound)
	require.NoError(t, changeSet.RemoveMember(product))
	require.False(t, changeSet.HasMember(product))
}

func TestStateTransitions(t *testing.T) {
	changeSet, err := NewChangeSet("cs-1", "promo", "csr")
	require.NoError(t, err)

	// READY_TO_PUBLISH requires LOCKED first.
	require.ErrorIs(t, changeSet.MarkReadyToPublish(), ErrIllegalStateChange)

	require.NoError(t, changeSet.Lock())
	require.ErrorIs(t, changeSet.Lock(), ErrIllegalStateChange)
	require.NoError(t, changeSet.MarkReadyToPublish())
	require.Equal(t, StateReadyToPublish, changeSet.State)

	require.NoError(t, changeSet.Finalize())
	require.False(t, changeSet.Active())
	require.ErrorIs(t, changeSet.Finalize(), ErrAlreadyFinalized)
	require.ErrorIs(t, changeSet.Lock(), ErrAlreadyFinalized)
}

func TestFinalizeFromAnyActiveState(t *testing.T) {
	for _, prep := range []func(*ChangeSet) error{
		func(*ChangeSet) error { return nil },
		(*ChangeSet).Lock,
		func(c *ChangeSet) error {
			if err := c.Lock(); err != nil {
				return err
			}
			return c.MarkReadyToPublish()
		},
	} {
		changeSet, err := NewChangeSet("cs-1", "promo", "csr")
		require.NoError(t, err)
		require.NoError(t, prep(changeSet))
		require.NoError(t, changeSet.Finalize())
		require.Equal(t, StateFinalized, changeSet.State)
	}
}

func TestAssignUserDeduplicates(t *testing.T) {
	changeSet, err := NewChangeSet("cs-1", "promo", "csr")
	require.NoError(t, err)
	changeSet.AssignUser("editor-1")
	changeSet.AssignUser("editor-1")
	changeSet.AssignUser("editor-2")
	require.Equal(t, []string{"editor-1", "editor-2"}, changeSet.AssignedUsers)
}

func TestMembershipStatus(t *testing.T) {
	unclaimed := MembershipStatus{}
	require.False(t, unclaimed.IsMember("cs-1"))
	require.True(t, unclaimed.IsAvailable("cs-1"))

	claimed := MembershipStatus{ActiveChangeSetGUID: "cs-1"}
	require.True(t, claimed.IsMember("cs-1"))
	require.True(t, claimed.IsAvailable("cs-1"))
	require.False(t, claimed.IsMember("cs-2"))
	require.False(t, claimed.IsAvailable("cs-2"))
}
