package domain

import (
	"errors"
	"strings"
	"time"
)

// StateCode enumerates the change-set lifecycle.
type StateCode string

const (
	StateOpen           StateCode = "OPEN"
	StateLocked         StateCode = "LOCKED"
	StateReadyToPublish StateCode = "READY_TO_PUBLISH"
	StateFinalized      StateCode = "FINALIZED"
)

var (
	ErrEmptyName          = errors.New("change set name is required")
	ErrNotEditable        = errors.New("change set is not open for editing")
	ErrAlreadyFinalized   = errors.New("change set is already finalized")
	ErrIllegalStateChange = errors.New("illegal change set state transition")
	ErrMemberExists       = errors.New("object is already a member of this change set")
	ErrMemberNotFound     = errors.New("object is not a member of this change set")
	ErrObjectNotAvailable = errors.New("object is a member of another active change set")
)

// ObjectDescriptor identifies a domain object by type and identifier.
type ObjectDescriptor struct {
	ObjectType string `json:"object_type"`
	ObjectID   string `json:"object_id"`
}

func (d ObjectDescriptor) String() string {
	return d.ObjectType + ":" + d.ObjectID
}

// Member records one object's membership plus arbitrary metadata.
type Member struct {
	Descriptor ObjectDescriptor
	Metadata   map[string]string
	AddedAt    time.Time
}

// ChangeSet is a named, stateful grouping of domain-object edits awaiting a
// single publish/finalize action.
type ChangeSet struct {
	GUID          string
	Name          string
	State         StateCode
	CreatedBy     string
	AssignedUsers []string
	Members       []Member
	CreatedAt     time.Time
	ModifiedAt    time.Time
}

// NewChangeSet builds an open change set.
func NewChangeSet(guid, name, createdBy string) (*ChangeSet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	now := time.Now().UTC()
	return &ChangeSet{
		GUID:       guid,
		Name:       name,
		State:      StateOpen,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		ModifiedAt: now,
	}, nil
}

// Active reports whether the set still holds its members' availability lock.
func (c *ChangeSet) Active() bool {
	return c.State != StateFinalized
}

// AddMember appends the object. Membership edits require the OPEN state.
func (c *ChangeSet) AddMember(descriptor ObjectDescriptor, metadata map[string]string) error {
	if c.State != StateOpen {
		return ErrNotEditable
	}
	if c.HasMember(descriptor) {
		return ErrMemberExists
	}
	c.Members = append(c.Members, Member{Descriptor: descriptor, Metadata: metadata, AddedAt: time.Now().UTC()})
	c.touch()
	return nil
}

// RemoveMember drops the object.
func (c *ChangeSet) RemoveMember(descriptor ObjectDescriptor) error {
	if c.State != StateOpen {
		return ErrNotEditable
	}
	for i, member := range c.Members {
		if member.Descriptor == descriptor {
			c.Members = append(c.Members[:i], c.Members[i+1:]...)
			c.touch()
			return nil
		}
	}
	return ErrMemberNotFound
}

// HasMember reports membership of the exact descriptor.
func (c *ChangeSet) HasMember(descriptor ObjectDescriptor) bool {
	for _, member := range c.Members {
		if member.Descriptor == descriptor {
			return true
		}
	}
	return false
}

// Lock freezes membership edits ahead of publish.
func (c *ChangeSet) Lock() error {
	return c.transition(StateOpen, StateLocked)
}

// MarkReadyToPublish stages a locked set for publication.
func (c *ChangeSet) MarkReadyToPublish() error {
	return c.transition(StateLocked, StateReadyToPublish)
}

// Finalize closes the set from any active state, releasing every member's
// availability lock.
func (c *ChangeSet) Finalize() error {
	if c.State == StateFinalized {
		return ErrAlreadyFinalized
	}
	c.State = StateFinalized
	c.touch()
	return nil
}

// AssignUser grants a user access to the set.
func (c *ChangeSet) AssignUser(user string) {
	for _, existing := range c.AssignedUsers {
		if existing == user {
			return
		}
	}
	c.AssignedUsers = append(c.AssignedUsers, user)
	c.touch()
}

func (c *ChangeSet) transition(from, to StateCode) error {
	if c.State == StateFinalized {
		return ErrAlreadyFinalized
	}
	if c.State != from {
		return ErrIllegalStateChange
	}
	c.State = to
	c.touch()
	return nil
}

func (c *ChangeSet) touch() {
	c.ModifiedAt = time.Now().UTC()
}

// MembershipStatus answers the two questions callers ask about an object: is
// it in the given change set, and is it free to join it.
type MembershipStatus struct {
	// ActiveChangeSetGUID is the non-finalized set holding the object, empty
	// when the object is unclaimed.
	ActiveChangeSetGUID string
}

// IsMember reports whether the object currently belongs to the given set.
func (s MembershipStatus) IsMember(changeSetGUID string) bool {
	return s.ActiveChangeSetGUID != "" && s.ActiveChangeSetGUID == changeSetGUID
}

// IsAvailable reports whether the object could join the given set: it must
// not be claimed by a different non-finalized set.
func (s MembershipStatus) IsAvailable(changeSetGUID string) bool {
	return s.ActiveChangeSetGUID == "" || s.ActiveChangeSetGUID == changeSetGUID
}
