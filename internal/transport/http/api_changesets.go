package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	changesetsapp "github.com/commercekit/commerce-core/internal/domains/changesets/application"
	changesetsdomain "github.com/commercekit/commerce-core/internal/domains/changesets/domain"
	changesetsports "github.com/commercekit/commerce-core/internal/domains/changesets/ports"
)

// ChangeSetAPI wires HTTP transport with the change-set bounded context.
type ChangeSetAPI struct {
	service changesetsports.Service
}

// NewChangeSetAPI creates a ChangeSetAPI backed by the provided service.
func NewChangeSetAPI(service changesetsports.Service) ChangeSetAPI {
	return ChangeSetAPI{service: service}
}

// ChangeSet is the transport representation of a change set.
type ChangeSet struct {
	GUID          string            `json:"guid"`
	Name          string            `json:"name"`
	State         string            `json:"state"`
	CreatedBy     string            `json:"created_by"`
	AssignedUsers []string          `json:"assigned_users,omitempty"`
	Members       []ChangeSetMember `json:"members"`
	CreatedAt     time.Time         `json:"created_at"`
	ModifiedAt    time.Time         `json:"modified_at"`
}

// ChangeSetMember is one object membership.
type ChangeSetMember struct {
	ObjectType string            `json:"object_type"`
	ObjectID   string            `json:"object_id"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	AddedAt    time.Time         `json:"added_at"`
}

// ObjectRef identifies a domain object in requests.
type ObjectRef struct {
	ObjectType string            `json:"object_type" binding:"required"`
	ObjectID   string            `json:"object_id" binding:"required"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// MemberPage is one stable pagination window.
type MemberPage struct {
	Members    []ChangeSetMember `json:"members"`
	TotalCount int               `json:"total_count"`
	StartIndex int               `json:"start_index"`
	PageSize   int               `json:"page_size"`
}

// Post /v1/changesets
// Create an open change set
func (api *ChangeSetAPI) Create(c *gin.Context) {
	var payload struct {
		Name      string `json:"name" binding:"required"`
		CreatedBy string `json:"created_by"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	changeSet, err := api.service.Create(c.Request.Context(), payload.Name, payload.CreatedBy)
	if err != nil {
		respondChangeSetError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromDomainChangeSet(changeSet))
}

// Get /v1/changesets/:changeSetGuid
// Fetch one change set with members
func (api *ChangeSetAPI) Get(c *gin.Context) {
	changeSet, err := api.service.Get(c.Request.Context(), c.Param("changeSetGuid"))
	if err != nil {
		respondChangeSetError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainChangeSet(changeSet))
}

// Post /v1/changesets/:changeSetGuid/objects
// Claim an object for the set
func (api *ChangeSetAPI) AddObject(c *gin.Context) {
	var payload ObjectRef
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	changeSet, err := api.service.AddObject(c.Request.Context(), c.Param("changeSetGuid"), toDescriptor(payload), payload.Metadata)
	if err != nil {
		respondChangeSetError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainChangeSet(changeSet))
}

// Delete /v1/changesets/:changeSetGuid/objects
// Release an object from the set
func (api *ChangeSetAPI) RemoveObject(c *gin.Context) {
	var payload ObjectRef
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	changeSet, err := api.service.RemoveObject(c.Request.Context(), c.Param("changeSetGuid"), toDescriptor(payload))
	if err != nil {
		respondChangeSetError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainChangeSet(changeSet))
}

// Post /v1/changesets/:changeSetGuid/move
// Move objects to another set atomically
func (api *ChangeSetAPI) MoveObjects(c *gin.Context) {
	var payload struct {
		TargetGUID string      `json:"target_guid" binding:"required"`
		Objects    []ObjectRef `json:"objects" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	descriptors := make([]changesetsdomain.ObjectDescriptor, 0, len(payload.Objects))
	for _, object := range payload.Objects {
		descriptors = append(descriptors, toDescriptor(object))
	}
	source, target, err := api.service.MoveObjects(c.Request.Context(), c.Param("changeSetGuid"), payload.TargetGUID, descriptors)
	if err != nil {
		respondChangeSetError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source": fromDomainChangeSet(source),
		"target": fromDomainChangeSet(target),
	})
}

// Get /v1/changesets/status
// Report which active set, if any, holds an object
func (api *ChangeSetAPI) Status(c *gin.Context) {
	descriptor := changesetsdomain.ObjectDescriptor{
		ObjectType: c.Query("object_type"),
		ObjectID:   c.Query("object_id"),
	}
	if descriptor.ObjectType == "" || descriptor.ObjectID == "" {
		respondError(c, http.StatusBadRequest, errors.New("object_type and object_id are required"))
		return
	}
	status, err := api.service.Status(c.Request.Context(), descriptor)
	if err != nil {
		respondChangeSetError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active_change_set_guid": status.ActiveChangeSetGUID,
		"available":              status.ActiveChangeSetGUID == "",
	})
}

// Post /v1/changesets/:changeSetGuid/lock
// Freeze membership edits
func (api *ChangeSetAPI) Lock(c *gin.Context) {
	api.stateChange(c, api.service.Lock)
}

// Post /v1/changesets/:changeSetGuid/ready
// Stage a locked set for publication
func (api *ChangeSetAPI) MarkReadyToPublish(c *gin.Context) {
	api.stateChange(c, api.service.MarkReadyToPublish)
}

// Post /v1/changesets/:changeSetGuid/finalize
// Close the set and release its members
func (api *ChangeSetAPI) Finalize(c *gin.Context) {
	api.stateChange(c, api.service.Finalize)
}

// Get /v1/changesets/:changeSetGuid/members
// Page through members in insertion order
func (api *ChangeSetAPI) ListMembers(c *gin.Context) {
	startIndex, err := strconv.Atoi(c.DefaultQuery("start_index", "0"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	page, err := api.service.ListMembers(c.Request.Context(), c.Param("changeSetGuid"), changesetsports.PageRequest{
		StartIndex: startIndex,
		PageSize:   pageSize,
	})
	if err != nil {
		respondChangeSetError(c, err)
		return
	}
	result := MemberPage{
		Members:    make([]ChangeSetMember, 0, len(page.Members)),
		TotalCount: page.TotalCount,
		StartIndex: page.StartIndex,
		PageSize:   page.PageSize,
	}
	for _, member := range page.Members {
		result.Members = append(result.Members, fromDomainMember(member))
	}
	c.JSON(http.StatusOK, result)
}

func (api *ChangeSetAPI) stateChange(c *gin.Context, op func(ctx context.Context, guid string) (*changesetsdomain.ChangeSet, error)) {
	changeSet, err := op(c.Request.Context(), c.Param("changeSetGuid"))
	if err != nil {
		respondChangeSetError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainChangeSet(changeSet))
}

func respondChangeSetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, changesetsports.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, changesetsdomain.ErrObjectNotAvailable),
		errors.Is(err, changesetsdomain.ErrNotEditable),
		errors.Is(err, changesetsdomain.ErrAlreadyFinalized),
		errors.Is(err, changesetsdomain.ErrIllegalStateChange):
		respondError(c, http.StatusConflict, err)
	case errors.Is(err, changesetsapp.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}

func toDescriptor(ref ObjectRef) changesetsdomain.ObjectDescriptor {
	return changesetsdomain.ObjectDescriptor{ObjectType: ref.ObjectType, ObjectID: ref.ObjectID}
}

func fromDomainChangeSet(changeSet *changesetsdomain.ChangeSet) ChangeSet {
	result := ChangeSet{
		GUID:          changeSet.GUID,
		Name:          changeSet.Name,
		State:         string(changeSet.State),
		CreatedBy:     changeSet.CreatedBy,
		AssignedUsers: changeSet.AssignedUsers,
		Members:       make([]ChangeSetMember, 0, len(changeSet.Members)),
		CreatedAt:     changeSet.CreatedAt,
		ModifiedAt:    changeSet.ModifiedAt,
	}
	for _, member := range changeSet.Members {
		result.Members = append(result.Members, fromDomainMember(member))
	}
	return result
}

func fromDomainMember(member changesetsdomain.Member) ChangeSetMember {
	return ChangeSetMember{
		ObjectType: member.Descriptor.ObjectType,
		ObjectID:   member.Descriptor.ObjectID,
		Metadata:   member.Metadata,
		AddedAt:    member.AddedAt,
	}
}
