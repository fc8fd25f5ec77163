// Package events defines the domain event messages published after commit.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topic names, one per event family.
const (
	TopicOrders     = "commerce.orders"
	TopicChangeSets = "commerce.changesets"
	TopicCustomers  = "commerce.customers"
)

// Event message types.
const (
	TypeOrderCreated      = "order.created"
	TypeOrderFailed       = "order.failed"
	TypeOrderCancelled    = "order.cancelled"
	TypeOrderHeld         = "order.held"
	TypeOrderHoldReleased = "order.hold_released"
	TypeOrderCompleted    = "order.completed"

	TypeShipmentReleased  = "shipment.released"
	TypeShipmentShipped   = "shipment.shipped"
	TypeShipmentCancelled = "shipment.cancelled"

	TypePaymentApproved = "payment.approved"
	TypePaymentDeclined = "payment.declined"
	TypePaymentCredited = "payment.credited"

	TypeChangeSetCreated   = "changeset.created"
	TypeChangeSetLocked    = "changeset.locked"
	TypeChangeSetReady     = "changeset.ready_to_publish"
	TypeChangeSetFinalized = "changeset.finalized"
	TypeObjectAdded        = "changeset.object_added"
	TypeObjectRemoved      = "changeset.object_removed"
	TypeObjectsMoved       = "changeset.objects_moved"

	TypeCustomerRegistered = "customer.registered"
)

// Event is the wire message carried over the outbox: a message type, the GUID
// of the subject aggregate, and an optional key-value payload.
type Event struct {
	EventID     string            `json:"event_id"`
	Type        string            `json:"type"`
	SubjectGUID string            `json:"subject_guid"`
	Payload     map[string]string `json:"payload,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// New builds an event with a fresh event id and UTC timestamp.
func New(eventType, subjectGUID string, payload map[string]string) Event {
	return Event{
		EventID:     uuid.NewString(),
		Type:        eventType,
		SubjectGUID: subjectGUID,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	}
}

// TopicFor maps an event type to the topic its family is published on.
func TopicFor(eventType string) string {
	switch {
	case len(eventType) >= 9 && eventType[:9] == "changeset":
		return TopicChangeSets
	case len(eventType) >= 8 && eventType[:8] == "customer":
		return TopicCustomers
	default:
		return TopicOrders
	}
}
