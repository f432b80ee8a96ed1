package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ACCESS_DENIED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the standard implementation used by the constructors below.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes.
const (
	TypeTurnCompleted     = "TURN_COMPLETED"
	TypeAccessDenied      = "ACCESS_DENIED"
	TypeDocumentDelivered = "DOCUMENT_DELIVERED"
	TypeDocumentStored    = "DOCUMENT_STORED"
)

// NewAccessDenied records a scope check failure for the audit trail.
func NewAccessDenied(conversationID, partyID, organization string) Event {
	return BaseEvent{
		Type: TypeAccessDenied,
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"party_id":        partyID,
			"organization":    organization,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentDelivered records a successful retrieval.
func NewDocumentDelivered(conversationID, partyID, documentID, organizationID string) Event {
	return BaseEvent{
		Type: TypeDocumentDelivered,
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"party_id":        partyID,
			"document_id":     documentID,
			"organization_id": organizationID,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentStored records a completed upload.
func NewDocumentStored(conversationID, partyID, documentID, organizationID string) Event {
	return BaseEvent{
		Type: TypeDocumentStored,
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"party_id":        partyID,
			"document_id":     documentID,
			"organization_id": organizationID,
		},
		OccurredAt: time.Now(),
	}
}
