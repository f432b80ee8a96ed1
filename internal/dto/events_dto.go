package dto

import (
	"time"

	"docvault-be/pkg/store"

	"github.com/google/uuid"
)

// TurnCompletedMessage is the event-bus payload behind the conversation
// log pipeline.
type TurnCompletedMessage struct {
	ConversationId string                             `json:"conversation_id"`
	PartyId        uuid.UUID                          `json:"party_id"`
	Intent         string                             `json:"intent"`
	State          string                             `json:"state"`
	InputKind      string                             `json:"input_kind"`
	InputText      string                             `json:"input_text"`
	ReplyText      string                             `json:"reply_text"`
	Slots          map[store.SlotName]store.SlotValue `json:"slots,omitempty"`
	OccurredAt     time.Time                          `json:"occurred_at"`
}
