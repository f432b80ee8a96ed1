package entity

import (
	"time"

	"docvault-be/pkg/store"

	"github.com/google/uuid"
)

type DialogueSession struct {
	Id             uuid.UUID
	ConversationId string
	PartyId        uuid.UUID
	Intent         string
	State          string
	Slots          map[store.SlotName]store.SlotValue
	Data           map[string]string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	ExpiresAt      time.Time
}

// Expired reports whether the row is past its TTL at the given instant.
func (s *DialogueSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Slot returns the stored value for a slot, if any.
func (s *DialogueSession) Slot(name store.SlotName) (store.SlotValue, bool) {
	if s.Slots == nil {
		return store.SlotValue{}, false
	}
	v, ok := s.Slots[name]
	return v, ok
}

// SlotResolved reports whether the named slot is present and resolved.
func (s *DialogueSession) SlotResolved(name store.SlotName, threshold float64) bool {
	v, ok := s.Slot(name)
	return ok && v.ResolvedAt(threshold)
}

type ConversationLog struct {
	Id             uuid.UUID
	ConversationId string
	PartyId        uuid.UUID
	Intent         string
	State          string
	InputKind      string
	InputText      string
	ReplyText      string
	Slots          map[store.SlotName]store.SlotValue
	CreatedAt      time.Time
}
