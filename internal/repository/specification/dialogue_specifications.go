package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByConversationID selects the single session row of a conversation
type ByConversationID struct {
	ConversationID string
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

// ByParty scopes rows to one party
type ByParty struct {
	PartyID uuid.UUID
}

func (s ByParty) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("party_id = ?", s.PartyID)
}

// NotExpired keeps session rows still inside their TTL
type NotExpired struct {
	Now time.Time
}

func (s NotExpired) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("expires_at > ?", s.Now)
}

// ExpiredBefore selects session rows whose TTL elapsed before the instant
type ExpiredBefore struct {
	Now time.Time
}

func (s ExpiredBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("expires_at <= ?", s.Now)
}

// ByExternalRef matches a party by its transport identity
type ByExternalRef struct {
	ExternalRef string
}

func (s ByExternalRef) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("external_ref = ?", s.ExternalRef)
}
