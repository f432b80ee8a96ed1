package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DialogueSession keeps one row per live conversation. Slots and Data carry
// the in-flight state machine payload as jsonb so partial progress survives
// restarts. Rows past ExpiresAt are treated as absent and swept lazily.
type DialogueSession struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId string         `gorm:"type:varchar(100);not null;uniqueIndex"`
	PartyId        uuid.UUID      `gorm:"type:uuid;not null;index"`
	Intent         string         `gorm:"type:varchar(30);not null"`
	State          string         `gorm:"type:varchar(40);not null"`
	Slots          datatypes.JSON `gorm:"type:jsonb"`
	Data           datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	ExpiresAt      time.Time      `gorm:"not null;index"`
}

func (DialogueSession) TableName() string {
	return "dialogue_sessions"
}
