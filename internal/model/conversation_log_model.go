package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ConversationLog is an append-only record of completed dialogue turns,
// written asynchronously off the event bus.
type ConversationLog struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId string         `gorm:"type:varchar(100);not null;index"`
	PartyId        uuid.UUID      `gorm:"type:uuid;index"`
	Intent         string         `gorm:"type:varchar(30)"`
	State          string         `gorm:"type:varchar(40)"`
	InputKind      string         `gorm:"type:varchar(20)"`
	InputText      string         `gorm:"type:text"`
	ReplyText      string         `gorm:"type:text"`
	Slots          datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index"`
}

func (ConversationLog) TableName() string {
	return "conversation_logs"
}
