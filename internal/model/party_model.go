package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Party is an authenticated principal of the document desk (a person behind a
// chat conversation, identified out-of-band by the transport).
type Party struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DisplayName string         `gorm:"type:varchar(200);not null"`
	ExternalRef string         `gorm:"type:varchar(100);uniqueIndex"` // transport identity, e.g. chat id
	Role        string         `gorm:"type:varchar(30);not null;default:'user'"`
	Active      bool           `gorm:"default:true;index"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Party) TableName() string {
	return "parties"
}

// OrganizationMember binds a party to an organization it may act on.
// Many-to-many: a party can belong to several organizations and vice versa.
type OrganizationMember struct {
	Id             uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PartyId        uuid.UUID    `gorm:"type:uuid;not null;index:idx_member_party_org,priority:1;uniqueIndex:uq_member_party_org"`
	OrganizationId uuid.UUID    `gorm:"type:uuid;not null;index:idx_member_party_org,priority:2;uniqueIndex:uq_member_party_org"`
	Organization   Organization `gorm:"foreignKey:OrganizationId"`
	Role           string       `gorm:"type:varchar(30);not null;default:'member'"`
	CreatedAt      time.Time    `gorm:"autoCreateTime"`
}

func (OrganizationMember) TableName() string {
	return "organization_members"
}
