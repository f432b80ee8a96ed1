package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is one stored file, categorized by the two-level catalog and
// anchored to a billing period. Period is stored canonically as "YYYY-MM".
type Document struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationId uuid.UUID      `gorm:"type:uuid;not null;index:idx_doc_scope,priority:1"`
	Organization   Organization   `gorm:"foreignKey:OrganizationId"`
	Category       string         `gorm:"type:varchar(50);not null;index:idx_doc_scope,priority:2"`
	Subtype        string         `gorm:"type:varchar(50);not null;index:idx_doc_scope,priority:3"`
	Period         string         `gorm:"type:varchar(7);not null;index:idx_doc_scope,priority:4"`
	DisplayName    string         `gorm:"type:varchar(255);not null"`
	StorageKey     string         `gorm:"type:varchar(500);not null"`
	Description    string         `gorm:"type:text"`
	UploadedBy     uuid.UUID      `gorm:"type:uuid"`
	Active         bool           `gorm:"default:true;index"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
