package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id             uuid.UUID
	OrganizationId uuid.UUID
	Organization   *Organization
	Category       string
	Subtype        string
	Period         string
	DisplayName    string
	StorageKey     string
	Description    string
	UploadedBy     uuid.UUID
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
