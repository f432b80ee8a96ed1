package entity

import (
	"time"

	"github.com/google/uuid"
)

type Party struct {
	Id          uuid.UUID
	DisplayName string
	ExternalRef string
	Role        string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}

type OrganizationMember struct {
	Id             uuid.UUID
	PartyId        uuid.UUID
	OrganizationId uuid.UUID
	Organization   *Organization
	Role           string
	CreatedAt      time.Time
}
