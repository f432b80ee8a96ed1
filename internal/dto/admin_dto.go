package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateOrganizationRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	TaxId string `json:"tax_id" validate:"max=20"`
}

type OrganizationResponse struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	TaxId     string    `json:"tax_id,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type CreatePartyRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=200"`
	ExternalRef string `json:"external_ref" validate:"required,max=100"`
	Role        string `json:"role" validate:"omitempty,oneof=user admin"`
}

type PartyResponse struct {
	Id          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	ExternalRef string    `json:"external_ref"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type AddMemberRequest struct {
	PartyId        uuid.UUID `json:"party_id" validate:"required"`
	OrganizationId uuid.UUID `json:"organization_id" validate:"required"`
	Role           string    `json:"role" validate:"omitempty,oneof=member admin"`
}

type MemberResponse struct {
	Id             uuid.UUID `json:"id"`
	PartyId        uuid.UUID `json:"party_id"`
	OrganizationId uuid.UUID `json:"organization_id"`
	Role           string    `json:"role"`
}

type RegisterDocumentRequest struct {
	OrganizationId uuid.UUID `json:"organization_id" validate:"required"`
	Category       string    `json:"category" validate:"required"`
	Subtype        string    `json:"subtype" validate:"required"`
	Period         string    `json:"period" validate:"required,len=7"`
	DisplayName    string    `json:"display_name" validate:"required,max=255"`
	StorageKey     string    `json:"storage_key" validate:"required,max=500"`
	Description    string    `json:"description" validate:"max=2000"`
}

type DocumentResponse struct {
	Id             uuid.UUID `json:"id"`
	OrganizationId uuid.UUID `json:"organization_id"`
	Category       string    `json:"category"`
	Subtype        string    `json:"subtype"`
	Period         string    `json:"period"`
	DisplayName    string    `json:"display_name"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
