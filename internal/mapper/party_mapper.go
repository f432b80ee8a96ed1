package mapper

import (
	"time"

	"docvault-be/internal/entity"
	"docvault-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartyMapper struct {
	orgMapper *OrganizationMapper
}

func NewPartyMapper(orgMapper *OrganizationMapper) *PartyMapper {
	return &PartyMapper{orgMapper: orgMapper}
}

func (m *PartyMapper) ToEntity(p *model.Party) *entity.Party {
	if p == nil {
		return nil
	}

	var deletedAt *time.Time
	if p.DeletedAt.Valid {
		t := p.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.Party{
		Id:          p.Id,
		DisplayName: p.DisplayName,
		ExternalRef: p.ExternalRef,
		Role:        p.Role,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   p.DeletedAt.Valid,
	}
}

func (m *PartyMapper) ToModel(p *entity.Party) *model.Party {
	if p == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if p.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *p.DeletedAt, Valid: true}
	} else if p.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &model.Party{
		Id:          p.Id,
		DisplayName: p.DisplayName,
		ExternalRef: p.ExternalRef,
		Role:        p.Role,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *PartyMapper) MemberToEntity(mem *model.OrganizationMember) *entity.OrganizationMember {
	if mem == nil {
		return nil
	}

	var org *entity.Organization
	if mem.Organization.Id != uuid.Nil {
		org = m.orgMapper.ToEntity(&mem.Organization)
	}

	return &entity.OrganizationMember{
		Id:             mem.Id,
		PartyId:        mem.PartyId,
		OrganizationId: mem.OrganizationId,
		Organization:   org,
		Role:           mem.Role,
		CreatedAt:      mem.CreatedAt,
	}
}

func (m *PartyMapper) MemberToModel(mem *entity.OrganizationMember) *model.OrganizationMember {
	if mem == nil {
		return nil
	}

	return &model.OrganizationMember{
		Id:             mem.Id,
		PartyId:        mem.PartyId,
		OrganizationId: mem.OrganizationId,
		Role:           mem.Role,
		CreatedAt:      mem.CreatedAt,
	}
}
