package mapper

import (
	"time"

	"docvault-be/internal/entity"
	"docvault-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentMapper struct {
	orgMapper *OrganizationMapper
}

func NewDocumentMapper(orgMapper *OrganizationMapper) *DocumentMapper {
	return &DocumentMapper{orgMapper: orgMapper}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	var org *entity.Organization
	if d.Organization.Id != uuid.Nil {
		org = m.orgMapper.ToEntity(&d.Organization)
	}

	return &entity.Document{
		Id:             d.Id,
		OrganizationId: d.OrganizationId,
		Organization:   org,
		Category:       d.Category,
		Subtype:        d.Subtype,
		Period:         d.Period,
		DisplayName:    d.DisplayName,
		StorageKey:     d.StorageKey,
		Description:    d.Description,
		UploadedBy:     d.UploadedBy,
		Active:         d.Active,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Document{
		Id:             d.Id,
		OrganizationId: d.OrganizationId,
		Category:       d.Category,
		Subtype:        d.Subtype,
		Period:         d.Period,
		DisplayName:    d.DisplayName,
		StorageKey:     d.StorageKey,
		Description:    d.Description,
		UploadedBy:     d.UploadedBy,
		Active:         d.Active,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}
