package specification

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedByOrganization scopes documents to one organization
type OwnedByOrganization struct {
	OrganizationID uuid.UUID
}

func (s OwnedByOrganization) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("organization_id = ?", s.OrganizationID)
}

// ByCatalogEntry filters by the category/subtype pair of the catalog
type ByCatalogEntry struct {
	Category string
	Subtype  string
}

func (s ByCatalogEntry) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ? AND subtype = ?", s.Category, s.Subtype)
}

// ByPeriod filters by the canonical "YYYY-MM" period
type ByPeriod struct {
	Period string
}

func (s ByPeriod) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("period = ?", s.Period)
}

// ByOrganizationName matches an organization name case-insensitively
type ByOrganizationName struct {
	Name string
}

func (s ByOrganizationName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("LOWER(name) = ?", strings.ToLower(s.Name))
}

// NewestFirst orders documents by period then upload time, most recent first
type NewestFirst struct{}

func (s NewestFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("period DESC").Order("created_at DESC")
}
