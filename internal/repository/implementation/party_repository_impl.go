package implementation

import (
	"context"
	"errors"

	"docvault-be/internal/entity"
	"docvault-be/internal/mapper"
	"docvault-be/internal/model"
	"docvault-be/internal/repository/contract"
	"docvault-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartyRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PartyMapper
}

func NewPartyRepository(db *gorm.DB) contract.PartyRepository {
	return &PartyRepositoryImpl{
		db:     db,
		mapper: mapper.NewPartyMapper(mapper.NewOrganizationMapper()),
	}
}

func (r *PartyRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PartyRepositoryImpl) Create(ctx context.Context, party *entity.Party) error {
	m := r.mapper.ToModel(party)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*party = *r.mapper.ToEntity(m)
	return nil
}

func (r *PartyRepositoryImpl) Update(ctx context.Context, party *entity.Party) error {
	m := r.mapper.ToModel(party)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*party = *r.mapper.ToEntity(m)
	return nil
}

func (r *PartyRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Party, error) {
	var m model.Party
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PartyRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Party, error) {
	var models []*model.Party
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Party, 0, len(models))
	for _, m := range models {
		out = append(out, r.mapper.ToEntity(m))
	}
	return out, nil
}

type MemberRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PartyMapper
}

func NewMemberRepository(db *gorm.DB) contract.MemberRepository {
	return &MemberRepositoryImpl{
		db:     db,
		mapper: mapper.NewPartyMapper(mapper.NewOrganizationMapper()),
	}
}

func (r *MemberRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MemberRepositoryImpl) Create(ctx context.Context, member *entity.OrganizationMember) error {
	m := r.mapper.MemberToModel(member)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*member = *r.mapper.MemberToEntity(m)
	return nil
}

func (r *MemberRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.OrganizationMember{}, id).Error
}

func (r *MemberRepositoryImpl) FindMemberships(ctx context.Context, partyId uuid.UUID) ([]*entity.OrganizationMember, error) {
	var models []*model.OrganizationMember
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Joins("JOIN organizations ON organizations.id = organization_members.organization_id").
		Where("organization_members.party_id = ?", partyId).
		Where("organizations.active = ?", true).
		Where("organizations.deleted_at IS NULL").
		Order("organizations.name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*entity.OrganizationMember, 0, len(models))
	for _, m := range models {
		out = append(out, r.mapper.MemberToEntity(m))
	}
	return out, nil
}

func (r *MemberRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.OrganizationMember, error) {
	var m model.OrganizationMember
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MemberToEntity(&m), nil
}
