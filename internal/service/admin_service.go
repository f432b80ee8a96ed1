package service

import (
	"context"
	"fmt"
	"strings"

	"docvault-be/internal/dto"
	"docvault-be/internal/entity"
	"docvault-be/internal/repository/specification"
	"docvault-be/internal/repository/unitofwork"
	"docvault-be/pkg/dialogue/catalog"

	"github.com/google/uuid"
)

type IAdminService interface {
	CreateOrganization(ctx context.Context, req *dto.CreateOrganizationRequest) (*dto.OrganizationResponse, error)
	ListOrganizations(ctx context.Context) ([]*dto.OrganizationResponse, error)
	CreateParty(ctx context.Context, req *dto.CreatePartyRequest) (*dto.PartyResponse, error)
	AddMember(ctx context.Context, req *dto.AddMemberRequest) (*dto.MemberResponse, error)
	RegisterDocument(ctx context.Context, uploadedBy uuid.UUID, req *dto.RegisterDocumentRequest) (*dto.DocumentResponse, error)
}

type adminService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewAdminService(uowFactory unitofwork.RepositoryFactory) IAdminService {
	return &adminService{uowFactory: uowFactory}
}

func (as *adminService) CreateOrganization(ctx context.Context, req *dto.CreateOrganizationRequest) (*dto.OrganizationResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.OrganizationRepository().FindOne(ctx,
		specification.ByOrganizationName{Name: req.Name},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("organization %q already exists", req.Name)
	}

	org := &entity.Organization{
		Name:   strings.TrimSpace(req.Name),
		TaxId:  req.TaxId,
		Active: true,
	}
	if err := uow.OrganizationRepository().Create(ctx, org); err != nil {
		return nil, err
	}

	return toOrganizationResponse(org), nil
}

func (as *adminService) ListOrganizations(ctx context.Context) ([]*dto.OrganizationResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	orgs, err := uow.OrganizationRepository().FindAll(ctx,
		specification.ActiveOnly{},
		specification.OrderBy{Field: "name"},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.OrganizationResponse, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, toOrganizationResponse(org))
	}
	return out, nil
}

func (as *adminService) CreateParty(ctx context.Context, req *dto.CreatePartyRequest) (*dto.PartyResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.PartyRepository().FindOne(ctx,
		specification.ByExternalRef{ExternalRef: req.ExternalRef},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("party with external ref %q already exists", req.ExternalRef)
	}

	role := req.Role
	if role == "" {
		role = "user"
	}
	party := &entity.Party{
		DisplayName: strings.TrimSpace(req.DisplayName),
		ExternalRef: req.ExternalRef,
		Role:        role,
		Active:      true,
	}
	if err := uow.PartyRepository().Create(ctx, party); err != nil {
		return nil, err
	}

	return &dto.PartyResponse{
		Id:          party.Id,
		DisplayName: party.DisplayName,
		ExternalRef: party.ExternalRef,
		Role:        party.Role,
		Active:      party.Active,
		CreatedAt:   party.CreatedAt,
	}, nil
}

func (as *adminService) AddMember(ctx context.Context, req *dto.AddMemberRequest) (*dto.MemberResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	party, err := uow.PartyRepository().FindOne(ctx, specification.ByID{ID: req.PartyId})
	if err != nil {
		return nil, err
	}
	if party == nil {
		return nil, fmt.Errorf("party %s not found", req.PartyId)
	}

	org, err := uow.OrganizationRepository().FindOne(ctx, specification.ByID{ID: req.OrganizationId})
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("organization %s not found", req.OrganizationId)
	}

	existing, err := uow.MemberRepository().FindOne(ctx,
		specification.Filter("party_id", req.PartyId),
		specification.Filter("organization_id", req.OrganizationId),
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("party %s is already a member of organization %s", req.PartyId, req.OrganizationId)
	}

	role := req.Role
	if role == "" {
		role = "member"
	}
	member := &entity.OrganizationMember{
		PartyId:        req.PartyId,
		OrganizationId: req.OrganizationId,
		Role:           role,
	}
	if err := uow.MemberRepository().Create(ctx, member); err != nil {
		return nil, err
	}

	return &dto.MemberResponse{
		Id:             member.Id,
		PartyId:        member.PartyId,
		OrganizationId: member.OrganizationId,
		Role:           member.Role,
	}, nil
}

func (as *adminService) RegisterDocument(ctx context.Context, uploadedBy uuid.UUID, req *dto.RegisterDocumentRequest) (*dto.DocumentResponse, error) {
	category, ok := catalog.NormalizeCategory(req.Category)
	if !ok {
		return nil, fmt.Errorf("unknown category: %s", req.Category)
	}
	subtype, ok := catalog.NormalizeSubtype(category, req.Subtype)
	if !ok {
		return nil, fmt.Errorf("unknown subtype %q for category %s", req.Subtype, category)
	}
	if catalog.RequiresDescription(category, subtype) && strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("subtype %s requires a description", subtype)
	}

	uow := as.uowFactory.NewUnitOfWork(ctx)

	org, err := uow.OrganizationRepository().FindOne(ctx,
		specification.ByID{ID: req.OrganizationId},
		specification.ActiveOnly{},
	)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("organization %s not found", req.OrganizationId)
	}

	doc := &entity.Document{
		OrganizationId: req.OrganizationId,
		Category:       category,
		Subtype:        subtype,
		Period:         req.Period,
		DisplayName:    req.DisplayName,
		StorageKey:     req.StorageKey,
		Description:    req.Description,
		UploadedBy:     uploadedBy,
		Active:         true,
	}
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}

	return &dto.DocumentResponse{
		Id:             doc.Id,
		OrganizationId: doc.OrganizationId,
		Category:       doc.Category,
		Subtype:        doc.Subtype,
		Period:         doc.Period,
		DisplayName:    doc.DisplayName,
		Description:    doc.Description,
		CreatedAt:      doc.CreatedAt,
	}, nil
}

func toOrganizationResponse(org *entity.Organization) *dto.OrganizationResponse {
	return &dto.OrganizationResponse{
		Id:        org.Id,
		Name:      org.Name,
		TaxId:     org.TaxId,
		Active:    org.Active,
		CreatedAt: org.CreatedAt,
	}
}
