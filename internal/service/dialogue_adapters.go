package service

import (
	"context"

	"docvault-be/internal/entity"
	"docvault-be/internal/repository/specification"
	"docvault-be/internal/repository/unitofwork"
	"docvault-be/pkg/dialogue/engine"
	"docvault-be/pkg/dialogue/scope"

	"github.com/google/uuid"
)

// documentStore adapts the document repository to the narrow surface the
// dialogue engine works against.
type documentStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewDocumentStore(uowFactory unitofwork.RepositoryFactory) engine.DocumentStore {
	return &documentStore{uowFactory: uowFactory}
}

func (ds *documentStore) Search(ctx context.Context, orgID uuid.UUID, category, subtype, periodKey string) ([]*entity.Document, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().FindAll(ctx,
		specification.OwnedByOrganization{OrganizationID: orgID},
		specification.ByCatalogEntry{Category: category, Subtype: subtype},
		specification.ByPeriod{Period: periodKey},
		specification.ActiveOnly{},
		specification.NewestFirst{},
	)
}

func (ds *documentStore) Get(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
}

func (ds *documentStore) Register(ctx context.Context, doc *entity.Document) error {
	uow := ds.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().Create(ctx, doc)
}

// accessChecker answers the scope resolver's membership questions from the
// member table.
type accessChecker struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewAccessChecker(uowFactory unitofwork.RepositoryFactory) scope.AccessChecker {
	return &accessChecker{uowFactory: uowFactory}
}

func (ac *accessChecker) AuthorizedOrganizations(ctx context.Context, partyID uuid.UUID) ([]*entity.Organization, error) {
	uow := ac.uowFactory.NewUnitOfWork(ctx)
	members, err := uow.MemberRepository().FindMemberships(ctx, partyID)
	if err != nil {
		return nil, err
	}

	orgs := make([]*entity.Organization, 0, len(members))
	for _, m := range members {
		if m.Organization != nil {
			orgs = append(orgs, m.Organization)
		}
	}
	return orgs, nil
}

func (ac *accessChecker) HasAccess(ctx context.Context, partyID, orgID uuid.UUID) (bool, error) {
	uow := ac.uowFactory.NewUnitOfWork(ctx)
	member, err := uow.MemberRepository().FindOne(ctx,
		specification.Filter("party_id", partyID),
		specification.Filter("organization_id", orgID),
	)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}
