package service

import (
	"context"
	"fmt"

	"docvault-be/internal/dto"
	"docvault-be/internal/repository/specification"
	"docvault-be/internal/repository/unitofwork"
	"docvault-be/pkg/dialogue/scope"
	"docvault-be/pkg/storage"

	"github.com/google/uuid"
)

type IDocumentService interface {
	GetDocumentURL(ctx context.Context, partyId, documentId uuid.UUID) (*dto.DocumentUrlResponse, error)
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	scopes     *scope.Resolver
	signer     *storage.URLSigner
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	scopes *scope.Resolver,
	signer *storage.URLSigner,
) IDocumentService {
	return &documentService{
		uowFactory: uowFactory,
		scopes:     scopes,
		signer:     signer,
	}
}

// GetDocumentURL re-issues a signed link for a document the party can see.
// Membership is checked on every call, never cached from a session.
func (ds *documentService) GetDocumentURL(ctx context.Context, partyId, documentId uuid.UUID) (*dto.DocumentUrlResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: documentId},
		specification.ActiveOnly{},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s not found", documentId)
	}

	if _, err := ds.scopes.Require(ctx, partyId, nil, doc.OrganizationId); err != nil {
		return nil, err
	}

	link, err := ds.signer.SignedURL(doc)
	if err != nil {
		return nil, err
	}

	return &dto.DocumentUrlResponse{
		Id:        doc.Id,
		Url:       link.URL,
		ExpiresAt: link.ExpiresAt,
	}, nil
}
