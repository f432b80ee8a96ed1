package unitofwork

import (
	"context"

	"docvault-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	OrganizationRepository() contract.OrganizationRepository
	PartyRepository() contract.PartyRepository
	MemberRepository() contract.MemberRepository
	DocumentRepository() contract.DocumentRepository
	DialogueSessionRepository() contract.DialogueSessionRepository
	ConversationLogRepository() contract.ConversationLogRepository
}
