package contract

import (
	"context"

	"docvault-be/internal/entity"
	"docvault-be/internal/repository/specification"

	"github.com/google/uuid"
)

type PartyRepository interface {
	Create(ctx context.Context, party *entity.Party) error
	Update(ctx context.Context, party *entity.Party) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Party, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Party, error)
}

type MemberRepository interface {
	Create(ctx context.Context, member *entity.OrganizationMember) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindMemberships returns the member rows of a party with the
	// organization preloaded.
	FindMemberships(ctx context.Context, partyId uuid.UUID) ([]*entity.OrganizationMember, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.OrganizationMember, error)
}
