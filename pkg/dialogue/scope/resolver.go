// Package scope decides which organization a conversation acts on. Binding
// follows the membership table, never the user's words alone: a mention is
// only honored when the party actually has access.
package scope

import (
	"context"
	"errors"
	"log"

	"docvault-be/internal/entity"
	"docvault-be/pkg/store"

	"github.com/google/uuid"
)

// Action tells the orchestrator how organization binding went.
const (
	ActionReady        = "ready"         // session already bound, access still valid
	ActionAutoSelected = "auto_selected" // exactly one organization, bound silently
	ActionAskSelection = "ask_selection" // several organizations, user must pick
	ActionNoAccess     = "no_access"     // no memberships at all
)

// ErrDenied is returned by Require when the requested organization is not
// usable by the party in this conversation.
var ErrDenied = errors.New("organization access denied")

// AccessChecker answers membership questions. Implemented over the member
// repository; faked in tests.
type AccessChecker interface {
	AuthorizedOrganizations(ctx context.Context, partyID uuid.UUID) ([]*entity.Organization, error)
	HasAccess(ctx context.Context, partyID, orgID uuid.UUID) (bool, error)
}

type Resolution struct {
	Action       string
	Organization *entity.Organization // set for ready and auto_selected
	Candidates   []*entity.Organization
}

type Resolver struct {
	checker AccessChecker
	logger  *log.Logger
}

func NewResolver(checker AccessChecker, logger *log.Logger) *Resolver {
	return &Resolver{
		checker: checker,
		logger:  logger,
	}
}

// Resolve binds an organization for the turn. A bound slot is re-validated
// on every call: revoked access falls through to fresh resolution instead
// of trusting the session.
func (r *Resolver) Resolve(ctx context.Context, partyID uuid.UUID, slots map[store.SlotName]store.SlotValue) (*Resolution, error) {
	orgs, err := r.checker.AuthorizedOrganizations(ctx, partyID)
	if err != nil {
		return nil, err
	}

	if bound, ok := slots[store.SlotOrganization]; ok {
		if orgID, err := uuid.Parse(bound.Value); err == nil {
			if org := findByID(orgs, orgID); org != nil {
				return &Resolution{Action: ActionReady, Organization: org}, nil
			}
			r.logger.Printf("[WARN] session-bound organization %s no longer accessible to party %s", orgID, partyID)
		}
	}

	switch len(orgs) {
	case 0:
		return &Resolution{Action: ActionNoAccess}, nil
	case 1:
		return &Resolution{Action: ActionAutoSelected, Organization: orgs[0]}, nil
	default:
		return &Resolution{Action: ActionAskSelection, Candidates: orgs}, nil
	}
}

// Require enforces a hard scope check before a document is touched. The
// requested organization must be authorized, and when the session already
// bound one, it must be the same one. A mismatch is a denial even if the
// party could access the requested organization in a fresh conversation.
func (r *Resolver) Require(ctx context.Context, partyID uuid.UUID, slots map[store.SlotName]store.SlotValue, requestedOrgID uuid.UUID) (*entity.Organization, error) {
	if bound, ok := slots[store.SlotOrganization]; ok {
		boundID, err := uuid.Parse(bound.Value)
		if err == nil && boundID != requestedOrgID {
			return nil, ErrDenied
		}
	}

	ok, err := r.checker.HasAccess(ctx, partyID, requestedOrgID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDenied
	}

	orgs, err := r.checker.AuthorizedOrganizations(ctx, partyID)
	if err != nil {
		return nil, err
	}
	org := findByID(orgs, requestedOrgID)
	if org == nil {
		return nil, ErrDenied
	}
	return org, nil
}

func findByID(orgs []*entity.Organization, id uuid.UUID) *entity.Organization {
	for _, o := range orgs {
		if o.Id == id {
			return o
		}
	}
	return nil
}
