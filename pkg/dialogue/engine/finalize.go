package engine

import (
	"context"
	"errors"
	"strings"

	"docvault-be/internal/entity"
	"docvault-be/pkg/dialogue/catalog"
	"docvault-be/pkg/dialogue/response"
	"docvault-be/pkg/dialogue/scope"
	"docvault-be/pkg/dialogue/session"
	"docvault-be/pkg/store"

	"github.com/google/uuid"
)

// finalize executes a fully-slotted request. The scope check runs here, at
// the moment of truth, regardless of how the organization slot was filled.
func (e *Engine) finalize(ctx context.Context, s *entity.DialogueSession) (*Reply, error) {
	orgSlot, _ := s.Slot(store.SlotOrganization)
	orgID, err := uuid.Parse(orgSlot.Value)
	if err != nil {
		// Slot corrupted somehow; drop it and re-resolve.
		s2, merr := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
			DropSlots: []store.SlotName{store.SlotOrganization},
		})
		if merr != nil {
			return nil, merr
		}
		if s2 == nil {
			return e.sessionGone()
		}
		return e.advance(ctx, s2)
	}

	org, err := e.scopes.Require(ctx, s.PartyId, s.Slots, orgID)
	if errors.Is(err, scope.ErrDenied) {
		e.sink.AccessDenied(ctx, s.ConversationId, s.PartyId, orgSlot.Value)
		e.logger.Printf("[ERROR] scope denial: party %s requested org %s in conversation %s",
			s.PartyId, orgSlot.Value, s.ConversationId)
		if cerr := e.sessions.Clear(ctx, s.ConversationId); cerr != nil {
			e.logger.Printf("[WARN] failed to clear session %s: %v", s.ConversationId, cerr)
		}
		return &Reply{Text: response.AccessDenied(), State: store.StateDone, Intent: s.Intent, Done: true}, nil
	}
	if err != nil {
		return nil, err
	}

	if s.Intent == store.IntentUpload {
		return e.finalizeUpload(ctx, s, org)
	}
	return e.finalizeDownload(ctx, s, org)
}

func (e *Engine) finalizeDownload(ctx context.Context, s *entity.DialogueSession, org *entity.Organization) (*Reply, error) {
	cat, _ := s.Slot(store.SlotCategory)
	sub, _ := s.Slot(store.SlotSubtype)
	per, _ := s.Slot(store.SlotPeriod)

	docs, err := e.docs.Search(ctx, org.Id, cat.Value, sub.Value, per.Value)
	if err != nil {
		e.logger.Printf("[ERROR] document search failed for conversation %s: %v", s.ConversationId, err)
		// Keep the session; the user can simply try again.
		return &Reply{Text: response.TransientFailure(), State: s.State, Intent: s.Intent}, nil
	}

	switch {
	case len(docs) == 0:
		s2, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{State: store.StateNoResults})
		if err != nil {
			return nil, err
		}
		if s2 == nil {
			return e.sessionGone()
		}
		return &Reply{
			Text:    response.NoResults(per.Value),
			Buttons: response.RetryPeriodMenu(),
			State:   s2.State,
			Intent:  s2.Intent,
		}, nil

	case len(docs) == 1:
		return e.deliver(ctx, s, docs[0])

	default:
		shown := docs
		more := false
		if len(docs) > e.cfg.MaxResults {
			shown = docs[:e.cfg.MaxResults]
			more = true
		}
		s2, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{State: store.StateSelecting})
		if err != nil {
			return nil, err
		}
		if s2 == nil {
			return e.sessionGone()
		}
		return &Reply{
			Text:        response.SelectOne(len(docs), len(shown)),
			Buttons:     response.SelectionMenu(shown),
			State:       s2.State,
			Intent:      s2.Intent,
			MoreResults: more,
		}, nil
	}
}

// handleSelection resolves a document pick from the selecting state. The
// picked id is re-checked against the session's bound scope; a forged or
// stale button cannot cross organizations.
func (e *Engine) handleSelection(ctx context.Context, s *entity.DialogueSession, input store.DialogueInput) (*Reply, error) {
	if input.Kind != store.InputButtonSelection || !strings.HasPrefix(input.Button, response.PrefixDocument) {
		return e.reofferSelection(ctx, s)
	}

	docID, err := uuid.Parse(strings.TrimPrefix(input.Button, response.PrefixDocument))
	if err != nil {
		return e.reofferSelection(ctx, s)
	}

	doc, err := e.docs.Get(ctx, docID)
	if err != nil {
		e.logger.Printf("[ERROR] document lookup failed for conversation %s: %v", s.ConversationId, err)
		return &Reply{Text: response.TransientFailure(), State: s.State, Intent: s.Intent}, nil
	}
	if doc == nil || !matchesSlots(doc, s) {
		return e.reofferSelection(ctx, s)
	}

	if _, err := e.scopes.Require(ctx, s.PartyId, s.Slots, doc.OrganizationId); err != nil {
		if errors.Is(err, scope.ErrDenied) {
			e.sink.AccessDenied(ctx, s.ConversationId, s.PartyId, doc.OrganizationId.String())
			return &Reply{Text: response.AccessDenied(), State: s.State, Intent: s.Intent}, nil
		}
		return nil, err
	}

	return e.deliver(ctx, s, doc)
}

func (e *Engine) reofferSelection(ctx context.Context, s *entity.DialogueSession) (*Reply, error) {
	orgSlot, _ := s.Slot(store.SlotOrganization)
	orgID, err := uuid.Parse(orgSlot.Value)
	if err != nil {
		return e.advance(ctx, s)
	}
	cat, _ := s.Slot(store.SlotCategory)
	sub, _ := s.Slot(store.SlotSubtype)
	per, _ := s.Slot(store.SlotPeriod)

	docs, err := e.docs.Search(ctx, orgID, cat.Value, sub.Value, per.Value)
	if err != nil || len(docs) == 0 {
		return e.advance(ctx, s)
	}
	shown := docs
	more := false
	if len(docs) > e.cfg.MaxResults {
		shown = docs[:e.cfg.MaxResults]
		more = true
	}
	return &Reply{
		Text:        response.SelectOne(len(docs), len(shown)),
		Buttons:     response.SelectionMenu(shown),
		State:       store.StateSelecting,
		Intent:      s.Intent,
		MoreResults: more,
	}, nil
}

// deliver issues the signed URL and closes the conversation.
func (e *Engine) deliver(ctx context.Context, s *entity.DialogueSession, doc *entity.Document) (*Reply, error) {
	link, err := e.links.SignedURL(doc)
	if err != nil {
		e.logger.Printf("[ERROR] failed to sign URL for document %s: %v", doc.Id, err)
		return &Reply{Text: response.TransientFailure(), State: s.State, Intent: s.Intent}, nil
	}

	e.sink.DocumentDelivered(ctx, s.ConversationId, s.PartyId, doc)

	if err := e.sessions.Clear(ctx, s.ConversationId); err != nil {
		e.logger.Printf("[WARN] failed to clear session %s after delivery: %v", s.ConversationId, err)
	}

	return &Reply{
		Text:      response.Delivered(doc, link.URL),
		State:     store.StateDone,
		Intent:    s.Intent,
		Documents: []*DocumentResult{{Document: doc, URL: link.URL}},
		Done:      true,
	}, nil
}

func (e *Engine) finalizeUpload(ctx context.Context, s *entity.DialogueSession, org *entity.Organization) (*Reply, error) {
	cat, _ := s.Slot(store.SlotCategory)
	sub, _ := s.Slot(store.SlotSubtype)
	per, _ := s.Slot(store.SlotPeriod)

	if catalog.RequiresDescription(cat.Value, sub.Value) && s.Data[dataDescription] == "" {
		return e.ask(ctx, s, store.StateAwaitingDescription, response.AskDescription(), nil)
	}

	doc := &entity.Document{
		OrganizationId: org.Id,
		Category:       cat.Value,
		Subtype:        sub.Value,
		Period:         per.Value,
		DisplayName:    s.Data[dataAttachmentName],
		StorageKey:     s.Data[dataAttachmentKey],
		Description:    s.Data[dataDescription],
		UploadedBy:     s.PartyId,
		Active:         true,
	}
	if err := e.docs.Register(ctx, doc); err != nil {
		e.logger.Printf("[ERROR] failed to register document for conversation %s: %v", s.ConversationId, err)
		return &Reply{Text: response.TransientFailure(), State: s.State, Intent: s.Intent}, nil
	}

	e.sink.DocumentStored(ctx, s.ConversationId, s.PartyId, doc)

	if err := e.sessions.Clear(ctx, s.ConversationId); err != nil {
		e.logger.Printf("[WARN] failed to clear session %s after upload: %v", s.ConversationId, err)
	}

	return &Reply{
		Text:   response.UploadStored(doc),
		State:  store.StateDone,
		Intent: s.Intent,
		Done:   true,
	}, nil
}

func matchesSlots(doc *entity.Document, s *entity.DialogueSession) bool {
	cat, _ := s.Slot(store.SlotCategory)
	sub, _ := s.Slot(store.SlotSubtype)
	per, _ := s.Slot(store.SlotPeriod)
	org, _ := s.Slot(store.SlotOrganization)
	return doc.Category == cat.Value &&
		doc.Subtype == sub.Value &&
		doc.Period == per.Value &&
		doc.OrganizationId.String() == org.Value
}
