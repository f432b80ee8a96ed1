package engine

import (
	"context"
	"strings"

	"docvault-be/internal/entity"
	"docvault-be/pkg/dialogue/catalog"
	"docvault-be/pkg/dialogue/response"
	"docvault-be/pkg/dialogue/scope"
	"docvault-be/pkg/dialogue/session"
	"docvault-be/pkg/store"

	"github.com/google/uuid"
)

// Session data keys carried between turns.
const (
	dataAttachmentName = "attachment_name"
	dataAttachmentKey  = "attachment_key"
	dataDescription    = "description"
	dataProposedPeriod = "proposed_period"
	dataProposedLabel  = "proposed_interpretation"
	dataHistory        = "history"
)

// HandleTurn processes one conversational step and returns what to say.
func (e *Engine) HandleTurn(ctx context.Context, input store.DialogueInput) (*Reply, error) {
	partyID, err := uuid.Parse(input.PartyID)
	if err != nil {
		return nil, err
	}

	reply, err := e.dispatch(ctx, partyID, input)
	if err != nil {
		return nil, err
	}

	rec := &TurnRecord{
		ConversationID: input.ConversationID,
		PartyID:        partyID,
		Intent:         reply.Intent,
		State:          reply.State,
		InputKind:      string(input.Kind),
		InputText:      inputText(input),
		ReplyText:      reply.Text,
	}
	if s, err := e.sessions.Get(ctx, input.ConversationID); err == nil && s != nil {
		rec.Slots = s.Slots
	}
	e.sink.TurnCompleted(ctx, rec)

	return reply, nil
}

func (e *Engine) dispatch(ctx context.Context, partyID uuid.UUID, input store.DialogueInput) (*Reply, error) {
	if isCancel(input) {
		if err := e.sessions.Clear(ctx, input.ConversationID); err != nil {
			return nil, err
		}
		return &Reply{Text: response.Cancelled(), State: store.StateCancelled, Done: true}, nil
	}

	if input.Kind == store.InputAttachment {
		return e.startUpload(ctx, partyID, input)
	}

	s, err := e.sessions.Get(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return e.firstTurn(ctx, partyID, input)
	}
	return e.continueTurn(ctx, s, input)
}

// firstTurn opens a download conversation. A free-text opener gets one full
// extraction pass; a stray button press (stale menu) just restarts guided.
func (e *Engine) firstTurn(ctx context.Context, partyID uuid.UUID, input store.DialogueInput) (*Reply, error) {
	s, err := e.sessions.Create(ctx, input.ConversationID, partyID, store.IntentDownload)
	if err != nil {
		return nil, err
	}

	if input.Kind == store.InputFreeText && strings.TrimSpace(input.Text) != "" {
		return e.extractAndAdvance(ctx, s, input.Text)
	}
	return e.advance(ctx, s)
}

// startUpload begins (or restarts) an upload conversation around the
// attached file. Slots collected so far in a download conversation do not
// carry over; the attachment defines a new request.
func (e *Engine) startUpload(ctx context.Context, partyID uuid.UUID, input store.DialogueInput) (*Reply, error) {
	if err := e.sessions.Clear(ctx, input.ConversationID); err != nil {
		return nil, err
	}
	s, err := e.sessions.Create(ctx, input.ConversationID, partyID, store.IntentUpload)
	if err != nil {
		return nil, err
	}
	s, err = e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
		Data: map[string]string{
			dataAttachmentName: input.AttachmentName,
			dataAttachmentKey:  input.AttachmentKey,
		},
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return e.sessionGone()
	}
	return e.advance(ctx, s)
}

func (e *Engine) continueTurn(ctx context.Context, s *entity.DialogueSession, input store.DialogueInput) (*Reply, error) {
	switch s.State {
	case store.StateAskingCategory:
		return e.handleCategory(ctx, s, input)
	case store.StateAskingSubtype:
		return e.handleSubtype(ctx, s, input)
	case store.StateAskingPeriod:
		return e.handlePeriodMenu(ctx, s, input)
	case store.StateAskingPeriodText:
		return e.handlePeriodText(ctx, s, input)
	case store.StateConfirmingPeriod:
		return e.handleConfirmPeriod(ctx, s, input)
	case store.StateAskingOrganization:
		return e.handleOrganization(ctx, s, input)
	case store.StateNoResults:
		return e.handleNoResults(ctx, s, input)
	case store.StateSelecting:
		return e.handleSelection(ctx, s, input)
	case store.StateAwaitingDescription:
		return e.handleDescription(ctx, s, input)
	default:
		// collecting or a leftover terminal state: treat free text as a
		// fresh request statement.
		if input.Kind == store.InputFreeText && strings.TrimSpace(input.Text) != "" {
			return e.extractAndAdvance(ctx, s, input.Text)
		}
		return e.advance(ctx, s)
	}
}

// extractAndAdvance runs the single-shot extraction and folds validated
// values into the session.
func (e *Engine) extractAndAdvance(ctx context.Context, s *entity.DialogueSession, text string) (*Reply, error) {
	history := e.pushHistory(s, text)

	res, err := e.scopes.Resolve(ctx, s.PartyId, s.Slots)
	if err != nil {
		return nil, err
	}
	var candidateNames []string
	if res.Action == scope.ActionAskSelection {
		for _, o := range res.Candidates {
			candidateNames = append(candidateNames, o.Name)
		}
	}

	ext, err := e.extractor.Extract(ctx, text, s.Slots, candidateNames, history)
	if err != nil {
		return nil, err
	}

	patch := session.Patch{
		Slots: make(map[store.SlotName]store.SlotValue),
		Data:  map[string]string{dataHistory: strings.Join(history, "\n")},
	}

	if ext.Category != "" {
		patch.Slots[store.SlotCategory] = store.SlotValue{
			Value: ext.Category, Confidence: ext.Confidence, Source: store.SourceExtracted,
		}
	}
	if ext.Subtype != "" {
		patch.Slots[store.SlotSubtype] = store.SlotValue{
			Value: ext.Subtype, Confidence: ext.Confidence, Source: store.SourceExtracted,
		}
	}
	if ext.Period != "" && e.periods != nil {
		if p := e.periods.Resolve(ctx, ext.Period, history); p != nil {
			patch.Slots[store.SlotPeriod] = store.SlotValue{
				Value: p.Canonical, Confidence: p.Confidence, Source: store.SourceDeterministic,
			}
			patch.Data[dataProposedLabel] = p.Interpretation
		}
	}
	if ext.Organization != "" {
		for _, o := range res.Candidates {
			if strings.EqualFold(o.Name, ext.Organization) {
				patch.Slots[store.SlotOrganization] = store.SlotValue{
					Value: o.Id.String(), Confidence: ext.Confidence, Source: store.SourceExtracted,
				}
				break
			}
		}
	}

	s, err = e.sessions.MergeUpdate(ctx, s.ConversationId, patch)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return e.sessionGone()
	}
	return e.advance(ctx, s)
}

// advance asks for the single next unresolved slot, or executes the request
// when everything is bound. Ask order is category, subtype, period, then
// organization; the organization is asked last and only when more than one
// applies.
func (e *Engine) advance(ctx context.Context, s *entity.DialogueSession) (*Reply, error) {
	th := e.cfg.ConfidenceThreshold

	if !e.cfg.AskOrganizationLast {
		if reply, s2, err := e.resolveOrganization(ctx, s); reply != nil || err != nil {
			return reply, err
		} else {
			s = s2
		}
	}

	if !s.SlotResolved(store.SlotCategory, th) {
		return e.ask(ctx, s, store.StateAskingCategory, e.askCategoryText(s), response.CategoryMenu())
	}

	if !s.SlotResolved(store.SlotSubtype, th) {
		cat, _ := s.Slot(store.SlotCategory)
		return e.ask(ctx, s, store.StateAskingSubtype, response.AskSubtype(cat.Value), response.SubtypeMenu(cat.Value))
	}

	if !s.SlotResolved(store.SlotPeriod, th) {
		if p, ok := s.Slot(store.SlotPeriod); ok {
			// A period was read but with low confidence: confirm it
			// instead of asking from scratch.
			label := s.Data[dataProposedLabel]
			if label == "" {
				label = p.Value
			}
			return e.askConfirmPeriod(ctx, s, p.Value, label)
		}
		return e.ask(ctx, s, store.StateAskingPeriod, response.AskPeriod(), response.PeriodMenu())
	}

	if e.cfg.AskOrganizationLast {
		if reply, s2, err := e.resolveOrganization(ctx, s); reply != nil || err != nil {
			return reply, err
		} else {
			s = s2
		}
	}

	return e.finalize(ctx, s)
}

// resolveOrganization binds the organization slot, asking the user only
// when several organizations apply. Returns a non-nil reply when the turn
// should stop here.
func (e *Engine) resolveOrganization(ctx context.Context, s *entity.DialogueSession) (*Reply, *entity.DialogueSession, error) {
	if s.SlotResolved(store.SlotOrganization, e.cfg.ConfidenceThreshold) {
		return nil, s, nil
	}

	res, err := e.scopes.Resolve(ctx, s.PartyId, s.Slots)
	if err != nil {
		return nil, nil, err
	}

	switch res.Action {
	case scope.ActionNoAccess:
		e.sink.AccessDenied(ctx, s.ConversationId, s.PartyId, "")
		if err := e.sessions.Clear(ctx, s.ConversationId); err != nil {
			e.logger.Printf("[WARN] failed to clear session %s: %v", s.ConversationId, err)
		}
		return &Reply{Text: response.NoAccess(), State: store.StateDone, Intent: s.Intent, Done: true}, nil, nil

	case scope.ActionReady, scope.ActionAutoSelected:
		s2, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
			Slots: map[store.SlotName]store.SlotValue{
				store.SlotOrganization: {Value: res.Organization.Id.String(), Confidence: 1, Source: store.SourceAutoBound},
			},
		})
		if err != nil {
			return nil, nil, err
		}
		if s2 == nil {
			reply, err := e.sessionGone()
			return reply, nil, err
		}
		return nil, s2, nil

	default: // ask_selection
		reply, err := e.ask(ctx, s, store.StateAskingOrganization, response.AskOrganization(), response.OrganizationMenu(res.Candidates))
		return reply, nil, err
	}
}

// Slot-collecting state handlers

func (e *Engine) handleCategory(ctx context.Context, s *entity.DialogueSession, input store.DialogueInput) (*Reply, error) {
	var key string
	switch {
	case input.Kind == store.InputButtonSelection && strings.HasPrefix(input.Button, response.PrefixCategory):
		candidate := strings.TrimPrefix(input.Button, response.PrefixCategory)
		if catalog.ValidCategory(candidate) {
			key = candidate
		}
	case input.Kind == store.InputFreeText:
		key, _ = catalog.NormalizeCategory(input.Text)
	}

	if key == "" {
		return e.ask(ctx, s, store.StateAskingCategory, e.askCategoryText(s), response.CategoryMenu())
	}

	s, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
		Slots: map[store.SlotName]store.SlotValue{
			store.SlotCategory: {Value: key, Confidence: 1, Source: store.SourceUserConfirmed},
		},
		// A confirmed category invalidates any extracted subtype that
		// belonged to the other category.
		DropSlots: staleSubtype(s, key),
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return e.sessionGone()
	}
	return e.advance(ctx, s)
}

func (e *Engine) handleSubtype(ctx context.Context, s *entity.DialogueSession, input store.DialogueInput) (*Reply, error) {
	cat, _ := s.Slot(store.SlotCategory)

	var key string
	switch {
	case input.Kind == store.InputButtonSelection && strings.HasPrefix(input.Button, response.PrefixSubtype):
		candidate := strings.TrimPrefix(input.Button, response.PrefixSubtype)
		if catalog.ValidSubtype(cat.Value, candidate) {
			key = candidate
		}
	case input.Kind == store.InputFreeText:
		key, _ = catalog.NormalizeSubtype(cat.Value, input.Text)
	}

	if key == "" {
		return e.ask(ctx, s, store.StateAskingSubtype, response.AskSubtype(cat.Value), response.SubtypeMenu(cat.Value))
	}

	s, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
		Slots: map[store.SlotName]store.SlotValue{
			store.SlotSubtype: {Value: key, Confidence: 1, Source: store.SourceUserConfirmed},
		},
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return e.sessionGone()
	}
	return e.advance(ctx, s)
}

func (e *Engine) handlePeriodMenu(ctx context.Context, s *entity.DialogueSession, input store.DialogueInput) (*Reply, error) {
	if input.Kind == store.InputButtonSelection {
		switch input.Button {
		case response.PrefixPeriod + "este_mes":
			return e.acceptDeterministicPeriod(ctx, s, "este mes")
		case response.PrefixPeriod + "mes_anterior":
			return e.acceptDeterministicPeriod(ctx, s, "mes anterior")
		case response.ActionOtherPeriod:
			return e.ask(ctx, s, store.StateAskingPeriodText, response.AskPeriodText(), nil)
		}
		return e.ask(ctx, s, store.StateAskingPeriod, response.AskPeriod(), response.PeriodMenu())
	}
	return e.resolvePeriodText(ctx, s, input.Text)
}

func (e *Engine) handlePeriodText(ctx context.Context, s *entity.DialogueSession, input store.DialogueInput) (*Reply, error) {
	if input.Kind != store.InputFreeText {
		return e.ask(ctx, s, store.StateAskingPeriodText, response.AskPeriodText(), nil)
	}
	return e.resolvePeriodText(ctx, s, input.Text)
}

// acceptDeterministicPeriod binds a relative-period shortcut. The phrase
// comes from our own button, so it counts as user confirmed.
func (e *Engine) acceptDeterministicPeriod(ctx context.Context, s *entity.DialogueSession, phrase string) (*Reply, error) {
	p := e.periods.ResolveDeterministic(phrase)
	if p == nil {
		return e.ask(ctx, s, store.StateAskingPeriodText, response.AskPeriodRetry(), nil)
	}
	s, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
		Slots: map[store.SlotName]store.SlotValue{
			store.SlotPeriod: {Value: p.Canonical, Confidence: 1, Source: store.SourceUserConfirmed},
		},
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return e.sessionGone()
	}
	return e.advance(ctx, s)
}

func (e *Engine) resolvePeriodText(ctx context.Context, s *entity.DialogueSession, text string) (*Reply, error) {
	history := e.pushHistory(s, text)
	p := e.periods.Resolve(ctx, text, history)
	if p == nil {
		return e.ask(ctx, s, store.StateAskingPeriodText, response.AskPeriodRetry(), nil)
	}

	if p.Confidence < e.cfg.ConfidenceThreshold {
		return e.askConfirmPeriod(ctx, s, p.Canonical, p.Interpretation)
	}

	s, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
		Slots: map[store.SlotName]store.SlotValue{
			store.SlotPeriod: {Value: p.Canonical, Confidence: p.Confidence, Source: store.SourceDeterministic},
		},
		Data: map[string]string{dataHistory: strings.Join(history, "\n")},
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return e.sessionGone()
	}
	return e.advance(ctx, s)
}

func (e *Engine) askConfirmPeriod(ctx context.Context, s *entity.DialogueSession, canonical, label string) (*Reply, error) {
	s2, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
		State: store.StateConfirmingPeriod,
		Data: map[string]string{
			dataProposedPeriod: canonical,
			dataProposedLabel:  label,
		},
	})
	if err != nil {
		return nil, err
	}
	if s2 == nil {
		return e.sessionGone()
	}
	return &Reply{
		Text:    response.ConfirmPeriod(label),
		Buttons: response.ConfirmPeriodMenu(),
		State:   s2.State,
		Intent:  s2.Intent,
	}, nil
}

func (e *Engine) handleConfirmPeriod(ctx context.Context, s *entity.DialogueSession, input store.DialogueInput) (*Reply, error) {
	if isAffirmative(input) {
		proposed := s.Data[dataProposedPeriod]
		s, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
			Slots: map[store.SlotName]store.SlotValue{
				store.SlotPeriod: {Value: proposed, Confidence: 1, Source: store.SourceUserConfirmed},
			},
			DropData: []string{dataProposedPeriod, dataProposedLabel},
		})
		if err != nil {
			return nil, err
		}
		if s == nil {
			return e.sessionGone()
		}
		return e.advance(ctx, s)
	}

	if input.Kind == store.InputFreeText {
		// Anything that is not a yes is read as a new period statement.
		return e.resolvePeriodText(ctx, s, input.Text)
	}
	return e.ask(ctx, s, store.StateAskingPeriodText, response.AskPeriodText(), nil)
}

func (e *Engine) handleOrganization(ctx context.Context, s *entity.DialogueSession, input store.DialogueInput) (*Reply, error) {
	res, err := e.scopes.Resolve(ctx, s.PartyId, s.Slots)
	if err != nil {
		return nil, err
	}

	var chosen *entity.Organization
	switch input.Kind {
	case store.InputButtonSelection:
		if strings.HasPrefix(input.Button, response.PrefixOrganization) {
			if id, err := uuid.Parse(strings.TrimPrefix(input.Button, response.PrefixOrganization)); err == nil {
				chosen = findOrg(res.Candidates, id)
			}
		}
	case store.InputFreeText:
		for _, o := range res.Candidates {
			if strings.EqualFold(strings.TrimSpace(input.Text), o.Name) {
				chosen = o
				break
			}
		}
	}

	if chosen == nil {
		return e.ask(ctx, s, store.StateAskingOrganization, response.AskOrganization(), response.OrganizationMenu(res.Candidates))
	}

	s, err = e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
		Slots: map[store.SlotName]store.SlotValue{
			store.SlotOrganization: {Value: chosen.Id.String(), Confidence: 1, Source: store.SourceUserConfirmed},
		},
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return e.sessionGone()
	}
	return e.advance(ctx, s)
}

func (e *Engine) handleNoResults(ctx context.Context, s *entity.DialogueSession, input store.DialogueInput) (*Reply, error) {
	if input.Kind == store.InputButtonSelection && input.Button == response.ActionRetryPeriod {
		s, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
			State:     store.StateAskingPeriodText,
			DropSlots: []store.SlotName{store.SlotPeriod},
			DropData:  []string{dataProposedPeriod, dataProposedLabel},
		})
		if err != nil {
			return nil, err
		}
		if s == nil {
			return e.sessionGone()
		}
		return &Reply{Text: response.AskPeriodText(), State: s.State, Intent: s.Intent}, nil
	}

	if input.Kind == store.InputFreeText {
		// A new period typed directly replaces the one that found nothing.
		s2, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
			DropSlots: []store.SlotName{store.SlotPeriod},
		})
		if err != nil {
			return nil, err
		}
		if s2 == nil {
			return e.sessionGone()
		}
		return e.resolvePeriodText(ctx, s2, input.Text)
	}

	p, _ := s.Slot(store.SlotPeriod)
	return e.ask(ctx, s, store.StateNoResults, response.NoResults(p.Value), response.RetryPeriodMenu())
}

func (e *Engine) handleDescription(ctx context.Context, s *entity.DialogueSession, input store.DialogueInput) (*Reply, error) {
	if input.Kind != store.InputFreeText || strings.TrimSpace(input.Text) == "" {
		return e.ask(ctx, s, store.StateAwaitingDescription, response.AskDescription(), nil)
	}

	s, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{
		Data: map[string]string{dataDescription: strings.TrimSpace(input.Text)},
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return e.sessionGone()
	}
	return e.finalize(ctx, s)
}

// Helpers

// sessionGone answers a turn whose session vanished between the read and the
// merge, from a concurrent cancel or a TTL lapse. The next message starts a
// fresh conversation.
func (e *Engine) sessionGone() (*Reply, error) {
	return &Reply{Text: response.SessionExpired(), State: store.StateCancelled, Done: true}, nil
}

// ask persists the state transition and renders the question.
func (e *Engine) ask(ctx context.Context, s *entity.DialogueSession, state, text string, buttons []response.Button) (*Reply, error) {
	s2, err := e.sessions.MergeUpdate(ctx, s.ConversationId, session.Patch{State: state})
	if err != nil {
		return nil, err
	}
	if s2 == nil {
		return e.sessionGone()
	}
	return &Reply{Text: text, Buttons: buttons, State: state, Intent: s2.Intent}, nil
}

func (e *Engine) askCategoryText(s *entity.DialogueSession) string {
	if s.Intent == store.IntentUpload {
		return response.AskCategoryUpload()
	}
	return response.AskCategory()
}

// pushHistory appends the utterance to the rolling window used to anchor
// oracle prompts.
func (e *Engine) pushHistory(s *entity.DialogueSession, text string) []string {
	var history []string
	if prev := s.Data[dataHistory]; prev != "" {
		history = strings.Split(prev, "\n")
	}
	history = append(history, strings.TrimSpace(text))
	if len(history) > e.cfg.HistoryDepth {
		history = history[len(history)-e.cfg.HistoryDepth:]
	}
	return history
}

func staleSubtype(s *entity.DialogueSession, newCategory string) []store.SlotName {
	if sub, ok := s.Slot(store.SlotSubtype); ok {
		if !catalog.ValidSubtype(newCategory, sub.Value) {
			return []store.SlotName{store.SlotSubtype}
		}
	}
	return nil
}

func findOrg(orgs []*entity.Organization, id uuid.UUID) *entity.Organization {
	for _, o := range orgs {
		if o.Id == id {
			return o
		}
	}
	return nil
}

func isCancel(input store.DialogueInput) bool {
	if input.Kind == store.InputButtonSelection {
		return input.Button == response.ActionCancel
	}
	if input.Kind == store.InputFreeText {
		t := strings.ToLower(strings.TrimSpace(input.Text))
		return t == "/cancelar" || t == "cancelar"
	}
	return false
}

func isAffirmative(input store.DialogueInput) bool {
	if input.Kind == store.InputButtonSelection {
		return input.Button == response.ActionConfirmPeriod
	}
	if input.Kind != store.InputFreeText {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(input.Text)) {
	case "sí", "si", "correcto", "sí, correcto", "si, correcto", "ok", "dale":
		return true
	}
	return false
}

func inputText(input store.DialogueInput) string {
	switch input.Kind {
	case store.InputFreeText:
		return input.Text
	case store.InputButtonSelection:
		return input.Button
	case store.InputAttachment:
		return input.AttachmentName
	}
	return ""
}
