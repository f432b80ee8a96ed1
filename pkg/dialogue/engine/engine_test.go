package engine_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"docvault-be/internal/entity"
	"docvault-be/internal/repository/contract"
	"docvault-be/internal/repository/memory"
	"docvault-be/internal/repository/specification"
	"docvault-be/pkg/dialogue/engine"
	"docvault-be/pkg/dialogue/extract"
	"docvault-be/pkg/dialogue/period"
	"docvault-be/pkg/dialogue/response"
	"docvault-be/pkg/dialogue/scope"
	"docvault-be/pkg/dialogue/session"
	"docvault-be/pkg/llm"
	"docvault-be/pkg/lock"
	"docvault-be/pkg/storage"
	"docvault-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fakes

// fakeProvider plays back scripted responses in order; once the script is
// exhausted it answers with an empty extraction.
type fakeProvider struct {
	responses []string
	err       error
}

func (f *fakeProvider) next() string {
	if len(f.responses) == 0 {
		return `{}`
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return f.next(), f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.next(), f.err
}

type fakeChecker struct {
	orgs []*entity.Organization
}

func (f *fakeChecker) AuthorizedOrganizations(ctx context.Context, partyID uuid.UUID) ([]*entity.Organization, error) {
	return f.orgs, nil
}

func (f *fakeChecker) HasAccess(ctx context.Context, partyID, orgID uuid.UUID) (bool, error) {
	for _, o := range f.orgs {
		if o.Id == orgID {
			return true, nil
		}
	}
	return false, nil
}

type fakeDocStore struct {
	docs       []*entity.Document
	registered []*entity.Document
	searchErr  error
}

func (f *fakeDocStore) Search(ctx context.Context, orgID uuid.UUID, category, subtype, periodKey string) ([]*entity.Document, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []*entity.Document
	for _, d := range f.docs {
		if d.OrganizationId == orgID && d.Category == category && d.Subtype == subtype && d.Period == periodKey {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocStore) Get(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	for _, d := range f.docs {
		if d.Id == id {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeDocStore) Register(ctx context.Context, doc *entity.Document) error {
	doc.Id = uuid.New()
	f.registered = append(f.registered, doc)
	return nil
}

type fakeLinks struct{}

func (f *fakeLinks) SignedURL(doc *entity.Document) (*storage.SignedLink, error) {
	return &storage.SignedLink{
		URL:       "https://files.test/" + doc.Id.String(),
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

type fakeSink struct {
	turns     []*engine.TurnRecord
	denied    []string
	delivered []*entity.Document
	stored    []*entity.Document
}

func (f *fakeSink) TurnCompleted(ctx context.Context, rec *engine.TurnRecord) {
	f.turns = append(f.turns, rec)
}

func (f *fakeSink) AccessDenied(ctx context.Context, conversationID string, partyID uuid.UUID, organization string) {
	f.denied = append(f.denied, organization)
}

func (f *fakeSink) DocumentDelivered(ctx context.Context, conversationID string, partyID uuid.UUID, doc *entity.Document) {
	f.delivered = append(f.delivered, doc)
}

func (f *fakeSink) DocumentStored(ctx context.Context, conversationID string, partyID uuid.UUID, doc *entity.Document) {
	f.stored = append(f.stored, doc)
}

// Fixture

func fixedNow() time.Time {
	return time.Date(2026, time.August, 13, 10, 0, 0, 0, time.UTC)
}

type fixture struct {
	engine *engine.Engine
	sink   *fakeSink
	docs   *fakeDocStore
	party  uuid.UUID
	conv   string
}

func newFixture(t *testing.T, orgs []*entity.Organization, docs *fakeDocStore, extractResponse string) *fixture {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	mgr := session.NewManager(
		memory.NewDialogueSessionRepository(),
		lock.NewLocalLocker(),
		time.Hour,
		logger,
		session.WithClock(fixedNow),
	)

	var provider llm.LLMProvider
	if extractResponse != "" {
		provider = &fakeProvider{responses: []string{extractResponse}}
	}

	sink := &fakeSink{}
	e := engine.New(
		mgr,
		extract.NewExtractor(provider, logger),
		period.NewResolver(nil, logger, period.WithClock(fixedNow)),
		scope.NewResolver(&fakeChecker{orgs: orgs}, logger),
		docs,
		&fakeLinks{},
		sink,
		engine.Config{ConfidenceThreshold: 0.75, MaxResults: 3, AskOrganizationLast: true, HistoryDepth: 3},
		logger,
	)

	return &fixture{engine: e, sink: sink, docs: docs, party: uuid.New(), conv: "conv-" + uuid.NewString()}
}

func (f *fixture) text(t *testing.T, msg string) *engine.Reply {
	t.Helper()
	reply, err := f.engine.HandleTurn(context.Background(), store.FreeText(f.conv, f.party.String(), msg))
	require.NoError(t, err)
	return reply
}

func (f *fixture) press(t *testing.T, button string) *engine.Reply {
	t.Helper()
	reply, err := f.engine.HandleTurn(context.Background(), store.ButtonSelection(f.conv, f.party.String(), button))
	require.NoError(t, err)
	return reply
}

func (f *fixture) attach(t *testing.T, name, key string) *engine.Reply {
	t.Helper()
	reply, err := f.engine.HandleTurn(context.Background(), store.Attachment(f.conv, f.party.String(), name, key))
	require.NoError(t, err)
	return reply
}

func org(name string) *entity.Organization {
	return &entity.Organization{Id: uuid.New(), Name: name, Active: true}
}

func doc(o *entity.Organization, category, subtype, periodKey, name string) *entity.Document {
	return &entity.Document{
		Id:             uuid.New(),
		OrganizationId: o.Id,
		Category:       category,
		Subtype:        subtype,
		Period:         periodKey,
		DisplayName:    name,
		StorageKey:     "k/" + name,
		Active:         true,
	}
}

// Tests

func TestFastPathSingleOrgOneResult(t *testing.T) {
	acme := org("Acme SpA")
	docs := &fakeDocStore{docs: []*entity.Document{
		doc(acme, "financiero", "f29", "2026-07", "F29 Julio"),
	}}
	f := newFixture(t, []*entity.Organization{acme}, docs,
		`{"category": "financiero", "subtype": "f29", "organization": "", "period": "2026-07", "confidence": 0.9}`)

	reply := f.text(t, "necesito el f29 de 2026-07")

	assert.True(t, reply.Done)
	assert.Equal(t, store.StateDone, reply.State)
	require.Len(t, reply.Documents, 1)
	assert.Contains(t, reply.Documents[0].URL, "https://files.test/")
	assert.Len(t, f.sink.delivered, 1)

	// Terminal success clears the session: the next message starts fresh.
	next := f.text(t, "hola")
	assert.Equal(t, store.StateAskingCategory, next.State)
}

func TestGuidedPathButtonsOnly(t *testing.T) {
	acme := org("Acme SpA")
	docs := &fakeDocStore{docs: []*entity.Document{
		doc(acme, "legal", "rut", "2026-08", "RUT Acme"),
	}}
	f := newFixture(t, []*entity.Organization{acme}, docs, "")

	reply := f.text(t, "hola, necesito un documento")
	assert.Equal(t, store.StateAskingCategory, reply.State)
	assert.NotEmpty(t, reply.Buttons)

	reply = f.press(t, response.PrefixCategory+"legal")
	assert.Equal(t, store.StateAskingSubtype, reply.State)

	reply = f.press(t, response.PrefixSubtype+"rut")
	assert.Equal(t, store.StateAskingPeriod, reply.State)

	reply = f.press(t, response.PrefixPeriod+"este_mes")
	assert.True(t, reply.Done)
	require.Len(t, reply.Documents, 1)
	assert.Equal(t, "RUT Acme", reply.Documents[0].Document.DisplayName)
}

func TestInvalidButtonReasks(t *testing.T) {
	acme := org("Acme SpA")
	f := newFixture(t, []*entity.Organization{acme}, &fakeDocStore{}, "")

	reply := f.text(t, "hola")
	require.Equal(t, store.StateAskingCategory, reply.State)

	reply = f.press(t, response.PrefixCategory+"rrhh")
	assert.Equal(t, store.StateAskingCategory, reply.State)

	// Free text naming a valid category works too.
	reply = f.text(t, "Legal")
	assert.Equal(t, store.StateAskingSubtype, reply.State)
}

func TestOrganizationAskedLastOnlyWhenSeveral(t *testing.T) {
	acme := org("Acme SpA")
	beta := org("Beta Ltda")
	docs := &fakeDocStore{docs: []*entity.Document{
		doc(beta, "financiero", "f29", "2026-07", "F29 Beta"),
	}}
	f := newFixture(t, []*entity.Organization{acme, beta}, docs,
		`{"category": "financiero", "subtype": "f29", "organization": "", "period": "2026-07", "confidence": 0.9}`)

	reply := f.text(t, "el f29 de julio")
	assert.Equal(t, store.StateAskingOrganization, reply.State)
	assert.Len(t, reply.Buttons, 3) // two organizations + cancel

	reply = f.press(t, response.PrefixOrganization+beta.Id.String())
	assert.True(t, reply.Done)
	require.Len(t, reply.Documents, 1)
	assert.Equal(t, "F29 Beta", reply.Documents[0].Document.DisplayName)
}

func TestExtractedOrganizationSkipsAsk(t *testing.T) {
	acme := org("Acme SpA")
	beta := org("Beta Ltda")
	docs := &fakeDocStore{docs: []*entity.Document{
		doc(beta, "financiero", "f29", "2026-07", "F29 Beta"),
	}}
	f := newFixture(t, []*entity.Organization{acme, beta}, docs,
		`{"category": "financiero", "subtype": "f29", "organization": "Beta Ltda", "period": "2026-07", "confidence": 0.9}`)

	reply := f.text(t, "el f29 de julio de beta")
	assert.True(t, reply.Done)
	require.Len(t, reply.Documents, 1)
}

func TestNoAccessEndsConversation(t *testing.T) {
	f := newFixture(t, nil, &fakeDocStore{}, "")

	reply := f.text(t, "hola")
	// Category is asked first; access is checked when binding the org.
	reply = f.press(t, response.PrefixCategory+"legal")
	reply = f.press(t, response.PrefixSubtype+"rut")
	reply = f.press(t, response.PrefixPeriod+"este_mes")

	assert.True(t, reply.Done)
	assert.Equal(t, response.NoAccess(), reply.Text)
}

func TestLowConfidencePeriodConfirmed(t *testing.T) {
	acme := org("Acme SpA")
	docs := &fakeDocStore{docs: []*entity.Document{
		doc(acme, "financiero", "f29", "2026-07", "F29 Julio"),
	}}
	f := newFixture(t, []*entity.Organization{acme}, docs, "")

	f.text(t, "hola")
	f.press(t, response.PrefixCategory+"financiero")
	f.press(t, response.PrefixSubtype+"f29")
	f.press(t, response.ActionOtherPeriod)

	// "julio" resolves at 0.7, below the 0.75 threshold.
	reply := f.text(t, "julio")
	assert.Equal(t, store.StateConfirmingPeriod, reply.State)
	assert.Contains(t, reply.Text, "julio")

	reply = f.text(t, "sí")
	assert.True(t, reply.Done)
	require.Len(t, reply.Documents, 1)
}

func TestConfirmPeriodRejectedReparses(t *testing.T) {
	acme := org("Acme SpA")
	docs := &fakeDocStore{docs: []*entity.Document{
		doc(acme, "financiero", "f29", "2025-03", "F29 Marzo 2025"),
	}}
	f := newFixture(t, []*entity.Organization{acme}, docs, "")

	f.text(t, "hola")
	f.press(t, response.PrefixCategory+"financiero")
	f.press(t, response.PrefixSubtype+"f29")
	f.press(t, response.ActionOtherPeriod)

	reply := f.text(t, "julio")
	require.Equal(t, store.StateConfirmingPeriod, reply.State)

	// Not a yes: re-read as a new period statement. "2025-03" resolves
	// at 0.9, above threshold, no second confirmation.
	reply = f.text(t, "no, era 2025-03")
	assert.True(t, reply.Done)
	require.Len(t, reply.Documents, 1)
	assert.Equal(t, "F29 Marzo 2025", reply.Documents[0].Document.DisplayName)
}

func TestUnparseablePeriodReasks(t *testing.T) {
	acme := org("Acme SpA")
	f := newFixture(t, []*entity.Organization{acme}, &fakeDocStore{}, "")

	f.text(t, "hola")
	f.press(t, response.PrefixCategory+"financiero")
	f.press(t, response.PrefixSubtype+"f29")
	f.press(t, response.ActionOtherPeriod)

	reply := f.text(t, "no recuerdo")
	assert.Equal(t, store.StateAskingPeriodText, reply.State)
	assert.Equal(t, response.AskPeriodRetry(), reply.Text)
}

func TestNoResultsRetryAnotherPeriod(t *testing.T) {
	acme := org("Acme SpA")
	docs := &fakeDocStore{docs: []*entity.Document{
		doc(acme, "financiero", "f29", "2026-06", "F29 Junio"),
	}}
	f := newFixture(t, []*entity.Organization{acme}, docs, "")

	f.text(t, "hola")
	f.press(t, response.PrefixCategory+"financiero")
	f.press(t, response.PrefixSubtype+"f29")

	reply := f.press(t, response.PrefixPeriod+"este_mes") // 2026-08, nothing there
	assert.Equal(t, store.StateNoResults, reply.State)
	assert.False(t, reply.Done)

	reply = f.press(t, response.ActionRetryPeriod)
	assert.Equal(t, store.StateAskingPeriodText, reply.State)

	// Category and subtype survived the retry.
	reply = f.text(t, "2026-06")
	assert.True(t, reply.Done)
	require.Len(t, reply.Documents, 1)
	assert.Equal(t, "F29 Junio", reply.Documents[0].Document.DisplayName)
}

func TestMultipleResultsSelectionCapped(t *testing.T) {
	acme := org("Acme SpA")
	var ds []*entity.Document
	for i := 0; i < 5; i++ {
		ds = append(ds, doc(acme, "legal", "otros", "2026-08", fmt.Sprintf("Doc %d", i)))
	}
	docs := &fakeDocStore{docs: ds}
	f := newFixture(t, []*entity.Organization{acme}, docs, "")

	f.text(t, "hola")
	f.press(t, response.PrefixCategory+"legal")
	f.press(t, response.PrefixSubtype+"otros")
	reply := f.press(t, response.PrefixPeriod+"este_mes")

	assert.Equal(t, store.StateSelecting, reply.State)
	assert.True(t, reply.MoreResults)
	// Three documents (MaxResults) plus the cancel row.
	assert.Len(t, reply.Buttons, 4)

	reply = f.press(t, response.PrefixDocument+ds[1].Id.String())
	assert.True(t, reply.Done)
	require.Len(t, reply.Documents, 1)
	assert.Equal(t, "Doc 1", reply.Documents[0].Document.DisplayName)
}

func TestSelectionForeignDocumentRejected(t *testing.T) {
	acme := org("Acme SpA")
	other := org("Other")
	foreign := doc(other, "legal", "otros", "2026-08", "Foreign")
	var ds []*entity.Document
	for i := 0; i < 2; i++ {
		ds = append(ds, doc(acme, "legal", "otros", "2026-08", fmt.Sprintf("Doc %d", i)))
	}
	docs := &fakeDocStore{docs: append(ds, foreign)}
	f := newFixture(t, []*entity.Organization{acme}, docs, "")

	f.text(t, "hola")
	f.press(t, response.PrefixCategory+"legal")
	f.press(t, response.PrefixSubtype+"otros")
	reply := f.press(t, response.PrefixPeriod+"este_mes")
	require.Equal(t, store.StateSelecting, reply.State)

	// A forged button naming another organization's document re-offers
	// the legitimate list instead of delivering.
	reply = f.press(t, response.PrefixDocument+foreign.Id.String())
	assert.False(t, reply.Done)
	assert.Empty(t, reply.Documents)
	assert.Equal(t, store.StateSelecting, reply.State)
}

func TestSearchFailureKeepsSession(t *testing.T) {
	acme := org("Acme SpA")
	docs := &fakeDocStore{searchErr: fmt.Errorf("connection reset")}
	f := newFixture(t, []*entity.Organization{acme}, docs, "")

	f.text(t, "hola")
	f.press(t, response.PrefixCategory+"financiero")
	f.press(t, response.PrefixSubtype+"f29")
	reply := f.press(t, response.PrefixPeriod+"este_mes")

	assert.Equal(t, response.TransientFailure(), reply.Text)
	assert.False(t, reply.Done)

	// Session survived: retrying the same period works once the store is back.
	docs.searchErr = nil
	docs.docs = []*entity.Document{doc(acme, "financiero", "f29", "2026-08", "F29 Agosto")}
	reply = f.press(t, response.PrefixPeriod+"este_mes")
	assert.True(t, reply.Done)
}

func TestUploadFlowWithDescription(t *testing.T) {
	acme := org("Acme SpA")
	docs := &fakeDocStore{}
	f := newFixture(t, []*entity.Organization{acme}, docs, "")

	reply := f.attach(t, "contrato.pdf", "uploads/contrato.pdf")
	assert.Equal(t, store.StateAskingCategory, reply.State)
	assert.Equal(t, response.AskCategoryUpload(), reply.Text)

	f.press(t, response.PrefixCategory+"legal")
	f.press(t, response.PrefixSubtype+"otros")
	reply = f.press(t, response.PrefixPeriod+"este_mes")

	// "otros" requires a description before the document is stored.
	assert.Equal(t, store.StateAwaitingDescription, reply.State)

	reply = f.text(t, "Contrato de arriendo oficina")
	assert.True(t, reply.Done)
	require.Len(t, docs.registered, 1)
	stored := docs.registered[0]
	assert.Equal(t, "contrato.pdf", stored.DisplayName)
	assert.Equal(t, "uploads/contrato.pdf", stored.StorageKey)
	assert.Equal(t, "Contrato de arriendo oficina", stored.Description)
	assert.Equal(t, "2026-08", stored.Period)
	assert.Equal(t, f.party, stored.UploadedBy)
	assert.Len(t, f.sink.stored, 1)
}

func TestUploadWithoutDescriptionWhenNotRequired(t *testing.T) {
	acme := org("Acme SpA")
	docs := &fakeDocStore{}
	f := newFixture(t, []*entity.Organization{acme}, docs, "")

	f.attach(t, "f29-julio.pdf", "uploads/f29.pdf")
	f.press(t, response.PrefixCategory+"financiero")
	f.press(t, response.PrefixSubtype+"f29")
	reply := f.press(t, response.PrefixPeriod+"mes_anterior")

	assert.True(t, reply.Done)
	require.Len(t, docs.registered, 1)
	assert.Equal(t, "2026-07", docs.registered[0].Period)
	assert.Empty(t, docs.registered[0].Description)
}

func TestCancelClearsSession(t *testing.T) {
	acme := org("Acme SpA")
	f := newFixture(t, []*entity.Organization{acme}, &fakeDocStore{}, "")

	f.text(t, "hola")
	f.press(t, response.PrefixCategory+"legal")

	reply := f.text(t, "/cancelar")
	assert.True(t, reply.Done)
	assert.Equal(t, store.StateCancelled, reply.State)

	// The next message starts from scratch.
	reply = f.text(t, "hola")
	assert.Equal(t, store.StateAskingCategory, reply.State)
}

func TestCategoryChangeDropsMismatchedSubtype(t *testing.T) {
	acme := org("Acme SpA")
	docs := &fakeDocStore{docs: []*entity.Document{
		doc(acme, "legal", "rut", "2026-08", "RUT Acme"),
	}}
	f := newFixture(t, []*entity.Organization{acme}, docs,
		`{"category": "financiero", "subtype": "f29", "organization": "", "period": "", "confidence": 0.5}`)

	// Low confidence extraction: category is asked anyway.
	reply := f.text(t, "algo financiero?")
	require.Equal(t, store.StateAskingCategory, reply.State)

	// Picking legal invalidates the extracted financiero subtype.
	reply = f.press(t, response.PrefixCategory+"legal")
	assert.Equal(t, store.StateAskingSubtype, reply.State)

	f.press(t, response.PrefixSubtype+"rut")
	reply = f.press(t, response.PrefixPeriod+"este_mes")
	assert.True(t, reply.Done)
}

// vanishingSessionRepo lets a fixed number of reads through after arming and
// then reports the row gone, mimicking a concurrent cancel landing between a
// turn's read and its merge.
type vanishingSessionRepo struct {
	contract.DialogueSessionRepository
	mu        sync.Mutex
	armed     bool
	remaining int
}

func (r *vanishingSessionRepo) arm(reads int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = true
	r.remaining = reads
}

func (r *vanishingSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DialogueSession, error) {
	r.mu.Lock()
	gone := r.armed && r.remaining == 0
	if r.armed && r.remaining > 0 {
		r.remaining--
	}
	r.mu.Unlock()
	if gone {
		return nil, nil
	}
	return r.DialogueSessionRepository.FindOne(ctx, specs...)
}

func TestSessionVanishingMidTurn(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	repo := &vanishingSessionRepo{DialogueSessionRepository: memory.NewDialogueSessionRepository()}
	mgr := session.NewManager(repo, lock.NewLocalLocker(), time.Hour, logger, session.WithClock(fixedNow))

	acme := org("Acme SpA")
	sink := &fakeSink{}
	e := engine.New(
		mgr,
		extract.NewExtractor(nil, logger),
		period.NewResolver(nil, logger, period.WithClock(fixedNow)),
		scope.NewResolver(&fakeChecker{orgs: []*entity.Organization{acme}}, logger),
		&fakeDocStore{},
		&fakeLinks{},
		sink,
		engine.Config{ConfidenceThreshold: 0.75, MaxResults: 3, AskOrganizationLast: true, HistoryDepth: 3},
		logger,
	)

	party := uuid.New()
	reply, err := e.HandleTurn(context.Background(), store.FreeText("conv-race", party.String(), "hola"))
	require.NoError(t, err)
	require.Equal(t, store.StateAskingCategory, reply.State)

	// The session survives the turn's initial read but is gone by the
	// merge. The turn must end cleanly instead of advancing on nothing.
	repo.arm(1)
	reply, err = e.HandleTurn(context.Background(), store.ButtonSelection("conv-race", party.String(), response.PrefixCategory+"legal"))
	require.NoError(t, err)
	assert.True(t, reply.Done)
	assert.Equal(t, store.StateCancelled, reply.State)
	assert.Equal(t, response.SessionExpired(), reply.Text)
}

func TestTurnEventsRecorded(t *testing.T) {
	acme := org("Acme SpA")
	f := newFixture(t, []*entity.Organization{acme}, &fakeDocStore{}, "")

	f.text(t, "hola")
	f.press(t, response.PrefixCategory+"legal")

	require.Len(t, f.sink.turns, 2)
	assert.Equal(t, string(store.InputFreeText), f.sink.turns[0].InputKind)
	assert.Equal(t, "hola", f.sink.turns[0].InputText)
	assert.NotEmpty(t, f.sink.turns[0].ReplyText)
	assert.Equal(t, store.StateAskingSubtype, f.sink.turns[1].State)
}
