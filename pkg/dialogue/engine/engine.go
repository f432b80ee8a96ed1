// Package engine drives the slot-filling conversation. Each turn loads the
// session, folds the input into the slot set, and either asks for the single
// next missing slot or executes the request. The engine never trusts the
// oracle's words for scope: organization binding always goes through the
// membership checks in pkg/dialogue/scope.
package engine

import (
	"context"
	"log"

	"docvault-be/internal/entity"
	"docvault-be/pkg/dialogue/extract"
	"docvault-be/pkg/dialogue/period"
	"docvault-be/pkg/dialogue/response"
	"docvault-be/pkg/dialogue/scope"
	"docvault-be/pkg/dialogue/session"
	"docvault-be/pkg/storage"
	"docvault-be/pkg/store"

	"github.com/google/uuid"
)

// DocumentStore is the slice of the document repository the engine needs.
type DocumentStore interface {
	Search(ctx context.Context, orgID uuid.UUID, category, subtype, periodKey string) ([]*entity.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	Register(ctx context.Context, doc *entity.Document) error
}

// LinkIssuer mints download URLs for delivered documents.
type LinkIssuer interface {
	SignedURL(doc *entity.Document) (*storage.SignedLink, error)
}

// TurnRecord is the completed-turn payload handed to the event sink.
type TurnRecord struct {
	ConversationID string
	PartyID        uuid.UUID
	Intent         string
	State          string
	InputKind      string
	InputText      string
	ReplyText      string
	Slots          map[store.SlotName]store.SlotValue
}

// EventSink receives the engine's side-channel events. Turn records feed
// the conversation log; the security events feed the audit stream.
type EventSink interface {
	TurnCompleted(ctx context.Context, rec *TurnRecord)
	AccessDenied(ctx context.Context, conversationID string, partyID uuid.UUID, organization string)
	DocumentDelivered(ctx context.Context, conversationID string, partyID uuid.UUID, doc *entity.Document)
	DocumentStored(ctx context.Context, conversationID string, partyID uuid.UUID, doc *entity.Document)
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) TurnCompleted(context.Context, *TurnRecord) {}
func (NopSink) AccessDenied(context.Context, string, uuid.UUID, string) {
}
func (NopSink) DocumentDelivered(context.Context, string, uuid.UUID, *entity.Document) {}
func (NopSink) DocumentStored(context.Context, string, uuid.UUID, *entity.Document)    {}

// Config holds the policy knobs, wired from DialogueConfig.
type Config struct {
	ConfidenceThreshold float64
	MaxResults          int
	AskOrganizationLast bool
	HistoryDepth        int
}

// DocumentResult pairs a matched document with its download URL.
type DocumentResult struct {
	Document *entity.Document
	URL      string
}

// Reply is the engine's answer for one turn.
type Reply struct {
	Text        string
	Buttons     []response.Button
	State       string
	Intent      string
	Documents   []*DocumentResult
	MoreResults bool
	Done        bool
}

type Engine struct {
	sessions  *session.Manager
	extractor *extract.Extractor
	periods   *period.Resolver
	scopes    *scope.Resolver
	docs      DocumentStore
	links     LinkIssuer
	sink      EventSink
	cfg       Config
	logger    *log.Logger
}

func New(
	sessions *session.Manager,
	extractor *extract.Extractor,
	periods *period.Resolver,
	scopes *scope.Resolver,
	docs DocumentStore,
	links LinkIssuer,
	sink EventSink,
	cfg Config,
	logger *log.Logger,
) *Engine {
	if sink == nil {
		sink = NopSink{}
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = 0.75
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 10
	}
	if cfg.HistoryDepth == 0 {
		cfg.HistoryDepth = 3
	}
	return &Engine{
		sessions:  sessions,
		extractor: extractor,
		periods:   periods,
		scopes:    scopes,
		docs:      docs,
		links:     links,
		sink:      sink,
		cfg:       cfg,
		logger:    logger,
	}
}

// Cancel clears the conversation's session out of band (DELETE endpoint).
func (e *Engine) Cancel(ctx context.Context, conversationID string) error {
	return e.sessions.Clear(ctx, conversationID)
}

// SweepExpired removes expired session rows.
func (e *Engine) SweepExpired(ctx context.Context) (int64, error) {
	return e.sessions.SweepExpired(ctx)
}
