package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"docvault-be/internal/dto"
	"docvault-be/internal/entity"
	"docvault-be/pkg/dialogue/engine"
	"docvault-be/pkg/events"
	"docvault-be/pkg/nats"

	"github.com/google/uuid"
)

// eventSink fans the engine's side-channel events out to the in-process
// bus (conversation log) and the NATS audit stream. The NATS publisher
// is optional; audit events are dropped with a warning when it is absent.
type eventSink struct {
	publisher IPublisherService
	audit     *nats.Publisher
}

func NewEventSink(publisher IPublisherService, audit *nats.Publisher) engine.EventSink {
	return &eventSink{
		publisher: publisher,
		audit:     audit,
	}
}

func (es *eventSink) TurnCompleted(ctx context.Context, rec *engine.TurnRecord) {
	payload := dto.TurnCompletedMessage{
		ConversationId: rec.ConversationID,
		PartyId:        rec.PartyID,
		Intent:         rec.Intent,
		State:          rec.State,
		InputKind:      rec.InputKind,
		InputText:      rec.InputText,
		ReplyText:      rec.ReplyText,
		Slots:          rec.Slots,
		OccurredAt:     time.Now(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal turn record for %s: %v", rec.ConversationID, err)
		return
	}

	if err := es.publisher.Publish(ctx, data); err != nil {
		log.Printf("[ERROR] Failed to publish turn record for %s: %v", rec.ConversationID, err)
	}
}

func (es *eventSink) AccessDenied(ctx context.Context, conversationID string, partyID uuid.UUID, organization string) {
	es.emit(ctx, events.NewAccessDenied(conversationID, partyID.String(), organization))
}

func (es *eventSink) DocumentDelivered(ctx context.Context, conversationID string, partyID uuid.UUID, doc *entity.Document) {
	es.emit(ctx, events.NewDocumentDelivered(conversationID, partyID.String(), doc.Id.String(), doc.OrganizationId.String()))
}

func (es *eventSink) DocumentStored(ctx context.Context, conversationID string, partyID uuid.UUID, doc *entity.Document) {
	es.emit(ctx, events.NewDocumentStored(conversationID, partyID.String(), doc.Id.String(), doc.OrganizationId.String()))
}

func (es *eventSink) emit(ctx context.Context, event events.Event) {
	if es.audit == nil {
		log.Printf("[WARN] Audit publisher unavailable, dropping %s event", event.EventType())
		return
	}
	if err := es.audit.Publish(ctx, event); err != nil {
		log.Printf("[ERROR] Failed to publish %s event: %v", event.EventType(), err)
	}
}
