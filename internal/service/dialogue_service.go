package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"docvault-be/internal/dto"
	"docvault-be/pkg/dialogue/engine"
	"docvault-be/pkg/dialogue/session"
	"docvault-be/pkg/store"

	"github.com/google/uuid"
)

type IDialogueService interface {
	HandleTurn(ctx context.Context, partyId uuid.UUID, req *dto.TurnRequest) (*dto.TurnResponse, error)
	ResetSession(ctx context.Context, conversationId string) (*dto.ResetSessionResponse, error)
}

type dialogueService struct {
	engine *engine.Engine
}

func NewDialogueService(eng *engine.Engine) IDialogueService {
	return &dialogueService{engine: eng}
}

func (ds *dialogueService) HandleTurn(ctx context.Context, partyId uuid.UUID, req *dto.TurnRequest) (*dto.TurnResponse, error) {
	input, err := buildInput(partyId, req)
	if err != nil {
		return nil, err
	}

	reply, err := ds.engine.HandleTurn(ctx, input)
	if err != nil {
		if errors.Is(err, session.ErrBusy) {
			return nil, &dto.SessionConflictError{ConversationId: req.ConversationId}
		}
		log.Printf("[ERROR] Turn failed for conversation %s: %v", req.ConversationId, err)
		return nil, err
	}

	return toTurnResponse(req.ConversationId, reply), nil
}

func (ds *dialogueService) ResetSession(ctx context.Context, conversationId string) (*dto.ResetSessionResponse, error) {
	if err := ds.engine.Cancel(ctx, conversationId); err != nil {
		return nil, err
	}
	return &dto.ResetSessionResponse{ConversationId: conversationId, Cleared: true}, nil
}

func buildInput(partyId uuid.UUID, req *dto.TurnRequest) (store.DialogueInput, error) {
	switch req.Kind {
	case "text":
		return store.FreeText(req.ConversationId, partyId.String(), req.Text), nil
	case "button":
		return store.ButtonSelection(req.ConversationId, partyId.String(), req.Button), nil
	case "attachment":
		if req.Attachment == nil {
			return store.DialogueInput{}, fmt.Errorf("attachment payload is required for attachment turns")
		}
		return store.Attachment(req.ConversationId, partyId.String(), req.Attachment.FileName, req.Attachment.StorageKey), nil
	default:
		return store.DialogueInput{}, fmt.Errorf("unknown turn kind: %s", req.Kind)
	}
}

func toTurnResponse(conversationId string, reply *engine.Reply) *dto.TurnResponse {
	resp := &dto.TurnResponse{
		ConversationId: conversationId,
		State:          reply.State,
		Intent:         reply.Intent,
		Reply:          reply.Text,
		MoreResults:    reply.MoreResults,
		Done:           reply.Done,
	}

	for _, b := range reply.Buttons {
		resp.Buttons = append(resp.Buttons, dto.ButtonDTO{
			Label: b.Label,
			Value: b.Value,
			Row:   b.Row,
		})
	}

	for _, d := range reply.Documents {
		resp.Documents = append(resp.Documents, dto.DocumentResultDTO{
			Id:          d.Document.Id,
			DisplayName: d.Document.DisplayName,
			Category:    d.Document.Category,
			Subtype:     d.Document.Subtype,
			Period:      d.Document.Period,
			Url:         d.URL,
		})
	}

	return resp
}
