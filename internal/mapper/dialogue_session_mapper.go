package mapper

import (
	"encoding/json"
	"time"

	"docvault-be/internal/entity"
	"docvault-be/internal/model"
	"docvault-be/pkg/store"
)

type DialogueSessionMapper struct{}

func NewDialogueSessionMapper() *DialogueSessionMapper {
	return &DialogueSessionMapper{}
}

func (m *DialogueSessionMapper) ToEntity(s *model.DialogueSession) (*entity.DialogueSession, error) {
	if s == nil {
		return nil, nil
	}

	slots := make(map[store.SlotName]store.SlotValue)
	if len(s.Slots) > 0 {
		if err := json.Unmarshal(s.Slots, &slots); err != nil {
			return nil, err
		}
	}

	data := make(map[string]string)
	if len(s.Data) > 0 {
		if err := json.Unmarshal(s.Data, &data); err != nil {
			return nil, err
		}
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.DialogueSession{
		Id:             s.Id,
		ConversationId: s.ConversationId,
		PartyId:        s.PartyId,
		Intent:         s.Intent,
		State:          s.State,
		Slots:          slots,
		Data:           data,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      updatedAt,
		ExpiresAt:      s.ExpiresAt,
	}, nil
}

func (m *DialogueSessionMapper) ToModel(s *entity.DialogueSession) (*model.DialogueSession, error) {
	if s == nil {
		return nil, nil
	}

	slots, err := json.Marshal(s.Slots)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(s.Data)
	if err != nil {
		return nil, err
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.DialogueSession{
		Id:             s.Id,
		ConversationId: s.ConversationId,
		PartyId:        s.PartyId,
		Intent:         s.Intent,
		State:          s.State,
		Slots:          slots,
		Data:           data,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      updatedAt,
		ExpiresAt:      s.ExpiresAt,
	}, nil
}

func (m *DialogueSessionMapper) LogToModel(l *entity.ConversationLog) (*model.ConversationLog, error) {
	if l == nil {
		return nil, nil
	}

	slots, err := json.Marshal(l.Slots)
	if err != nil {
		return nil, err
	}

	return &model.ConversationLog{
		Id:             l.Id,
		ConversationId: l.ConversationId,
		PartyId:        l.PartyId,
		Intent:         l.Intent,
		State:          l.State,
		InputKind:      l.InputKind,
		InputText:      l.InputText,
		ReplyText:      l.ReplyText,
		Slots:          slots,
		CreatedAt:      l.CreatedAt,
	}, nil
}

func (m *DialogueSessionMapper) LogToEntity(l *model.ConversationLog) (*entity.ConversationLog, error) {
	if l == nil {
		return nil, nil
	}

	slots := make(map[store.SlotName]store.SlotValue)
	if len(l.Slots) > 0 {
		if err := json.Unmarshal(l.Slots, &slots); err != nil {
			return nil, err
		}
	}

	return &entity.ConversationLog{
		Id:             l.Id,
		ConversationId: l.ConversationId,
		PartyId:        l.PartyId,
		Intent:         l.Intent,
		State:          l.State,
		InputKind:      l.InputKind,
		InputText:      l.InputText,
		ReplyText:      l.ReplyText,
		Slots:          slots,
		CreatedAt:      l.CreatedAt,
	}, nil
}
