// Package memory holds in-process repository implementations used by tests
// and single-node setups that do not want the database on the hot path.
package memory

import (
	"context"
	"sync"
	"time"

	"docvault-be/internal/entity"
	"docvault-be/internal/repository/contract"
	"docvault-be/internal/repository/specification"
	"docvault-be/pkg/store"

	"github.com/google/uuid"
)

// DialogueSessionRepository keeps session rows in a map keyed by
// conversation id.
type DialogueSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.DialogueSession
}

func NewDialogueSessionRepository() contract.DialogueSessionRepository {
	return &DialogueSessionRepository{
		sessions: make(map[string]*entity.DialogueSession),
	}
}

func (r *DialogueSessionRepository) Create(ctx context.Context, session *entity.DialogueSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	cp := clone(session)
	r.sessions[session.ConversationId] = cp
	return nil
}

func (r *DialogueSessionRepository) Update(ctx context.Context, session *entity.DialogueSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ConversationId] = clone(session)
	return nil
}

func (r *DialogueSessionRepository) DeleteByConversationId(ctx context.Context, conversationId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, conversationId)
	return nil
}

func (r *DialogueSessionRepository) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// FindOne only understands the conversation-id and expiry specifications,
// which is all the session manager uses.
func (r *DialogueSessionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DialogueSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, spec := range specs {
		if byConv, ok := spec.(specification.ByConversationID); ok {
			s, found := r.sessions[byConv.ConversationID]
			if !found {
				return nil, nil
			}
			return clone(s), nil
		}
	}
	return nil, nil
}

func clone(s *entity.DialogueSession) *entity.DialogueSession {
	cp := *s
	cp.Slots = make(map[store.SlotName]store.SlotValue, len(s.Slots))
	for k, v := range s.Slots {
		cp.Slots[k] = v
	}
	cp.Data = make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		cp.Data[k] = v
	}
	return &cp
}
