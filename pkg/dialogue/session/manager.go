// Package session persists dialogue state between turns. One row per
// conversation, sliding TTL, expiry handled lazily on read. Writes run
// under a per-conversation lock so concurrent turns cannot clobber slots.
package session

import (
	"context"
	"errors"
	"log"
	"time"

	"docvault-be/internal/entity"
	"docvault-be/internal/repository/contract"
	"docvault-be/internal/repository/specification"
	"docvault-be/pkg/lock"
	"docvault-be/pkg/store"

	"github.com/google/uuid"
)

// ErrBusy means another turn holds the conversation's merge lock.
var ErrBusy = errors.New("conversation is busy")

const (
	lockTTL       = 10 * time.Second
	lockAttempts  = 3
	lockRetryWait = 50 * time.Millisecond
)

// Patch is a shallow merge applied to a session: listed slot and data keys
// overwrite, everything else survives. Empty State/Intent leave the current
// value in place.
type Patch struct {
	Intent    string
	State     string
	Slots     map[store.SlotName]store.SlotValue
	Data      map[string]string
	DropSlots []store.SlotName
	DropData  []string
}

// Manager handles session lifecycle over the repository.
type Manager struct {
	repo   contract.DialogueSessionRepository
	locker lock.Locker
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time
}

type Option func(*Manager)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(repo contract.DialogueSessionRepository, locker lock.Locker, ttl time.Duration, logger *log.Logger, opts ...Option) *Manager {
	m := &Manager{
		repo:   repo,
		locker: locker,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the live session of a conversation, or nil. An expired row is
// deleted on sight and reported as absent. A successful read slides the TTL
// so a conversation stays alive as long as turns keep arriving, even when a
// turn never reaches a merge.
func (m *Manager) Get(ctx context.Context, conversationID string) (*entity.DialogueSession, error) {
	release, err := m.acquire(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer release()

	s, err := m.fetch(ctx, conversationID)
	if err != nil || s == nil {
		return nil, err
	}

	s.ExpiresAt = m.now().Add(m.ttl)
	if err := m.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// fetch reads the row and drops it if expired. Callers hold the lock when
// they intend to write back.
func (m *Manager) fetch(ctx context.Context, conversationID string) (*entity.DialogueSession, error) {
	s, err := m.repo.FindOne(ctx, specification.ByConversationID{ConversationID: conversationID})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	if s.Expired(m.now()) {
		if err := m.repo.DeleteByConversationId(ctx, conversationID); err != nil {
			m.logger.Printf("[WARN] failed to drop expired session %s: %v", conversationID, err)
		}
		return nil, nil
	}
	return s, nil
}

// Create starts a fresh session in the collecting state.
func (m *Manager) Create(ctx context.Context, conversationID string, partyID uuid.UUID, intent string) (*entity.DialogueSession, error) {
	now := m.now()
	s := &entity.DialogueSession{
		ConversationId: conversationID,
		PartyId:        partyID,
		Intent:         intent,
		State:          store.StateCollecting,
		Slots:          make(map[store.SlotName]store.SlotValue),
		Data:           make(map[string]string),
		CreatedAt:      now,
		ExpiresAt:      now.Add(m.ttl),
	}
	if err := m.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// MergeUpdate applies a patch atomically and slides the TTL. The merge is
// read-modify-write under the conversation lock; a conversation mid-turn
// elsewhere yields ErrBusy instead of waiting indefinitely.
func (m *Manager) MergeUpdate(ctx context.Context, conversationID string, patch Patch) (*entity.DialogueSession, error) {
	release, err := m.acquire(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer release()

	s, err := m.fetch(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}

	if patch.Intent != "" {
		s.Intent = patch.Intent
	}
	if patch.State != "" {
		s.State = patch.State
	}
	if s.Slots == nil {
		s.Slots = make(map[store.SlotName]store.SlotValue)
	}
	for k, v := range patch.Slots {
		s.Slots[k] = v
	}
	for _, k := range patch.DropSlots {
		delete(s.Slots, k)
	}
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	for k, v := range patch.Data {
		s.Data[k] = v
	}
	for _, k := range patch.DropData {
		delete(s.Data, k)
	}

	s.ExpiresAt = m.now().Add(m.ttl)

	if err := m.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Clear removes the conversation's session. Clearing a conversation with
// no session is a no-op.
func (m *Manager) Clear(ctx context.Context, conversationID string) error {
	return m.repo.DeleteByConversationId(ctx, conversationID)
}

// SweepExpired hard-deletes every expired row. Expiry is already lazy on
// read; the sweep only keeps the table from accumulating dead rows.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpiredBefore(ctx, m.now())
}

func (m *Manager) acquire(ctx context.Context, conversationID string) (func(), error) {
	for attempt := 0; attempt < lockAttempts; attempt++ {
		release, ok, err := m.locker.Acquire(ctx, conversationID, lockTTL)
		if err != nil {
			return nil, err
		}
		if ok {
			return release, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryWait):
		}
	}
	return nil, ErrBusy
}
