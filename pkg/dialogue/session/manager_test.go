package session_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"docvault-be/internal/repository/memory"
	"docvault-be/pkg/dialogue/session"
	"docvault-be/pkg/lock"
	"docvault-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time {
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newManager(clock *testClock) *session.Manager {
	return session.NewManager(
		memory.NewDialogueSessionRepository(),
		lock.NewLocalLocker(),
		time.Hour,
		log.New(io.Discard, "", 0),
		session.WithClock(clock.Now),
	)
}

func TestGetMissingSession(t *testing.T) {
	m := newManager(&testClock{t: time.Now()})
	s, err := m.Get(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestCreateAndGet(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)}
	m := newManager(clock)
	ctx := context.Background()

	created, err := m.Create(ctx, "conv-1", uuid.New(), store.IntentDownload)
	require.NoError(t, err)
	assert.Equal(t, store.StateCollecting, created.State)
	assert.Equal(t, clock.t.Add(time.Hour), created.ExpiresAt)

	got, err := m.Get(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, store.IntentDownload, got.Intent)
}

func TestLazyExpiry(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)}
	m := newManager(clock)
	ctx := context.Background()

	_, err := m.Create(ctx, "conv-1", uuid.New(), store.IntentDownload)
	require.NoError(t, err)

	clock.Advance(time.Hour + time.Minute)

	got, err := m.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetSlidesTTL(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)}
	m := newManager(clock)
	ctx := context.Background()

	_, err := m.Create(ctx, "conv-1", uuid.New(), store.IntentDownload)
	require.NoError(t, err)

	// A conversation that only reads must stay alive as long as reads
	// keep landing inside the window.
	clock.Advance(50 * time.Minute)
	got, err := m.Get(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, clock.t.Add(time.Hour), got.ExpiresAt)

	clock.Advance(50 * time.Minute)
	got, err = m.Get(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestMergeUpdateShallowMerge(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)}
	m := newManager(clock)
	ctx := context.Background()

	_, err := m.Create(ctx, "conv-1", uuid.New(), store.IntentDownload)
	require.NoError(t, err)

	_, err = m.MergeUpdate(ctx, "conv-1", session.Patch{
		Slots: map[store.SlotName]store.SlotValue{
			store.SlotCategory: {Value: "financiero", Confidence: 0.9, Source: store.SourceExtracted},
		},
	})
	require.NoError(t, err)

	// A later patch for a different slot must not disturb the first.
	updated, err := m.MergeUpdate(ctx, "conv-1", session.Patch{
		State: store.StateAskingPeriod,
		Slots: map[store.SlotName]store.SlotValue{
			store.SlotSubtype: {Value: "f29", Confidence: 1, Source: store.SourceUserConfirmed},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, store.StateAskingPeriod, updated.State)
	assert.Equal(t, "financiero", updated.Slots[store.SlotCategory].Value)
	assert.Equal(t, "f29", updated.Slots[store.SlotSubtype].Value)
}

func TestMergeUpdateSlidesTTL(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)}
	m := newManager(clock)
	ctx := context.Background()

	_, err := m.Create(ctx, "conv-1", uuid.New(), store.IntentDownload)
	require.NoError(t, err)

	clock.Advance(50 * time.Minute)

	updated, err := m.MergeUpdate(ctx, "conv-1", session.Patch{State: store.StateAskingPeriod})
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(time.Hour), updated.ExpiresAt)

	// Would have expired under the original deadline.
	clock.Advance(40 * time.Minute)
	got, err := m.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestMergeUpdateMissingSession(t *testing.T) {
	m := newManager(&testClock{t: time.Now()})
	s, err := m.MergeUpdate(context.Background(), "nope", session.Patch{State: store.StateReady})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestMergeUpdateDropKeys(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)}
	m := newManager(clock)
	ctx := context.Background()

	_, err := m.Create(ctx, "conv-1", uuid.New(), store.IntentDownload)
	require.NoError(t, err)

	_, err = m.MergeUpdate(ctx, "conv-1", session.Patch{
		Slots: map[store.SlotName]store.SlotValue{
			store.SlotPeriod: {Value: "2026-07", Confidence: 0.6, Source: store.SourceDeterministic},
		},
		Data: map[string]string{"proposed_period": "2026-07"},
	})
	require.NoError(t, err)

	updated, err := m.MergeUpdate(ctx, "conv-1", session.Patch{
		DropSlots: []store.SlotName{store.SlotPeriod},
		DropData:  []string{"proposed_period"},
	})
	require.NoError(t, err)

	_, hasPeriod := updated.Slots[store.SlotPeriod]
	assert.False(t, hasPeriod)
	_, hasProposed := updated.Data["proposed_period"]
	assert.False(t, hasProposed)
}

func TestClear(t *testing.T) {
	clock := &testClock{t: time.Now()}
	m := newManager(clock)
	ctx := context.Background()

	_, err := m.Create(ctx, "conv-1", uuid.New(), store.IntentDownload)
	require.NoError(t, err)
	require.NoError(t, m.Clear(ctx, "conv-1"))

	got, err := m.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Clearing again is fine.
	assert.NoError(t, m.Clear(ctx, "conv-1"))
}

func TestSweepExpired(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)}
	m := newManager(clock)
	ctx := context.Background()

	_, err := m.Create(ctx, "old", uuid.New(), store.IntentDownload)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	_, err = m.Create(ctx, "fresh", uuid.New(), store.IntentUpload)
	require.NoError(t, err)

	n, err := m.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	fresh, err := m.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}
