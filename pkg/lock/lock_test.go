package lock_test

import (
	"context"
	"testing"
	"time"

	"docvault-be/pkg/lock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerExclusive(t *testing.T) {
	l := lock.NewLocalLocker()
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, "conv-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.Acquire(ctx, "conv-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// A different conversation is unaffected.
	release2, ok, err := l.Acquire(ctx, "conv-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	release2()

	release()

	_, ok, err = l.Acquire(ctx, "conv-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLockerExpiredLockReacquirable(t *testing.T) {
	l := lock.NewLocalLocker()
	ctx := context.Background()

	_, ok, err := l.Acquire(ctx, "conv-1", time.Nanosecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	_, ok, err = l.Acquire(ctx, "conv-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
