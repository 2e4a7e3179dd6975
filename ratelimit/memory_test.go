package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(start time.Time) (*MemoryStore, *time.Time) {
	current := start
	store := NewMemoryStore()
	store.now = func() time.Time { return current }
	return store, &current
}

func TestMemoryStoreAdmitsUpToLimit(t *testing.T) {
	store, _ := newTestStore(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		res, err := store.Allow(context.Background(), "submit_appeal:user:1", 5, time.Hour)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "call %d should be admitted", i+1)
		assert.Equal(t, 5-(i+1), res.Remaining)
	}

	res, err := store.Allow(context.Background(), "submit_appeal:user:1", 5, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestMemoryStoreWindowSlides(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store, current := newTestStore(start)

	for i := 0; i < 5; i++ {
		res, err := store.Allow(context.Background(), "k", 5, time.Hour)
		require.NoError(t, err)
		require.True(t, res.Allowed)
		*current = current.Add(time.Minute)
	}

	res, err := store.Allow(context.Background(), "k", 5, time.Hour)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	// Calls landed at t, t+1m ... t+4m, so the oldest leaves the window
	// 55 minutes after the loop finishes.
	assert.Equal(t, 55*time.Minute, res.RetryAfter)

	// Once the oldest call ages out, one slot opens up.
	*current = start.Add(time.Hour + time.Second)
	res, err = store.Allow(context.Background(), "k", 5, time.Hour)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = store.Allow(context.Background(), "k", 5, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	store, _ := newTestStore(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	res, err := store.Allow(context.Background(), "a", 1, time.Hour)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = store.Allow(context.Background(), "a", 1, time.Hour)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	res, err = store.Allow(context.Background(), "b", 1, time.Hour)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryStoreReset(t *testing.T) {
	store, _ := newTestStore(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	res, err := store.Allow(context.Background(), "k", 1, time.Hour)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	require.NoError(t, store.Reset(context.Background(), "k"))

	res, err = store.Allow(context.Background(), "k", 1, time.Hour)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
