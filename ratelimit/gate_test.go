package ratelimit

import (
	"context"
	"testing"
	"time"

	"civica/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateReturnsRateLimitError(t *testing.T) {
	store, _ := newTestStore(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	gate := NewGate(store)

	for i := 0; i < 3; i++ {
		require.NoError(t, gate.Check(context.Background(), 7, "submit_appeal", 3, time.Hour))
	}

	err := gate.Check(context.Background(), 7, "submit_appeal", 3, time.Hour)
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T", err)
	assert.Equal(t, "RATE_LIMITED", appErr.Code)
	assert.Equal(t, 3600, appErr.RetryAfter)
}

func TestGateScopesCountersBySubjectAndAction(t *testing.T) {
	store, _ := newTestStore(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	gate := NewGate(store)

	require.NoError(t, gate.Check(context.Background(), 1, "submit_appeal", 1, time.Hour))
	require.Error(t, gate.Check(context.Background(), 1, "submit_appeal", 1, time.Hour))

	// A different subject and a different action are unaffected.
	assert.NoError(t, gate.Check(context.Background(), 2, "submit_appeal", 1, time.Hour))
	assert.NoError(t, gate.Check(context.Background(), 1, "audit_export", 1, time.Hour))
}

func TestKeyFormat(t *testing.T) {
	assert.Equal(t, "submit_appeal:user:42", Key(42, "submit_appeal"))
}
