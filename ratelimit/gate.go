package ratelimit

import (
	"context"
	"fmt"
	"time"

	"civica/models"
)

// Gate is the admission check used by handlers. Counters are keyed by
// (subject, action) so one user's appeal spam cannot exhaust another
// action's budget.
type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Key builds the counter key for a subject/action pair.
func Key(subjectID uint, action string) string {
	return fmt.Sprintf("%s:user:%d", action, subjectID)
}

// Check admits the call for an authenticated subject or returns a
// RATE_LIMITED error.
func (g *Gate) Check(ctx context.Context, subjectID uint, action string, limit int, window time.Duration) error {
	return g.CheckKey(ctx, Key(subjectID, action), limit, window)
}

// CheckKey admits the call for an arbitrary counter key or returns a
// RATE_LIMITED error carrying retry_after in whole seconds (rounded down,
// floored at zero).
func (g *Gate) CheckKey(ctx context.Context, key string, limit int, window time.Duration) error {
	res, err := g.store.Allow(ctx, key, limit, window)
	if err != nil {
		return err
	}
	if !res.Allowed {
		retryAfter := int(res.RetryAfter.Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		return models.NewRateLimitError(retryAfter)
	}
	return nil
}
