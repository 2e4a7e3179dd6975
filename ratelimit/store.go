// Package ratelimit implements the sliding-window admission gate guarding
// abusable actions such as appeal submission and audit exports.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of an admission check.
type Result struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until the oldest counted timestamp leaves the
	// window. Zero when the call was admitted.
	RetryAfter time.Duration
}

// Store counts admissions per key over a sliding window. The in-memory
// implementation is process-local; multi-instance deployments swap in the
// Redis store behind the same interface.
type Store interface {
	// Allow admits the call and records its timestamp, or rejects it when
	// the count of timestamps within the trailing window has reached limit.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
	// Reset clears the counter for a key.
	Reset(ctx context.Context, key string) error
}
