package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with an in-process sliding window per key.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow checks the sliding window for key and records the call if admitted.
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	timestamps := prune(s.windows[key], now.Add(-window))

	if len(timestamps) >= limit {
		s.windows[key] = timestamps
		retryAfter := timestamps[0].Add(window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return &Result{Allowed: false, RetryAfter: retryAfter}, nil
	}

	timestamps = append(timestamps, now)
	s.windows[key] = timestamps
	return &Result{Allowed: true, Remaining: limit - len(timestamps)}, nil
}

// Reset clears the counter for a key.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// prune drops timestamps at or before the cutoff. Timestamps are appended
// in order, so the slice stays sorted.
func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(timestamps); i++ {
		if timestamps[i].After(cutoff) {
			break
		}
	}
	return timestamps[i:]
}
