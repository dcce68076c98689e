package store

import (
	"context"
	"sync"
	"time"
)

// RateLimitMemoryStore is a process-local implementation of ratelimit.Store
// keeping a sliding window of request timestamps per key.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewRateLimitMemoryStore creates an empty in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		windows: make(map[string][]time.Time),
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-window)

	kept := s.windows[key][:0]

	for _, ts := range s.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	kept = append(kept, now)
	s.windows[key] = kept

	return int64(len(kept)), nil
}

// Sweep removes keys whose most recent request is older than the given
// window, so idle clients do not accumulate. Callers that keep a long-lived
// store can run it periodically.
func (s *RateLimitMemoryStore) Sweep(window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-window)

	for key, timestamps := range s.windows {
		if len(timestamps) == 0 || !timestamps[len(timestamps)-1].After(cutoff) {
			delete(s.windows, key)
		}
	}
}
