// Package ratelimit bounds how many grant requests a single requester key may
// issue inside a rolling time window.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window rate limiter. Per key it keeps the admission
// timestamps inside the trailing window and prunes lazily on access. One mutex
// guards the whole map; no lock is ever held across a network call, so
// contention at this request volume is not a concern.
//
// The key set is unbounded. Key eviction for memory bounding is an open
// hardening item, not current behavior.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	hits   map[string][]time.Time
}

// New builds a limiter admitting at most limit requests per key per window.
func New(limit int, window time.Duration) *Limiter {
	return NewWithNow(limit, window, time.Now)
}

// NewWithNow injects the time source for deterministic tests.
func NewWithNow(limit int, window time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		limit:  limit,
		window: window,
		now:    now,
		hits:   make(map[string][]time.Time),
	}
}

// Admit reports whether the key may proceed, recording the admission when it
// does. Denied calls record nothing. After pruning, the retained timestamp
// count for a key never exceeds the limit.
func (l *Limiter) Admit(key string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.hits[key][:0]
	for _, ts := range l.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.hits[key] = kept
		return false
	}

	l.hits[key] = append(kept, now)
	return true
}
