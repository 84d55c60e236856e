package orchestrator

import (
	"sync"
	"time"
)

// SlidingWindowLimiter tracks call timestamps per source inside a rolling
// window. Unlike a token bucket it never waits: a saturated source is simply
// skipped so the failover chain can move on.
type SlidingWindowLimiter struct {
	mu     sync.Mutex
	events map[string][]time.Time
	now    func() time.Time
}

// NewSlidingWindowLimiter creates an empty limiter
func NewSlidingWindowLimiter() *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records a call against the source and reports whether it fit inside
// the window. Timestamps older than the window are purged on every check.
func (l *SlidingWindowLimiter) Allow(source string, maxPerWindow int, window time.Duration) bool {
	if maxPerWindow <= 0 || window <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-window)

	recent := l.events[source][:0]
	for _, ts := range l.events[source] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= maxPerWindow {
		l.events[source] = recent
		return false
	}

	l.events[source] = append(recent, now)
	return true
}
