// Package ratelimit guards the paid translation APIs with a per-backend
// daily request budget. An exhausted backend is skipped by the chain and
// the next fallback takes over.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// Budget tracks per-backend request counts against a shared daily cap.
type Budget struct {
	mu        sync.Mutex
	counts    map[string]int
	maxPerDay int // 0 means unlimited
	resetTime time.Time
}

func NewBudget(maxPerDay int) *Budget {
	return &Budget{
		counts:    make(map[string]int),
		maxPerDay: maxPerDay,
		resetTime: time.Now().Add(24 * time.Hour),
	}
}

// Allow reports whether the backend still has budget today and, if so,
// consumes one request from it.
func (b *Budget) Allow(backend string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	if b.maxPerDay > 0 && b.counts[backend] >= b.maxPerDay {
		slog.Warn("translation backend budget exhausted",
			"backend", backend, "used", b.counts[backend], "limit", b.maxPerDay)
		return false
	}

	b.counts[backend]++
	return true
}

// Used returns today's request count for a backend.
func (b *Budget) Used(backend string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	return b.counts[backend]
}

// checkReset clears all counters once the daily window rolls over.
// Caller holds the lock.
func (b *Budget) checkReset() {
	if time.Now().After(b.resetTime) {
		b.counts = make(map[string]int)
		b.resetTime = time.Now().Add(24 * time.Hour)
	}
}
