// Package metrics keeps in-process counters for the monitoring endpoints.
package metrics

import (
	"sync"
	"time"
)

// CycleStats summarizes one pipeline run.
type CycleStats struct {
	Fetched   int
	Filtered  int
	Published int
	Failed    int
}

// Metrics accumulates totals across cycles plus the most recent cycle's
// outcome. Safe for concurrent use.
type Metrics struct {
	mu sync.RWMutex

	startedAt      time.Time
	cyclesRun      int
	cyclesSkipped  int
	totalFetched   int
	totalPublished int
	totalFailed    int

	lastCycle    CycleStats
	lastRun      time.Time
	lastDuration time.Duration
	lastError    string
}

func New() *Metrics {
	return &Metrics{startedAt: time.Now()}
}

// RecordCycle stores one completed cycle's stats. errMsg is empty for a
// clean cycle.
func (m *Metrics) RecordCycle(stats CycleStats, duration time.Duration, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cyclesRun++
	m.totalFetched += stats.Fetched
	m.totalPublished += stats.Published
	m.totalFailed += stats.Failed
	m.lastCycle = stats
	m.lastRun = time.Now()
	m.lastDuration = duration
	m.lastError = errMsg
}

// RecordSkip counts a tick dropped because the previous cycle still ran.
func (m *Metrics) RecordSkip() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cyclesSkipped++
}

// Snapshot returns the counters as a flat map for JSON rendering.
func (m *Metrics) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := map[string]any{
		"uptime_seconds":  int(time.Since(m.startedAt).Seconds()),
		"cycles_run":      m.cyclesRun,
		"cycles_skipped":  m.cyclesSkipped,
		"total_fetched":   m.totalFetched,
		"total_published": m.totalPublished,
		"total_failed":    m.totalFailed,
		"last_cycle": map[string]int{
			"fetched":   m.lastCycle.Fetched,
			"filtered":  m.lastCycle.Filtered,
			"published": m.lastCycle.Published,
			"failed":    m.lastCycle.Failed,
		},
		"last_duration_seconds": m.lastDuration.Seconds(),
	}
	if !m.lastRun.IsZero() {
		snap["last_run"] = m.lastRun.Format(time.RFC3339)
	}
	if m.lastError != "" {
		snap["last_error"] = m.lastError
	}
	return snap
}

// Healthy reports whether the last cycle finished without a pipeline
// error. A process that has not completed a cycle yet is healthy.
func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError == ""
}
