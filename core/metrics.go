package core

import (
	"sync"
	"time"
)

// Metrics maintains the engine's counters and an incrementally updated
// running average of successful execution time.
type Metrics struct {
	mu sync.Mutex

	totalProcessed int64
	successful     int64
	failed         int64
	retried        int64

	avgExecution time.Duration
}

// NewMetrics creates an empty metrics collector
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordSuccess counts a completed job and folds its duration into the
// running average.
func (m *Metrics) RecordSuccess(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalProcessed++
	m.successful++
	m.avgExecution += (duration - m.avgExecution) / time.Duration(m.successful)
}

// RecordFailure counts a permanently failed job
func (m *Metrics) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalProcessed++
	m.failed++
}

// RecordRetry counts a retry attempt
func (m *Metrics) RecordRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.retried++
}

// Snapshot returns a copy of all counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MetricsSnapshot{
		TotalProcessed:   m.totalProcessed,
		Successful:       m.successful,
		Failed:           m.failed,
		Retried:          m.retried,
		AvgExecutionTime: m.avgExecution,
	}
}
