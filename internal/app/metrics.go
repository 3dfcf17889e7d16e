package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks ranking and loading performance. All counters are
// atomic so the watch and searcher goroutines can record freely.
type Metrics struct {
	// Search timing
	searchCount   atomic.Uint64
	searchTotalNs atomic.Int64
	searchMinNs   atomic.Int64
	searchMaxNs   atomic.Int64
	lastSearchNs  atomic.Int64

	// Candidate loading
	loadCount      atomic.Uint64
	loadTotalNs    atomic.Int64
	candidateCount atomic.Uint64

	// Watch mode
	reloadCount    atomic.Uint64
	reloadFailures atomic.Uint64

	// Start time for uptime calculation
	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
	}
	// Initialize min to max int64 so first search will be smaller
	m.searchMinNs.Store(1<<63 - 1)
	return m
}

// RecordSearch records one ranking pass.
func (m *Metrics) RecordSearch(duration time.Duration) {
	ns := duration.Nanoseconds()

	m.searchCount.Add(1)
	m.searchTotalNs.Add(ns)
	m.lastSearchNs.Store(ns)

	// Update min (atomic compare-and-swap loop)
	for {
		old := m.searchMinNs.Load()
		if ns >= old {
			break
		}
		if m.searchMinNs.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (atomic compare-and-swap loop)
	for {
		old := m.searchMaxNs.Load()
		if ns <= old {
			break
		}
		if m.searchMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordLoad records a candidate load and the resulting count.
func (m *Metrics) RecordLoad(candidates int, duration time.Duration) {
	m.loadCount.Add(1)
	m.loadTotalNs.Add(duration.Nanoseconds())
	m.candidateCount.Store(uint64(candidates))
}

// RecordReload records a watch-mode reload.
func (m *Metrics) RecordReload() {
	m.reloadCount.Add(1)
}

// RecordReloadFailure records a reload that kept the old candidates.
func (m *Metrics) RecordReloadFailure() {
	m.reloadFailures.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	searchCount := m.searchCount.Load()
	loadCount := m.loadCount.Load()

	var avgSearchNs int64
	if searchCount > 0 {
		avgSearchNs = m.searchTotalNs.Load() / int64(searchCount)
	}

	var avgLoadNs int64
	if loadCount > 0 {
		avgLoadNs = m.loadTotalNs.Load() / int64(loadCount)
	}

	minSearchNs := m.searchMinNs.Load()
	if minSearchNs == 1<<63-1 {
		minSearchNs = 0
	}

	return MetricsSnapshot{
		Uptime:         time.Since(m.startTime),
		SearchCount:    searchCount,
		AvgSearchNs:    avgSearchNs,
		MinSearchNs:    minSearchNs,
		MaxSearchNs:    m.searchMaxNs.Load(),
		LastSearchNs:   m.lastSearchNs.Load(),
		LoadCount:      loadCount,
		AvgLoadNs:      avgLoadNs,
		CandidateCount: m.candidateCount.Load(),
		ReloadCount:    m.reloadCount.Load(),
		ReloadFailures: m.reloadFailures.Load(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.searchCount.Store(0)
	m.searchTotalNs.Store(0)
	m.searchMinNs.Store(1<<63 - 1)
	m.searchMaxNs.Store(0)
	m.lastSearchNs.Store(0)
	m.loadCount.Store(0)
	m.loadTotalNs.Store(0)
	m.candidateCount.Store(0)
	m.reloadCount.Store(0)
	m.reloadFailures.Store(0)
	m.startTime = time.Now()
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime         time.Duration
	SearchCount    uint64
	AvgSearchNs    int64
	MinSearchNs    int64
	MaxSearchNs    int64
	LastSearchNs   int64
	LoadCount      uint64
	AvgLoadNs      int64
	CandidateCount uint64
	ReloadCount    uint64
	ReloadFailures uint64
}

// AvgSearchMs returns the average ranking pass in milliseconds.
func (s MetricsSnapshot) AvgSearchMs() float64 {
	return float64(s.AvgSearchNs) / 1e6
}

// LastSearchMs returns the most recent ranking pass in milliseconds.
func (s MetricsSnapshot) LastSearchMs() float64 {
	return float64(s.LastSearchNs) / 1e6
}

// ReloadFailureRate returns the percentage of reloads that failed.
func (s MetricsSnapshot) ReloadFailureRate() float64 {
	total := s.ReloadCount + s.ReloadFailures
	if total == 0 {
		return 0
	}
	return float64(s.ReloadFailures) / float64(total) * 100
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ElapsedMs returns the elapsed time in milliseconds.
func (t *Timer) ElapsedMs() float64 {
	return float64(t.Elapsed().Nanoseconds()) / 1e6
}

// Stop returns the elapsed time and resets the timer.
func (t *Timer) Stop() time.Duration {
	elapsed := t.Elapsed()
	t.start = time.Now()
	return elapsed
}
