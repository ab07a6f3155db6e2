package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/regsplit/internal/manifest"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// LatencySnapshot aggregates request latencies inside the rolling window.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// StatsSnapshot is a point-in-time copy of pipeline counters. Counters are
// totals since process start; latency covers the rolling window only.
type StatsSnapshot struct {
	Requests      int64           `json:"requests"`
	Failures      int64           `json:"failures"`
	Groups        int64           `json:"groups"`
	PagesRendered int64           `json:"pages_rendered"`
	OrphanPages   int64           `json:"orphan_pages"`
	Latency       LatencySnapshot `json:"latency"`
}

// Stats tracks split request outcomes and recent latencies.
type Stats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration

	requests      int64
	failures      int64
	groups        int64
	pagesRendered int64
	orphanPages   int64
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds one finished request. m is nil on failure.
func (s *Stats) Record(d time.Duration, m *manifest.Manifest, pagesRendered int64, err error) {
	durationMs := d.Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests++
	s.pagesRendered += pagesRendered
	if err != nil {
		s.failures++
	}
	if m != nil {
		s.groups += int64(m.TotalStudents)
		s.orphanPages += int64(len(m.OrphanPages))
	}

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp:  now,
		durationMs: durationMs,
	})
}

func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	snap := StatsSnapshot{
		Requests:      s.requests,
		Failures:      s.failures,
		Groups:        s.groups,
		PagesRendered: s.pagesRendered,
		OrphanPages:   s.orphanPages,
	}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Latency = LatencySnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
