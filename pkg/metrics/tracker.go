package metrics

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultRecentWindow = 10

// Tracker records per-phase latency samples and exposes both
// programmatic aggregate stats and a prometheus gauge surface. One
// RWMutex guards the sample slices of every phase.
type Tracker struct {
	mu           sync.RWMutex
	samples      map[Phase][]PhaseSample
	recentWindow int

	registry  prometheus.Registerer
	gauges    map[Phase]prometheus.Gauge
}

// NewTracker constructs a Tracker. If registry is non-nil, one gauge
// per phase is registered reporting that phase's current average
// latency in milliseconds.
func NewTracker(registry prometheus.Registerer, recentWindow int) *Tracker {
	if recentWindow <= 0 {
		recentWindow = defaultRecentWindow
	}
	t := &Tracker{
		samples:      make(map[Phase][]PhaseSample),
		recentWindow: recentWindow,
		registry:     registry,
		gauges:       make(map[Phase]prometheus.Gauge),
	}
	if registry != nil {
		for _, p := range AllPhases {
			g := prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "neuro",
				Subsystem: "pipeline",
				Name:      string(p) + "_avg_latency_ms",
				Help:      "Average recorded latency in milliseconds for the " + string(p) + " phase.",
			})
			_ = registry.Register(g) // a duplicate registration is a caller bug, not a runtime failure path
			t.gauges[p] = g
		}
	}
	return t
}

// Record appends one latency observation for phase and refreshes its
// exported gauge, if registered.
func (t *Tracker) Record(phase Phase, sample PhaseSample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples[phase] = append(t.samples[phase], sample)

	if g, ok := t.gauges[phase]; ok {
		g.Set(average(durationsOf(t.samples[phase])))
	}
}

// Stats computes the aggregate view for phase over every sample
// recorded so far.
func (t *Tracker) Stats(phase Phase) PhaseStats {
	t.mu.RLock()
	samples := append([]PhaseSample(nil), t.samples[phase]...)
	t.mu.RUnlock()

	return computeStats(phase, samples, t.recentWindow)
}

// AllStats returns the aggregate view for every tracked phase, in
// AllPhases order.
func (t *Tracker) AllStats() []PhaseStats {
	out := make([]PhaseStats, 0, len(AllPhases))
	for _, p := range AllPhases {
		out = append(out, t.Stats(p))
	}
	return out
}

func computeStats(phase Phase, samples []PhaseSample, recentWindow int) PhaseStats {
	if len(samples) == 0 {
		return PhaseStats{Phase: phase, Trend: TrendStable}
	}

	durations := durationsOf(samples)
	sorted := append([]float64(nil), durations...)
	sort.Float64s(sorted)

	stats := PhaseStats{
		Phase: phase,
		Count: len(durations),
		AvgMs: average(durations),
		MinMs: sorted[0],
		MaxMs: sorted[len(sorted)-1],
		P50Ms: percentile(sorted, 50),
		P95Ms: percentile(sorted, 95),
		P99Ms: percentile(sorted, 99),
	}

	recent := durations
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	stats.Recent10AvgMs = average(recent)
	stats.Trend = trendOf(stats.AvgMs, stats.Recent10AvgMs)

	return stats
}

// trendOf compares the recent-window average against the all-time
// average with a 5% deadband to avoid flapping between improving and
// degrading on noise alone.
func trendOf(allTimeAvg, recentAvg float64) Trend {
	if allTimeAvg == 0 {
		return TrendStable
	}
	delta := (recentAvg - allTimeAvg) / allTimeAvg
	switch {
	case delta <= -0.05:
		return TrendImproving
	case delta >= 0.05:
		return TrendDegrading
	default:
		return TrendStable
	}
}

// percentile interpolates linearly between the two closest ranks of an
// already-sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func durationsOf(samples []PhaseSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.DurationMs
	}
	return out
}
