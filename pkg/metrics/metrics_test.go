package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Muhammed5500/neuro-core/pkg/config"
)

func TestTrackerRecordComputesAggregateStats(t *testing.T) {
	tr := NewTracker(nil, 0)
	now := time.Now()

	durations := []float64{100, 120, 90, 500, 110, 105, 95, 130, 98, 102, 100, 101}
	for i, d := range durations {
		tr.Record(PhaseConsensus, PhaseSample{RunID: "run", DurationMs: d, RecordedAt: now.Add(time.Duration(i) * time.Second)})
	}

	stats := tr.Stats(PhaseConsensus)
	require.Equal(t, len(durations), stats.Count)
	require.Equal(t, 90.0, stats.MinMs)
	require.Equal(t, 500.0, stats.MaxMs)
	require.Greater(t, stats.P99Ms, stats.P50Ms)
	require.Greater(t, stats.AvgMs, 0.0)
}

func TestTrackerStatsEmptyPhaseReturnsZeroValue(t *testing.T) {
	tr := NewTracker(nil, 0)
	stats := tr.Stats(PhaseFinality)
	require.Equal(t, 0, stats.Count)
	require.Equal(t, TrendStable, stats.Trend)
}

func TestTrackerTrendDetectsDegradation(t *testing.T) {
	tr := NewTracker(nil, 5)
	now := time.Now()
	for i := 0; i < 20; i++ {
		tr.Record(PhaseExecution, PhaseSample{DurationMs: 100, RecordedAt: now})
	}
	for i := 0; i < 5; i++ {
		tr.Record(PhaseExecution, PhaseSample{DurationMs: 300, RecordedAt: now})
	}

	stats := tr.Stats(PhaseExecution)
	require.Equal(t, TrendDegrading, stats.Trend)
}

func TestTrackerRegistersPrometheusGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	tr := NewTracker(reg, 0)
	tr.Record(PhaseIngestion, PhaseSample{DurationMs: 42})

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, metricFamilies)
}

func TestAllStatsReturnsEveryPhaseInOrder(t *testing.T) {
	tr := NewTracker(nil, 0)
	all := tr.AllStats()
	require.Len(t, all, len(AllPhases))
	for i, p := range AllPhases {
		require.Equal(t, p, all[i].Phase)
	}
}

func TestCompareToReferenceChainsComputesSavingsAndMultiplier(t *testing.T) {
	chains := map[string]config.ReferenceChainConfig{
		"ethereum": {PipelineLatencyMs: 13_000, GasPriceGwei: 20, GasLimitTypicalSwap: 150_000, NativeTokenPriceUSD: 3_000},
	}

	comparisons := CompareToReferenceChains(1_300, 0.10, chains)
	require.Len(t, comparisons, 1)

	c := comparisons[0]
	require.Equal(t, "ethereum", c.ChainName)
	require.Equal(t, TagMeasured, c.MeasuredLatencyMs.Tag)
	require.Equal(t, TagConfigRef, c.ReferenceLatencyMs.Tag)
	require.InDelta(t, 11_700, c.LatencySavedMs, 0.01)
	require.InDelta(t, 10, c.SpeedMultiplier, 0.01)
	require.Greater(t, c.CostSavedUSD, 0.0)
}

func TestCompareToReferenceChainsZerosOutNonGasChains(t *testing.T) {
	chains := map[string]config.ReferenceChainConfig{
		"solana": {PipelineLatencyMs: 1_500, GasPriceGwei: 0, GasLimitTypicalSwap: 0, NativeTokenPriceUSD: 150},
	}

	comparisons := CompareToReferenceChains(1_300, 0.10, chains)
	require.Equal(t, 0.0, comparisons[0].ReferenceCostUSD.Value)
}
