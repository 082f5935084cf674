// Package metrics tracks per-phase pipeline latency and compares the
// core's measured performance against configured reference-chain
// parameters. Grounded on the prometheus/client_golang registerer
// pattern for the exported gauge surface; percentile aggregation is
// hand-rolled since no pack dependency does streaming percentiles
// cheaply.
package metrics

import "time"

// Phase names the ten pipeline stages latency is tracked for.
type Phase string

const (
	PhaseIngestion     Phase = "ingestion"
	PhaseEmbedding     Phase = "embedding"
	PhaseAgentAnalysis Phase = "agent_analysis"
	PhaseConsensus     Phase = "consensus"
	PhasePlanning      Phase = "planning"
	PhaseSimulation    Phase = "simulation"
	PhaseSubmission    Phase = "submission"
	PhaseMempool       Phase = "mempool"
	PhaseExecution     Phase = "execution"
	PhaseFinality      Phase = "finality"
)

// AllPhases is the fixed, ordered set of tracked pipeline stages.
var AllPhases = []Phase{
	PhaseIngestion, PhaseEmbedding, PhaseAgentAnalysis, PhaseConsensus,
	PhasePlanning, PhaseSimulation, PhaseSubmission, PhaseMempool,
	PhaseExecution, PhaseFinality,
}

// Trend summarises whether recent latencies are improving, stable, or
// degrading relative to the all-time average.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDegrading Trend = "degrading"
)

// PhaseSample is one recorded latency observation for a phase.
type PhaseSample struct {
	RunID       string
	DurationMs  float64
	RecordedAt  time.Time
}

// PhaseStats is the aggregate view of all observations recorded for a phase.
type PhaseStats struct {
	Phase        Phase
	Count        int
	AvgMs        float64
	MinMs        float64
	MaxMs        float64
	P50Ms        float64
	P95Ms        float64
	P99Ms        float64
	Recent10AvgMs float64
	Trend        Trend
}

// ValueTag marks whether an emitted number came from a live
// measurement or from reference-chain configuration.
type ValueTag string

const (
	TagMeasured ValueTag = "measured"
	TagConfigRef ValueTag = "config_ref"
)

// TaggedValue pairs a number with its provenance.
type TaggedValue struct {
	Value float64
	Tag   ValueTag
}

// ChainComparison reports this core's measured totals against one
// reference chain's configured parameters.
type ChainComparison struct {
	ChainName          string
	MeasuredLatencyMs  TaggedValue
	ReferenceLatencyMs TaggedValue
	LatencySavedMs     float64
	LatencySavedPct    float64
	MeasuredCostUSD    TaggedValue
	ReferenceCostUSD   TaggedValue
	CostSavedUSD       float64
	CostSavedPct       float64
	SpeedMultiplier    float64
}
