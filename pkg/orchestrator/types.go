// Package orchestrator wires every core component into the single
// control-flow path a trading cycle follows: signal indexing, opinion
// aggregation, execution planning, submission, treasury settlement, and
// cross-check verification. The wiring style generalizes a
// construct-everything-in-main service layer into one orchestrator
// method driving an end-to-end cycle instead of a set of HTTP handlers.
package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Muhammed5500/neuro-core/pkg/bus"
	"github.com/Muhammed5500/neuro-core/pkg/consensus"
	"github.com/Muhammed5500/neuro-core/pkg/crosscheck"
	"github.com/Muhammed5500/neuro-core/pkg/database"
	"github.com/Muhammed5500/neuro-core/pkg/execution"
	"github.com/Muhammed5500/neuro-core/pkg/onchain"
	"github.com/Muhammed5500/neuro-core/pkg/runrecord"
	"github.com/Muhammed5500/neuro-core/pkg/submission"
	"github.com/Muhammed5500/neuro-core/pkg/treasury"
	"github.com/Muhammed5500/neuro-core/pkg/vectormemory"
	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// Deps collects the external collaborators the orchestrator cannot
// construct itself — embedding/vector backends, chain data, submission
// transport, and web search are all out of this core's scope.
type Deps struct {
	Embedder           vectormemory.EmbeddingProvider
	VectorBackend       vectormemory.VectorBackend
	OnchainProvider     onchain.Provider
	SubmissionProvider  submission.Provider
	BalanceProvider     treasury.OnChainBalanceProvider
	SearchProvider      crosscheck.WebSearchProvider
	OwnershipGroups     map[string]string
	ResurfacedClaim     func(claimID string) bool
	Registerer          prometheus.Registerer // optional; nil disables Prometheus export
	DB                  *database.Client       // optional; nil runs with no persistence layer
}

// CycleInput is everything one orchestrated trading cycle needs. Not
// every field is used by every cycle — a HOLD decision never reaches
// the execution or submission stages.
type CycleInput struct {
	Signals            runrecord.SignalSet
	OpinionMessages     []*bus.Message
	Claims              []crosscheck.Claim
	SocialPosts         []crosscheck.SocialPost
	TradeParams         execution.TradeParams
	ApprovalGranted     bool
	RemainingBudgetWei  wei.Wei
	Sender              string
	CorrelationID       string
	PlanID              string
	Now                 time.Time
	DecisionValidity    time.Duration
}

// CycleResult is everything one orchestrated cycle produced, in the
// order the control flow produced it.
type CycleResult struct {
	SimilarHistory  vectormemory.FindSimilarResult
	Opinions        []consensus.Opinion
	Decision        *consensus.Decision
	Record          *runrecord.Record
	CrossCheck      []crosscheck.Report
	PipelineOutput  *execution.PipelineOutput
	SubmissionAudit *submission.AuditEntry
	PnLEvent        *treasury.PnLEvent
}
