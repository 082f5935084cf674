package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/consensus"
	"github.com/Muhammed5500/neuro-core/pkg/crosscheck"
	"github.com/Muhammed5500/neuro-core/pkg/execution"
	"github.com/Muhammed5500/neuro-core/pkg/metrics"
	"github.com/Muhammed5500/neuro-core/pkg/runrecord"
	"github.com/Muhammed5500/neuro-core/pkg/submission"
	"github.com/Muhammed5500/neuro-core/pkg/treasury"
	"github.com/Muhammed5500/neuro-core/pkg/vectormemory"
	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// RunCycle drives one full trading cycle end to end: the incoming signal
// set is embedded and indexed, enriched with similar history, checked
// against cross-check's staleness/corroboration/copy-pasta detectors,
// and combined with the panel opinions arriving over the bus into a
// consensus decision. An EXECUTE decision is built into a bundle,
// simulated, constraint-checked, and — once both constraints and manual
// approval are satisfied — handed to the submission router. A
// successful submission feeds a realised PnL event into the treasury
// ledger. Every stage that can be timed records its latency on Metrics.
//
// The external agent panel that produces OpinionMessages is out of
// scope for this core: callers supply already-signed bus envelopes, one
// per opinion.
func (o *Orchestrator) RunCycle(ctx context.Context, in CycleInput) (*CycleResult, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	result := &CycleResult{}

	t := time.Now()
	for _, sig := range in.Signals.Signals {
		_, _ = o.Indexer.Index(ctx, vectormemory.IndexItem{
			Content: sig.Content,
			Metadata: vectormemory.Metadata{
				SourceType: sig.Kind,
				Source:     sig.Source,
				Timestamp:  sig.Timestamp,
			},
		})
	}
	o.record(metrics.PhaseIngestion, in.CorrelationID, t, now)

	t = time.Now()
	similar, err := o.Querier.FindSimilar(ctx, in.Signals.Query, vectormemory.SearchOptions{Limit: 10, IncludeStats: true})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: find similar history: %w", err)
	}
	result.SimilarHistory = similar
	o.record(metrics.PhaseEmbedding, in.CorrelationID, t, now)

	result.CrossCheck = o.runCrossCheck(ctx, in, now)

	t = time.Now()
	opinions := make([]consensus.Opinion, 0, len(in.OpinionMessages))
	for _, msg := range in.OpinionMessages {
		if vr := o.Bus.ValidateMessage(msg); !vr.Valid {
			continue
		}
		var op consensus.Opinion
		if err := o.Bus.ExtractPayload(msg, &op); err != nil {
			continue
		}
		opinions = append(opinions, op)
	}
	result.Opinions = opinions
	o.record(metrics.PhaseAgentAnalysis, in.CorrelationID, t, now)

	t = time.Now()
	decision, audit := o.Consensus.Decide(opinions, now, in.DecisionValidity)
	result.Decision = decision
	o.record(metrics.PhaseConsensus, in.CorrelationID, t, now)

	record := &runrecord.Record{
		ID:          in.CorrelationID,
		Version:     1,
		Inputs:      in.Signals,
		Opinions:    opinions,
		Decision:    decision,
		AuditLog:    audit,
		StartedAt:   now,
		CompletedAt: now,
	}
	if err := o.Records.Save(record); err != nil {
		return nil, fmt.Errorf("orchestrator: save run record: %w", err)
	}
	result.Record = record

	if decision.Status != consensus.StatusExecute {
		return result, nil
	}

	t = time.Now()
	bundle, err := execution.GenerateBundle(in.CorrelationID, decision.Recommendation, in.TradeParams, now)
	if err != nil {
		return result, fmt.Errorf("orchestrator: generate bundle: %w", err)
	}
	o.record(metrics.PhasePlanning, in.CorrelationID, t, now)

	t = time.Now()
	simulation, err := o.Simulator.Simulate(ctx, bundle, in.TradeParams)
	if err != nil {
		return result, fmt.Errorf("orchestrator: simulate bundle: %w", err)
	}
	o.record(metrics.PhaseSimulation, in.CorrelationID, t, now)

	currentBlock, err := o.OnchainProvider.GetBlockNumber(ctx)
	if err != nil {
		return result, fmt.Errorf("orchestrator: fetch current block: %w", err)
	}

	enforcement := execution.EnforceAll(bundle, simulation, decision.AverageRisk, in.TradeParams.AmountWei, in.RemainingBudgetWei, currentBlock)
	output := execution.BuildOutput(bundle, simulation, enforcement, in.ApprovalGranted)
	result.PipelineOutput = &output

	if bundle.RequiresApproval && !in.ApprovalGranted {
		o.enqueuePlan(bundle)
		return result, nil
	}
	o.dequeuePlan(bundle.ID)
	if !output.CanExecute {
		return result, nil
	}

	t = time.Now()
	req := submission.SubmissionRequest{
		CorrelationID: in.CorrelationID,
		PlanID:        in.PlanID,
		SimulationID:  fmt.Sprintf("%s-block-%d", bundle.ID, simulation.SimulationBlockNumber),
		BundleID:      bundle.ID,
		Sender:        in.Sender,
		ActionType:    actionTypeFor(decision.Recommendation),
		BudgetWei:     in.TradeParams.AmountWei,
		TxPayload:     []byte(bundle.ID),
	}
	auditEntry, subErr := o.Router.Submit(ctx, req, now)
	result.SubmissionAudit = auditEntry
	o.record(metrics.PhaseSubmission, in.CorrelationID, t, now)
	if subErr != nil {
		return result, subErr
	}

	pnlType, net := pnlFromOutcome(decision.Recommendation, in.TradeParams.AmountWei)
	ev, err := o.Ledger.RecordPnlEvent(treasury.PnLEventInput{
		Type:           pnlType,
		GrossAmountWei: in.TradeParams.AmountWei,
		NetAmountWei:   net,
		TxHash:         auditEntry.TxHash,
	}, in.CorrelationID, now)
	if err != nil {
		return result, fmt.Errorf("orchestrator: record pnl event: %w", err)
	}
	result.PnLEvent = &ev

	return result, nil
}

func (o *Orchestrator) record(phase metrics.Phase, runID string, started, recordedAt time.Time) {
	o.Metrics.Record(phase, metrics.PhaseSample{
		RunID:      runID,
		DurationMs: float64(time.Since(started).Milliseconds()),
		RecordedAt: recordedAt,
	})
}

// runCrossCheck verifies every incoming claim and, separately, the
// batch of social posts for coordinated amplification — run ahead of
// consensus so a report can feed the adversarial opinion's evidence.
// A claim whose search lookup fails is skipped rather than aborting the
// whole cycle: cross-check is corroborating evidence, not a gate.
func (o *Orchestrator) runCrossCheck(ctx context.Context, in CycleInput, now time.Time) []crosscheck.Report {
	var reports []crosscheck.Report
	for _, claim := range in.Claims {
		rep, err := o.Verifier.VerifyClaim(ctx, claim, now)
		if err != nil {
			continue
		}
		reports = append(reports, rep)
	}
	if len(in.SocialPosts) > 0 {
		cp := o.Verifier.VerifySocialPosts(in.SocialPosts)
		reports = append(reports, crosscheck.Report{CopyPasta: &cp, OverallRisk: cp.Risk})
	}
	return reports
}

func actionTypeFor(r consensus.Recommendation) submission.ActionType {
	switch r {
	case consensus.RecommendationSell:
		return submission.ActionSell
	case consensus.RecommendationLaunch:
		return submission.ActionTokenLaunch
	default:
		return submission.ActionBuy
	}
}

// pnlFromOutcome derives a realised PnL event from a submitted bundle's
// trade size. This is a placeholder settlement: a full realised-PnL
// computation needs the post-trade fill price from an external feed,
// which is out of scope for this core — net amount here reflects only
// capital deployed or proceeds received, not profit or loss against a
// cost basis.
func pnlFromOutcome(r consensus.Recommendation, amountWei wei.Wei) (treasury.PnLType, wei.Wei) {
	switch r {
	case consensus.RecommendationSell:
		return treasury.PnLTypeTradeProfit, amountWei
	case consensus.RecommendationLaunch:
		return treasury.PnLTypeLaunchExpense, amountWei.Neg()
	default:
		return treasury.PnLTypeTradeLoss, amountWei.Neg()
	}
}
