package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/Muhammed5500/neuro-core/pkg/bus"
	"github.com/Muhammed5500/neuro-core/pkg/config"
	"github.com/Muhammed5500/neuro-core/pkg/consensus"
	"github.com/Muhammed5500/neuro-core/pkg/crosscheck"
	"github.com/Muhammed5500/neuro-core/pkg/execution"
	"github.com/Muhammed5500/neuro-core/pkg/killswitch"
	"github.com/Muhammed5500/neuro-core/pkg/metrics"
	"github.com/Muhammed5500/neuro-core/pkg/onchain"
	"github.com/Muhammed5500/neuro-core/pkg/priceimpact"
	"github.com/Muhammed5500/neuro-core/pkg/runrecord"
	"github.com/Muhammed5500/neuro-core/pkg/sessionkey"
	"github.com/Muhammed5500/neuro-core/pkg/submission"
	"github.com/Muhammed5500/neuro-core/pkg/treasury"
	"github.com/Muhammed5500/neuro-core/pkg/vectormemory"
	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// Orchestrator owns every core component for one process and drives the
// single control-flow path a trading cycle follows. Constructed once in
// main and shared by reference, the same discipline pkg/bus and
// pkg/killswitch each document for their own singletons.
type Orchestrator struct {
	cfg *config.Config

	Bus             *bus.Bus
	KillSwitch      *killswitch.KillSwitch
	Sessions        *sessionkey.Manager
	Consensus       *consensus.Engine
	OnchainProvider onchain.Provider
	Simulator       *execution.Simulator
	Router          *submission.Router
	Ledger          *treasury.Ledger
	Withdrawals     *treasury.WithdrawalQueue
	Indexer         *vectormemory.Indexer
	Querier         *vectormemory.Querier
	Verifier        *crosscheck.Verifier
	Metrics         *metrics.Tracker
	Records         *runrecord.Store

	mu          sync.Mutex
	queuedPlans []*execution.Bundle
}

// New constructs every component from cfg and wires the cross-cutting
// dependencies: the kill switch cascades into session revocation, queued
// plan clearing, and a bus alert; the session manager is wired back into
// the kill switch once both exist, breaking their constructor cycle.
func New(cfg *config.Config, deps Deps, initialDepositWei wei.Wei) (*Orchestrator, error) {
	o := &Orchestrator{cfg: cfg}

	o.Bus = bus.New(
		cfg.Bus.SigningKey, cfg.Bus.DefaultTTL, cfg.Bus.MaxClockSkew,
		cfg.Bus.NonceRetention, cfg.Bus.MaxNonceSetSize, cfg.Bus.StrictSequence,
	)

	sessions, err := sessionkey.NewManager(cfg.Session.EncryptionKey, nil, cfg.Session.VelocityWindow, cfg.Session.MaxNonceGap)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: construct session manager: %w", err)
	}
	o.Sessions = sessions

	o.KillSwitch = killswitch.New(sessions, o, busAlertAdapter{o.Bus})
	sessions.SetKillSwitch(o.KillSwitch)

	o.Consensus = consensus.NewEngine(consensus.Config{
		ConfidenceThreshold:      cfg.Consensus.ConfidenceThreshold,
		AdversarialVetoThreshold: cfg.Consensus.AdversarialVetoThreshold,
		MinAgentsRequired:        cfg.Consensus.MinAgentsRequired,
		Method:                   consensus.MethodConfidenceWeighted,
		AgreementThreshold:       cfg.Consensus.AgreementThreshold,
	})

	o.OnchainProvider = deps.OnchainProvider
	o.Simulator = execution.NewSimulator(deps.OnchainProvider, priceimpact.NewCalculator())

	o.Router = submission.NewRouter(submission.Policy{
		PublicRPCMaxBudgetWei:       cfg.Submission.PublicRPCMaxBudgetMon,
		FailClosedOnProviderOffline: cfg.Submission.FailClosedOnProviderOffline,
		BlockFallbackToPublic:       cfg.Submission.BlockFallbackToPublic,
	}, deps.SubmissionProvider, o.KillSwitch)

	o.Ledger = treasury.NewLedger(initialDepositWei, cfg.Treasury.MaxAutoRecoverAmount, o.KillSwitch.IsActive)
	o.Withdrawals = treasury.NewWithdrawalQueue(o.KillSwitch.IsActive)
	o.KillSwitch.SetWithdrawals(o.Withdrawals)

	o.Indexer = vectormemory.NewIndexer(deps.Embedder, deps.VectorBackend,
		vectormemory.WithBatchSize(cfg.VectorMemory.BatchSize),
		vectormemory.WithFlushInterval(cfg.VectorMemory.FlushInterval),
		vectormemory.WithWorkerCount(cfg.VectorMemory.WorkerPoolSize),
		vectormemory.WithDedup(true, cfg.VectorMemory.DeduplicationThreshold),
	)
	o.Querier = vectormemory.NewQuerier(deps.Embedder, deps.VectorBackend)

	o.Verifier = crosscheck.NewVerifier(deps.SearchProvider, deps.OwnershipGroups, deps.ResurfacedClaim)

	o.Metrics = metrics.NewTracker(deps.Registerer, cfg.Metrics.RecentWindowSize)

	o.Records = runrecord.NewStore(cfg.RunRecord.BaseDir)

	return o, nil
}

// ClearQueuedPlans implements killswitch.PlanClearer: every bundle
// awaiting manual approval is dropped the instant the switch trips.
func (o *Orchestrator) ClearQueuedPlans() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queuedPlans = nil
}

// QueuedPlans returns the bundles currently awaiting manual approval.
func (o *Orchestrator) QueuedPlans() []*execution.Bundle {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*execution.Bundle, len(o.queuedPlans))
	copy(out, o.queuedPlans)
	return out
}

func (o *Orchestrator) enqueuePlan(b *execution.Bundle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queuedPlans = append(o.queuedPlans, b)
}

func (o *Orchestrator) dequeuePlan(bundleID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	kept := o.queuedPlans[:0]
	for _, b := range o.queuedPlans {
		if b.ID != bundleID {
			kept = append(kept, b)
		}
	}
	o.queuedPlans = kept
}

// busAlertAdapter implements killswitch.AlertPublisher over the bus's
// signed envelope creation, so the kill switch never imports pkg/bus
// directly — it only needs something that can emit one.
type busAlertAdapter struct {
	b *bus.Bus
}

func (a busAlertAdapter) PublishAlert(ctx context.Context, actor, reason string) error {
	_, err := a.b.CreateMessage("alerts.kill_switch", actor, map[string]string{"reason": reason}, bus.CreateOptions{})
	return err
}
