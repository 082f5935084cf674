package treasury

import (
	"sync"
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// allocationPct is the fixed 40/30/30 split applied to every positive
// inflow, in bucketOrder.
var allocationPct = map[Bucket]int64{
	BucketLiquidity: 40,
	BucketLaunch:    30,
	BucketGas:       30,
}

// allocate splits amount across the three buckets using floored integer
// division; the remainder always lands on gas_reserve, a fixed tie-break
// chosen for reproducibility rather than fairness.
func allocate(amount wei.Wei) map[Bucket]wei.Wei {
	out := make(map[Bucket]wei.Wei, 3)
	sum := wei.Zero()
	for _, b := range bucketOrder {
		if b == BucketGas {
			continue
		}
		share := amount.MulPercent(allocationPct[b])
		out[b] = share
		sum = sum.Add(share)
	}
	out[BucketGas] = amount.Sub(sum)
	return out
}

// Ledger is the treasury's exclusive-guarded aggregate: bucket balances,
// the total and the event log all mutate under mu. Bucket balances
// change only in RecordPnlEvent (including its checkWithRecovery step)
// and in Reconcile's gas_reserve adjustment; executing a withdrawal does
// not debit any bucket, and the withdrawal queue keeps its own lock.
type Ledger struct {
	mu                   sync.Mutex
	buckets              map[Bucket]wei.Wei
	total                wei.Wei
	virtualBalance       wei.Wei
	lastOnChainBalance   wei.Wei
	lastInvariantCheck   time.Time
	maxAutoRecoverAmount wei.Wei
	events               []PnLEvent
	Withdrawals          *WithdrawalQueue
}

// NewLedger seeds the ledger with an initial deposit (split 40/30/30)
// and wires a withdrawal queue that consults isKillSwitchActive before
// executing a withdrawal — the callback the ledger supplies to break
// the ledger/queue/kill-switch dependency cycle, rather than the queue
// importing the kill switch directly.
func NewLedger(initialDepositWei, maxAutoRecoverAmountWei wei.Wei, isKillSwitchActive func() bool) *Ledger {
	buckets := allocate(initialDepositWei)
	return &Ledger{
		buckets:              buckets,
		total:                initialDepositWei,
		virtualBalance:       initialDepositWei,
		maxAutoRecoverAmount: maxAutoRecoverAmountWei,
		Withdrawals:          NewWithdrawalQueue(isKillSwitchActive),
	}
}

// sumBuckets totals every bucket — the left-hand side of invariant I1.
func (l *Ledger) sumBuckets() wei.Wei {
	sum := wei.Zero()
	for _, b := range bucketOrder {
		sum = sum.Add(l.buckets[b])
	}
	return sum
}

// checkInvariant enforces I1 (sum==total) and I2 (no bucket negative)
// without mutating state; called before every operation.
func (l *Ledger) checkInvariant() error {
	for _, b := range bucketOrder {
		if l.buckets[b].Sign() < 0 {
			return apperr.New(apperr.CodeInvariantViolation, "bucket "+string(b)+" is negative")
		}
	}
	if l.sumBuckets().Cmp(l.total) != 0 {
		return apperr.New(apperr.CodeInvariantViolation, "sum(buckets) != total")
	}
	return nil
}

// Snapshot returns a read-only copy of the current bucket balances and
// total, safe to call concurrently.
func (l *Ledger) Snapshot() (buckets map[Bucket]wei.Wei, total wei.Wei) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[Bucket]wei.Wei, len(l.buckets))
	for k, v := range l.buckets {
		out[k] = v
	}
	return out, l.total
}

// Events returns a copy of the append-only PnL event log.
func (l *Ledger) Events() []PnLEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]PnLEvent, len(l.events))
	copy(out, l.events)
	return out
}

// RecordPnlEvent is the entry point for every bucket mutation except
// Reconcile's gas_reserve adjustment. It pre-checks I1/I2, applies
// the signed net amount (spread across buckets for income, deducted
// from a type-specific bucket with spillover for expenses), then runs
// checkWithRecovery before appending the event.
func (l *Ledger) RecordPnlEvent(in PnLEventInput, id string, now time.Time) (PnLEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkInvariant(); err != nil {
		return PnLEvent{}, err
	}

	previousTotal := l.total
	var allocations map[Bucket]wei.Wei
	var err error

	switch in.NetAmountWei.Sign() {
	case 1:
		allocations = allocate(in.NetAmountWei)
		for b, amt := range allocations {
			l.buckets[b] = l.buckets[b].Add(amt)
		}
		l.total = l.total.Add(in.NetAmountWei)
	case -1:
		allocations, err = l.deductWithSpillover(in.NetAmountWei.Neg(), primaryBucketFor(in.Type))
		if err != nil {
			return PnLEvent{}, err
		}
		l.total = l.total.Add(in.NetAmountWei)
	default:
		allocations = map[Bucket]wei.Wei{}
	}

	autoRecovered, invariantErr := l.checkWithRecovery()
	if invariantErr != nil {
		return PnLEvent{}, invariantErr
	}
	l.lastInvariantCheck = now

	event := PnLEvent{
		ID:                   id,
		Type:                 in.Type,
		GrossAmountWei:       in.GrossAmountWei,
		FeesWei:              in.FeesWei,
		NetAmountWei:         in.NetAmountWei,
		Allocations:          allocations,
		Description:          in.Description,
		TokenAddress:         in.TokenAddress,
		TxHash:               in.TxHash,
		PreviousTotalWei:     previousTotal,
		NewTotalWei:          l.total,
		InvariantCheckPassed: true,
		AutoRecovered:        autoRecovered,
		CreatedAt:            now,
	}
	l.events = append(l.events, event)
	l.virtualBalance = l.total
	return event, nil
}

// deductWithSpillover removes amount (always positive) from primary,
// spilling any shortfall into the other buckets in bucketOrder. It only
// computes the would-be deltas while walking the spillover order — it
// never touches l.buckets until the full amount is confirmed coverable,
// so a failed deduction (insufficient treasury balance) leaves every
// bucket exactly as it found it. Returns a negative allocation map (one
// entry per bucket actually touched) for the event record.
func (l *Ledger) deductWithSpillover(amount wei.Wei, primary Bucket) (map[Bucket]wei.Wei, error) {
	allocations := map[Bucket]wei.Wei{}
	remaining := amount

	order := []Bucket{primary}
	for _, b := range bucketOrder {
		if b != primary {
			order = append(order, b)
		}
	}

	for _, b := range order {
		if remaining.IsZero() {
			break
		}
		available := l.buckets[b]
		take := remaining
		if available.LessThan(remaining) {
			take = available
		}
		if take.IsZero() {
			continue
		}
		allocations[b] = take.Neg()
		remaining = remaining.Sub(take)
	}

	if !remaining.IsZero() {
		return nil, apperr.New(apperr.CodeInvariantViolation, "insufficient treasury balance to cover deduction")
	}

	for b, delta := range allocations {
		l.buckets[b] = l.buckets[b].Add(delta)
	}
	return allocations, nil
}

// checkWithRecovery is the post-operation invariant check: a
// discrepancy within maxAutoRecoverAmount is silently absorbed by
// gas_reserve and flagged autoRecovered; anything larger is a hard
// error and the caller must treat the whole operation as aborted.
func (l *Ledger) checkWithRecovery() (autoRecovered bool, err error) {
	discrepancy := l.sumBuckets().Sub(l.total)
	if discrepancy.IsZero() {
		return false, nil
	}

	abs := discrepancy
	if abs.Sign() < 0 {
		abs = abs.Neg()
	}
	if abs.GreaterThan(l.maxAutoRecoverAmount) {
		return false, apperr.New(apperr.CodeInvariantViolation, "treasury invariant discrepancy exceeds auto-recovery threshold")
	}

	l.buckets[BucketGas] = l.buckets[BucketGas].Sub(discrepancy)
	return true, nil
}
