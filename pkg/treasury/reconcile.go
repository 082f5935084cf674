package treasury

import (
	"context"
	"time"
)

const maxDiscrepancyPercent = 5

// reconciliationSplitPct is the fixed attribution split applied to any
// virtual/on-chain discrepancy: mostly gas drift, some slippage, a
// residual left unexplained.
var reconciliationSplitPct = map[string]int64{
	"gas":      60,
	"slippage": 30,
}

// Reconcile fetches the on-chain balance, computes the discrepancy
// against the ledger's virtual balance, attributes it across gas/
// slippage/unexplained, and auto-adjusts gas_reserve when the
// discrepancy is within tolerance — otherwise it is left for manual
// review and no bucket is touched.
func (l *Ledger) Reconcile(ctx context.Context, provider OnChainBalanceProvider, now time.Time) (ReconciliationResult, error) {
	onChain, err := provider.GetOnChainBalance(ctx)
	if err != nil {
		return ReconciliationResult{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkInvariant(); err != nil {
		return ReconciliationResult{}, err
	}

	virtual := l.virtualBalance
	discrepancy := virtual.Sub(onChain)

	abs := discrepancy
	if abs.Sign() < 0 {
		abs = abs.Neg()
	}

	gasShare := discrepancy.MulPercent(reconciliationSplitPct["gas"])
	slippageShare := discrepancy.MulPercent(reconciliationSplitPct["slippage"])
	unexplained := discrepancy.Sub(gasShare).Sub(slippageShare)

	result := ReconciliationResult{
		VirtualBalanceWei:    virtual,
		OnChainBalanceWei:    onChain,
		DiscrepancyWei:       discrepancy,
		EstimatedGasCostsWei: gasShare,
		EstimatedSlippageWei: slippageShare,
		UnexplainedWei:       unexplained,
		At:                   now,
	}

	if virtual.IsZero() {
		result.RequiresManualReview = !abs.IsZero()
		l.lastOnChainBalance = onChain
		return result, nil
	}

	threshold := virtual.MulPercent(maxDiscrepancyPercent)
	if abs.Cmp(threshold) <= 0 {
		l.buckets[BucketGas] = l.buckets[BucketGas].Sub(discrepancy)
		l.total = l.total.Sub(discrepancy)
		l.virtualBalance = l.total
		result.AutoAdjusted = true
	} else {
		result.RequiresManualReview = true
	}

	l.lastOnChainBalance = onChain
	return result, nil
}
