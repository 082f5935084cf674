// Package treasury tracks allocation buckets, realised PnL, virtual/
// on-chain reconciliation, and the withdrawal timelock queue. Grounded
// on an append-only event-sourcing discipline — every PnL event is
// appended, never edited in place; Reconcile's gas_reserve adjustment is
// reported in its ReconciliationResult and appends no event — and on
// dry-run-safety-comment style
// settlement status enums for the withdrawal state machine.
package treasury

import (
	"context"
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// Bucket names one of the three fixed allocation buckets.
type Bucket string

const (
	BucketLiquidity Bucket = "liquidity_reserve"
	BucketLaunch    Bucket = "launch_reserve"
	BucketGas       Bucket = "gas_reserve"
)

// bucketOrder is the fixed, deterministic iteration order used for
// remainder tie-breaks and spillover deduction.
var bucketOrder = []Bucket{BucketLiquidity, BucketLaunch, BucketGas}

// PnLType classifies a PnL event; the sign of NetAmountWei combined with
// this type determines which bucket absorbs it.
type PnLType string

const (
	PnLTypeTradeProfit     PnLType = "TRADE_PROFIT"
	PnLTypeTradeLoss       PnLType = "TRADE_LOSS"
	PnLTypeGasExpense      PnLType = "GAS_EXPENSE"
	PnLTypeLaunchExpense   PnLType = "LAUNCH_EXPENSE"
	PnLTypeLiquidityAdd    PnLType = "LIQUIDITY_ADD"
	PnLTypeLiquidityRemove PnLType = "LIQUIDITY_REMOVE"
)

// primaryBucketFor returns the type-specific bucket a negative
// (expense) event is deducted from before spilling to the others.
func primaryBucketFor(t PnLType) Bucket {
	switch t {
	case PnLTypeGasExpense:
		return BucketGas
	case PnLTypeLaunchExpense:
		return BucketLaunch
	case PnLTypeLiquidityAdd, PnLTypeLiquidityRemove:
		return BucketLiquidity
	default:
		return BucketLiquidity
	}
}

// PnLEventInput is the caller-supplied side of a PnL event. NetAmountWei
// is signed: positive for income, negative for an expense/loss.
type PnLEventInput struct {
	Type           PnLType
	GrossAmountWei wei.Wei
	FeesWei        wei.Wei
	NetAmountWei   wei.Wei
	Description    string
	TokenAddress   string
	TxHash         string
}

// PnLEvent is the append-only record of one treasury mutation.
type PnLEvent struct {
	ID                 string
	Type               PnLType
	GrossAmountWei      wei.Wei
	FeesWei             wei.Wei
	NetAmountWei        wei.Wei
	Allocations         map[Bucket]wei.Wei
	Description         string
	TokenAddress        string
	TxHash              string
	PreviousTotalWei     wei.Wei
	NewTotalWei          wei.Wei
	InvariantCheckPassed bool
	AutoRecovered        bool
	CreatedAt            time.Time
}

// OnChainBalanceProvider fetches the chain's view of the treasury's
// holdings for reconciliation against the ledger's virtual balance.
type OnChainBalanceProvider interface {
	GetOnChainBalance(ctx context.Context) (wei.Wei, error)
}

// ReconciliationResult is the outcome of one reconcile() call.
type ReconciliationResult struct {
	VirtualBalanceWei      wei.Wei
	OnChainBalanceWei      wei.Wei
	DiscrepancyWei         wei.Wei
	EstimatedGasCostsWei   wei.Wei
	EstimatedSlippageWei   wei.Wei
	UnexplainedWei         wei.Wei
	AutoAdjusted           bool
	RequiresManualReview   bool
	At                     time.Time
}

// WithdrawalStatus is the withdrawal request's state machine position.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalReady     WithdrawalStatus = "ready"
	WithdrawalExecuted  WithdrawalStatus = "executed"
	WithdrawalCancelled WithdrawalStatus = "cancelled"
	WithdrawalExpired   WithdrawalStatus = "expired"
)

// WithdrawalRequest tracks one pending withdrawal through its timelock.
type WithdrawalRequest struct {
	ID                 string
	AmountWei          wei.Wei
	FromBucket         Bucket
	DestinationAddress string
	RequestedAt        time.Time
	TimelockExpiresAt  time.Time
	ExecutionDeadline  time.Time
	Status             WithdrawalStatus
	RequiredApprovals  int
	Approvals          []string
	TxHash             string
	CancelReason       string
	CancelledAt        *time.Time
}
