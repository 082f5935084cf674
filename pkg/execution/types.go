// Package execution builds, simulates, and gates execution bundles before
// a decision ever reaches the submission router. Grounded on the staged
// pipeline-with-progressive-checks pattern (bundle generation →
// simulation → constraint enforcement mirrors a stage-run→synthesize→
// gate flow), generalized from multi-agent orchestration to a
// single-bundle trade pipeline.
package execution

import (
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/consensus"
	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// StepType names one kind of on-chain operation within a bundle.
type StepType string

const (
	StepApprove      StepType = "approve"
	StepSwap         StepType = "swap"
	StepCreateToken  StepType = "createToken"
	StepAddLiquidity StepType = "addLiquidity"
	StepTransfer     StepType = "transfer"
	StepCustom       StepType = "custom"
)

// gas units per step type (not wei — a unitless gas estimate), with a
// 15% safety buffer applied uniformly.
const gasBufferNumerator, gasBufferDenominator = 115, 100

var baseGasEstimate = map[StepType]uint64{
	StepApprove:      46_000,
	StepSwap:         150_000,
	StepCreateToken:  2_500_000,
	StepAddLiquidity: 180_000,
	StepTransfer:     65_000,
	StepCustom:       200_000,
}

func estimateGas(stepType StepType) (base, withBuffer uint64) {
	base = baseGasEstimate[stepType]
	withBuffer = base * gasBufferNumerator / gasBufferDenominator
	return
}

// Step is one operation in a bundle, optionally depending on earlier
// steps by index.
type Step struct {
	Type                   StepType
	DependsOn              []int
	EstimatedGas           uint64
	EstimatedGasWithBuffer uint64
	Calldata               []byte
}

// TradeParams describes the trade a bundle is generated for.
type TradeParams struct {
	Token          string
	AmountWei      wei.Wei
	MaxSlippageBps int
}

// Bundle is an atomic, ordered set of steps requiring approval by default.
// Atomic is always true: every step in a bundle either all succeed or
// the whole bundle reverts together, never a partial commit. DecisionID
// links the bundle back to the consensus run that produced it, so a
// Simulation, submission, or audit record can always be traced to the
// decision that authorized it.
type Bundle struct {
	ID               string
	DecisionID       string
	Recommendation   consensus.Recommendation
	Steps            []Step
	Atomic           bool
	RequiresApproval bool
	CreatedAt        time.Time
}

// StepResult is one step's simulated outcome.
type StepResult struct {
	StepIndex    int
	Succeeded    bool
	RevertReason string
	GasUsed      uint64
}

// SlippageCheck reports whether a swap's actual output stayed within the
// allowed slippage of the expected output.
type SlippageCheck struct {
	ExpectedOutputWei wei.Wei
	ActualOutputWei   wei.Wei
	ActualSlippageBps int
	Passed            bool
}

// StateDiff aggregates the net balance movement a simulated bundle would
// cause for the submitting wallet: its native-token balance delta and the
// traded token's balance delta, both signed (negative means the wallet's
// balance decreases).
type StateDiff struct {
	NativeBalanceDeltaWei wei.Wei
	TokenBalanceDelta     wei.Wei
}

// Simulation is the outcome of running a bundle against (simulated) EVM
// state — the bundle's receipt.
type Simulation struct {
	ID                    string
	BundleID              string
	SimulationBlockNumber uint64
	StepResults           []StepResult
	StateDiff             StateDiff
	Slippage              *SlippageCheck
	Reverted              bool
	RevertReason          string
	Timestamp             time.Time
}

// ViolationType names one constraint-enforcement failure.
type ViolationType string

const (
	ViolationSlippageBreach     ViolationType = "slippage_breach"
	ViolationRiskTooHigh        ViolationType = "risk_too_high"
	ViolationBudgetExceeded     ViolationType = "budget_exceeded"
	ViolationGasBufferMissing   ViolationType = "gas_buffer_missing"
	ViolationSimulationStale    ViolationType = "simulation_stale"
	ViolationSimulationReverted ViolationType = "simulation_reverted"
)

// Severity classifies a Violation; only "critical" blocks execution.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Violation is one constraint failure surfaced by the enforcer.
type Violation struct {
	Type     ViolationType
	Severity Severity
	Message  string
}

// EnforcementResult is the constraint enforcer's verdict.
type EnforcementResult struct {
	Passed     bool
	Violations []Violation
}

// PipelineOutput is the pipeline's terminal artifact; it never submits —
// submission is a separate, explicit step downstream.
type PipelineOutput struct {
	Bundle           *Bundle
	Simulation       *Simulation
	ConstraintsChecked EnforcementResult
	RequiresApproval bool
	ApprovalGranted  bool
	CanExecute       bool
	BlockingReasons  []string
}
