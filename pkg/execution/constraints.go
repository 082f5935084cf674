package execution

import (
	"fmt"

	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

const defaultMaxRiskScore = 0.7

// EnforceAll runs every constraint against bundle/simulation and returns
// the combined verdict: passed iff no critical violation fired. The
// manual-approval flag is orthogonal and enforced separately by the
// caller — it is never bypassable here.
func EnforceAll(bundle *Bundle, simulation *Simulation, riskScore float64, budgetWei, remainingBudgetWei wei.Wei, currentBlock uint64) EnforcementResult {
	var violations []Violation

	if simulation.Reverted {
		violations = append(violations, Violation{
			Type:     ViolationSimulationReverted,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("simulation reverted: %s", simulation.RevertReason),
		})
	}

	stale, _ := CheckStaleness(simulation.SimulationBlockNumber, currentBlock)
	if stale {
		violations = append(violations, Violation{
			Type:     ViolationSimulationStale,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("simulation at block %d is stale at current block %d", simulation.SimulationBlockNumber, currentBlock),
		})
	}

	if simulation.Slippage != nil && !simulation.Slippage.Passed {
		violations = append(violations, Violation{
			Type:     ViolationSlippageBreach,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("actual slippage %dbps exceeds allowed maximum", simulation.Slippage.ActualSlippageBps),
		})
	}

	if riskScore > defaultMaxRiskScore {
		violations = append(violations, Violation{
			Type:     ViolationRiskTooHigh,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("risk score %.2f exceeds maximum %.2f", riskScore, defaultMaxRiskScore),
		})
	}

	if budgetWei.GreaterThan(remainingBudgetWei) {
		violations = append(violations, Violation{
			Type:     ViolationBudgetExceeded,
			Severity: SeverityCritical,
			Message:  "bundle cost exceeds remaining session budget",
		})
	}

	for _, step := range bundle.Steps {
		if step.EstimatedGasWithBuffer <= step.EstimatedGas {
			violations = append(violations, Violation{
				Type:     ViolationGasBufferMissing,
				Severity: SeverityCritical,
				Message:  fmt.Sprintf("step %s has no gas safety buffer applied", step.Type),
			})
		}
	}

	passed := true
	for _, v := range violations {
		if v.Severity == SeverityCritical {
			passed = false
			break
		}
	}

	return EnforcementResult{Passed: passed, Violations: violations}
}

// BuildOutput assembles the pipeline's terminal artifact. canExecute
// requires both a passing enforcement result and explicit approval —
// neither condition alone is sufficient.
func BuildOutput(bundle *Bundle, simulation *Simulation, enforcement EnforcementResult, approvalGranted bool) PipelineOutput {
	var reasons []string
	for _, v := range enforcement.Violations {
		if v.Severity == SeverityCritical {
			reasons = append(reasons, v.Message)
		}
	}
	if !approvalGranted {
		reasons = append(reasons, "manual approval not yet granted")
	}

	return PipelineOutput{
		Bundle:             bundle,
		Simulation:         simulation,
		ConstraintsChecked: enforcement,
		RequiresApproval:   bundle.RequiresApproval,
		ApprovalGranted:    approvalGranted,
		CanExecute:         enforcement.Passed && approvalGranted,
		BlockingReasons:    reasons,
	}
}
