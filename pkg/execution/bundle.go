package execution

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
	"github.com/Muhammed5500/neuro-core/pkg/consensus"
)

// GenerateBundle maps a decision's recommendation to its step sequence:
// buy → [swap]; sell → [approve, swap]; launch → [createToken,
// addLiquidity, swap?] with each step depending on the one before it.
// decisionID is the id of the consensus run that produced recommendation
// and is carried onto the returned Bundle unchanged, so every downstream
// artifact (Simulation, submission record, audit log) can be traced back
// to the decision that authorized it.
func GenerateBundle(decisionID string, recommendation consensus.Recommendation, params TradeParams, now time.Time) (*Bundle, error) {
	var steps []Step

	switch recommendation {
	case consensus.RecommendationBuy:
		steps = []Step{newStep(StepSwap, nil, params)}
	case consensus.RecommendationSell:
		steps = []Step{
			newStep(StepApprove, nil, params),
			newStep(StepSwap, []int{0}, params),
		}
	case consensus.RecommendationLaunch:
		steps = []Step{
			newStep(StepCreateToken, nil, params),
			newStep(StepAddLiquidity, []int{0}, params),
			newStep(StepSwap, []int{1}, params),
		}
	default:
		return nil, apperr.New(apperr.CodePolicyViolation, fmt.Sprintf("no step sequence defined for recommendation %q", recommendation))
	}

	return &Bundle{
		ID:               uuid.NewString(),
		DecisionID:       decisionID,
		Recommendation:   recommendation,
		Steps:            steps,
		Atomic:           true,
		RequiresApproval: true,
		CreatedAt:        now,
	}, nil
}

func newStep(stepType StepType, dependsOn []int, params TradeParams) Step {
	base, withBuffer := estimateGas(stepType)
	return Step{
		Type:                   stepType,
		DependsOn:              dependsOn,
		EstimatedGas:           base,
		EstimatedGasWithBuffer: withBuffer,
		Calldata:               buildCalldata(stepType, params),
	}
}
