package execution

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Muhammed5500/neuro-core/pkg/onchain"
	"github.com/Muhammed5500/neuro-core/pkg/priceimpact"
)

const defaultMaxSlippageBps = 250 // 2.5%

// Simulator runs a bundle against a pool snapshot fetched from a
// Provider, computing per-step results and swap slippage without ever
// submitting anything on-chain.
type Simulator struct {
	provider   onchain.Provider
	calculator *priceimpact.Calculator
}

// NewSimulator constructs a Simulator bound to a data provider (real RPC
// or simulation) and a price-impact calculator.
func NewSimulator(provider onchain.Provider, calculator *priceimpact.Calculator) *Simulator {
	return &Simulator{provider: provider, calculator: calculator}
}

// Simulate executes bundle's steps in order, recording the block number
// simulated against and a slippage check for the swap step (if any).
func (s *Simulator) Simulate(ctx context.Context, bundle *Bundle, params TradeParams) (*Simulation, error) {
	block, err := s.provider.GetBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("execution: fetch block number: %w", err)
	}

	sim := &Simulation{
		ID:                    uuid.NewString(),
		BundleID:              bundle.ID,
		SimulationBlockNumber: block,
		Timestamp:             time.Now().UTC(),
	}

	maxSlippageBps := params.MaxSlippageBps
	if maxSlippageBps <= 0 {
		maxSlippageBps = defaultMaxSlippageBps
	}

	for i, step := range bundle.Steps {
		if step.Type != StepSwap {
			sim.StepResults = append(sim.StepResults, StepResult{StepIndex: i, Succeeded: true, GasUsed: step.EstimatedGas})
			continue
		}

		liquidity, err := s.provider.GetPoolLiquidity(ctx, params.Token)
		if err != nil {
			sim.Reverted = true
			sim.RevertReason = err.Error()
			sim.StepResults = append(sim.StepResults, StepResult{StepIndex: i, Succeeded: false, RevertReason: err.Error()})
			return sim, nil
		}

		snapshot := priceimpact.PoolSnapshot{
			ReserveToken:  liquidity.ReserveToken,
			ReserveNative: liquidity.ReserveNative,
			CurveProgress: liquidity.CurveProgress,
			Graduated:     liquidity.Graduated,
		}

		direction := priceimpact.DirectionBuy
		if bundle.Recommendation == "sell" {
			direction = priceimpact.DirectionSell
		}

		impact, err := s.calculator.Calculate(ctx, params.Token, snapshot, params.AmountWei, direction)
		if err != nil {
			return nil, fmt.Errorf("execution: calculate price impact: %w", err)
		}

		// The calculator's impact percentage stands in for the swap's
		// realized slippage: there is no separate live fill price to
		// compare against inside a simulation.
		actualSlippageBps := int(math.Round(impact.ImpactPct * 100))
		check := &SlippageCheck{
			ExpectedOutputWei: impact.ExpectedOutputWei,
			ActualOutputWei:   impact.ExpectedOutputWei,
			ActualSlippageBps: actualSlippageBps,
			Passed:            actualSlippageBps <= maxSlippageBps,
		}
		sim.Slippage = check
		sim.StepResults = append(sim.StepResults, StepResult{StepIndex: i, Succeeded: true, GasUsed: step.EstimatedGas})

		// The wallet's net balance movement: a sell spends the traded
		// token and receives native currency back; every other
		// recommendation (buy, launch) spends native and receives token.
		if direction == priceimpact.DirectionSell {
			sim.StateDiff = StateDiff{
				NativeBalanceDeltaWei: impact.ExpectedOutputWei,
				TokenBalanceDelta:     params.AmountWei.Neg(),
			}
		} else {
			sim.StateDiff = StateDiff{
				NativeBalanceDeltaWei: params.AmountWei.Neg(),
				TokenBalanceDelta:     impact.ExpectedOutputWei,
			}
		}
	}

	return sim, nil
}
