package execution

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Muhammed5500/neuro-core/pkg/consensus"
	"github.com/Muhammed5500/neuro-core/pkg/onchain"
	"github.com/Muhammed5500/neuro-core/pkg/priceimpact"
	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

func TestGenerateBundleBuyIsSingleSwap(t *testing.T) {
	bundle, err := GenerateBundle("test-decision", consensus.RecommendationBuy, TradeParams{Token: "tok", AmountWei: wei.FromInt64(1)}, time.Now())
	require.NoError(t, err)
	require.Len(t, bundle.Steps, 1)
	require.Equal(t, StepSwap, bundle.Steps[0].Type)
	require.True(t, bundle.RequiresApproval)
	require.True(t, bundle.Atomic)
	require.Equal(t, "test-decision", bundle.DecisionID)
}

func TestGenerateBundleSellIsApproveThenSwap(t *testing.T) {
	bundle, err := GenerateBundle("test-decision", consensus.RecommendationSell, TradeParams{Token: "tok", AmountWei: wei.FromInt64(1)}, time.Now())
	require.NoError(t, err)
	require.Len(t, bundle.Steps, 2)
	require.Equal(t, StepApprove, bundle.Steps[0].Type)
	require.Equal(t, StepSwap, bundle.Steps[1].Type)
	require.Equal(t, []int{0}, bundle.Steps[1].DependsOn)
}

func TestGenerateBundleLaunchHasThreeChainedSteps(t *testing.T) {
	bundle, err := GenerateBundle("test-decision", consensus.RecommendationLaunch, TradeParams{Token: "tok", AmountWei: wei.FromInt64(1)}, time.Now())
	require.NoError(t, err)
	require.Len(t, bundle.Steps, 3)
	require.Equal(t, StepCreateToken, bundle.Steps[0].Type)
	require.Equal(t, StepAddLiquidity, bundle.Steps[1].Type)
	require.Equal(t, StepSwap, bundle.Steps[2].Type)
	require.Equal(t, []int{0}, bundle.Steps[1].DependsOn)
	require.Equal(t, []int{1}, bundle.Steps[2].DependsOn)
}

func TestGenerateBundleRejectsUnmappedRecommendation(t *testing.T) {
	_, err := GenerateBundle("test-decision", consensus.RecommendationHold, TradeParams{Token: "tok"}, time.Now())
	require.Error(t, err)
}

func TestGenerateBundleStepsCarryABIEncodedCalldata(t *testing.T) {
	bundle, err := GenerateBundle("test-decision", consensus.RecommendationSell, TradeParams{
		Token: "0x000000000000000000000000000000000000aa", AmountWei: wei.FromInt64(1_000_000), MaxSlippageBps: 100,
	}, time.Now())
	require.NoError(t, err)
	for _, step := range bundle.Steps {
		require.NotEmpty(t, step.Calldata, "step %s should carry ABI-encoded calldata", step.Type)
		require.Equal(t, routerABI.Methods[methodNameFor(step.Type)].ID, step.Calldata[:4])
	}
}

func TestMinOutputForSlippageAppliesBpsDiscount(t *testing.T) {
	out := minOutputForSlippage(big.NewInt(1_000_000), 100) // 1% slippage
	require.Equal(t, big.NewInt(990_000), out)
}

func TestEstimatedGasBufferIsFifteenPercent(t *testing.T) {
	bundle, err := GenerateBundle("test-decision", consensus.RecommendationBuy, TradeParams{Token: "tok", AmountWei: wei.FromInt64(1)}, time.Now())
	require.NoError(t, err)
	step := bundle.Steps[0]
	require.Equal(t, step.EstimatedGas*115/100, step.EstimatedGasWithBuffer)
}

func TestCheckStalenessAtThreeBlockGap(t *testing.T) {
	stale, refresh := CheckStaleness(100, 103)
	require.True(t, stale)
	require.True(t, refresh)
}

func TestCheckStalenessBelowThreshold(t *testing.T) {
	stale, refresh := CheckStaleness(100, 102)
	require.False(t, stale)
	require.False(t, refresh)
}

func TestSimulateBuyBundleRecordsBlockAndSlippage(t *testing.T) {
	provider, err := onchain.NewSimulationProvider(143, onchain.ScenarioHealthyMarket, 1000)
	require.NoError(t, err)
	simulator := NewSimulator(provider, priceimpact.NewCalculator())

	bundle, err := GenerateBundle("test-decision", consensus.RecommendationBuy, TradeParams{Token: "tok", AmountWei: wei.MustFromString("100000000000000000")}, time.Now())
	require.NoError(t, err)

	sim, err := simulator.Simulate(context.Background(), bundle, TradeParams{Token: "tok", AmountWei: wei.MustFromString("100000000000000000")})
	require.NoError(t, err)
	require.Greater(t, sim.SimulationBlockNumber, uint64(0))
	require.NotNil(t, sim.Slippage)
	require.NotEmpty(t, sim.ID)
	require.False(t, sim.Timestamp.IsZero())
	require.Equal(t, -1, sim.StateDiff.NativeBalanceDeltaWei.Sign(), "a buy spends native currency")
	require.Equal(t, 1, sim.StateDiff.TokenBalanceDelta.Sign(), "a buy receives the traded token")
}

func TestEnforceAllPassesOnHealthyBundle(t *testing.T) {
	bundle, err := GenerateBundle("test-decision", consensus.RecommendationBuy, TradeParams{Token: "tok", AmountWei: wei.FromInt64(1)}, time.Now())
	require.NoError(t, err)

	sim := &Simulation{
		BundleID:              bundle.ID,
		SimulationBlockNumber: 1000,
		Slippage:              &SlippageCheck{Passed: true, ActualSlippageBps: 50},
	}

	result := EnforceAll(bundle, sim, 0.3, wei.FromInt64(100), wei.FromInt64(1000), 1001)
	require.True(t, result.Passed)
	require.Empty(t, result.Violations)
}

func TestEnforceAllBlocksOnStaleSimulation(t *testing.T) {
	bundle, err := GenerateBundle("test-decision", consensus.RecommendationBuy, TradeParams{Token: "tok", AmountWei: wei.FromInt64(1)}, time.Now())
	require.NoError(t, err)

	sim := &Simulation{
		BundleID:              bundle.ID,
		SimulationBlockNumber: 1000,
		Slippage:              &SlippageCheck{Passed: true},
	}

	result := EnforceAll(bundle, sim, 0.3, wei.FromInt64(100), wei.FromInt64(1000), 1003)
	require.False(t, result.Passed)

	var found bool
	for _, v := range result.Violations {
		if v.Type == ViolationSimulationStale {
			found = true
		}
	}
	require.True(t, found)
}

func TestEnforceAllBlocksOnBudgetExceeded(t *testing.T) {
	bundle, err := GenerateBundle("test-decision", consensus.RecommendationBuy, TradeParams{Token: "tok", AmountWei: wei.FromInt64(1)}, time.Now())
	require.NoError(t, err)

	sim := &Simulation{
		BundleID:              bundle.ID,
		SimulationBlockNumber: 1000,
		Slippage:              &SlippageCheck{Passed: true},
	}

	result := EnforceAll(bundle, sim, 0.3, wei.FromInt64(2000), wei.FromInt64(1000), 1000)
	require.False(t, result.Passed)
}

func TestBuildOutputRequiresBothPassAndApproval(t *testing.T) {
	bundle, err := GenerateBundle("test-decision", consensus.RecommendationBuy, TradeParams{Token: "tok", AmountWei: wei.FromInt64(1)}, time.Now())
	require.NoError(t, err)

	sim := &Simulation{BundleID: bundle.ID, SimulationBlockNumber: 1000}
	passing := EnforcementResult{Passed: true}

	notApproved := BuildOutput(bundle, sim, passing, false)
	require.False(t, notApproved.CanExecute)
	require.NotEmpty(t, notApproved.BlockingReasons)

	approved := BuildOutput(bundle, sim, passing, true)
	require.True(t, approved.CanExecute)
	require.Empty(t, approved.BlockingReasons)
}
