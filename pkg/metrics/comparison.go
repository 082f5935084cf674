package metrics

import "github.com/Muhammed5500/neuro-core/pkg/config"

// CompareToReferenceChains reports, for every configured reference
// chain, how this core's measured end-to-end latency and cost compare
// to that chain's configured figures. measuredLatencyMs and
// measuredCostUSD are this core's own numbers for a run (or an
// aggregate window) — always tagged "measured"; every reference-chain
// figure is tagged "config_ref" since it's never independently
// observed by this core.
func CompareToReferenceChains(measuredLatencyMs, measuredCostUSD float64, chains map[string]config.ReferenceChainConfig) []ChainComparison {
	out := make([]ChainComparison, 0, len(chains))
	for name, chain := range chains {
		out = append(out, compareOne(name, measuredLatencyMs, measuredCostUSD, chain))
	}
	return out
}

func compareOne(name string, measuredLatencyMs, measuredCostUSD float64, chain config.ReferenceChainConfig) ChainComparison {
	refLatency := float64(chain.PipelineLatencyMs)
	refCost := referenceCostUSD(chain)

	latencySaved := refLatency - measuredLatencyMs
	latencySavedPct := safePct(latencySaved, refLatency)

	costSaved := refCost - measuredCostUSD
	costSavedPct := safePct(costSaved, refCost)

	speedMultiplier := 0.0
	if measuredLatencyMs > 0 {
		speedMultiplier = refLatency / measuredLatencyMs
	}

	return ChainComparison{
		ChainName:          name,
		MeasuredLatencyMs:  TaggedValue{Value: measuredLatencyMs, Tag: TagMeasured},
		ReferenceLatencyMs: TaggedValue{Value: refLatency, Tag: TagConfigRef},
		LatencySavedMs:     latencySaved,
		LatencySavedPct:    latencySavedPct,
		MeasuredCostUSD:    TaggedValue{Value: measuredCostUSD, Tag: TagMeasured},
		ReferenceCostUSD:   TaggedValue{Value: refCost, Tag: TagConfigRef},
		CostSavedUSD:       costSaved,
		CostSavedPct:       costSavedPct,
		SpeedMultiplier:    speedMultiplier,
	}
}

// referenceCostUSD derives a reference chain's typical swap cost from
// its configured gas price, gas limit, and native token price. Chains
// with no EVM-style gas model (gas price zero) report a zero cost,
// leaving cost-comparison figures for those chains as zero rather than
// fabricating a fee model that doesn't apply.
func referenceCostUSD(chain config.ReferenceChainConfig) float64 {
	if chain.GasPriceGwei <= 0 || chain.GasLimitTypicalSwap <= 0 {
		return 0
	}
	gasCostNative := (chain.GasPriceGwei * float64(chain.GasLimitTypicalSwap)) / 1e9
	return gasCostNative * chain.NativeTokenPriceUSD
}

func safePct(delta, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (delta / base) * 100
}
