// Package priceimpact computes trade price impact for both graduated
// (constant-product) and non-graduated (bonding-curve) pools, with a
// short-lived cache and an optimal-trade-size search. Grounded on the
// small, pure, heavily-unit-tested numeric-helper style of the scoring
// agent: no side effects beyond the cache, deterministic given its inputs.
package priceimpact

import (
	"context"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// Direction is the side of a proposed trade.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

const (
	graduatedFeeBps   = 30 // 0.3%
	slippageToleranceBps = 100 // 1%
	bondingCurveExponent = 2.0
	sellSensitivityMultiplier = 1.5
	cacheTTL = 3 * time.Second
)

// WarningZone classifies impact magnitude for UI/alerting purposes;
// blocking on impact is the execution pipeline's responsibility, not
// this package's.
type WarningZone string

const (
	WarningZoneNone    WarningZone = "none"
	WarningZoneLow     WarningZone = "low"
	WarningZoneMedium  WarningZone = "medium"
	WarningZoneHigh    WarningZone = "high"
	WarningZoneExtreme WarningZone = "extreme"
)

// classifyZone buckets an impact percentage (0..100 scale) into a zone.
func classifyZone(impactPct float64) WarningZone {
	switch {
	case impactPct < 0.5:
		return WarningZoneNone
	case impactPct < 1:
		return WarningZoneLow
	case impactPct < 3:
		return WarningZoneMedium
	case impactPct < 5:
		return WarningZoneHigh
	default:
		return WarningZoneExtreme
	}
}

// PoolSnapshot is the minimal pool state needed to price a trade.
type PoolSnapshot struct {
	ReserveToken  wei.Wei
	ReserveNative wei.Wei
	CurveProgress float64 // 0..1, ignored once Graduated
	Graduated     bool
}

// Result is the outcome of one impact calculation.
type Result struct {
	ImpactPct         float64
	WarningZone       WarningZone
	ExpectedOutputWei wei.Wei
	MinOutputWei      wei.Wei
	Cached            bool
}

type cacheKey struct {
	token     string
	sizeWei   string
	direction Direction
}

type cacheEntry struct {
	result    Result
	expiresAt time.Time
}

// Calculator computes and caches price impact. Safe for concurrent use.
type Calculator struct {
	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// NewCalculator constructs an empty Calculator.
func NewCalculator() *Calculator {
	return &Calculator{cache: make(map[cacheKey]cacheEntry)}
}

// Calculate returns the price impact of trading sizeWei of the native
// asset against snapshot, caching the result for 3 seconds per
// (token, size, direction).
func (c *Calculator) Calculate(ctx context.Context, token string, snapshot PoolSnapshot, sizeWei wei.Wei, direction Direction) (Result, error) {
	key := cacheKey{token: token, sizeWei: sizeWei.String(), direction: direction}

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		c.mu.Unlock()
		cached := entry.result
		cached.Cached = true
		return cached, nil
	}
	c.mu.Unlock()

	var result Result
	if snapshot.Graduated {
		result = calculateConstantProduct(snapshot, sizeWei, direction)
	} else {
		result = calculateBondingCurve(snapshot, sizeWei, direction)
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{result: result, expiresAt: time.Now().Add(cacheTTL)}
	c.mu.Unlock()

	return result, nil
}

// calculateConstantProduct prices a trade against x*y=k reserves, net of
// the 0.3% pool fee, with a 1% slippage tolerance on the minimum output.
func calculateConstantProduct(snapshot PoolSnapshot, sizeWei wei.Wei, direction Direction) Result {
	reserveIn, reserveOut := snapshot.ReserveNative.Big(), snapshot.ReserveToken.Big()
	if direction == DirectionSell {
		reserveIn, reserveOut = snapshot.ReserveToken.Big(), snapshot.ReserveNative.Big()
	}

	k := new(big.Int).Mul(reserveIn, reserveOut)

	feeNumerator := big.NewInt(10000 - graduatedFeeBps)
	effectiveIn := new(big.Int).Mul(sizeWei.Big(), feeNumerator)
	effectiveIn.Div(effectiveIn, big.NewInt(10000))

	newReserveIn := new(big.Int).Add(reserveIn, effectiveIn)
	newReserveOut := new(big.Int).Div(k, newReserveIn)
	actualOut := new(big.Int).Sub(reserveOut, newReserveOut)
	if actualOut.Sign() < 0 {
		actualOut = big.NewInt(0)
	}

	// Expected output at the pre-trade spot price, for impact comparison.
	expectedOut := new(big.Int).Mul(sizeWei.Big(), reserveOut)
	expectedOut.Div(expectedOut, reserveIn)

	impactPct := 0.0
	if expectedOut.Sign() > 0 {
		diff := new(big.Int).Sub(expectedOut, actualOut)
		diffF := new(big.Float).SetInt(diff)
		expectedF := new(big.Float).SetInt(expectedOut)
		ratio := new(big.Float).Quo(diffF, expectedF)
		impactPct, _ = ratio.Float64()
		impactPct *= 100
		if impactPct < 0 {
			impactPct = 0
		}
	}

	minOut := new(big.Int).Mul(actualOut, big.NewInt(10000-slippageToleranceBps))
	minOut.Div(minOut, big.NewInt(10000))

	return Result{
		ImpactPct:         impactPct,
		WarningZone:       classifyZone(impactPct),
		ExpectedOutputWei: wei.FromBig(actualOut),
		MinOutputWei:      wei.FromBig(minOut),
	}
}

// calculateBondingCurve approximates impact for a pre-graduation pool
// priced as price = k·supplyⁿ: impact scales with the trade's share of
// remaining native reserve and with curve progress, and sells are 1.5x
// more sensitive than buys at the same progress.
func calculateBondingCurve(snapshot PoolSnapshot, sizeWei wei.Wei, direction Direction) Result {
	reserveNative := snapshot.ReserveNative.Big()
	sizeF := new(big.Float).SetInt(sizeWei.Big())
	reserveF := new(big.Float).SetInt(reserveNative)

	tradeRatio := 0.0
	if reserveF.Sign() > 0 {
		ratio := new(big.Float).Quo(sizeF, reserveF)
		tradeRatio, _ = ratio.Float64()
	}

	progressFactor := 1 + snapshot.CurveProgress
	sensitivity := 1.0
	if direction == DirectionSell {
		sensitivity = sellSensitivityMultiplier
	}

	impactPct := tradeRatio * progressFactor * sensitivity * 100 * math.Pow(1+tradeRatio, bondingCurveExponent-1)

	reserveToken := snapshot.ReserveToken.Big()
	expectedOut := new(big.Int).Mul(sizeWei.Big(), reserveToken)
	if reserveNative.Sign() > 0 {
		expectedOut.Div(expectedOut, reserveNative)
	} else {
		expectedOut = big.NewInt(0)
	}
	degradation := 1 - impactPct/100
	if degradation < 0 {
		degradation = 0
	}
	actualOutF := new(big.Float).Mul(new(big.Float).SetInt(expectedOut), big.NewFloat(degradation))
	actualOut, _ := actualOutF.Int(nil)

	minOut := new(big.Int).Mul(actualOut, big.NewInt(10000-slippageToleranceBps))
	minOut.Div(minOut, big.NewInt(10000))

	return Result{
		ImpactPct:         impactPct,
		WarningZone:       classifyZone(impactPct),
		ExpectedOutputWei: wei.FromBig(actualOut),
		MinOutputWei:      wei.FromBig(minOut),
	}
}

// FindOptimalSize binary searches [0, 0.5*reserveNative] for a trade size
// whose impact lands within 0.01 percentage points of targetImpactPct.
func (c *Calculator) FindOptimalSize(ctx context.Context, token string, snapshot PoolSnapshot, direction Direction, targetImpactPct float64) (wei.Wei, error) {
	const maxIterations = 60
	const tolerance = 0.01

	lo := big.NewInt(0)
	hi := new(big.Int).Div(snapshot.ReserveNative.Big(), big.NewInt(2))

	var best *big.Int
	for i := 0; i < maxIterations; i++ {
		mid := new(big.Int).Add(lo, hi)
		mid.Div(mid, big.NewInt(2))

		result, err := c.Calculate(ctx, token, snapshot, wei.FromBig(mid), direction)
		if err != nil {
			return wei.Zero(), err
		}

		diff := result.ImpactPct - targetImpactPct
		if math.Abs(diff) <= tolerance {
			best = mid
			break
		}
		if diff < 0 {
			lo = mid
		} else {
			hi = mid
		}
		best = mid
	}
	if best == nil {
		best = lo
	}
	return wei.FromBig(best), nil
}
