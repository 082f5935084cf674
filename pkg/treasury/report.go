package treasury

import (
	"math/big"
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// weiToFloat64 converts a wei.Wei to a float64 for ratio/percentage
// metrics only — never for balance-affecting arithmetic.
func weiToFloat64(w wei.Wei) float64 {
	f := new(big.Float).SetInt(w.Big())
	v, _ := f.Float64()
	return v
}

const reportVersion = "1"

// ActivityMetrics summarises event counts by type over the reported period.
type ActivityMetrics struct {
	EventCount      int
	TradeCount      int
	WithdrawalCount int
}

// GasEfficiency reports profit-normalised gas spend.
type GasEfficiency struct {
	GasPerProfitUnit        float64
	MonthOverMonthChangePct float64
}

// GrowthMetrics reports balance growth over the period.
type GrowthMetrics struct {
	AbsoluteWei       wei.Wei
	PercentChange     float64
	AnnualizedPercent float64
}

// InvariantHealth summarises recovery outcomes over the period.
// HealthScore is 100 minus a fixed penalty per recovered/unrecovered
// discrepancy, floored at zero.
type InvariantHealth struct {
	RecoveredCount   int
	UnrecoveredCount int
	HealthScore      float64
}

// WithdrawalActivity summarises withdrawal queue activity over the period.
type WithdrawalActivity struct {
	Requested        int
	Executed         int
	Cancelled        int
	TotalWithdrawnWei wei.Wei
}

// MonthlyReport is the deterministic JSON-serialisable rollup. Every
// wei.Wei field marshals as a decimal-digit string via wei.Wei's own
// MarshalJSON, never a float.
type MonthlyReport struct {
	ReportVersion      string
	PeriodStart        time.Time
	PeriodEnd          time.Time
	OpeningBalanceWei  wei.Wei
	ClosingBalanceWei  wei.Wei
	BucketChangesWei   map[Bucket]wei.Wei
	PnlByType          map[PnLType]wei.Wei
	Activity           ActivityMetrics
	GasEfficiency      GasEfficiency
	Growth             GrowthMetrics
	InvariantHealth    InvariantHealth
	WithdrawalActivity WithdrawalActivity
}

// BuildMonthlyReport assembles the rollup purely from the event log and
// withdrawal snapshots already held in memory — it performs no I/O.
func BuildMonthlyReport(
	periodStart, periodEnd time.Time,
	events []PnLEvent,
	withdrawals []*WithdrawalRequest,
	openingBalance wei.Wei,
	closingBalance wei.Wei,
	prevMonthGasPerProfit float64,
) MonthlyReport {
	bucketChanges := map[Bucket]wei.Wei{
		BucketLiquidity: wei.Zero(),
		BucketLaunch:    wei.Zero(),
		BucketGas:       wei.Zero(),
	}
	pnlByType := map[PnLType]wei.Wei{}
	totalGasSpent := wei.Zero()
	netPnl := wei.Zero()
	recovered, unrecovered := 0, 0
	tradeCount := 0

	for _, ev := range events {
		for b, amt := range ev.Allocations {
			bucketChanges[b] = bucketChanges[b].Add(amt)
		}
		pnlByType[ev.Type] = pnlByType[ev.Type].Add(ev.NetAmountWei)
		netPnl = netPnl.Add(ev.NetAmountWei)
		if ev.Type == PnLTypeGasExpense {
			totalGasSpent = totalGasSpent.Sub(ev.NetAmountWei) // expense is negative; spend is positive
		}
		if ev.Type == PnLTypeTradeProfit || ev.Type == PnLTypeTradeLoss {
			tradeCount++
		}
		if ev.AutoRecovered {
			recovered++
		} else if !ev.InvariantCheckPassed {
			unrecovered++
		}
	}

	requested, executed, cancelled := 0, 0, 0
	totalWithdrawn := wei.Zero()
	for _, w := range withdrawals {
		requested++
		switch w.Status {
		case WithdrawalExecuted:
			executed++
			totalWithdrawn = totalWithdrawn.Add(w.AmountWei)
		case WithdrawalCancelled:
			cancelled++
		}
	}

	gasPerProfit := 0.0
	if !netPnl.IsZero() {
		netF := weiToFloat64(netPnl)
		if netF != 0 {
			gasPerProfit = weiToFloat64(totalGasSpent) / netF
		}
	}

	gasEfficiency := GasEfficiency{GasPerProfitUnit: gasPerProfit}
	if prevMonthGasPerProfit != 0 {
		gasEfficiency.MonthOverMonthChangePct = ((gasPerProfit - prevMonthGasPerProfit) / prevMonthGasPerProfit) * 100
	}

	absolute := closingBalance.Sub(openingBalance)
	growth := GrowthMetrics{AbsoluteWei: absolute}
	if !openingBalance.IsZero() {
		growth.PercentChange = (weiToFloat64(absolute) / weiToFloat64(openingBalance)) * 100
		// A 30-day reporting period is assumed; annualising multiplies by
		// twelve rather than computing actual elapsed days.
		growth.AnnualizedPercent = growth.PercentChange * 12
	}

	healthScore := 100.0 - 10.0*float64(recovered) - 50.0*float64(unrecovered)
	if healthScore < 0 {
		healthScore = 0
	}

	return MonthlyReport{
		ReportVersion:     reportVersion,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		OpeningBalanceWei: openingBalance,
		ClosingBalanceWei: closingBalance,
		BucketChangesWei:  bucketChanges,
		PnlByType:         pnlByType,
		Activity: ActivityMetrics{
			EventCount:      len(events),
			TradeCount:      tradeCount,
			WithdrawalCount: requested,
		},
		GasEfficiency: gasEfficiency,
		Growth:        growth,
		InvariantHealth: InvariantHealth{
			RecoveredCount:   recovered,
			UnrecoveredCount: unrecovered,
			HealthScore:      healthScore,
		},
		WithdrawalActivity: WithdrawalActivity{
			Requested:         requested,
			Executed:          executed,
			Cancelled:         cancelled,
			TotalWithdrawnWei: totalWithdrawn,
		},
	}
}
