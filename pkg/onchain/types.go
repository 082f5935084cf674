// Package onchain defines the on-chain data provider contract consumed by
// the rest of the core, plus a deterministic simulation backend for
// running the orchestrator without a live RPC endpoint. Grounded on the
// provider-interface-plus-mock split used for MCP server access
// (Client/registry interface, separate mock implementation for tests).
package onchain

import (
	"context"
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// Scenario names one of the canned simulation conditions.
type Scenario string

const (
	ScenarioHealthyMarket  Scenario = "HEALTHY_MARKET"
	ScenarioLowLiquidity   Scenario = "LOW_LIQUIDITY"
	ScenarioHighGas        Scenario = "HIGH_GAS"
	ScenarioNearGraduation Scenario = "NEAR_GRADUATION"
	ScenarioBotActivity    Scenario = "BOT_ACTIVITY"
)

// NetworkState is a coarse snapshot of chain health.
type NetworkState struct {
	ChainID      int64
	BlockNumber  uint64
	GasPriceWei  wei.Wei
	BlockTimeMs  int64
	IsCongested  bool
	ObservedAt   time.Time
}

// PoolLiquidity describes one token's trading pool.
type PoolLiquidity struct {
	Token           string
	ReserveToken    wei.Wei
	ReserveNative   wei.Wei
	CurveProgress   float64 // 0..1, 1 means graduated to constant-product
	Graduated       bool
	ObservedAt      time.Time
}

// HolderAnalysis summarizes token holder concentration and bot signals.
type HolderAnalysis struct {
	Token            string
	HolderCount      int
	Top10SharePct    float64
	UniqueBuyers24h  int
	BotScoreEstimate float64 // 0..1
	ObservedAt       time.Time
}

// Transaction is a minimal on-chain transaction summary.
type Transaction struct {
	Hash      string
	From      string
	To        string
	Token     string
	Side      string // buy | sell
	AmountWei wei.Wei
	BlockNumber uint64
	Timestamp time.Time
}

// Call is one multicall request entry.
type Call struct {
	Target   string
	Selector string
	Args     []byte
}

// CallResult is one multicall response entry.
type CallResult struct {
	Success bool
	Data    []byte
	Error   string
}

// Provider is the only on-chain data surface exposed to the rest of the
// core; real-RPC and simulation implementations satisfy it identically.
type Provider interface {
	GetNetworkState(ctx context.Context) (NetworkState, error)
	GetGasPrice(ctx context.Context) (wei.Wei, error)
	GetBlockNumber(ctx context.Context) (uint64, error)
	GetPoolLiquidity(ctx context.Context, token string) (PoolLiquidity, error)
	GetHolderAnalysis(ctx context.Context, token string) (HolderAnalysis, error)
	GetRecentTransactions(ctx context.Context, token string, limit int) ([]Transaction, error)
	Multicall(ctx context.Context, calls []Call) ([]CallResult, error)
	IsHealthy(ctx context.Context) bool
}
