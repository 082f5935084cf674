// Package config loads and validates the core's configuration, grounded
// on an orchestrator-style typed-config-plus-defaults pattern: explicit
// structs with enumerated fields rather than any-keyed options.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// Config is the root configuration object, constructed once in main and
// passed down by reference — never a package-level singleton.
type Config struct {
	ChainID int64

	Database DatabaseConfig
	Bus      BusConfig
	Session  SessionConfig
	Execution ExecutionConfig
	Submission SubmissionConfig
	Treasury TreasuryConfig
	VectorMemory VectorMemoryConfig
	Consensus ConsensusConfig
	CrossCheck CrossCheckConfig
	RunRecord RunRecordConfig
	Metrics   MetricsConfig
	API       APIConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// BusConfig configures the zero-trust message bus.
type BusConfig struct {
	SigningKey     []byte
	DefaultTTL     time.Duration
	MaxClockSkew   time.Duration
	NonceRetention time.Duration
	MaxNonceSetSize int
	StrictSequence bool
}

// SessionConfig configures the session-key framework.
type SessionConfig struct {
	EncryptionKey   [32]byte
	VelocityWindow  time.Duration
	MaxNonceGap     uint64
}

// ExecutionConfig configures the execution plan pipeline.
type ExecutionConfig struct {
	GasBufferPercent      int64 // default 15
	MaxSlippagePercent    float64 // default 2.5
	SimulationStaleBlocks int64 // default 3
	MaxRiskScore          float64 // default 0.7
}

// SubmissionConfig configures the submission router policy.
type SubmissionConfig struct {
	PublicRPCMaxBudgetMon wei.Wei // default 0.5 MON (in wei)
	FailClosedOnProviderOffline bool // default true
	BlockFallbackToPublic bool // default true
	NonceReservationTTL time.Duration
	SensitiveActionTypes []string
}

// TreasuryConfig configures the treasury ledger.
type TreasuryConfig struct {
	AllocationLiquidityPercent int64 // 40
	AllocationLaunchPercent    int64 // 30
	AllocationGasPercent       int64 // 30
	MaxDiscrepancyPercent      float64 // 5
	AutoRecoverDiscrepancy     bool // true
	MaxAutoRecoverAmount       wei.Wei
	TimelockMin                time.Duration // 24h
	TimelockMax                time.Duration // 7d
	ExecutionWindow            time.Duration // 48h
	ReconcileGasShare          float64 // 0.6
	ReconcileSlippageShare     float64 // 0.3
	ReconcileUnexplainedShare  float64 // 0.1
}

// VectorMemoryConfig configures the async vector indexer.
type VectorMemoryConfig struct {
	DeduplicationThreshold float64 // 0.99
	BatchSize              int     // 10
	FlushInterval          time.Duration // 100ms
	WorkerPoolSize         int     // 3
}

// ConsensusConfig configures the consensus engine.
type ConsensusConfig struct {
	ConfidenceThreshold     float64 // 0.85
	AdversarialVetoThreshold float64 // 0.90
	MinAgentsRequired       int     // default 2
	AgreementThreshold      float64 // 0.6
}

// CrossCheckConfig configures the cross-check verification subsystem.
type CrossCheckConfig struct {
	StalenessThreshold   time.Duration // 6h
	SimilarityThreshold  float64       // 0.6
	CredibilityThreshold float64       // 0.5
	CopyPastaMinAccounts int           // 10
	CopyPastaWindow      time.Duration // 30m
}

// RunRecordConfig configures the run record store.
type RunRecordConfig struct {
	BaseDir string
}

// ReferenceChainConfig holds the comparison parameters for one
// reference chain: typical block time and finality, an end-to-end
// pipeline latency figure comparable to this core's own measured
// phases, and gas/price figures for cost comparison.
type ReferenceChainConfig struct {
	BlockTimeMs         int64
	FinalityMs          int64
	PipelineLatencyMs   int64
	GasPriceGwei        float64
	GasLimitTypicalSwap int64
	NativeTokenPriceUSD float64
}

// MetricsConfig configures phase-latency tracking and reference-chain
// comparison.
type MetricsConfig struct {
	RecentWindowSize int // recent-N average window, default 10
	ReferenceChains  map[string]ReferenceChainConfig
}

// APIConfig configures the HTTP read/control surface.
type APIConfig struct {
	Port        string
	GinMode     string // "debug", "release", or "test"
	OperatorKey string // shared secret gating the kill-switch activate/deactivate endpoints
}

// Default returns the published configuration defaults.
func Default() *Config {
	return &Config{
		ChainID: 143,
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "neuro",
			Password:        "neuro",
			Database:        "neuro",
			SSLMode:         "disable",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Bus: BusConfig{
			DefaultTTL:      60 * time.Second,
			MaxClockSkew:    5 * time.Second,
			NonceRetention:  10 * time.Minute,
			MaxNonceSetSize: 100_000,
			StrictSequence:  true,
		},
		Session: SessionConfig{
			VelocityWindow: 60 * time.Second,
			MaxNonceGap:    0,
		},
		Execution: ExecutionConfig{
			GasBufferPercent:      15,
			MaxSlippagePercent:    2.5,
			SimulationStaleBlocks: 3,
			MaxRiskScore:          0.7,
		},
		Submission: SubmissionConfig{
			PublicRPCMaxBudgetMon:       wei.MustFromString("500000000000000000"), // 0.5 MON @ 18 decimals
			FailClosedOnProviderOffline: true,
			BlockFallbackToPublic:       true,
			NonceReservationTTL:         30 * time.Second,
			SensitiveActionTypes:        []string{"token_launch", "large_swap", "liquidity_removal"},
		},
		Treasury: TreasuryConfig{
			AllocationLiquidityPercent: 40,
			AllocationLaunchPercent:    30,
			AllocationGasPercent:       30,
			MaxDiscrepancyPercent:      5,
			AutoRecoverDiscrepancy:     true,
			MaxAutoRecoverAmount:       wei.MustFromString("10000000000000000"), // 0.01 MON
			TimelockMin:                24 * time.Hour,
			TimelockMax:                7 * 24 * time.Hour,
			ExecutionWindow:            48 * time.Hour,
			ReconcileGasShare:          0.6,
			ReconcileSlippageShare:     0.3,
			ReconcileUnexplainedShare:  0.1,
		},
		VectorMemory: VectorMemoryConfig{
			DeduplicationThreshold: 0.99,
			BatchSize:              10,
			FlushInterval:          100 * time.Millisecond,
			WorkerPoolSize:         3,
		},
		Consensus: ConsensusConfig{
			ConfidenceThreshold:      0.85,
			AdversarialVetoThreshold: 0.90,
			MinAgentsRequired:        2,
			AgreementThreshold:       0.6,
		},
		CrossCheck: CrossCheckConfig{
			StalenessThreshold:   6 * time.Hour,
			SimilarityThreshold:  0.6,
			CredibilityThreshold: 0.5,
			CopyPastaMinAccounts: 10,
			CopyPastaWindow:      30 * time.Minute,
		},
		RunRecord: RunRecordConfig{
			BaseDir: "./data/runs",
		},
		Metrics: MetricsConfig{
			RecentWindowSize: 10,
			ReferenceChains: map[string]ReferenceChainConfig{
				"ethereum": {BlockTimeMs: 12_000, FinalityMs: 780_000, PipelineLatencyMs: 13_000, GasPriceGwei: 20, GasLimitTypicalSwap: 150_000, NativeTokenPriceUSD: 3_000},
				"solana":   {BlockTimeMs: 400, FinalityMs: 13_000, PipelineLatencyMs: 1_500, GasPriceGwei: 0, GasLimitTypicalSwap: 0, NativeTokenPriceUSD: 150},
				"arbitrum": {BlockTimeMs: 250, FinalityMs: 900_000, PipelineLatencyMs: 800, GasPriceGwei: 0.1, GasLimitTypicalSwap: 800_000, NativeTokenPriceUSD: 3_000},
				"polygon":  {BlockTimeMs: 2_000, FinalityMs: 128_000, PipelineLatencyMs: 2_500, GasPriceGwei: 30, GasLimitTypicalSwap: 150_000, NativeTokenPriceUSD: 0.7},
				"optimism": {BlockTimeMs: 2_000, FinalityMs: 900_000, PipelineLatencyMs: 2_200, GasPriceGwei: 0.05, GasLimitTypicalSwap: 150_000, NativeTokenPriceUSD: 3_000},
				"base":     {BlockTimeMs: 2_000, FinalityMs: 900_000, PipelineLatencyMs: 2_200, GasPriceGwei: 0.02, GasLimitTypicalSwap: 150_000, NativeTokenPriceUSD: 3_000},
			},
		},
		API: APIConfig{
			Port:    "8080",
			GinMode: "release",
		},
	}
}

// LoadFromEnv overlays environment-variable overrides onto the published
// defaults, matching a database.LoadConfigFromEnv-style overlay.
func LoadFromEnv() (*Config, error) {
	cfg := Default()

	if v := os.Getenv("NEURO_CHAIN_ID"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: invalid NEURO_CHAIN_ID: %w", err)
		}
		cfg.ChainID = n
	}

	if v := os.Getenv("NEURO_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("NEURO_DB_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid NEURO_DB_PORT: %w", err)
		}
		cfg.Database.Port = n
	}
	if v := os.Getenv("NEURO_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("NEURO_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("NEURO_DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("NEURO_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}

	if v := os.Getenv("NEURO_BUS_SIGNING_KEY"); v != "" {
		if len(v) < 32 {
			return nil, fmt.Errorf("config: NEURO_BUS_SIGNING_KEY must be at least 32 bytes, got %d", len(v))
		}
		cfg.Bus.SigningKey = []byte(v)
	}

	if v := os.Getenv("NEURO_RUN_RECORD_DIR"); v != "" {
		cfg.RunRecord.BaseDir = v
	}

	if v := os.Getenv("NEURO_API_PORT"); v != "" {
		cfg.API.Port = v
	}
	if v := os.Getenv("NEURO_GIN_MODE"); v != "" {
		cfg.API.GinMode = v
	}
	if v := os.Getenv("NEURO_OPERATOR_KEY"); v != "" {
		cfg.API.OperatorKey = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks internal consistency of the configuration.
func (c *Config) Validate() error {
	if len(c.Bus.SigningKey) > 0 && len(c.Bus.SigningKey) < 32 {
		return fmt.Errorf("config: bus signing key must be >= 32 bytes")
	}
	if c.Treasury.AllocationLiquidityPercent+c.Treasury.AllocationLaunchPercent+c.Treasury.AllocationGasPercent != 100 {
		return fmt.Errorf("config: treasury allocation percentages must sum to 100")
	}
	if c.Treasury.TimelockMin > c.Treasury.TimelockMax {
		return fmt.Errorf("config: timelock min must be <= max")
	}
	if c.Consensus.MinAgentsRequired < 1 {
		return fmt.Errorf("config: min agents required must be >= 1")
	}
	return nil
}
