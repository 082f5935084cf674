// Command neuro starts the trading orchestrator: it loads configuration,
// connects to Postgres, wires every core component, and serves the HTTP
// API until interrupted.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Muhammed5500/neuro-core/pkg/api"
	"github.com/Muhammed5500/neuro-core/pkg/config"
	"github.com/Muhammed5500/neuro-core/pkg/crosscheck"
	"github.com/Muhammed5500/neuro-core/pkg/database"
	"github.com/Muhammed5500/neuro-core/pkg/onchain"
	"github.com/Muhammed5500/neuro-core/pkg/orchestrator"
	"github.com/Muhammed5500/neuro-core/pkg/submission"
	"github.com/Muhammed5500/neuro-core/pkg/vectormemory"
	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	envFile := flag.String("env-file", getEnv("ENV_FILE", ".env"), "Path to a .env file to load")
	initialDeposit := flag.String("initial-deposit-wei", getEnv("NEURO_INITIAL_DEPOSIT_WEI", "0"), "Initial treasury deposit, in wei")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("warning: could not load %s: %v", *envFile, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", *envFile)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if len(cfg.Bus.SigningKey) == 0 {
		log.Fatalf("NEURO_BUS_SIGNING_KEY is required and must be >= 32 bytes")
	}

	depositWei, err := wei.FromString(*initialDeposit)
	if err != nil {
		log.Fatalf("invalid -initial-deposit-wei: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := database.NewClient(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dbClient.Close()
	log.Println("connected to Postgres and applied migrations")

	// No externally-hosted embedding or vector backend is wired into this
	// build: both are out of this core's scope, so a single-process
	// in-memory vector store and a deterministic local embedder stand in
	// for them. Swap these for real provider implementations before
	// deploying against live signal volume.
	embedder := vectormemory.NewLocalHashEmbedder(64)
	vectorBackend := vectormemory.NewMemoryBackend()

	onchainProvider, err := onchain.NewSimulationProvider(cfg.ChainID, onchain.ScenarioHealthyMarket, 1)
	if err != nil {
		log.Fatalf("failed to construct chain provider: %v", err)
	}

	sessionEncKey, err := loadOrGenerateSessionKey(cfg)
	if err != nil {
		log.Fatalf("failed to load session encryption key: %v", err)
	}
	cfg.Session.EncryptionKey = sessionEncKey

	orch, err := orchestrator.New(cfg, orchestrator.Deps{
		Embedder:        embedder,
		VectorBackend:   vectorBackend,
		OnchainProvider: onchainProvider,
		// SubmissionProvider and SearchProvider have no real
		// implementation in this build: submission loops back
		// in-process instead of reaching a relay or public RPC, and
		// corroboration search reports no sources rather than calling
		// out to a news API.
		SubmissionProvider: submission.NewLoopbackProvider(),
		SearchProvider:     crosscheck.NoopSearchProvider{},
		OwnershipGroups:    map[string]string{},
		DB:                 dbClient,
	}, depositWei)
	if err != nil {
		log.Fatalf("failed to construct orchestrator: %v", err)
	}

	server := api.NewServer(cfg, orch, dbClient)

	slog.Info("neuro orchestrator starting", "port", cfg.API.Port, "chainId", cfg.ChainID)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("api server exited with error: %v", err)
	}
	slog.Info("neuro orchestrator stopped")
}

// loadOrGenerateSessionKey takes the first 32 bytes of
// NEURO_SESSION_ENCRYPTION_KEY as the raw session encryption key (the
// value is not hex-decoded) or generates a
// process-lifetime-only random one, logging a loud warning in the
// latter case since session state becomes unrecoverable across restarts.
func loadOrGenerateSessionKey(cfg *config.Config) ([32]byte, error) {
	var key [32]byte
	if v := os.Getenv("NEURO_SESSION_ENCRYPTION_KEY"); v != "" {
		if len(v) < 32 {
			return key, os.ErrInvalid
		}
		copy(key[:], v[:32])
		return key, nil
	}
	if _, err := rand.Read(key[:]); err != nil {
		return key, err
	}
	log.Println("warning: no NEURO_SESSION_ENCRYPTION_KEY set; generated an ephemeral key for this process only")
	return key, nil
}
