// Package api exposes the orchestrator's read paths and operator
// controls over HTTP: run-record listing and replay verification,
// treasury snapshots and monthly reporting, session-key status, and the
// kill-switch activate/deactivate control. It never drives a trading
// cycle itself — RunCycle is invoked by whatever schedules signal
// ingestion, not by a request handler.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Muhammed5500/neuro-core/pkg/config"
	"github.com/Muhammed5500/neuro-core/pkg/database"
	"github.com/Muhammed5500/neuro-core/pkg/orchestrator"
)

// Server is the HTTP API server. One Server wraps one orchestrator for
// the lifetime of the process.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	cfg        *config.Config
	orch       *orchestrator.Orchestrator
	dbClient   *database.Client // optional; nil disables the database leg of /health
}

// NewServer builds a Server and registers every route. cfg.API.GinMode
// controls gin's own debug/release logging verbosity.
func NewServer(cfg *config.Config, orch *orchestrator.Orchestrator, dbClient *database.Client) *Server {
	gin.SetMode(modeOrDefault(cfg.API.GinMode))
	e := gin.New()
	e.Use(gin.Recovery(), requestLogger(), securityHeaders())

	s := &Server{
		engine:   e,
		cfg:      cfg,
		orch:     orch,
		dbClient: dbClient,
	}
	s.setupRoutes()
	return s
}

func modeOrDefault(mode string) string {
	if mode == "" {
		return gin.ReleaseMode
	}
	return mode
}

// setupRoutes registers the health check and the versioned API group.
func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/runs", s.listRunsHandler)
		v1.GET("/runs/:id", s.getRunHandler)
		v1.GET("/runs/:id/verify", s.verifyRunHandler)

		v1.GET("/treasury/snapshot", s.treasurySnapshotHandler)
		v1.GET("/treasury/events", s.treasuryEventsHandler)
		v1.GET("/treasury/report", s.treasuryReportHandler)

		v1.GET("/sessions/:id", s.getSessionHandler)

		v1.GET("/killswitch", s.killSwitchStatusHandler)
		operator := v1.Group("/killswitch", requireOperator(s.cfg.API.OperatorKey))
		operator.POST("/activate", s.activateKillSwitchHandler)
		operator.POST("/deactivate", s.deactivateKillSwitchHandler)
	}
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully within a fixed drain window.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              ":" + s.cfg.API.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api: server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
