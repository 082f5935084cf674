// Package database provides the Postgres connection pool and embedded
// schema migrations backing the treasury ledger, its PnL events, and
// the withdrawal queue (run records remain file-first, per
// pkg/runrecord). The connection-and-migration shape here is hand-
// written SQL over pgx/v5 directly rather than a generated ORM client,
// since there's no code generator available to produce one.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Muhammed5500/neuro-core/pkg/config"
)

// Client wraps a pgx connection pool. Callers reach the pool directly
// for repository-style queries; Client's own surface is limited to
// lifecycle and health.
type Client struct {
	pool *pgxpool.Pool
}

// Pool exposes the underlying connection pool to repository types.
func (c *Client) Pool() *pgxpool.Pool { return c.pool }

// Close releases all pooled connections.
func (c *Client) Close() { c.pool.Close() }

// NewClient opens a connection pool against cfg, verifies
// connectivity, and applies any pending embedded migrations before
// returning.
func NewClient(ctx context.Context, cfg config.DatabaseConfig) (*Client, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_max_conn_lifetime=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
		cfg.MaxOpenConns, cfg.ConnMaxLifetime,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("database: invalid connection config: %w", err)
	}
	poolCfg.MinConns = int32(cfg.MaxIdleConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("database: failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: failed to ping: %w", err)
	}

	if err := runMigrations(cfg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: failed to apply migrations: %w", err)
	}

	return &Client{pool: pool}, nil
}

// NewClientFromPool wraps an already-constructed pool, useful for
// tests that build their own pgxpool.Pool against a disposable
// database.
func NewClientFromPool(pool *pgxpool.Pool) *Client {
	return &Client{pool: pool}
}
