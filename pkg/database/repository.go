package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Muhammed5500/neuro-core/pkg/treasury"
	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// PnLEventRepository persists the treasury's append-only PnL event log.
type PnLEventRepository struct {
	pool *pgxpool.Pool
}

// NewPnLEventRepository constructs a repository over the given pool.
func NewPnLEventRepository(pool *pgxpool.Pool) *PnLEventRepository {
	return &PnLEventRepository{pool: pool}
}

// Save inserts one PnL event. Events are immutable once recorded, so
// this is always an insert, never an upsert.
func (r *PnLEventRepository) Save(ctx context.Context, ev treasury.PnLEvent) error {
	allocations := make(map[string]string, len(ev.Allocations))
	for bucket, amt := range ev.Allocations {
		allocations[string(bucket)] = amt.String()
	}
	allocJSON, err := json.Marshal(allocations)
	if err != nil {
		return fmt.Errorf("database: marshal allocations: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO pnl_events (
			id, event_type, gross_amount_wei, net_amount_wei, prior_total_wei,
			new_total_wei, allocations, auto_recovered, invariant_passed, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, ev.ID, string(ev.Type), ev.GrossAmountWei, ev.NetAmountWei, ev.PreviousTotalWei,
		ev.NewTotalWei, allocJSON, ev.AutoRecovered, ev.InvariantCheckPassed, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("database: insert pnl event: %w", err)
	}
	return nil
}

// ListBetween returns every event recorded within [start, end), ordered
// by recorded_at — the shape the monthly rollup report consumes.
func (r *PnLEventRepository) ListBetween(ctx context.Context, start, end any) ([]treasury.PnLEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_type, gross_amount_wei, net_amount_wei, prior_total_wei,
		       new_total_wei, allocations, auto_recovered, invariant_passed, recorded_at
		FROM pnl_events
		WHERE recorded_at >= $1 AND recorded_at < $2
		ORDER BY recorded_at ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("database: query pnl events: %w", err)
	}
	defer rows.Close()

	var events []treasury.PnLEvent
	for rows.Next() {
		var ev treasury.PnLEvent
		var eventType string
		var allocJSON []byte

		if err := rows.Scan(&ev.ID, &eventType, &ev.GrossAmountWei, &ev.NetAmountWei, &ev.PreviousTotalWei,
			&ev.NewTotalWei, &allocJSON, &ev.AutoRecovered, &ev.InvariantCheckPassed, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("database: scan pnl event: %w", err)
		}
		ev.Type = treasury.PnLType(eventType)

		var raw map[string]string
		if err := json.Unmarshal(allocJSON, &raw); err != nil {
			return nil, fmt.Errorf("database: unmarshal allocations: %w", err)
		}
		ev.Allocations = make(map[treasury.Bucket]wei.Wei, len(raw))
		for bucket, amt := range raw {
			ev.Allocations[treasury.Bucket(bucket)] = wei.MustFromString(amt)
		}

		events = append(events, ev)
	}
	return events, rows.Err()
}

// WithdrawalRepository persists withdrawal-queue state so restarts
// don't lose in-flight timelocked requests.
type WithdrawalRepository struct {
	pool *pgxpool.Pool
}

// NewWithdrawalRepository constructs a repository over the given pool.
func NewWithdrawalRepository(pool *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{pool: pool}
}

// Upsert inserts or updates a withdrawal request by ID — unlike PnL
// events, a withdrawal's status mutates in place as it moves through
// its state machine.
func (r *WithdrawalRepository) Upsert(ctx context.Context, req treasury.WithdrawalRequest) error {
	approvalsJSON, err := json.Marshal(req.Approvals)
	if err != nil {
		return fmt.Errorf("database: marshal approvals: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO withdrawal_requests (
			id, amount_wei, from_bucket, destination_address, status, requested_at,
			timelock_expires_at, execution_deadline, required_approvals, approvals,
			tx_hash, cancel_reason, cancelled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			approvals = EXCLUDED.approvals,
			tx_hash = EXCLUDED.tx_hash,
			cancel_reason = EXCLUDED.cancel_reason,
			cancelled_at = EXCLUDED.cancelled_at,
			updated_at = now()
	`, req.ID, req.AmountWei, string(req.FromBucket), req.DestinationAddress, string(req.Status), req.RequestedAt,
		req.TimelockExpiresAt, req.ExecutionDeadline, req.RequiredApprovals, approvalsJSON,
		req.TxHash, req.CancelReason, req.CancelledAt)
	if err != nil {
		return fmt.Errorf("database: upsert withdrawal request: %w", err)
	}
	return nil
}

// ListByStatus returns every withdrawal request in the given status.
func (r *WithdrawalRepository) ListByStatus(ctx context.Context, status treasury.WithdrawalStatus) ([]treasury.WithdrawalRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, amount_wei, from_bucket, destination_address, status, requested_at,
		       timelock_expires_at, execution_deadline, required_approvals, approvals,
		       tx_hash, cancel_reason, cancelled_at
		FROM withdrawal_requests
		WHERE status = $1
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("database: query withdrawal requests: %w", err)
	}
	defer rows.Close()

	var out []treasury.WithdrawalRequest
	for rows.Next() {
		var req treasury.WithdrawalRequest
		var bucket, reqStatus string
		var approvalsJSON []byte

		if err := rows.Scan(&req.ID, &req.AmountWei, &bucket, &req.DestinationAddress, &reqStatus, &req.RequestedAt,
			&req.TimelockExpiresAt, &req.ExecutionDeadline, &req.RequiredApprovals, &approvalsJSON,
			&req.TxHash, &req.CancelReason, &req.CancelledAt); err != nil {
			return nil, fmt.Errorf("database: scan withdrawal request: %w", err)
		}
		req.FromBucket = treasury.Bucket(bucket)
		req.Status = treasury.WithdrawalStatus(reqStatus)
		if err := json.Unmarshal(approvalsJSON, &req.Approvals); err != nil {
			return nil, fmt.Errorf("database: unmarshal approvals: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
