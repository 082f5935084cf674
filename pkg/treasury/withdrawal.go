package treasury

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

const (
	defaultTimelockMin      = 24 * time.Hour
	defaultTimelockMax      = 7 * 24 * time.Hour
	defaultExecutionWindow  = 48 * time.Hour
	defaultRequiredApprovals = 1
)

// WithdrawalQueue holds pending/ready/executed/cancelled/expired
// withdrawal requests. It asks isKillSwitchActive rather than holding a
// *killswitch.KillSwitch directly, breaking what would otherwise be a
// ledger→queue→kill-switch→ledger dependency cycle.
type WithdrawalQueue struct {
	mu                 sync.Mutex
	requests           map[string]*WithdrawalRequest
	isKillSwitchActive func() bool
}

// NewWithdrawalQueue constructs an empty queue bound to a kill-switch
// status callback.
func NewWithdrawalQueue(isKillSwitchActive func() bool) *WithdrawalQueue {
	if isKillSwitchActive == nil {
		isKillSwitchActive = func() bool { return false }
	}
	return &WithdrawalQueue{requests: make(map[string]*WithdrawalRequest), isKillSwitchActive: isKillSwitchActive}
}

// clampTimelock forces d into [24h, 7d].
func clampTimelock(d time.Duration) time.Duration {
	if d < defaultTimelockMin {
		return defaultTimelockMin
	}
	if d > defaultTimelockMax {
		return defaultTimelockMax
	}
	return d
}

// RequestWithdrawal enqueues a new pending withdrawal. customTimelock,
// if non-nil, is clamped into the allowed range rather than rejected.
func (q *WithdrawalQueue) RequestWithdrawal(amountWei wei.Wei, bucket Bucket, destination string, customTimelock *time.Duration, now time.Time) (*WithdrawalRequest, error) {
	if amountWei.Sign() <= 0 {
		return nil, apperr.New(apperr.CodePolicyViolation, "withdrawal amount must be positive")
	}

	timelock := defaultTimelockMin
	if customTimelock != nil {
		timelock = clampTimelock(*customTimelock)
	}

	req := &WithdrawalRequest{
		ID:                 uuid.NewString(),
		AmountWei:          amountWei,
		FromBucket:         bucket,
		DestinationAddress: destination,
		RequestedAt:        now,
		TimelockExpiresAt:  now.Add(timelock),
		ExecutionDeadline:  now.Add(timelock + defaultExecutionWindow),
		Status:             WithdrawalPending,
		RequiredApprovals:  defaultRequiredApprovals,
	}

	q.mu.Lock()
	q.requests[req.ID] = req
	q.mu.Unlock()
	return req, nil
}

// Approve records an approval from approver, deduplicated by identity.
func (q *WithdrawalQueue) Approve(id, approver string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	req, ok := q.requests[id]
	if !ok {
		return apperr.New(apperr.CodeUnknownRequest, "withdrawal request not found")
	}
	for _, a := range req.Approvals {
		if a == approver {
			return nil
		}
	}
	req.Approvals = append(req.Approvals, approver)
	return nil
}

// effectiveStatus derives the request's current status from its stored
// status plus time/approval/kill-switch conditions, without mutating it.
func (q *WithdrawalQueue) effectiveStatus(req *WithdrawalRequest, now time.Time) WithdrawalStatus {
	switch req.Status {
	case WithdrawalExecuted, WithdrawalCancelled:
		return req.Status
	}
	if now.After(req.ExecutionDeadline) {
		return WithdrawalExpired
	}
	if len(req.Approvals) >= req.RequiredApprovals && !now.Before(req.TimelockExpiresAt) {
		return WithdrawalReady
	}
	return WithdrawalPending
}

// Status reports id's current effective status.
func (q *WithdrawalQueue) Status(id string, now time.Time) (WithdrawalStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	req, ok := q.requests[id]
	if !ok {
		return "", apperr.New(apperr.CodeUnknownRequest, "withdrawal request not found")
	}
	return q.effectiveStatus(req, now), nil
}

// Get returns a copy of the stored request.
func (q *WithdrawalQueue) Get(id string) (*WithdrawalRequest, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	req, ok := q.requests[id]
	if !ok {
		return nil, apperr.New(apperr.CodeUnknownRequest, "withdrawal request not found")
	}
	cp := *req
	return &cp, nil
}

// Execute transitions a ready request to executed, recording txHash. It
// re-checks the timelock and the kill switch immediately before
// committing — a request that looked ready a moment ago is re-verified,
// never trusted from a stale read.
func (q *WithdrawalQueue) Execute(id, txHash string, now time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	req, ok := q.requests[id]
	if !ok {
		return apperr.New(apperr.CodeUnknownRequest, "withdrawal request not found")
	}

	if q.isKillSwitchActive() {
		q.cancelLocked(req, "kill switch active", now)
		return apperr.New(apperr.CodeKillSwitchActive, "blocked by kill switch: withdrawal execute")
	}

	switch q.effectiveStatus(req, now) {
	case WithdrawalExecuted:
		return apperr.New(apperr.CodePolicyViolation, "withdrawal already executed")
	case WithdrawalCancelled:
		return apperr.New(apperr.CodePolicyViolation, "withdrawal was cancelled")
	case WithdrawalExpired:
		req.Status = WithdrawalExpired
		return apperr.New(apperr.CodePolicyViolation, "withdrawal execution deadline has passed")
	case WithdrawalPending:
		return apperr.New(apperr.CodeTimelockNotExpired, "withdrawal timelock has not expired or lacks required approvals")
	}

	req.Status = WithdrawalExecuted
	req.TxHash = txHash
	return nil
}

// Cancel cancels any non-terminal request.
func (q *WithdrawalQueue) Cancel(id, reason string, now time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	req, ok := q.requests[id]
	if !ok {
		return apperr.New(apperr.CodeUnknownRequest, "withdrawal request not found")
	}
	if req.Status == WithdrawalExecuted {
		return apperr.New(apperr.CodePolicyViolation, "cannot cancel an executed withdrawal")
	}
	q.cancelLocked(req, reason, now)
	return nil
}

func (q *WithdrawalQueue) cancelLocked(req *WithdrawalRequest, reason string, now time.Time) {
	if req.Status == WithdrawalExecuted || req.Status == WithdrawalCancelled {
		return
	}
	req.Status = WithdrawalCancelled
	req.CancelReason = reason
	at := now
	req.CancelledAt = &at
}

// CancelAllForKillSwitch cancels every pending/ready request — called
// once when the kill switch engages so the queue doesn't wait for a
// caller to individually touch each stale request.
func (q *WithdrawalQueue) CancelAllForKillSwitch(reason string, now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, req := range q.requests {
		if q.effectiveStatus(req, now) == WithdrawalPending || q.effectiveStatus(req, now) == WithdrawalReady {
			q.cancelLocked(req, reason, now)
		}
	}
}
