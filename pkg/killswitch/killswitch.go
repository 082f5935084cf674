// Package killswitch implements the process-wide halt signal.
// It is constructed once by the orchestrator and shared by reference with
// every guarded component — never a package-level global, following
// "background singletons" re-architecture guidance.
package killswitch

import (
	"context"
	"sync"
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
)

// SessionRevoker is implemented by the session-key framework; the kill
// switch calls it without importing the sessionkey package, breaking the
// would-be import cycle.
type SessionRevoker interface {
	RevokeAll(reason string)
}

// PlanClearer is implemented by the execution pipeline's plan queue.
type PlanClearer interface {
	ClearQueuedPlans()
}

// WithdrawalCanceller is implemented by the treasury withdrawal queue;
// the kill switch calls it without importing pkg/treasury, breaking the
// would-be import cycle the same way SessionRevoker does for sessionkey.
type WithdrawalCanceller interface {
	CancelAllForKillSwitch(reason string, now time.Time)
}

// AlertPublisher is implemented by the bus (or a thin adapter over it);
// the kill switch never imports pkg/bus directly.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, actor, reason string) error
}

// ActivationRecord captures one activate/deactivate transition for audit.
type ActivationRecord struct {
	Active bool
	Actor  string
	Reason string
	At     time.Time
}

// KillSwitch is the shared, guarded halt flag.
type KillSwitch struct {
	mu          sync.RWMutex
	active      bool
	history     []ActivationRecord
	sessions    SessionRevoker
	plans       PlanClearer
	alerts      AlertPublisher
	withdrawals WithdrawalCanceller
}

// New constructs a KillSwitch wired to its three cascading callbacks. Any
// of them may be nil (e.g. in tests exercising the switch alone).
func New(sessions SessionRevoker, plans PlanClearer, alerts AlertPublisher) *KillSwitch {
	return &KillSwitch{sessions: sessions, plans: plans, alerts: alerts}
}

// SetWithdrawals wires the treasury withdrawal queue in after
// construction, breaking the constructor cycle between killswitch.New
// and treasury.NewWithdrawalQueue (which itself needs the kill switch's
// IsActive as its status callback). Safe to call once from the
// orchestrator's wiring step; nil (the default) means activation does
// not cancel withdrawals.
func (k *KillSwitch) SetWithdrawals(w WithdrawalCanceller) {
	k.withdrawals = w
}

// Activate atomically halts the process: sets the flag, clears queued
// plans, revokes all sessions, cancels every pending/ready withdrawal,
// and publishes an alert.
func (k *KillSwitch) Activate(ctx context.Context, actor, reason string) error {
	now := time.Now()
	k.mu.Lock()
	k.active = true
	k.history = append(k.history, ActivationRecord{Active: true, Actor: actor, Reason: reason, At: now})
	k.mu.Unlock()

	if k.plans != nil {
		k.plans.ClearQueuedPlans()
	}
	if k.sessions != nil {
		k.sessions.RevokeAll(reason)
	}
	if k.withdrawals != nil {
		k.withdrawals.CancelAllForKillSwitch(reason, now)
	}
	if k.alerts != nil {
		return k.alerts.PublishAlert(ctx, actor, reason)
	}
	return nil
}

// Deactivate clears the halt flag. It never auto-restores sessions or
// plans — those require explicit, separate operator action.
func (k *KillSwitch) Deactivate(actor, reason string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.active = false
	k.history = append(k.history, ActivationRecord{Active: false, Actor: actor, Reason: reason, At: time.Now()})
}

// IsActive reports the current halt state.
func (k *KillSwitch) IsActive() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.active
}

// CheckAllowed fails with a KILL_SWITCH_ACTIVE error if the switch is
// active; action names the gated operation for the error message.
func (k *KillSwitch) CheckAllowed(action string) error {
	if k.IsActive() {
		return apperr.New(apperr.CodeKillSwitchActive, "blocked by kill switch: "+action)
	}
	return nil
}

// Guard wraps an async operation, rejecting it immediately if the switch
// is active and otherwise running fn.
func (k *KillSwitch) Guard(action string, fn func() error) error {
	if err := k.CheckAllowed(action); err != nil {
		return err
	}
	return fn()
}

// History returns a copy of all activation transitions, oldest first.
func (k *KillSwitch) History() []ActivationRecord {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]ActivationRecord, len(k.history))
	copy(out, k.history)
	return out
}
