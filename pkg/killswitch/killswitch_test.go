package killswitch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
)

type fakeSessions struct{ revoked bool; reason string }

func (f *fakeSessions) RevokeAll(reason string) { f.revoked = true; f.reason = reason }

type fakePlans struct{ cleared bool }

func (f *fakePlans) ClearQueuedPlans() { f.cleared = true }

type fakeAlerts struct{ published bool }

func (f *fakeAlerts) PublishAlert(ctx context.Context, actor, reason string) error {
	f.published = true
	return nil
}

type fakeWithdrawals struct {
	cancelled bool
	reason    string
}

func (f *fakeWithdrawals) CancelAllForKillSwitch(reason string, now time.Time) {
	f.cancelled = true
	f.reason = reason
}

func TestActivateCascades(t *testing.T) {
	sessions := &fakeSessions{}
	plans := &fakePlans{}
	alerts := &fakeAlerts{}
	withdrawals := &fakeWithdrawals{}
	ks := New(sessions, plans, alerts)
	ks.SetWithdrawals(withdrawals)

	require.NoError(t, ks.Activate(context.Background(), "operator", "emergency"))
	require.True(t, ks.IsActive())
	require.True(t, sessions.revoked)
	require.Equal(t, "emergency", sessions.reason)
	require.True(t, plans.cleared)
	require.True(t, alerts.published)
	require.True(t, withdrawals.cancelled)
	require.Equal(t, "emergency", withdrawals.reason)
}

func TestActivateWithoutWithdrawalsWiredSkipsCascade(t *testing.T) {
	ks := New(nil, nil, nil)
	require.NoError(t, ks.Activate(context.Background(), "op", "test"))
	require.True(t, ks.IsActive())
}

func TestCheckAllowedFailsWhenActive(t *testing.T) {
	ks := New(nil, nil, nil)
	require.NoError(t, ks.Activate(context.Background(), "op", "test"))

	err := ks.CheckAllowed("submit")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.CodeKillSwitchActive))
}

func TestDeactivateClearsFlag(t *testing.T) {
	ks := New(nil, nil, nil)
	require.NoError(t, ks.Activate(context.Background(), "op", "test"))
	ks.Deactivate("op", "resolved")
	require.False(t, ks.IsActive())
	require.NoError(t, ks.CheckAllowed("submit"))
}

func TestGuardSkipsFnWhenActive(t *testing.T) {
	ks := New(nil, nil, nil)
	require.NoError(t, ks.Activate(context.Background(), "op", "test"))

	called := false
	err := ks.Guard("withdraw", func() error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}

func TestHistoryRecordsTransitions(t *testing.T) {
	ks := New(nil, nil, nil)
	require.NoError(t, ks.Activate(context.Background(), "a", "r1"))
	ks.Deactivate("b", "r2")
	history := ks.History()
	require.Len(t, history, 2)
	require.True(t, history[0].Active)
	require.False(t, history[1].Active)
}
