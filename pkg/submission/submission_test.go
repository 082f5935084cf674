package submission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
	"github.com/Muhammed5500/neuro-core/pkg/killswitch"
	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

type mockProvider struct {
	health  map[Route]bool
	nonce   uint64
	failDispatch bool
	failConfirm  bool
}

func newMockProvider() *mockProvider {
	return &mockProvider{health: map[Route]bool{
		RoutePublicRPC:         true,
		RoutePrivateRelay:      true,
		RouteDeferredExecution: true,
	}}
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) PublicRPCSubmit(ctx context.Context, payload []byte) (string, error) {
	if m.failDispatch {
		return "", apperr.New(apperr.CodeRPCFailure, "dispatch failed")
	}
	return "0xpublic", nil
}

func (m *mockProvider) PrivateRelaySubmit(ctx context.Context, payload []byte) (string, error) {
	if m.failDispatch {
		return "", apperr.New(apperr.CodeRPCFailure, "dispatch failed")
	}
	return "0xprivate", nil
}

func (m *mockProvider) DeferredExecutionSubmit(ctx context.Context, payload []byte) (string, error) {
	if m.failDispatch {
		return "", apperr.New(apperr.CodeRPCFailure, "dispatch failed")
	}
	return "0xdeferred", nil
}

func (m *mockProvider) HealthCheck(ctx context.Context, route Route) bool { return m.health[route] }

func (m *mockProvider) GetNonce(ctx context.Context, address string) (uint64, error) {
	m.nonce++
	return m.nonce, nil
}

func (m *mockProvider) WaitForConfirmation(ctx context.Context, txHash string) error {
	if m.failConfirm {
		return apperr.New(apperr.CodeTimeout, "confirmation timed out")
	}
	return nil
}

func defaultPolicy() Policy {
	return Policy{
		PublicRPCMaxBudgetWei:       wei.MustFromString("500000000000000000"), // 0.5 MON
		FailClosedOnProviderOffline: true,
		BlockFallbackToPublic:       true,
	}
}

func TestEvaluateRoutesBlocksPublicAboveThreshold(t *testing.T) {
	budget := wei.MustFromString("600000000000000000") // 0.6 MON
	health := map[Route]bool{RoutePublicRPC: true, RoutePrivateRelay: true, RouteDeferredExecution: true}

	evals := EvaluateRoutes(defaultPolicy(), ActionBuy, budget, health)

	var publicEval RouteEvaluation
	for _, e := range evals {
		if e.Route == RoutePublicRPC {
			publicEval = e
		}
	}
	require.False(t, publicEval.Allowed)
	require.True(t, publicEval.IsSecurityBlock)
}

func TestEvaluateRoutesAllowsPublicAtExactThreshold(t *testing.T) {
	budget := wei.MustFromString("500000000000000000") // exactly 0.5 MON
	health := map[Route]bool{RoutePublicRPC: true, RoutePrivateRelay: true, RouteDeferredExecution: true}

	evals := EvaluateRoutes(defaultPolicy(), ActionBuy, budget, health)
	for _, e := range evals {
		if e.Route == RoutePublicRPC {
			require.True(t, e.Allowed)
		}
	}
}

func TestEvaluateRoutesBlocksPublicForSensitiveAction(t *testing.T) {
	budget := wei.FromInt64(1)
	health := map[Route]bool{RoutePublicRPC: true, RoutePrivateRelay: true, RouteDeferredExecution: true}

	evals := EvaluateRoutes(defaultPolicy(), ActionTokenLaunch, budget, health)
	for _, e := range evals {
		if e.Route == RoutePublicRPC {
			require.False(t, e.Allowed)
			require.True(t, e.IsSecurityBlock)
		}
	}
}

func TestSelectRoutePrefersPrivateOverDeferredOverPublic(t *testing.T) {
	evals := []RouteEvaluation{
		{Route: RoutePublicRPC, Allowed: true},
		{Route: RoutePrivateRelay, Allowed: true},
		{Route: RouteDeferredExecution, Allowed: true},
	}
	route, ok := SelectRoute(evals)
	require.True(t, ok)
	require.Equal(t, RoutePrivateRelay, route)
}

func TestSelectRouteReturnsFalseWhenAllBlocked(t *testing.T) {
	evals := []RouteEvaluation{
		{Route: RoutePublicRPC, Allowed: false},
		{Route: RoutePrivateRelay, Allowed: false},
		{Route: RouteDeferredExecution, Allowed: false},
	}
	_, ok := SelectRoute(evals)
	require.False(t, ok)
}

func TestCheckFallbackAllowedBlocksWhenConfigured(t *testing.T) {
	policy := Policy{BlockFallbackToPublic: true}
	require.False(t, checkFallbackAllowed(policy, RoutePrivateRelay))
	require.True(t, checkFallbackAllowed(policy, RoutePublicRPC))
}

func TestNonceManagerReserveAndRelease(t *testing.T) {
	nm := NewNonceManager()
	provider := newMockProvider()
	now := time.Now()

	nonce, release, err := nm.Reserve(context.Background(), provider, "0xsender", "corr-1", now)
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonce)
	require.True(t, nm.IsReserved("0xsender", now))

	release()
	require.False(t, nm.IsReserved("0xsender", now))
}

func TestNonceManagerCollisionWhileActive(t *testing.T) {
	nm := NewNonceManager()
	provider := newMockProvider()
	now := time.Now()

	_, release, err := nm.Reserve(context.Background(), provider, "0xsender", "corr-1", now)
	require.NoError(t, err)
	defer release()

	_, _, err = nm.Reserve(context.Background(), provider, "0xsender", "corr-2", now)
	require.Error(t, err)
	require.Equal(t, apperr.CodeNonceCollision, apperr.CodeOf(err))
}

func TestNonceManagerReclaimsAfterTTL(t *testing.T) {
	nm := NewNonceManager()
	provider := newMockProvider()
	now := time.Now()

	_, _, err := nm.Reserve(context.Background(), provider, "0xsender", "corr-1", now)
	require.NoError(t, err)

	later := now.Add(reservationTTL + time.Second)
	_, _, err = nm.Reserve(context.Background(), provider, "0xsender", "corr-2", later)
	require.NoError(t, err)
}

func newTestRouter(t *testing.T, provider *mockProvider, policy Policy) *Router {
	t.Helper()
	ks := killswitch.New(nil, nil, nil)
	return NewRouter(policy, provider, ks)
}

func TestRouterSubmitHappyPathPrivateRelay(t *testing.T) {
	provider := newMockProvider()
	router := newTestRouter(t, provider, defaultPolicy())

	entry, err := router.Submit(context.Background(), SubmissionRequest{
		CorrelationID: "corr-1",
		Sender:        "0xsender",
		ActionType:    ActionBuy,
		BudgetWei:     wei.FromInt64(1),
	}, time.Now())

	require.NoError(t, err)
	require.True(t, entry.Success)
	require.Equal(t, RoutePrivateRelay, entry.Route)
	require.Equal(t, "0xprivate", entry.TxHash)
	require.False(t, entry.SecurityEvent)
}

func TestRouterSubmitFailClosedOfflineRaisesSecurityBreach(t *testing.T) {
	provider := newMockProvider()

	policy := defaultPolicy()
	policy.BlockFallbackToPublic = true

	// private_relay reports healthy during route selection but offline
	// on the validation-before-submit recheck — the route-went-offline-
	// between-selection-and-submission scenario.
	flaky := &flakyOfflineProvider{mockProvider: provider, offlineRoute: RoutePrivateRelay}

	router := newTestRouter(t, flaky, policy)
	entry, err := router.Submit(context.Background(), SubmissionRequest{
		CorrelationID: "corr-2",
		Sender:        "0xsender",
		ActionType:    ActionBuy,
		BudgetWei:     wei.FromInt64(1),
	}, time.Now())

	require.Error(t, err)
	require.True(t, entry.SecurityEvent)
	require.Equal(t, "provider_offline", entry.SecurityEventType)
	require.Equal(t, apperr.CodePrivateRelayOffline, apperr.CodeOf(err))
}

// flakyOfflineProvider reports offlineRoute healthy on the first
// HealthCheck call (the pre-evaluation snapshot) and offline on every
// call after, simulating a route that drops between selection and the
// validation-before-submit recheck.
type flakyOfflineProvider struct {
	*mockProvider
	offlineRoute Route
	calls        int
}

func (f *flakyOfflineProvider) HealthCheck(ctx context.Context, route Route) bool {
	if route != f.offlineRoute {
		return f.mockProvider.HealthCheck(ctx, route)
	}
	f.calls++
	return f.calls == 1
}

func TestRouterSubmitNoRouteAvailableIsPolicyViolation(t *testing.T) {
	provider := newMockProvider()
	provider.health[RoutePrivateRelay] = false
	provider.health[RouteDeferredExecution] = false

	policy := defaultPolicy()
	router := newTestRouter(t, provider, policy)

	entry, err := router.Submit(context.Background(), SubmissionRequest{
		CorrelationID: "corr-3",
		Sender:        "0xsender",
		ActionType:    ActionBuy,
		BudgetWei:     wei.MustFromString("600000000000000000"),
	}, time.Now())

	require.Error(t, err)
	require.True(t, entry.SecurityEvent)
	require.Equal(t, apperr.CodePolicyViolation, apperr.CodeOf(err))
}

func TestRouterSubmitBlockedByKillSwitch(t *testing.T) {
	provider := newMockProvider()
	ks := killswitch.New(nil, nil, nil)
	require.NoError(t, ks.Activate(context.Background(), "operator", "incident"))

	router := NewRouter(defaultPolicy(), provider, ks)
	entry, err := router.Submit(context.Background(), SubmissionRequest{
		CorrelationID: "corr-4",
		Sender:        "0xsender",
		ActionType:    ActionBuy,
		BudgetWei:     wei.FromInt64(1),
	}, time.Now())

	require.Error(t, err)
	require.False(t, entry.Success)
	require.Equal(t, apperr.CodeKillSwitchActive, apperr.CodeOf(err))
}
