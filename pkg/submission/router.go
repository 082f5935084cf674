package submission

import (
	"context"
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
	"github.com/Muhammed5500/neuro-core/pkg/killswitch"
)

// offlineCode maps a non-public route to the apperr code raised when a
// fail-closed submission finds it offline at validation-before-submit.
var offlineCode = map[Route]apperr.Code{
	RoutePrivateRelay:      apperr.CodePrivateRelayOffline,
	RouteDeferredExecution: apperr.CodeDeferredOffline,
	RoutePublicRPC:         apperr.CodePublicRPCOffline,
}

// Router evaluates, selects, and submits through one of the three
// routes, enforcing fail-closed policy and atomic per-address nonce
// reservation end to end.
type Router struct {
	policy     Policy
	provider   Provider
	killSwitch *killswitch.KillSwitch
	nonces     *NonceManager
}

// NewRouter constructs a Router bound to a policy, a submission provider,
// and the shared kill switch.
func NewRouter(policy Policy, provider Provider, ks *killswitch.KillSwitch) *Router {
	return &Router{policy: policy, provider: provider, killSwitch: ks, nonces: NewNonceManager()}
}

// Submit evaluates routes, selects the most preferred allowed one,
// re-validates it, reserves a nonce, submits, and waits for confirmation
// — returning an AuditEntry regardless of outcome (callers persist it
// even on error).
func (r *Router) Submit(ctx context.Context, req SubmissionRequest, now time.Time) (*AuditEntry, error) {
	entry := &AuditEntry{
		CorrelationID: req.CorrelationID,
		PlanID:        req.PlanID,
		SimulationID:  req.SimulationID,
		BundleID:      req.BundleID,
		Action:        req.ActionType,
		At:            now,
	}

	if err := r.killSwitch.CheckAllowed("submission"); err != nil {
		entry.Success = false
		entry.ErrorCode = string(apperr.CodeOf(err))
		return entry, err
	}

	if err := verifyRequestSignature(req); err != nil {
		entry.Success = false
		entry.SecurityEvent = true
		entry.SecurityEventType = "invalid_session_signature"
		entry.ErrorCode = string(apperr.CodeOf(err))
		return entry, err
	}

	health := map[Route]bool{
		RoutePublicRPC:         r.provider.HealthCheck(ctx, RoutePublicRPC),
		RoutePrivateRelay:      r.provider.HealthCheck(ctx, RoutePrivateRelay),
		RouteDeferredExecution: r.provider.HealthCheck(ctx, RouteDeferredExecution),
	}

	evaluations := EvaluateRoutes(r.policy, req.ActionType, req.BudgetWei, health)
	route, ok := SelectRoute(evaluations)
	if !ok {
		err := apperr.NewSecurityBreach(apperr.CodePolicyViolation, "policy_violation", "no route satisfies routing policy for this submission")
		entry.Success = false
		entry.SecurityEvent = true
		entry.SecurityEventType = "policy_violation"
		entry.ErrorCode = string(apperr.CodePolicyViolation)
		return entry, err
	}
	entry.Route = route

	// Validation-before-submit: the health snapshot above may be stale by
	// the time we actually attempt the call.
	if !r.provider.HealthCheck(ctx, route) {
		if !checkFallbackAllowed(r.policy, route) || route == RoutePublicRPC {
			err := apperr.NewSecurityBreach(offlineCode[route], "provider_offline", "route went offline between selection and submission")
			entry.Success = false
			entry.SecurityEvent = true
			entry.SecurityEventType = "provider_offline"
			entry.ErrorCode = string(offlineCode[route])
			return entry, err
		}
	}

	entry.ProviderName = r.provider.Name()

	nonce, release, err := r.nonces.Reserve(ctx, r.provider, req.Sender, req.CorrelationID, now)
	if err != nil {
		entry.Success = false
		entry.SecurityEvent = true
		entry.SecurityEventType = "nonce_collision"
		entry.ErrorCode = string(apperr.CodeNonceCollision)
		return entry, err
	}
	defer release()
	_ = nonce

	txHash, err := r.dispatch(ctx, route, req.TxPayload)
	if err != nil {
		entry.Success = false
		entry.ErrorCode = string(apperr.CodeOf(err))
		return entry, err
	}
	entry.TxHash = txHash

	if err := r.provider.WaitForConfirmation(ctx, txHash); err != nil {
		entry.Success = false
		entry.ErrorCode = string(apperr.CodeOf(err))
		return entry, err
	}

	entry.Success = true
	return entry, nil
}

func (r *Router) dispatch(ctx context.Context, route Route, payload []byte) (string, error) {
	switch route {
	case RoutePublicRPC:
		return r.provider.PublicRPCSubmit(ctx, payload)
	case RoutePrivateRelay:
		return r.provider.PrivateRelaySubmit(ctx, payload)
	case RouteDeferredExecution:
		return r.provider.DeferredExecutionSubmit(ctx, payload)
	default:
		return "", apperr.New(apperr.CodePolicyViolation, "unknown route")
	}
}
