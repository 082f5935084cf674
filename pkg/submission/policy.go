package submission

import (
	"fmt"

	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// routePreference is the selection order once every route has been
// evaluated: private beats deferred beats public.
var routePreference = []Route{RoutePrivateRelay, RouteDeferredExecution, RoutePublicRPC}

// EvaluateRoutes checks every route against policy, provider health, and
// action sensitivity, returning one RouteEvaluation per route in
// routePreference order. The public route is blocked — with
// isSecurityBlock — once budgetWei exceeds the configured threshold, or
// whenever the action type is sensitive.
func EvaluateRoutes(policy Policy, actionType ActionType, budgetWei wei.Wei, providerHealth map[Route]bool) []RouteEvaluation {
	evaluations := make([]RouteEvaluation, 0, len(routePreference))

	for _, route := range routePreference {
		eval := RouteEvaluation{Route: route, Allowed: true}

		if route == RoutePublicRPC {
			if budgetWei.GreaterThan(policy.PublicRPCMaxBudgetWei) {
				eval.Allowed = false
				eval.IsSecurityBlock = true
				eval.Reason = fmt.Sprintf("budget %s exceeds public_rpc threshold %s", budgetWei, policy.PublicRPCMaxBudgetWei)
				evaluations = append(evaluations, eval)
				continue
			}
			if actionType.isSensitive() {
				eval.Allowed = false
				eval.IsSecurityBlock = true
				eval.Reason = fmt.Sprintf("action type %s requires a non-public route", actionType)
				evaluations = append(evaluations, eval)
				continue
			}
		}

		online, known := providerHealth[route]
		if known && !online {
			eval.Allowed = false
			eval.Reason = fmt.Sprintf("route %s is offline", route)
			if policy.FailClosedOnProviderOffline && route != RoutePublicRPC {
				eval.IsSecurityBlock = true
			}
			evaluations = append(evaluations, eval)
			continue
		}

		evaluations = append(evaluations, eval)
	}

	return evaluations
}

// SelectRoute picks the first allowed route in preference order
// (private > deferred > public). ok is false if every route was blocked.
func SelectRoute(evaluations []RouteEvaluation) (route Route, ok bool) {
	byRoute := make(map[Route]RouteEvaluation, len(evaluations))
	for _, e := range evaluations {
		byRoute[e.Route] = e
	}
	for _, r := range routePreference {
		if e, found := byRoute[r]; found && e.Allowed {
			return r, true
		}
	}
	return "", false
}

// checkFallbackAllowed reports whether, having originally selected
// originalRoute, falling back to public_rpc is permitted. It never is
// once blockFallbackToPublic is set and the original choice wasn't
// already public — this is the fail-closed guarantee, not an
// optimization: a non-public route going offline must never silently
// degrade to the weaker public path.
func checkFallbackAllowed(policy Policy, originalRoute Route) bool {
	if policy.BlockFallbackToPublic && originalRoute != RoutePublicRPC {
		return false
	}
	return true
}
