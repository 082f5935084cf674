// Package submission selects a transaction route (public RPC, private
// relay, or deferred execution), enforces fail-closed routing policy,
// and reserves per-address nonces atomically. Grounded on a
// route-selection-with-reasons pattern generalized from tool routing to
// execution-route selection, and on a per-aggregate mutex discipline (one
// mutex over the nonce reservation table; each address holds at most one
// live reservation).
package submission

import (
	"context"
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// Route names one transaction submission path.
type Route string

const (
	RoutePublicRPC         Route = "public_rpc"
	RoutePrivateRelay      Route = "private_relay"
	RouteDeferredExecution Route = "deferred_execution"
)

// ActionType classifies the transaction being submitted; sensitive
// actions must never use the public route.
type ActionType string

const (
	ActionBuy               ActionType = "buy"
	ActionSell              ActionType = "sell"
	ActionTokenLaunch       ActionType = "token_launch"
	ActionLargeSwap         ActionType = "large_swap"
	ActionLiquidityRemoval  ActionType = "liquidity_removal"
)

func (a ActionType) isSensitive() bool {
	switch a {
	case ActionTokenLaunch, ActionLargeSwap, ActionLiquidityRemoval:
		return true
	default:
		return false
	}
}

// Policy configures route eligibility. PublicRPCMaxBudgetWei is the hard
// ceiling above which public_rpc is forbidden regardless of health.
type Policy struct {
	PublicRPCMaxBudgetWei       wei.Wei
	FailClosedOnProviderOffline bool
	BlockFallbackToPublic       bool
}

// RouteEvaluation records why one route was or wasn't selected.
type RouteEvaluation struct {
	Route           Route
	Allowed         bool
	Reason          string
	IsSecurityBlock bool
}

// SubmissionRequest describes one transaction to route and submit.
type SubmissionRequest struct {
	CorrelationID string
	PlanID        string
	SimulationID  string
	BundleID      string
	Sender        string
	ActionType    ActionType
	BudgetWei     wei.Wei
	TxPayload     []byte

	// SessionSignature and SessionPublicKey are optional: when both are
	// set, Submit verifies TxPayload was actually authorized by the
	// session key claiming to have produced it before routing. Callers
	// that route already-verified bundles (e.g. an operator-approved
	// manual submission) may leave both nil.
	SessionSignature []byte
	SessionPublicKey []byte
}

// AuditEntry is one submission attempt's immutable record.
type AuditEntry struct {
	CorrelationID     string
	PlanID            string
	SimulationID      string
	BundleID          string
	TxHash            string
	Action            ActionType
	Route             Route
	ProviderName      string
	Success           bool
	ErrorCode         string
	SecurityEvent     bool
	SecurityEventType string
	At                time.Time
}

// Provider is the external submission surface — real RPC/relay clients
// and a test double both satisfy it.
type Provider interface {
	Name() string
	PublicRPCSubmit(ctx context.Context, payload []byte) (txHash string, err error)
	PrivateRelaySubmit(ctx context.Context, payload []byte) (txHash string, err error)
	DeferredExecutionSubmit(ctx context.Context, payload []byte) (txHash string, err error)
	HealthCheck(ctx context.Context, route Route) bool
	GetNonce(ctx context.Context, address string) (uint64, error)
	WaitForConfirmation(ctx context.Context, txHash string) error
}
