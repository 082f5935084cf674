// Package sessionkey implements the session-key framework:
// encrypted-at-rest session storage with budget, velocity, expiry, nonce,
// method-selector and target-address enforcement, built around a
// mutex-guarded in-memory registry generalized with authenticated
// encryption at rest.
package sessionkey

import (
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// CreateOptions describes a new session key at creation time.
type CreateOptions struct {
	SessionID               string
	PublicKey               string
	TotalBudgetWei          wei.Wei
	VelocityLimitWeiPerMin  wei.Wei
	TTL                     time.Duration
	AllowedMethodSelectors  []string
	AllowedTargetAddresses  []string
	StrictAllowlist         bool // reject malformed target addresses at create time; targets are not compared against any other list
}

// Session is the plaintext view of a session key, reconstructed only
// under Retrieve — never persisted in this shape.
type Session struct {
	SessionID              string
	PublicKey              string
	TotalBudgetWei         wei.Wei
	SpentWei               wei.Wei
	VelocityLimitWeiPerMin wei.Wei
	CreatedAt              time.Time
	ExpiresAt              time.Time
	AllowedMethodSelectors []string
	AllowedTargetAddresses []string
	NextNonce              uint64
	UsedNonces             map[uint64]bool
	RecentSpends           []SpendRecord
	IsActive               bool
	IsRevoked              bool
	RevokedAt              *time.Time
	RevokedReason          string
}

// ValidateRequest is one proposed spend against a session.
type ValidateRequest struct {
	SessionID  string
	Target     string
	Selector   string
	AmountWei  wei.Wei
	Nonce      uint64
	Now        time.Time
}

// ValidateResult reports the outcome of ValidateSession.
type ValidateResult struct {
	Valid                 bool
	ErrorCode             string
	RemainingBudgetWei    wei.Wei
	VelocityUsedWei       wei.Wei
	VelocityRemainingWei  wei.Wei
	ExpiresInMs           int64
}

// SpendRecord is one entry in the per-session rolling velocity window.
type SpendRecord struct {
	AmountWei wei.Wei
	At        time.Time
}

// RotateOptions customizes a rotation; zero values mean "copy from old".
type RotateOptions struct {
	NewSessionID string
	NewPublicKey string
	TTLOverride  *time.Duration
}
