// Package apperr defines the stable error-code vocabulary shared across
// every core component, following the services-layer sentinel/typed
// error pattern used throughout this module.
package apperr

import (
	"errors"
	"fmt"
)

// Code is a stable identifier suitable for dashboards and automated
// routing. Never renamed once shipped.
type Code string

const (
	// Input validation.
	CodeMalformedMessage  Code = "MALFORMED_MESSAGE"
	CodeInvalidSignature  Code = "INVALID_SIGNATURE"
	CodeUnknownSession    Code = "SESSION_NOT_FOUND"
	CodeUnknownRequest    Code = "UNKNOWN_REQUEST"

	// Safety violations.
	CodeBudgetExceeded    Code = "BUDGET_EXCEEDED"
	CodeVelocityExceeded  Code = "VELOCITY_EXCEEDED"
	CodeTargetNotAllowed  Code = "TARGET_NOT_ALLOWED"
	CodeMethodNotAllowed  Code = "METHOD_NOT_ALLOWED"
	CodeNonceAlreadyUsed  Code = "NONCE_ALREADY_USED"
	CodeNonceTooOld       Code = "NONCE_TOO_OLD"
	CodeKillSwitchActive  Code = "KILL_SWITCH_ACTIVE"
	CodeTimelockNotExpired Code = "TIMELOCK_NOT_EXPIRED"
	CodePolicyViolation   Code = "POLICY_VIOLATION"
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	CodeSessionRevoked    Code = "SESSION_REVOKED"
	CodeSessionExpired    Code = "SESSION_EXPIRED"

	// Staleness.
	CodeExpiredTimestamp  Code = "EXPIRED_TIMESTAMP"
	CodeFutureTimestamp   Code = "FUTURE_TIMESTAMP"
	CodeDuplicateNonce    Code = "DUPLICATE_NONCE"
	CodeInvalidSequence   Code = "INVALID_SEQUENCE"
	CodeSimulationStale   Code = "SIMULATION_STALE"
	CodeStaleNews         Code = "STALE_NEWS"

	// Provider.
	CodeProviderOffline   Code = "PROVIDER_OFFLINE"
	CodeRPCFailure        Code = "RPC_FAILURE"
	CodeEmbeddingFailure  Code = "EMBEDDING_FAILURE"
	CodeTimeout           Code = "TIMEOUT"

	// Security breach.
	CodeFallbackForbidden Code = "FALLBACK_FORBIDDEN"
	CodePrivateRelayOffline Code = "PRIVATE_RELAY_OFFLINE"
	CodePublicRPCOffline  Code = "PUBLIC_RPC_OFFLINE"
	CodeDeferredOffline   Code = "DEFERRED_EXECUTION_OFFLINE"
	CodeNonceCollision    Code = "NONCE_COLLISION"
)

// Error is the single typed error shape every core component raises for
// safety violations and security breaches — never a bare fmt.Errorf, so
// callers can errors.As and branch on Code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an *Error that wraps an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err is an *Error carrying the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the Code from err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// SecurityBreachError marks errors that must never be silently retried or
// downgraded to a weaker fallback. It unwraps to its *Error, so CodeOf
// and Is report the breach's code.
type SecurityBreachError struct {
	Base              *Error
	SecurityEventType string
}

func (e *SecurityBreachError) Error() string { return e.Base.Error() }

func (e *SecurityBreachError) Unwrap() error { return e.Base }

// NewSecurityBreach builds a SecurityBreachError.
func NewSecurityBreach(code Code, eventType, message string) *SecurityBreachError {
	return &SecurityBreachError{
		Base:              New(code, message),
		SecurityEventType: eventType,
	}
}
