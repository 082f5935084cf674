package sessionkey

import (
	"sync"
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
	"github.com/Muhammed5500/neuro-core/pkg/killswitch"
	"github.com/Muhammed5500/neuro-core/pkg/wei"
)

// entry pairs one session's ciphertext with its own mutex, so
// concurrent sessions never block each other: entries are retrievable
// concurrently but mutated only under the session's own guard.
type entry struct {
	mu     sync.Mutex
	sealed *sealedSession
}

// Manager is the encrypted, in-memory session-key store plus validator.
// One Manager is constructed per process and shared by reference.
type Manager struct {
	vault          *vault
	killSwitch     *killswitch.KillSwitch
	velocityWindow time.Duration
	maxNonceGap    uint64

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewManager constructs a Manager. encryptionKey must be exactly 32
// bytes (ChaCha20-Poly1305 key size).
func NewManager(encryptionKey [32]byte, ks *killswitch.KillSwitch, velocityWindow time.Duration, maxNonceGap uint64) (*Manager, error) {
	v, err := newVault(encryptionKey)
	if err != nil {
		return nil, err
	}
	return &Manager{
		vault:          v,
		killSwitch:     ks,
		velocityWindow: velocityWindow,
		maxNonceGap:    maxNonceGap,
		sessions:       make(map[string]*entry),
	}, nil
}

// SetKillSwitch wires the shared kill switch in after construction,
// breaking the constructor cycle between killswitch.New (which needs a
// SessionRevoker) and NewManager (which needs a *killswitch.KillSwitch).
// Safe to call once from the orchestrator's wiring step; nil disables
// the kill-switch check on ValidateSession.
func (m *Manager) SetKillSwitch(ks *killswitch.KillSwitch) {
	m.killSwitch = ks
}

// Create establishes a new encrypted session key. When opts.StrictAllowlist
// is set, every entry in AllowedTargetAddresses must already be a
// well-formed 0x-prefixed 20-byte hex address — Create rejects the
// session outright rather than waiting to discover a malformed entry
// the first time ValidateSession tries to match against it.
func (m *Manager) Create(opts CreateOptions, now time.Time) error {
	if opts.StrictAllowlist {
		for _, a := range opts.AllowedTargetAddresses {
			if !isHexAddress(a) {
				return apperr.New(apperr.CodeTargetNotAllowed, "strict allowlist: malformed target address "+a)
			}
		}
	}

	lowered := make([]string, len(opts.AllowedTargetAddresses))
	for i, a := range opts.AllowedTargetAddresses {
		lowered[i] = lowerHex(a)
	}

	session := &Session{
		SessionID:              opts.SessionID,
		PublicKey:              opts.PublicKey,
		TotalBudgetWei:         opts.TotalBudgetWei,
		SpentWei:               wei.Zero(),
		VelocityLimitWeiPerMin: opts.VelocityLimitWeiPerMin,
		CreatedAt:              now,
		ExpiresAt:              now.Add(opts.TTL),
		AllowedMethodSelectors: opts.AllowedMethodSelectors,
		AllowedTargetAddresses: lowered,
		NextNonce:              0,
		UsedNonces:             make(map[uint64]bool),
		IsActive:               true,
	}

	sealed, err := m.vault.seal(session)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[opts.SessionID] = &entry{sealed: sealed}
	return nil
}

func lowerHex(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func (m *Manager) getEntry(sessionID string) (*entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[sessionID]
	return e, ok
}

// Retrieve decrypts and returns a copy of the session's plaintext state.
// The returned value must not be mutated by callers; mutation only
// happens through ValidateSession/RecordSpending/RotateSession/Revoke.
func (m *Manager) Retrieve(sessionID string) (*Session, error) {
	e, ok := m.getEntry(sessionID)
	if !ok {
		return nil, apperr.New(apperr.CodeUnknownSession, "session not found: "+sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return m.vault.open(sessionID, e.sealed)
}

// ValidateSession runs the first-fail validation pipeline, checking the
// kill switch, session lifecycle, nonce, allowlists,
// budget, and velocity — in that order. It does not mutate state; call
// RecordSpending after a successful validation to commit the spend.
func (m *Manager) ValidateSession(req ValidateRequest) ValidateResult {
	if m.killSwitch != nil {
		if err := m.killSwitch.CheckAllowed("session_validate"); err != nil {
			return ValidateResult{Valid: false, ErrorCode: string(apperr.CodeKillSwitchActive)}
		}
	}

	e, ok := m.getEntry(req.SessionID)
	if !ok {
		return ValidateResult{Valid: false, ErrorCode: string(apperr.CodeUnknownSession)}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	session, err := m.vault.open(req.SessionID, e.sealed)
	if err != nil {
		return ValidateResult{Valid: false, ErrorCode: string(apperr.CodeUnknownSession)}
	}

	return m.validateLocked(session, req)
}

func (m *Manager) validateLocked(session *Session, req ValidateRequest) ValidateResult {
	if session.IsRevoked {
		return ValidateResult{Valid: false, ErrorCode: string(apperr.CodeSessionRevoked)}
	}
	if req.Now.After(session.ExpiresAt) {
		return ValidateResult{Valid: false, ErrorCode: string(apperr.CodeSessionExpired)}
	}
	if session.UsedNonces[req.Nonce] {
		return ValidateResult{Valid: false, ErrorCode: string(apperr.CodeNonceAlreadyUsed)}
	}
	if req.Nonce > session.NextNonce+m.maxNonceGap {
		return ValidateResult{Valid: false, ErrorCode: string(apperr.CodeNonceTooOld)}
	}
	if !containsFold(session.AllowedMethodSelectors, req.Selector) {
		return ValidateResult{Valid: false, ErrorCode: string(apperr.CodeMethodNotAllowed)}
	}
	if !containsFold(session.AllowedTargetAddresses, lowerHex(req.Target)) {
		return ValidateResult{Valid: false, ErrorCode: string(apperr.CodeTargetNotAllowed)}
	}

	remaining := session.TotalBudgetWei.Sub(session.SpentWei)
	if req.AmountWei.GreaterThan(remaining) {
		return ValidateResult{Valid: false, ErrorCode: string(apperr.CodeBudgetExceeded), RemainingBudgetWei: remaining}
	}

	velocityUsed := m.velocityUsed(session, req.Now)
	velocityRemaining := session.VelocityLimitWeiPerMin.Sub(velocityUsed)
	if req.AmountWei.GreaterThan(velocityRemaining) {
		return ValidateResult{
			Valid:                false,
			ErrorCode:            string(apperr.CodeVelocityExceeded),
			RemainingBudgetWei:   remaining,
			VelocityUsedWei:      velocityUsed,
			VelocityRemainingWei: velocityRemaining,
		}
	}

	return ValidateResult{
		Valid:                true,
		RemainingBudgetWei:   remaining.Sub(req.AmountWei),
		VelocityUsedWei:      velocityUsed,
		VelocityRemainingWei: velocityRemaining.Sub(req.AmountWei),
		ExpiresInMs:          session.ExpiresAt.Sub(req.Now).Milliseconds(),
	}
}

func (m *Manager) velocityUsed(session *Session, now time.Time) wei.Wei {
	used := wei.Zero()
	cutoff := now.Add(-m.velocityWindow)
	for _, spend := range session.RecentSpends {
		if spend.At.After(cutoff) {
			used = used.Add(spend.AmountWei)
		}
	}
	return used
}

// isHexAddress reports whether s is a well-formed 0x-prefixed 20-byte
// hex address (42 characters total).
func isHexAddress(s string) bool {
	if len(s) != 42 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	for i := 2; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

func containsFold(list []string, target string) bool {
	for _, v := range list {
		if lowerHex(v) == lowerHex(target) {
			return true
		}
	}
	return false
}

// RecordSpending atomically commits a validated spend: appends the
// nonce, advances the next-expected nonce, adds to spent totals, and
// records the spend in the rolling velocity window.
func (m *Manager) RecordSpending(sessionID string, req ValidateRequest) error {
	e, ok := m.getEntry(sessionID)
	if !ok {
		return apperr.New(apperr.CodeUnknownSession, "session not found: "+sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	session, err := m.vault.open(sessionID, e.sealed)
	if err != nil {
		return err
	}

	result := m.validateLocked(session, req)
	if !result.Valid {
		return apperr.New(apperr.Code(result.ErrorCode), "spend rejected at commit time")
	}

	session.UsedNonces[req.Nonce] = true
	if req.Nonce >= session.NextNonce {
		session.NextNonce = req.Nonce + 1
	}
	session.SpentWei = session.SpentWei.Add(req.AmountWei)
	session.RecentSpends = append(session.RecentSpends, SpendRecord{AmountWei: req.AmountWei, At: req.Now})
	session.RecentSpends = pruneOldSpends(session.RecentSpends, req.Now, m.velocityWindow)

	sealed, err := m.vault.seal(session)
	if err != nil {
		return err
	}
	e.sealed = sealed
	return nil
}

func pruneOldSpends(spends []SpendRecord, now time.Time, window time.Duration) []SpendRecord {
	cutoff := now.Add(-window)
	out := spends[:0]
	for _, s := range spends {
		if s.At.After(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// RevokeSession revokes one session, clearing its velocity window.
func (m *Manager) RevokeSession(sessionID, reason string, now time.Time) error {
	e, ok := m.getEntry(sessionID)
	if !ok {
		return apperr.New(apperr.CodeUnknownSession, "session not found: "+sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	session, err := m.vault.open(sessionID, e.sealed)
	if err != nil {
		return err
	}
	session.IsActive = false
	session.IsRevoked = true
	revokedAt := now
	session.RevokedAt = &revokedAt
	session.RevokedReason = reason
	session.RecentSpends = nil

	sealed, err := m.vault.seal(session)
	if err != nil {
		return err
	}
	e.sealed = sealed
	return nil
}

// RevokeAll implements killswitch.SessionRevoker: revoke every session in
// the store, for the kill switch's cascading halt.
func (m *Manager) RevokeAll(reason string) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	now := time.Now()
	for _, id := range ids {
		_ = m.RevokeSession(id, reason, now)
	}
}

// RotateSession creates a new session carrying over remaining budget,
// remaining time, and allowlists, then revokes the old one.
func (m *Manager) RotateSession(oldSessionID string, opts RotateOptions, now time.Time) (*Session, error) {
	old, err := m.Retrieve(oldSessionID)
	if err != nil {
		return nil, err
	}

	ttl := old.ExpiresAt.Sub(now)
	if opts.TTLOverride != nil {
		ttl = *opts.TTLOverride
	}
	remainingBudget := old.TotalBudgetWei.Sub(old.SpentWei)

	publicKey := old.PublicKey
	if opts.NewPublicKey != "" {
		publicKey = opts.NewPublicKey
	}

	if err := m.Create(CreateOptions{
		SessionID:              opts.NewSessionID,
		PublicKey:              publicKey,
		TotalBudgetWei:         remainingBudget,
		VelocityLimitWeiPerMin: old.VelocityLimitWeiPerMin,
		TTL:                    ttl,
		AllowedMethodSelectors: old.AllowedMethodSelectors,
		AllowedTargetAddresses: old.AllowedTargetAddresses,
	}, now); err != nil {
		return nil, err
	}

	if err := m.RevokeSession(oldSessionID, "rotated", now); err != nil {
		return nil, err
	}

	return m.Retrieve(opts.NewSessionID)
}

// ClearAll zeros every stored session, for process shutdown.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.sessions {
		delete(m.sessions, id)
	}
}

// Shutdown is invoked on process stop; currently equivalent to ClearAll,
// kept distinct so future drain/flush logic has a dedicated hook.
func (m *Manager) Shutdown() {
	m.ClearAll()
}
