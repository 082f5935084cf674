package submission

import (
	"context"
	"sync"
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
)

// reservationTTL bounds how long a reservation may sit unreleased (a
// crashed submission, a provider that never confirms) before a later
// caller is allowed to reclaim the address. Not specified further than
// "choose release after a bounded TTL and document" — 30s is generous
// relative to typical confirmation latency on this chain.
const reservationTTL = 30 * time.Second

type nonceReservation struct {
	nonce         uint64
	correlationID string
	reservedAt    time.Time
	expiresAt     time.Time
}

// NonceManager reserves a nonce per sender address atomically, serialising
// submissions for the same address: each address holds at most one live
// reservation. One mutex guards the reservation table; it is not held
// across the provider's GetNonce call, so a slow fetch for one address
// does not block reservations for others.
type NonceManager struct {
	mu     sync.Mutex
	active map[string]*nonceReservation
}

// NewNonceManager constructs an empty reservation table.
func NewNonceManager() *NonceManager {
	return &NonceManager{active: make(map[string]*nonceReservation)}
}

// Reserve fetches the next nonce for address from provider and reserves
// it, failing with a NONCE_COLLISION security breach if address already
// holds a live (unexpired) reservation.
func (n *NonceManager) Reserve(ctx context.Context, provider Provider, address, correlationID string, now time.Time) (nonce uint64, release func(), err error) {
	n.mu.Lock()
	if existing, found := n.active[address]; found && now.Before(existing.expiresAt) {
		n.mu.Unlock()
		return 0, nil, apperr.NewSecurityBreach(apperr.CodeNonceCollision, "nonce_collision",
			"address already holds a live nonce reservation")
	}
	n.mu.Unlock()

	fetched, err := provider.GetNonce(ctx, address)
	if err != nil {
		return 0, nil, err
	}

	reservation := &nonceReservation{
		nonce:         fetched,
		correlationID: correlationID,
		reservedAt:    now,
		expiresAt:     now.Add(reservationTTL),
	}

	n.mu.Lock()
	if existing, found := n.active[address]; found && now.Before(existing.expiresAt) {
		n.mu.Unlock()
		return 0, nil, apperr.NewSecurityBreach(apperr.CodeNonceCollision, "nonce_collision",
			"address already holds a live nonce reservation")
	}
	n.active[address] = reservation
	n.mu.Unlock()

	release = func() {
		n.mu.Lock()
		if n.active[address] == reservation {
			delete(n.active, address)
		}
		n.mu.Unlock()
	}
	return fetched, release, nil
}

// IsReserved reports whether address currently holds a live reservation,
// for tests and diagnostics.
func (n *NonceManager) IsReserved(address string, now time.Time) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	existing, found := n.active[address]
	return found && now.Before(existing.expiresAt)
}
