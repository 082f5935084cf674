package submission

import (
	"context"
	"encoding/hex"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
)

// LoopbackProvider is a dependency-free Provider for running the
// orchestrator without a real RPC endpoint or private relay wired in:
// every route reports healthy, every submission "confirms" immediately
// with a deterministic fabricated hash, and nonces are tracked
// in-process per address. It has no connection to any chain and must
// never be used against real funds.
type LoopbackProvider struct {
	mu     sync.Mutex
	nonces map[string]uint64
	seq    atomic.Uint64
}

// NewLoopbackProvider constructs a LoopbackProvider with all nonces
// starting at zero.
func NewLoopbackProvider() *LoopbackProvider {
	return &LoopbackProvider{nonces: make(map[string]uint64)}
}

func (p *LoopbackProvider) Name() string { return "loopback-dev" }

func (p *LoopbackProvider) submit(payload []byte) (string, error) {
	n := p.seq.Add(1)
	digest := crypto.Keccak256(payload, []byte{byte(n), byte(n >> 8), byte(n >> 16)})
	return "0x" + hex.EncodeToString(digest), nil
}

func (p *LoopbackProvider) PublicRPCSubmit(ctx context.Context, payload []byte) (string, error) {
	return p.submit(payload)
}

func (p *LoopbackProvider) PrivateRelaySubmit(ctx context.Context, payload []byte) (string, error) {
	return p.submit(payload)
}

func (p *LoopbackProvider) DeferredExecutionSubmit(ctx context.Context, payload []byte) (string, error) {
	return p.submit(payload)
}

func (p *LoopbackProvider) HealthCheck(ctx context.Context, route Route) bool { return true }

func (p *LoopbackProvider) GetNonce(ctx context.Context, address string) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.nonces[address]
	p.nonces[address] = n + 1
	return n, nil
}

func (p *LoopbackProvider) WaitForConfirmation(ctx context.Context, txHash string) error {
	return nil
}
