package submission

import (
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
)

// hashPayload Keccak256-hashes a transaction payload, the same digest a
// session key signs over before a bundle ever reaches the router. Using
// go-ethereum's Keccak256 here (rather than SHA-256) matches the hash
// function the EVM itself uses for message authentication, so a
// signature produced off-chain verifies against the same digest an
// on-chain contract would recompute.
func hashPayload(payload []byte) []byte {
	return crypto.Keccak256(payload)
}

// verifySessionSignature reports whether sig is a valid ECDSA signature
// over payload's Keccak256 digest, recoverable to the public key the
// caller claims authorized it. A malformed signature or key is always
// rejected, never silently ignored.
func verifySessionSignature(publicKey, payload, sig []byte) bool {
	if len(sig) != 65 {
		return false
	}
	digest := hashPayload(payload)
	// crypto.Sign-produced signatures append a recovery ID as the final
	// byte; VerifySignature wants just the 64-byte r||s.
	return crypto.VerifySignature(publicKey, digest, sig[:64])
}

// verifyRequestSignature gates a submission request carrying an
// explicit session signature. Requests with no signature attached skip
// the check — the session-key framework's own ValidateSession/
// RecordSpending pipeline is the primary authorization gate; this is a
// defense-in-depth check for the payload that actually reaches the
// chain.
func verifyRequestSignature(req SubmissionRequest) error {
	if len(req.SessionSignature) == 0 && len(req.SessionPublicKey) == 0 {
		return nil
	}
	if !verifySessionSignature(req.SessionPublicKey, req.TxPayload, req.SessionSignature) {
		return apperr.NewSecurityBreach(apperr.CodeInvalidSignature, "invalid_session_signature", "tx payload signature does not match the claimed session key")
	}
	return nil
}
