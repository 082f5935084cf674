package sessionkey

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// vault seals and opens Session values with an authenticated construction
// (ChaCha20-Poly1305, the AEAD already carried by the pack's
// golang.org/x/crypto dependency tree), so plaintext session material
// never sits in a struct field that a stray log line or heap dump could
// leak — only sealedSession holds the ciphertext at rest.
type vault struct {
	aead cipher.AEAD
}

func newVault(key [32]byte) (*vault, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("sessionkey: construct AEAD: %w", err)
	}
	return &vault{aead: aead}, nil
}

// sealedSession is the only at-rest representation of a Session.
type sealedSession struct {
	nonce      []byte
	ciphertext []byte
}

func (v *vault) seal(session *Session) (*sealedSession, error) {
	plaintext, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("sessionkey: marshal session: %w", err)
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("sessionkey: generate nonce: %w", err)
	}

	ciphertext := v.aead.Seal(nil, nonce, plaintext, []byte(session.SessionID))
	return &sealedSession{nonce: nonce, ciphertext: ciphertext}, nil
}

func (v *vault) open(sessionID string, sealed *sealedSession) (*Session, error) {
	plaintext, err := v.aead.Open(nil, sealed.nonce, sealed.ciphertext, []byte(sessionID))
	if err != nil {
		return nil, fmt.Errorf("sessionkey: decrypt session %s: %w", sessionID, err)
	}
	var session Session
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return nil, fmt.Errorf("sessionkey: unmarshal session: %w", err)
	}
	return &session, nil
}
