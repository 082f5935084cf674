// Package bus implements the zero-trust message bus: signed,
// replay-proof inter-component envelopes with monotonic per-channel
// sequence numbers, built around the same events-channel/sequence
// bookkeeping style used elsewhere in this module, generalized from
// WebSocket delivery to HMAC-signed envelopes exchanged entirely
// in-process between core components.
package bus

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
)

// ValidationErrorCode enumerates the bus's own failure reasons, distinct
// from but overlapping apperr.Code (the bus surfaces INVALID_SEQUENCE,
// which only it produces).
const (
	ErrMalformed        apperr.Code = apperr.CodeMalformedMessage
	ErrInvalidSignature apperr.Code = apperr.CodeInvalidSignature
	ErrExpiredTimestamp apperr.Code = apperr.CodeExpiredTimestamp
	ErrFutureTimestamp  apperr.Code = apperr.CodeFutureTimestamp
	ErrDuplicateNonce   apperr.Code = apperr.CodeDuplicateNonce
	ErrInvalidSequence  apperr.Code = apperr.CodeInvalidSequence
)

// Message is a signed envelope exchanged between core components.
type Message struct {
	ID             string          `json:"id"`
	Channel        string          `json:"channel"`
	SenderID       string          `json:"senderId"`
	Payload        json.RawMessage `json:"payload"`
	Nonce          string          `json:"nonce"`
	TimestampMs    int64           `json:"timestamp"`
	SequenceNumber uint64          `json:"sequenceNumber"`
	Signature      string          `json:"signature"`
	TTLMs          int64           `json:"ttl"`
	Priority       int             `json:"priority,omitempty"`
	CorrelationID  string          `json:"correlationId,omitempty"`
	RequiresAck    bool            `json:"requiresAck,omitempty"`
}

// CreateOptions customize envelope creation.
type CreateOptions struct {
	TTL           time.Duration
	Priority      int
	CorrelationID string
	RequiresAck   bool
	// Now overrides time.Now for deterministic tests; nil uses wall clock.
	Now func() time.Time
}

// ValidationResult reports the outcome of Validate.
type ValidationResult struct {
	Valid     bool
	ErrorCode apperr.Code
}

// channelState tracks the monotonic sequence counter and bookkeeping for
// one channel.
type channelState struct {
	lastSequenceNumber uint64 // highest sequence number accepted by validation
	lastIssuedSequence uint64 // highest sequence number handed out by CreateMessage
	lastTimestampMs    int64
	messageCount       uint64
	createdAt          time.Time
}

// nonceEntry records when a nonce was accepted, for LRU-by-timestamp
// cleanup.
type nonceEntry struct {
	seenAtMs int64
}

// Bus is the process-wide zero-trust message bus. Constructed once and
// passed by reference — never a package-level singleton.
type Bus struct {
	signingKey      []byte
	defaultTTL      time.Duration
	maxClockSkew    time.Duration
	nonceRetention  time.Duration
	maxNonceSetSize int
	strictSequence  bool

	mu       sync.Mutex
	nonces   map[string]nonceEntry
	channels map[string]*channelState
}

// New constructs a Bus. signingKey must be at least 32 bytes.
func New(signingKey []byte, defaultTTL, maxClockSkew, nonceRetention time.Duration, maxNonceSetSize int, strictSequence bool) *Bus {
	return &Bus{
		signingKey:      signingKey,
		defaultTTL:      defaultTTL,
		maxClockSkew:    maxClockSkew,
		nonceRetention:  nonceRetention,
		maxNonceSetSize: maxNonceSetSize,
		strictSequence:  strictSequence,
		nonces:          make(map[string]nonceEntry),
		channels:        make(map[string]*channelState),
	}
}

func nowMs(now func() time.Time) int64 {
	if now == nil {
		return time.Now().UnixMilli()
	}
	return now().UnixMilli()
}

// CreateMessage builds and signs a new envelope on channel, incrementing
// that channel's sequence counter.
func (b *Bus) CreateMessage(channel, senderID string, payload any, opts CreateOptions) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeMalformedMessage, "payload is not serializable", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = b.defaultTTL
	}

	b.mu.Lock()
	state, ok := b.channels[channel]
	if !ok {
		state = &channelState{createdAt: time.Now()}
		b.channels[channel] = state
	}
	seq := state.lastIssuedSequence + 1
	b.mu.Unlock()

	msg := &Message{
		ID:             uuid.NewString(),
		Channel:        channel,
		SenderID:       senderID,
		Payload:        raw,
		Nonce:          uuid.NewString(),
		TimestampMs:    nowMs(opts.Now),
		SequenceNumber: seq,
		TTLMs:          ttl.Milliseconds(),
		Priority:       opts.Priority,
		CorrelationID:  opts.CorrelationID,
		RequiresAck:    opts.RequiresAck,
	}
	msg.Signature = b.sign(msg)

	// Reserve the sequence number now; a message is only "created" once,
	// so there is no separate commit step before ValidateMessage runs.
	b.mu.Lock()
	state.lastIssuedSequence = seq
	b.mu.Unlock()

	return msg, nil
}

// canonicalBytes builds the ordered byte form HMAC-signs over: id,
// channel, senderId, payload, nonce, timestamp, sequenceNumber — a fixed
// field order built by hand rather than relying on struct/map JSON key
// ordering, not struct field order.
func canonicalBytes(msg *Message) []byte {
	buf := make([]byte, 0, 256+len(msg.Payload))
	buf = append(buf, msg.ID...)
	buf = append(buf, 0)
	buf = append(buf, msg.Channel...)
	buf = append(buf, 0)
	buf = append(buf, msg.SenderID...)
	buf = append(buf, 0)
	buf = append(buf, msg.Payload...)
	buf = append(buf, 0)
	buf = append(buf, msg.Nonce...)
	buf = append(buf, 0)

	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(msg.TimestampMs))
	buf = append(buf, tsBuf[:]...)
	buf = append(buf, 0)

	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], msg.SequenceNumber)
	buf = append(buf, seqBuf[:]...)
	return buf
}

func (b *Bus) sign(msg *Message) string {
	mac := hmac.New(sha256.New, b.signingKey)
	mac.Write(canonicalBytes(msg))
	return string(mac.Sum(nil))
}

// ValidateMessage runs the ordered validation pipeline;
// first failure wins.
func (b *Bus) ValidateMessage(msg *Message) ValidationResult {
	return b.validateAt(msg, nil)
}

func (b *Bus) validateAt(msg *Message, now func() time.Time) ValidationResult {
	if msg == nil || msg.ID == "" || msg.Channel == "" || msg.SenderID == "" ||
		msg.Nonce == "" || msg.TimestampMs == 0 || msg.Signature == "" {
		return ValidationResult{Valid: false, ErrorCode: apperr.CodeMalformedMessage}
	}

	expected := b.sign(msg)
	if !hmac.Equal([]byte(expected), []byte(msg.Signature)) {
		return ValidationResult{Valid: false, ErrorCode: apperr.CodeInvalidSignature}
	}

	nowMillis := nowMs(now)
	ttl := msg.TTLMs
	if ttl <= 0 {
		ttl = b.defaultTTL.Milliseconds()
	}
	if nowMillis-msg.TimestampMs > ttl {
		return ValidationResult{Valid: false, ErrorCode: apperr.CodeExpiredTimestamp}
	}
	if msg.TimestampMs > nowMillis+b.maxClockSkew.Milliseconds() {
		return ValidationResult{Valid: false, ErrorCode: apperr.CodeFutureTimestamp}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.cleanupNoncesLocked(nowMillis)
	if _, seen := b.nonces[msg.Nonce]; seen {
		return ValidationResult{Valid: false, ErrorCode: apperr.CodeDuplicateNonce}
	}

	if b.strictSequence {
		state, ok := b.channels[msg.Channel]
		if ok && msg.SequenceNumber <= state.lastSequenceNumber {
			return ValidationResult{Valid: false, ErrorCode: apperr.CodeInvalidSequence}
		}
	}

	// Commit: record nonce, bump channel state.
	b.nonces[msg.Nonce] = nonceEntry{seenAtMs: nowMillis}
	state, ok := b.channels[msg.Channel]
	if !ok {
		state = &channelState{createdAt: time.Now()}
		b.channels[msg.Channel] = state
	}
	if msg.SequenceNumber > state.lastSequenceNumber {
		state.lastSequenceNumber = msg.SequenceNumber
	}
	state.lastTimestampMs = msg.TimestampMs
	state.messageCount++

	return ValidationResult{Valid: true}
}

// cleanupNoncesLocked drops nonces older than the retention window,
// and if still over maxNonceSetSize, evicts the oldest entries (LRU by
// timestamp). Caller must hold b.mu.
func (b *Bus) cleanupNoncesLocked(nowMillis int64) {
	retentionMs := b.nonceRetention.Milliseconds()
	for nonce, entry := range b.nonces {
		if nowMillis-entry.seenAtMs > retentionMs {
			delete(b.nonces, nonce)
		}
	}
	if b.maxNonceSetSize <= 0 || len(b.nonces) <= b.maxNonceSetSize {
		return
	}
	type kv struct {
		nonce string
		seen  int64
	}
	entries := make([]kv, 0, len(b.nonces))
	for n, e := range b.nonces {
		entries = append(entries, kv{n, e.seenAtMs})
	}
	// Simple partial selection: evict oldest until under the cap. The set
	// is bounded so a full sort here is acceptable.
	for len(b.nonces) > b.maxNonceSetSize {
		oldestIdx := 0
		for i := 1; i < len(entries); i++ {
			if entries[i].seen < entries[oldestIdx].seen {
				oldestIdx = i
			}
		}
		delete(b.nonces, entries[oldestIdx].nonce)
		entries = append(entries[:oldestIdx], entries[oldestIdx+1:]...)
	}
}

// ExtractPayload validates msg and, on success, unmarshals its payload
// into out.
func (b *Bus) ExtractPayload(msg *Message, out any) error {
	result := b.ValidateMessage(msg)
	if !result.Valid {
		return apperr.New(result.ErrorCode, "message failed validation")
	}
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		return apperr.Wrap(apperr.CodeMalformedMessage, "payload does not match expected shape", err)
	}
	return nil
}

// ChannelStats reports the current bookkeeping for a channel.
type ChannelStats struct {
	LastSequenceNumber uint64
	LastTimestampMs    int64
	MessageCount       uint64
	CreatedAt          time.Time
}

// Stats returns a snapshot of a channel's state, or false if unseen.
func (b *Bus) Stats(channel string) (ChannelStats, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.channels[channel]
	if !ok {
		return ChannelStats{}, false
	}
	return ChannelStats{
		LastSequenceNumber: state.lastSequenceNumber,
		LastTimestampMs:    state.lastTimestampMs,
		MessageCount:       state.messageCount,
		CreatedAt:          state.createdAt,
	}, true
}

// NonceSetSize reports the current number of tracked nonces (for tests
// and health checks).
func (b *Bus) NonceSetSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.nonces)
}
