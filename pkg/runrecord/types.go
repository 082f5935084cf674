// Package runrecord persists immutable, checksummed audit records of
// each consensus run, written with atomic temp-then-rename file writes.
package runrecord

import (
	"time"

	"github.com/Muhammed5500/neuro-core/pkg/consensus"
)

// Signal is one item of the bounded signal set consumed by a run:
// a news item, social post, memory similarity, or on-chain snapshot.
type Signal struct {
	Source       string    `json:"source"`
	Kind         string    `json:"kind"`
	Timestamp    time.Time `json:"timestamp"`
	Fingerprint  string    `json:"fingerprint"`
	Content      string    `json:"content"`
}

// SignalSet is the bounded collection embedded and indexed at the start
// of a run, consumed exactly once.
type SignalSet struct {
	Signals []Signal `json:"signals"`
	Query   string   `json:"query"`
}

// Record is the immutable, append-only audit artifact for one run.
type Record struct {
	ID          string               `json:"id"`
	Version     int                  `json:"version"`
	Inputs      SignalSet            `json:"inputs"`
	Opinions    []consensus.Opinion  `json:"opinions"`
	Decision    *consensus.Decision  `json:"decision"`
	AuditLog    []consensus.AuditEntry `json:"auditLog"`
	StartedAt   time.Time            `json:"startedAt"`
	CompletedAt time.Time            `json:"completedAt"`
	DurationMs  int64                `json:"durationMs"`
	Checksum    string               `json:"checksum"`
}
