package runrecord

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
)

// Checksum computes a deterministic digest of a SignalSet: canonicalised
// signals (sorted by fingerprint, a stable tiebreak independent of
// ingestion order) plus the query string. Two runs with identical inputs
// always produce identical checksums.
func Checksum(inputs SignalSet) string {
	signals := make([]Signal, len(inputs.Signals))
	copy(signals, inputs.Signals)
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].Fingerprint != signals[j].Fingerprint {
			return signals[i].Fingerprint < signals[j].Fingerprint
		}
		return signals[i].Source < signals[j].Source
	})

	h := sha256.New()
	h.Write([]byte(inputs.Query))
	h.Write([]byte{0})
	for _, s := range signals {
		h.Write([]byte(s.Source))
		h.Write([]byte{0})
		h.Write([]byte(s.Kind))
		h.Write([]byte{0})
		h.Write([]byte(s.Fingerprint))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(s.Timestamp.UnixMilli(), 10)))
		h.Write([]byte{0})
		h.Write([]byte(s.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
