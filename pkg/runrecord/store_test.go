package runrecord

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Muhammed5500/neuro-core/pkg/consensus"
)

func sampleRecord() *Record {
	now := time.Now()
	return &Record{
		ID:      uuid.NewString(),
		Version: 1,
		Inputs: SignalSet{
			Query: "DOGE pump?",
			Signals: []Signal{
				{Source: "twitter", Kind: "social", Timestamp: now, Fingerprint: "fp1", Content: "to the moon"},
				{Source: "newsapi", Kind: "news", Timestamp: now, Fingerprint: "fp2", Content: "regulatory filing"},
			},
		},
		Decision:  &consensus.Decision{Status: consensus.StatusHold},
		StartedAt: now,
		CompletedAt: now.Add(time.Second),
		DurationMs: 1000,
	}
}

func TestSaveLoadVerifyRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	record := sampleRecord()

	require.NoError(t, store.Save(record))

	loaded, err := store.Load(record.ID)
	require.NoError(t, err)
	require.Equal(t, record.Checksum, loaded.Checksum)

	ok, err := store.Verify(record.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestChecksumDeterministicAcrossSignalOrder(t *testing.T) {
	now := time.Now()
	a := SignalSet{
		Query: "q",
		Signals: []Signal{
			{Source: "a", Fingerprint: "1", Timestamp: now},
			{Source: "b", Fingerprint: "2", Timestamp: now},
		},
	}
	b := SignalSet{
		Query: "q",
		Signals: []Signal{
			{Source: "b", Fingerprint: "2", Timestamp: now},
			{Source: "a", Fingerprint: "1", Timestamp: now},
		},
	}
	require.Equal(t, Checksum(a), Checksum(b))
}

func TestListNewestFirst(t *testing.T) {
	store := NewStore(t.TempDir())
	older := sampleRecord()
	older.StartedAt = time.Now().Add(-time.Hour)
	newer := sampleRecord()
	newer.StartedAt = time.Now()

	require.NoError(t, store.Save(older))
	require.NoError(t, store.Save(newer))

	records, err := store.List(10, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, newer.ID, records[0].ID)
}

func TestVerifyDetectsTamper(t *testing.T) {
	store := NewStore(t.TempDir())
	record := sampleRecord()
	require.NoError(t, store.Save(record))

	loaded, err := store.Load(record.ID)
	require.NoError(t, err)
	loaded.Inputs.Query = "tampered"
	loaded.Checksum = record.Checksum // stale checksum, as if bytes were corrupted
	require.NoError(t, store.Save(loaded))

	ok, err := store.Verify(record.ID)
	require.NoError(t, err)
	require.False(t, ok)
}
