package vectormemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryBackendUpsertThenGet(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	rec := VectorRecord{ID: "a", Embedding: []float64{1, 0, 0}}
	require.NoError(t, b.Upsert(ctx, rec))

	got, ok, err := b.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec.Embedding, got.Embedding)

	count, err := b.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMemoryBackendSearchRanksByCosineSimilarity(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	require.NoError(t, b.Upsert(ctx, VectorRecord{ID: "close", Embedding: []float64{1, 0, 0}}))
	require.NoError(t, b.Upsert(ctx, VectorRecord{ID: "far", Embedding: []float64{0, 1, 0}}))

	results, err := b.Search(ctx, []float64{1, 0, 0}, SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "close", results[0].Record.ID)
	require.InDelta(t, 1.0, results[0].Score, 1e-9)
	require.InDelta(t, 0.0, results[1].Score, 1e-9)
}

func TestMemoryBackendSearchExcludesDuplicatesAndAppliesMinScore(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	require.NoError(t, b.Upsert(ctx, VectorRecord{ID: "dup", Embedding: []float64{1, 0}, IsDuplicate: true}))
	require.NoError(t, b.Upsert(ctx, VectorRecord{ID: "orthogonal", Embedding: []float64{0, 1}}))

	results, err := b.Search(ctx, []float64{1, 0}, SearchOptions{Limit: 10, MinScore: 0.5})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestMemoryBackendSearchFiltersByMetadata(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, b.Upsert(ctx, VectorRecord{
		ID: "news", Embedding: []float64{1, 0}, Metadata: Metadata{SourceType: "news", Timestamp: now},
	}))
	require.NoError(t, b.Upsert(ctx, VectorRecord{
		ID: "social", Embedding: []float64{1, 0}, Metadata: Metadata{SourceType: "social", Timestamp: now},
	}))

	results, err := b.Search(ctx, []float64{1, 0}, SearchOptions{Limit: 10, Filter: MetadataFilter{SourceType: "news"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "news", results[0].Record.ID)
}

func TestMemoryBackendDelete(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	require.NoError(t, b.Upsert(ctx, VectorRecord{ID: "a", Embedding: []float64{1}}))
	require.NoError(t, b.Delete(ctx, "a"))
	_, ok, err := b.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)
}
