package vectormemory

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testEmbedder is a deterministic in-memory EmbeddingProvider double.
// Real embedding backends are an out-of-scope collaborator; this exists
// only to exercise the indexer/querier contract.
type testEmbedder struct {
	mu       sync.Mutex
	failNext bool
	dim      int
}

func newTestEmbedder() *testEmbedder { return &testEmbedder{dim: 4} }

func (e *testEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *testEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failNext {
		e.failNext = false
		return nil, errors.New("embedding provider unavailable")
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = hashEmbed(t, e.dim)
	}
	return out, nil
}

func (e *testEmbedder) ProviderName() string { return "test-embedder" }

// hashEmbed derives a cheap, deterministic pseudo-embedding from text by
// spreading its SHA-256 digest over dim components, so identical content
// always produces an identical (thus dedup-triggering) vector, and
// distinct content produces unrelated vectors (the strings in these
// tests stay below the 0.99 dedup threshold).
func hashEmbed(text string, dim int) []float64 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float64, dim)
	for i := range vec {
		vec[i] = float64(sum[i%len(sum)])/127.5 - 1
	}
	return vec
}

func cosineSim(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (sqrt(na) * sqrt(nb))
}

func sqrt(f float64) float64 {
	if f == 0 {
		return 0
	}
	x := f
	for i := 0; i < 50; i++ {
		x = 0.5 * (x + f/x)
	}
	return x
}

// testBackend is an in-memory VectorBackend double, never shipped as a
// production backend — the real store is an out-of-scope collaborator.
type testBackend struct {
	mu      sync.Mutex
	records map[string]VectorRecord
}

func newTestBackend() *testBackend {
	return &testBackend{records: make(map[string]VectorRecord)}
}

func (b *testBackend) Upsert(ctx context.Context, record VectorRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[record.ID] = record
	return nil
}

func (b *testBackend) Search(ctx context.Context, queryVector []float64, opts SearchOptions) ([]ScoredRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var results []ScoredRecord
	for _, rec := range b.records {
		score := cosineSim(queryVector, rec.Embedding)
		if score >= opts.MinScore {
			results = append(results, ScoredRecord{Record: rec, Score: score})
		}
	}
	return results, nil
}

func (b *testBackend) Get(ctx context.Context, id string) (VectorRecord, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[id]
	return rec, ok, nil
}

func (b *testBackend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.records, id)
	return nil
}

func (b *testBackend) Count(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records), nil
}

func TestIndexerIndexesNewContent(t *testing.T) {
	backend := newTestBackend()
	idx := NewIndexer(newTestEmbedder(), backend, WithBatchSize(1))
	defer idx.Stop()

	res, err := idx.Index(context.Background(), IndexItem{Content: "token XYZ launch detected", Metadata: Metadata{SourceType: "social"}})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.False(t, res.IsDuplicate)

	count, err := backend.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestIndexerDetectsDuplicateContent(t *testing.T) {
	backend := newTestBackend()
	idx := NewIndexer(newTestEmbedder(), backend, WithBatchSize(1))
	defer idx.Stop()

	content := "identical market chatter about token ABC"
	_, err := idx.Index(context.Background(), IndexItem{Content: content})
	require.NoError(t, err)

	res2, err := idx.Index(context.Background(), IndexItem{Content: content})
	require.NoError(t, err)
	require.True(t, res2.IsDuplicate)

	count, err := backend.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestIndexerFlushesOnBatchSize(t *testing.T) {
	backend := newTestBackend()
	idx := NewIndexer(newTestEmbedder(), backend, WithBatchSize(3))
	defer idx.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := idx.Index(context.Background(), IndexItem{Content: "distinct content item"})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	idx.Drain()
	count, err := backend.Count(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, count, 1)
}

func TestIndexerFlushesOnInactivityTimer(t *testing.T) {
	backend := newTestBackend()
	idx := NewIndexer(newTestEmbedder(), backend, WithBatchSize(10), WithFlushInterval(20*time.Millisecond))
	defer idx.Stop()

	res, err := idx.Index(context.Background(), IndexItem{Content: "lone item triggers timer flush"})
	require.NoError(t, err)
	require.True(t, res.Success)
}

func TestIndexerBatchEmbedFailureFailsWholeBatch(t *testing.T) {
	backend := newTestBackend()
	embedder := newTestEmbedder()
	embedder.failNext = true
	idx := NewIndexer(embedder, backend, WithBatchSize(1))
	defer idx.Stop()

	res, err := idx.Index(context.Background(), IndexItem{Content: "will fail to embed"})
	require.Error(t, err)
	require.False(t, res.Success)
}

func TestIndexerPauseResumeHoldsBuffer(t *testing.T) {
	backend := newTestBackend()
	idx := NewIndexer(newTestEmbedder(), backend, WithBatchSize(5), WithFlushInterval(time.Hour))
	defer idx.Stop()

	idx.Pause()

	done := make(chan struct{})
	go func() {
		_, _ = idx.Index(context.Background(), IndexItem{Content: "buffered while paused"})
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	count, _ := backend.Count(context.Background())
	require.Equal(t, 0, count)

	idx.Resume()
	<-done
	idx.Drain()

	count, _ = backend.Count(context.Background())
	require.Equal(t, 1, count)
}

func TestIndexerClearDiscardsBuffer(t *testing.T) {
	backend := newTestBackend()
	idx := NewIndexer(newTestEmbedder(), backend, WithBatchSize(10), WithFlushInterval(time.Hour))
	defer idx.Stop()

	idx.Pause()
	go func() { _, _ = idx.Index(context.Background(), IndexItem{Content: "will be cleared"}) }()
	time.Sleep(10 * time.Millisecond)

	idx.Clear()
	idx.Resume()
	idx.Drain()

	count, _ := backend.Count(context.Background())
	require.Equal(t, 0, count)
}

func TestQuerierFindSimilarFiltersByMetadata(t *testing.T) {
	backend := newTestBackend()
	embedder := newTestEmbedder()
	idx := NewIndexer(embedder, backend, WithBatchSize(1))
	defer idx.Stop()

	ctx := context.Background()
	_, err := idx.Index(ctx, IndexItem{Content: "twitter chatter about MON token pump", Metadata: Metadata{SourceType: "social", Tickers: []string{"MON"}}})
	require.NoError(t, err)
	_, err = idx.Index(ctx, IndexItem{Content: "onchain transfer of large MON amount", Metadata: Metadata{SourceType: "onchain", Tickers: []string{"MON"}}})
	require.NoError(t, err)

	q := NewQuerier(embedder, backend)
	result, err := q.FindSimilar(ctx, "MON token pump chatter", SearchOptions{Limit: 10, MinScore: -1, Filter: MetadataFilter{SourceType: "social"}})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	require.Equal(t, "social", result.Results[0].Record.Metadata.SourceType)
}

func TestQuerierFindSimilarComputesStats(t *testing.T) {
	backend := newTestBackend()
	embedder := newTestEmbedder()
	idx := NewIndexer(embedder, backend, WithBatchSize(1))
	defer idx.Stop()

	ctx := context.Background()
	positive := 0.5
	negative := -0.5
	now := time.Now()
	_, err := idx.Index(ctx, IndexItem{Content: "bullish news item one", Metadata: Metadata{SourceType: "news", Sentiment: &positive, Timestamp: now}})
	require.NoError(t, err)
	_, err = idx.Index(ctx, IndexItem{Content: "bearish news item two", Metadata: Metadata{SourceType: "news", Sentiment: &negative, Timestamp: now.Add(-48 * time.Hour)}})
	require.NoError(t, err)

	q := NewQuerier(embedder, backend)
	result, err := q.FindSimilar(ctx, "news about the market", SearchOptions{Limit: 10, MinScore: -1, IncludeStats: true})
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
	require.Equal(t, 1, result.Stats.SentimentDistribution["positive"])
	require.Equal(t, 1, result.Stats.SentimentDistribution["negative"])
	require.Equal(t, 1, result.Stats.TimeBucketHistogram[bucketWithinHour])
	require.Equal(t, 1, result.Stats.TimeBucketHistogram[bucketWithinWeek])
}

func TestQuerierFindSimilarRespectsLimit(t *testing.T) {
	backend := newTestBackend()
	embedder := newTestEmbedder()
	idx := NewIndexer(embedder, backend, WithBatchSize(1))
	defer idx.Stop()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := idx.Index(ctx, IndexItem{Content: "item number with unique suffix " + string(rune('a'+i))})
		require.NoError(t, err)
	}

	q := NewQuerier(embedder, backend)
	result, err := q.FindSimilar(ctx, "item number", SearchOptions{Limit: 2, MinScore: -1})
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
}
