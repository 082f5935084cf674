// Package vectormemory is the async embed-and-index pipeline with
// duplicate suppression and similarity search. Grounded on a
// WorkerPool/Worker bounded-concurrency pattern generalized from
// database-session processing to embedding-batch processing — a
// fixed-size pool draining a shared job channel rather than one
// goroutine per item.
package vectormemory

import (
	"context"
	"time"
)

// EmbeddingProvider is the external embedding backend — out of scope
// for this core beyond this narrow contract.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	ProviderName() string
}

// VectorBackend is the external vector database — out of scope for
// this core beyond this narrow contract.
type VectorBackend interface {
	Upsert(ctx context.Context, record VectorRecord) error
	Search(ctx context.Context, queryVector []float64, opts SearchOptions) ([]ScoredRecord, error)
	Get(ctx context.Context, id string) (VectorRecord, bool, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Metadata carries the scalar/array fields a similarity query can filter on.
type Metadata struct {
	SourceType    string
	Source        string
	Timestamp     time.Time
	Tickers       []string
	Sentiment     *float64
	MarketOutcome *string
}

// VectorRecord is one indexed item.
type VectorRecord struct {
	ID          string
	Embedding   []float64
	Content     string
	ContentHash string
	Metadata    Metadata
	IndexedAt   time.Time
	IsDuplicate bool
	DuplicateOf string
}

// IndexItem is the caller-supplied payload for Index.
type IndexItem struct {
	Content  string
	Metadata Metadata
}

// IndexResult is what Index returns once the item's batch has been
// processed — success/duplicate status plus the end-to-end latency.
type IndexResult struct {
	ID               string
	Success          bool
	IsDuplicate      bool
	DuplicateOf      string
	ProcessingTimeMs int64
	Err              error
}

// MetadataFilter narrows a similarity query: scalar fields match by
// equality, Tickers matches "any-of", the timestamp fields bound a range.
type MetadataFilter struct {
	SourceType       string
	Tickers          []string
	TimestampAfter   *time.Time
	TimestampBefore  *time.Time
}

// SearchOptions parameters a similarity query.
type SearchOptions struct {
	Limit        int
	MinScore     float64
	Filter       MetadataFilter
	IncludeStats bool
}

// ScoredRecord pairs a stored record with its similarity score.
type ScoredRecord struct {
	Record VectorRecord
	Score  float64
}

// Stats summarises a findSimilar result set.
type Stats struct {
	AverageScore            float64
	PriceImpactDistribution map[string]int
	SentimentDistribution   map[string]int
	TimeBucketHistogram     map[string]int
}

// FindSimilarResult is the full similarity-query response.
type FindSimilarResult struct {
	Results          []ScoredRecord
	Stats            Stats
	ProcessingTimeMs int64
}
