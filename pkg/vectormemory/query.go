package vectormemory

import (
	"context"
	"sort"
	"time"
)

const (
	defaultSearchLimit = 10

	bucketWithinHour = "1h"
	bucketWithinDay  = "24h"
	bucketWithinWeek = "7d"
	bucketOlder      = "older"
)

// Querier runs similarity searches against an EmbeddingProvider plus
// VectorBackend pair, matching the construction shared with Indexer.
type Querier struct {
	embedder EmbeddingProvider
	backend  VectorBackend
}

// NewQuerier constructs a Querier over the same collaborators an
// Indexer writes through.
func NewQuerier(embedder EmbeddingProvider, backend VectorBackend) *Querier {
	return &Querier{embedder: embedder, backend: backend}
}

// FindSimilar embeds query, retrieves the metadata-filtered top matches
// from the backend, and optionally computes distribution stats over
// the result set.
func (q *Querier) FindSimilar(ctx context.Context, query string, opts SearchOptions) (FindSimilarResult, error) {
	start := time.Now()

	if opts.Limit <= 0 {
		opts.Limit = defaultSearchLimit
	}

	embedding, err := q.embedder.Embed(ctx, query)
	if err != nil {
		return FindSimilarResult{}, err
	}

	scored, err := q.backend.Search(ctx, embedding, opts)
	if err != nil {
		return FindSimilarResult{}, err
	}

	filtered := make([]ScoredRecord, 0, len(scored))
	for _, sr := range scored {
		if matchesFilter(sr.Record.Metadata, opts.Filter) {
			filtered = append(filtered, sr)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Score > filtered[j].Score })
	if len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}

	result := FindSimilarResult{
		Results:          filtered,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
	if opts.IncludeStats {
		result.Stats = computeStats(filtered, time.Now())
	}
	return result, nil
}

func matchesFilter(meta Metadata, f MetadataFilter) bool {
	if f.SourceType != "" && meta.SourceType != f.SourceType {
		return false
	}
	if len(f.Tickers) > 0 && !anyTickerMatches(meta.Tickers, f.Tickers) {
		return false
	}
	if f.TimestampAfter != nil && meta.Timestamp.Before(*f.TimestampAfter) {
		return false
	}
	if f.TimestampBefore != nil && meta.Timestamp.After(*f.TimestampBefore) {
		return false
	}
	return true
}

func anyTickerMatches(recordTickers, wanted []string) bool {
	set := make(map[string]struct{}, len(wanted))
	for _, t := range wanted {
		set[t] = struct{}{}
	}
	for _, t := range recordTickers {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// computeStats aggregates average score plus the three named
// distributions over the filtered result set. Sentiment is bucketed as
// negative (below -0.1), positive (above 0.1), neutral (in between) or
// unknown (no sentiment); price-impact distribution is
// derived from the SourceType field, since a dedicated impact field is
// not part of the stored metadata.
func computeStats(results []ScoredRecord, now time.Time) Stats {
	stats := Stats{
		PriceImpactDistribution: map[string]int{},
		SentimentDistribution:   map[string]int{},
		TimeBucketHistogram:     map[string]int{},
	}
	if len(results) == 0 {
		return stats
	}

	var scoreSum float64
	for _, sr := range results {
		scoreSum += sr.Score
		stats.PriceImpactDistribution[sr.Record.Metadata.SourceType]++
		stats.SentimentDistribution[sentimentBucket(sr.Record.Metadata.Sentiment)]++
		stats.TimeBucketHistogram[timeBucket(sr.Record.Metadata.Timestamp, now)]++
	}
	stats.AverageScore = scoreSum / float64(len(results))
	return stats
}

func sentimentBucket(s *float64) string {
	if s == nil {
		return "unknown"
	}
	switch {
	case *s < -0.1:
		return "negative"
	case *s > 0.1:
		return "positive"
	default:
		return "neutral"
	}
}

func timeBucket(t time.Time, now time.Time) string {
	age := now.Sub(t)
	switch {
	case age <= time.Hour:
		return bucketWithinHour
	case age <= 24*time.Hour:
		return bucketWithinDay
	case age <= 7*24*time.Hour:
		return bucketWithinWeek
	default:
		return bucketOlder
	}
}
