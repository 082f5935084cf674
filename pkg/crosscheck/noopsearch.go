package crosscheck

import "context"

// NoopSearchProvider is a dependency-free WebSearchProvider: every claim
// comes back with zero corroborating sources. It is the default when no
// real news search API is wired in, and leaves every claim's
// corroboration check at its most conservative (no support found)
// rather than fabricating results.
type NoopSearchProvider struct{}

func (NoopSearchProvider) SearchNews(ctx context.Context, claim Claim) ([]SourceResult, error) {
	return nil, nil
}
