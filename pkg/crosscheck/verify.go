package crosscheck

import (
	"context"
	"time"
)

// Verifier runs the full cross-check pipeline (staleness, multi-source,
// copy-pasta) for incoming claims.
type Verifier struct {
	search          WebSearchProvider
	ownershipGroups map[string]string
	resurfaced      func(claimID string) bool
}

// NewVerifier constructs a Verifier. ownershipGroups maps a news
// domain to its owning media group for multi-source dedup; resurfaced
// reports whether a claim has previously been flagged stale without a
// new corroborating source since (the caller owns that history).
func NewVerifier(search WebSearchProvider, ownershipGroups map[string]string, resurfaced func(claimID string) bool) *Verifier {
	if resurfaced == nil {
		resurfaced = func(string) bool { return false }
	}
	return &Verifier{
		search:          search,
		ownershipGroups: ownershipGroups,
		resurfaced:      resurfaced,
	}
}

// VerifyClaim runs the staleness and multi-source sub-checks for a news
// claim. now is the evaluation time, injected rather than read from the
// clock so results are reproducible.
func (v *Verifier) VerifyClaim(ctx context.Context, claim Claim, now time.Time) (Report, error) {
	staleness := CheckStaleness(claim, now, 0, v.resurfaced(claim.ID))

	results, err := v.search.SearchNews(ctx, claim)
	if err != nil {
		return Report{}, err
	}
	multiSource := CheckMultiSource(claim, results, v.ownershipGroups)

	return Report{
		Claim:       claim,
		Staleness:   staleness,
		MultiSource: &multiSource,
		OverallRisk: maxRisk(staleness.Risk, multiSource.Risk),
	}, nil
}

// VerifySocialPosts runs the copy-pasta sub-check over a batch of
// social posts, independent of any single claim.
func (v *Verifier) VerifySocialPosts(posts []SocialPost) CopyPastaResult {
	return DetectCopyPasta(posts)
}

func maxRisk(risks ...RiskLevel) RiskLevel {
	max := RiskLow
	for _, r := range risks {
		if r > max {
			max = r
		}
	}
	return max
}
