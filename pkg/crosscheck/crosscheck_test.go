package crosscheck

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCheckStalenessFlagsAgedClaim(t *testing.T) {
	published := time.Now().Add(-7 * time.Hour)
	claim := Claim{ID: "c1", Text: "token X raised a new round", PublishedAt: published, Importance: ImportanceMedium}

	result := CheckStaleness(claim, time.Now(), 0, false)
	require.True(t, result.IsStale)
	require.Equal(t, RiskHigh, result.Risk)
}

func TestCheckStalenessFreshClaimNotStale(t *testing.T) {
	claim := Claim{ID: "c1", PublishedAt: time.Now().Add(-time.Hour), Importance: ImportanceMedium}
	result := CheckStaleness(claim, time.Now(), 0, false)
	require.False(t, result.IsStale)
	require.Equal(t, RiskLow, result.Risk)
}

func TestCheckStalenessResurfacedIsCritical(t *testing.T) {
	claim := Claim{ID: "c1", PublishedAt: time.Now().Add(-7 * time.Hour), Importance: ImportanceHigh}
	result := CheckStaleness(claim, time.Now(), 0, true)
	require.True(t, result.IsStale)
	require.Equal(t, RiskCritical, result.Risk)
}

func TestCheckMultiSourceFullyMetIsLow(t *testing.T) {
	claim := Claim{Text: "token launch announced on mainnet today", Importance: ImportanceMedium}
	results := []SourceResult{
		{Domain: "a.com", Text: "token launch announced on mainnet today", Credibility: 0.8},
		{Domain: "b.com", Text: "token launch announced on mainnet today", Credibility: 0.8},
	}
	result := CheckMultiSource(claim, results, nil)
	require.Equal(t, 2, result.IndependentConfirmations)
	require.Equal(t, RiskLow, result.Risk)
}

func TestCheckMultiSourceZeroConfirmationsHighImportanceCritical(t *testing.T) {
	claim := Claim{Text: "exploit drains protocol treasury overnight", Importance: ImportanceHigh}
	result := CheckMultiSource(claim, nil, nil)
	require.Equal(t, 0, result.IndependentConfirmations)
	require.Equal(t, RiskCritical, result.Risk)
}

func TestCheckMultiSourcePartialHighImportanceIsHigh(t *testing.T) {
	claim := Claim{Text: "exploit drains protocol treasury overnight", Importance: ImportanceHigh}
	results := []SourceResult{
		{Domain: "a.com", Text: "exploit drains protocol treasury overnight", Credibility: 0.8},
	}
	result := CheckMultiSource(claim, results, nil)
	require.Equal(t, 1, result.IndependentConfirmations)
	require.Equal(t, RiskHigh, result.Risk)
}

func TestCheckMultiSourceOwnershipGroupDedupCountsOnce(t *testing.T) {
	claim := Claim{Text: "token launch announced on mainnet today", Importance: ImportanceLow}
	results := []SourceResult{
		{Domain: "a.com", Text: "token launch announced on mainnet today", Credibility: 0.8},
		{Domain: "a-syndicate.com", Text: "token launch announced on mainnet today", Credibility: 0.8},
	}
	groups := map[string]string{"a.com": "group-a", "a-syndicate.com": "group-a"}
	result := CheckMultiSource(claim, results, groups)
	require.Equal(t, 1, result.IndependentConfirmations)
}

func TestCheckMultiSourceIgnoresLowCredibilityOrLowSimilarity(t *testing.T) {
	claim := Claim{Text: "token launch announced on mainnet today", Importance: ImportanceLow}
	results := []SourceResult{
		{Domain: "a.com", Text: "token launch announced on mainnet today", Credibility: 0.2},
		{Domain: "b.com", Text: "completely unrelated weather report", Credibility: 0.9},
	}
	result := CheckMultiSource(claim, results, nil)
	require.Equal(t, 0, result.IndependentConfirmations)
}

func postsForCopyPastaScenario() []SocialPost {
	phrase := "Massive whale just aped into this brand new token pair minutes ago"
	base := time.Now()
	posts := make([]SocialPost, 0, 12)
	for i := 0; i < 12; i++ {
		followers := 500
		age := 400
		if i < 7 {
			followers = 50
			age = 10
		}
		posts = append(posts, SocialPost{
			AccountID:      accountName(i),
			Text:           phrase,
			PostedAt:       base.Add(time.Duration(i) * time.Minute),
			FollowerCount:  followers,
			AccountAgeDays: age,
		})
	}
	return posts
}

func accountName(i int) string {
	names := []string{"acct0", "acct1", "acct2", "acct3", "acct4", "acct5", "acct6", "acct7", "acct8", "acct9", "acct10", "acct11"}
	return names[i]
}

func TestDetectCopyPastaFlagsCoordinatedAmplification(t *testing.T) {
	posts := postsForCopyPastaScenario()
	result := DetectCopyPasta(posts)
	require.Len(t, result.Matches, 1)
	require.True(t, result.Matches[0].CoordinatedAmplification)
	require.Equal(t, RiskCritical, result.Risk)
}

func TestDetectCopyPastaIgnoresShortPhrases(t *testing.T) {
	posts := []SocialPost{
		{AccountID: "a1", Text: "gm", PostedAt: time.Now()},
		{AccountID: "a2", Text: "gm", PostedAt: time.Now()},
	}
	result := DetectCopyPasta(posts)
	require.Empty(t, result.Matches)
	require.Equal(t, RiskLow, result.Risk)
}

func TestDetectCopyPastaBelowAccountThresholdNotFlagged(t *testing.T) {
	phrase := "this phrase is definitely long enough to qualify as a candidate"
	base := time.Now()
	var posts []SocialPost
	for i := 0; i < 5; i++ {
		posts = append(posts, SocialPost{
			AccountID: accountName(i),
			Text:      phrase,
			PostedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}
	result := DetectCopyPasta(posts)
	require.Empty(t, result.Matches)
}

func TestDetectCopyPastaOutsideWindowNotCoordinated(t *testing.T) {
	phrase := "this phrase is definitely long enough to qualify as a candidate"
	base := time.Now()
	var posts []SocialPost
	for i := 0; i < 12; i++ {
		posts = append(posts, SocialPost{
			AccountID:      accountName(i),
			Text:           phrase,
			PostedAt:       base.Add(time.Duration(i) * time.Hour),
			FollowerCount:  10,
			AccountAgeDays: 5,
		})
	}
	result := DetectCopyPasta(posts)
	require.Len(t, result.Matches, 1)
	require.False(t, result.Matches[0].CoordinatedAmplification)
	require.Equal(t, RiskHigh, result.Risk)
}

type fakeSearchProvider struct {
	results []SourceResult
	err     error
}

func (f fakeSearchProvider) SearchNews(ctx context.Context, claim Claim) ([]SourceResult, error) {
	return f.results, f.err
}

func TestVerifierVerifyClaimCombinesSubChecks(t *testing.T) {
	search := fakeSearchProvider{results: []SourceResult{
		{Domain: "a.com", Text: "exploit drains protocol treasury overnight", Credibility: 0.8},
	}}
	v := NewVerifier(search, nil, nil)

	claim := Claim{ID: "c1", Text: "exploit drains protocol treasury overnight", PublishedAt: time.Now().Add(-8 * time.Hour), Importance: ImportanceHigh}
	report, err := v.VerifyClaim(context.Background(), claim, time.Now())
	require.NoError(t, err)
	require.True(t, report.Staleness.IsStale)
	require.Equal(t, RiskHigh, report.OverallRisk)
}
