package crosscheck

import (
	"sort"
	"strings"
	"time"
)

const (
	minPhraseLength      = 20
	minUniqueAccounts    = 10
	maxCoordinationWindow = 30 * time.Minute
	botScoreThreshold    = 0.5
	botFractionThreshold = 0.5
)

// DetectCopyPasta groups posts by identical (normalised) phrase text of
// at least minPhraseLength characters, then flags any phrase posted by
// minUniqueAccounts or more distinct accounts within a
// maxCoordinationWindow span as coordinated bot amplification when at
// least half the posting accounts score as likely bots.
func DetectCopyPasta(posts []SocialPost) CopyPastaResult {
	groups := make(map[string][]SocialPost)
	for _, p := range posts {
		phrase := normalizePhrase(p.Text)
		if len(phrase) < minPhraseLength {
			continue
		}
		groups[phrase] = append(groups[phrase], p)
	}

	var matches []CopyPastaMatch
	overall := RiskLow

	for phrase, group := range groups {
		firstByAccount := earliestPerAccount(group)
		if len(firstByAccount) < minUniqueAccounts {
			continue
		}

		start, end := windowBounds(firstByAccount)
		withinWindow := end.Sub(start) <= maxCoordinationWindow

		accounts := make([]string, 0, len(firstByAccount))
		var scoreSum float64
		likelyBots := 0
		for acct, post := range firstByAccount {
			accounts = append(accounts, acct)
			score := botScore(post)
			scoreSum += score
			if score >= botScoreThreshold {
				likelyBots++
			}
		}
		sort.Strings(accounts)
		avgScore := scoreSum / float64(len(firstByAccount))
		botFraction := float64(likelyBots) / float64(len(firstByAccount))

		coordinated := len(firstByAccount) >= minUniqueAccounts && withinWindow && botFraction >= botFractionThreshold

		match := CopyPastaMatch{
			Phrase:                    phrase,
			Accounts:                  accounts,
			WindowStart:               start,
			WindowEnd:                 end,
			AverageBotScore:           avgScore,
			CoordinatedAmplification:  coordinated,
		}
		matches = append(matches, match)

		risk := RiskLow
		switch {
		case coordinated:
			risk = RiskCritical
		case len(firstByAccount) >= minUniqueAccounts:
			risk = RiskHigh
		}
		if risk > overall {
			overall = risk
		}
	}

	return CopyPastaResult{Matches: matches, Risk: overall}
}

func normalizePhrase(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// earliestPerAccount keeps each account's first post within the group,
// so an account re-posting the same phrase only counts once.
func earliestPerAccount(posts []SocialPost) map[string]SocialPost {
	out := make(map[string]SocialPost)
	for _, p := range posts {
		existing, ok := out[p.AccountID]
		if !ok || p.PostedAt.Before(existing.PostedAt) {
			out[p.AccountID] = p
		}
	}
	return out
}

func windowBounds(byAccount map[string]SocialPost) (time.Time, time.Time) {
	var start, end time.Time
	first := true
	for _, p := range byAccount {
		if first {
			start, end = p.PostedAt, p.PostedAt
			first = false
			continue
		}
		if p.PostedAt.Before(start) {
			start = p.PostedAt
		}
		if p.PostedAt.After(end) {
			end = p.PostedAt
		}
	}
	return start, end
}

// botScore is the mean of the two binary risk factors: low follower
// count and young account age. A score of 1.0 means both factors fired.
func botScore(p SocialPost) float64 {
	var active float64
	if p.FollowerCount < 100 {
		active++
	}
	if p.AccountAgeDays < 30 {
		active++
	}
	return active / 2
}
