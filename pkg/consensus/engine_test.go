package consensus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func defaultConfig() Config {
	return Config{
		ConfidenceThreshold:      0.85,
		AdversarialVetoThreshold: 0.90,
		MinAgentsRequired:        2,
		Method:                   MethodConfidenceWeighted,
		AgreementThreshold:       0.6,
	}
}

func TestAdversarialVetoScenario(t *testing.T) {
	engine := NewEngine(defaultConfig())
	opinions := []Opinion{
		{Role: "market_analyst", Recommendation: RecommendationBuy, Confidence: 0.90},
		{Role: "risk_assessor", Recommendation: RecommendationBuy, Confidence: 0.80},
		{Role: RoleAdversarial, IsTrap: true, TrapConfidence: 0.95},
	}

	decision, _ := engine.Decide(opinions, time.Now(), time.Hour)
	require.Equal(t, StatusReject, decision.Status)
	require.Equal(t, RecommendationAvoid, decision.Recommendation)
	require.True(t, decision.AdversarialVeto)
}

func TestNeedsReviewBelowQuorum(t *testing.T) {
	engine := NewEngine(defaultConfig())
	opinions := []Opinion{
		{Role: "market_analyst", Recommendation: RecommendationBuy, Confidence: 0.9},
	}
	decision, _ := engine.Decide(opinions, time.Now(), time.Hour)
	require.Equal(t, StatusNeedsReview, decision.Status)
}

func TestExecuteWhenConfidentAndAgreeing(t *testing.T) {
	engine := NewEngine(defaultConfig())
	opinions := []Opinion{
		{Role: "market_analyst", Recommendation: RecommendationBuy, Confidence: 0.95, Risk: 0.2},
		{Role: "risk_assessor", Recommendation: RecommendationBuy, Confidence: 0.90, Risk: 0.3},
	}
	decision, _ := engine.Decide(opinions, time.Now(), time.Hour)
	require.Equal(t, StatusExecute, decision.Status)
	require.Equal(t, RecommendationBuy, decision.Recommendation)
	require.InDelta(t, 0.25, decision.AverageRisk, 1e-9)
}

func TestHoldWhenAgreementTooLow(t *testing.T) {
	engine := NewEngine(defaultConfig())
	opinions := []Opinion{
		{Role: "market_analyst", Recommendation: RecommendationBuy, Confidence: 0.95},
		{Role: "risk_assessor", Recommendation: RecommendationSell, Confidence: 0.90},
	}
	decision, _ := engine.Decide(opinions, time.Now(), time.Hour)
	require.Equal(t, StatusHold, decision.Status)
}

func TestDeterministicReplay(t *testing.T) {
	engine := NewEngine(defaultConfig())
	opinions := []Opinion{
		{Role: "market_analyst", Recommendation: RecommendationBuy, Confidence: 0.95, Risk: 0.1},
		{Role: "risk_assessor", Recommendation: RecommendationBuy, Confidence: 0.91, Risk: 0.2},
	}
	now := time.Now()
	d1, _ := engine.Decide(opinions, now, time.Hour)
	d2, _ := engine.Decide(opinions, now, time.Hour)
	require.Equal(t, d1, d2)
}
