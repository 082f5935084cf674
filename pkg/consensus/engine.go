package consensus

import (
	"fmt"
	"time"
)

// Engine runs the deterministic opinion-aggregation algorithm.
// Stateless and safe for concurrent use — all state lives in the
// arguments passed to Decide.
type Engine struct {
	cfg Config
}

// NewEngine constructs an Engine bound to a fixed configuration.
func NewEngine(cfg Config) *Engine {
	if cfg.AgreementThreshold == 0 {
		cfg.AgreementThreshold = 0.6
	}
	return &Engine{cfg: cfg}
}

// Decide aggregates opinions (in stable input order — never re-sorted,
// so replaying identical inputs yields an identical decision) into a
// Decision, plus the audit trail of transitions it took to get there.
func (e *Engine) Decide(opinions []Opinion, now time.Time, validity time.Duration) (*Decision, []AuditEntry) {
	var audit []AuditEntry
	record := func(stage, msg string) {
		audit = append(audit, AuditEntry{At: now, Stage: stage, Message: msg})
	}

	// Step 1: adversarial veto.
	for _, op := range opinions {
		if op.Role == RoleAdversarial && op.IsTrap && op.TrapConfidence >= e.cfg.AdversarialVetoThreshold {
			record("adversarial_veto", fmt.Sprintf("trap flagged with confidence %.4f >= threshold %.4f", op.TrapConfidence, e.cfg.AdversarialVetoThreshold))
			return &Decision{
				Status:          StatusReject,
				Recommendation:  RecommendationAvoid,
				AdversarialVeto: true,
				Rationale:       "adversarial agent flagged a high-confidence trap",
				MadeAt:          now,
				ExpiresAt:       now.Add(validity),
			}, audit
		}
	}

	// Step 2: quorum.
	if len(opinions) < e.cfg.MinAgentsRequired {
		record("quorum_check", fmt.Sprintf("%d opinions present, %d required", len(opinions), e.cfg.MinAgentsRequired))
		return &Decision{
			Status:    StatusNeedsReview,
			Rationale: "insufficient agent opinions for quorum",
			MadeAt:    now,
			ExpiresAt: now.Add(validity),
		}, audit
	}

	// Step 3: aggregate.
	agg := e.aggregate(opinions)
	record("aggregate", fmt.Sprintf("method=%s recommendation=%s agreement=%.4f confidence=%.4f", e.cfg.Method, agg.recommendation, agg.agreementScore, agg.averageConfidence))

	status := StatusHold
	if agg.averageConfidence >= e.cfg.ConfidenceThreshold && agg.agreementScore >= e.cfg.AgreementThreshold {
		status = StatusExecute
	}
	record("status_decision", fmt.Sprintf("status=%s", status))

	return &Decision{
		Status:          status,
		Recommendation:  agg.recommendation,
		Confidence:      agg.averageConfidence,
		AverageRisk:     agg.averageRisk,
		AgreementScore:  agg.agreementScore,
		AdversarialVeto: false,
		Rationale:       fmt.Sprintf("aggregated %d opinions via %s", len(opinions), e.cfg.Method),
		MadeAt:          now,
		ExpiresAt:       now.Add(validity),
	}, audit
}

type aggregation struct {
	recommendation    Recommendation
	agreementScore    float64
	averageConfidence float64
	averageRisk       float64
}

// aggregate implements confidence_weighted, the default method, and
// applies the same arithmetic for every other enumerated method; the
// configured Method only appears in the audit trail and the rationale.
func (e *Engine) aggregate(opinions []Opinion) aggregation {
	// Group by recommendation, in first-seen order, for deterministic
	// tie-breaking (first group with the max sum wins on a tie).
	var order []Recommendation
	sums := make(map[Recommendation]float64)
	for _, op := range opinions {
		if _, ok := sums[op.Recommendation]; !ok {
			order = append(order, op.Recommendation)
		}
		sums[op.Recommendation] += op.Confidence
	}

	var totalConfidence, totalRisk float64
	for _, op := range opinions {
		totalConfidence += op.Confidence
		totalRisk += op.Risk
	}

	var winner Recommendation
	var winnerSum float64 = -1
	for _, rec := range order {
		if sums[rec] > winnerSum {
			winnerSum = sums[rec]
			winner = rec
		}
	}

	agreement := 0.0
	if totalConfidence > 0 {
		agreement = winnerSum / totalConfidence
	}

	n := float64(len(opinions))
	return aggregation{
		recommendation:    winner,
		agreementScore:    agreement,
		averageConfidence: totalConfidence / n,
		averageRisk:       totalRisk / n,
	}
}
