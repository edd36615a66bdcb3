package guardian

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// Evaluate judges one content item against the target tier and returns the
// verdict with its full reason trail.
//
// Flow: classify trust → short-circuit denylisted sources → run the rule
// chain (decisive Approve/Block stops it) → compute the Guardian Score with
// accumulated rule adjustments → apply the tier threshold.
func (e *Engine) Evaluate(item ContentItem, tier AgeTier) Verdict {
	s := e.snap.Load()
	tier = s.clampTier(tier)
	trust := s.roster.classify(item.SourceID, item.SourceName)

	if trust.IsBlocked() {
		return e.finish(false, BlockedScore(), tier, trust, []VerdictReason{{
			Type:    ReasonBlockedSource,
			Message: fmt.Sprintf("source %q is denylisted", item.SourceID),
			Impact:  ImpactCritical,
		}})
	}

	rctx := RuleContext{Tier: tier, Trust: trust, StrictMode: tier.StrictMode()}
	adjustment := 0
	var reasons []VerdictReason

	for _, r := range s.rules {
		res := e.evalRule(r, item, rctx)
		switch res.Kind {
		case ResultApprove:
			reasons = append(reasons, ruleReason(r, res, ImpactApproved))
			// Score is still computed so the verdict reports it.
			return e.finish(true, s.score(item, trust, tier), tier, trust, reasons)
		case ResultBlock:
			reasons = append(reasons, ruleReason(r, res, ImpactCritical))
			return e.finish(false, BlockedScore(), tier, trust, reasons)
		case ResultContinue:
			adjustment += res.ScoreAdjustment
			impact := ImpactNeutral
			if res.ScoreAdjustment < 0 {
				impact = ImpactNegative
			} else if res.ScoreAdjustment > 0 {
				impact = ImpactPositive
			}
			reasons = append(reasons, ruleReason(r, res, impact))
		case ResultSkip:
			// nothing to record
		}
	}

	score := s.score(item, trust, tier).withAdjustment(adjustment)
	required := s.tiers[tier].requiredScore
	if score.Total >= required {
		reasons = append(reasons, VerdictReason{
			Type:    ReasonScorePassed,
			Message: fmt.Sprintf("score %d meets the %s threshold %d", score.Total, tier, required),
			Impact:  ImpactPositive,
		})
		return e.finish(true, score, tier, trust, reasons)
	}
	reasons = append(reasons, VerdictReason{
		Type:    ReasonLowScore,
		Message: fmt.Sprintf("score %d is below the %s threshold %d", score.Total, tier, required),
		Impact:  ImpactNegative,
	})
	return e.finish(false, score, tier, trust, reasons)
}

// Filter keeps only the items allowed at the tier, preserving input order.
func (e *Engine) Filter(items []ContentItem, tier AgeTier) []ContentItem {
	kept := make([]ContentItem, 0, len(items))
	for _, item := range items {
		if e.Evaluate(item, tier).Allowed {
			kept = append(kept, item)
		}
	}
	return kept
}

// FilterAndRank keeps only allowed items paired with their verdicts, sorted
// by score descending. Ties preserve input order.
func (e *Engine) FilterAndRank(items []ContentItem, tier AgeTier) []RankedItem {
	ranked := make([]RankedItem, 0, len(items))
	for _, item := range items {
		v := e.Evaluate(item, tier)
		if v.Allowed {
			ranked = append(ranked, RankedItem{Item: item, Verdict: v})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Verdict.Score.Total > ranked[j].Verdict.Score.Total
	})
	return ranked
}

// evalRule runs one rule with panic containment: a faulting rule fails
// closed for this evaluation instead of aborting the caller's flow.
func (e *Engine) evalRule(r Rule, item ContentItem, rctx RuleContext) (res RuleResult) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("guardian: rule panicked", "rule", r.ID(), "panic", rec)
			if e.onRuleFault != nil {
				e.onRuleFault(r.ID(), rec)
			}
			res = Block(fmt.Sprintf("rule %q failed during evaluation", r.ID()))
			res.ReasonType = ReasonRuleFault
		}
	}()
	res = r.Evaluate(item, rctx)
	if res.Kind == ResultBlock && res.ReasonType == ReasonRuleFault && e.onRuleFault != nil {
		e.onRuleFault(r.ID(), res.Reason)
	}
	return res
}

// finish assembles the verdict and fires the evaluation hook.
func (e *Engine) finish(allowed bool, score GuardianScore, tier AgeTier, trust TrustLevel, reasons []VerdictReason) Verdict {
	v := Verdict{
		EvaluationID: uuid.NewString(),
		Allowed:      allowed,
		Score:        score,
		Tier:         tier,
		TrustLevel:   trust,
		Reasons:      reasons,
		EvaluatedAt:  e.clock(),
	}
	if e.onEvaluation != nil {
		e.onEvaluation(v)
	}
	return v
}

// clampTier fails closed: a tier the active policy doesn't know is treated
// as the most restrictive configured tier, never waved through.
func (s *snapshot) clampTier(tier AgeTier) AgeTier {
	if _, ok := s.tiers[tier]; ok {
		return tier
	}
	slog.Warn("guardian: unknown tier, failing closed", "tier", int(tier), "fallback", s.strictest.String())
	return s.strictest
}

func ruleReason(r Rule, res RuleResult, impact Impact) VerdictReason {
	return VerdictReason{
		Type:            res.ReasonType,
		Message:         res.Reason,
		Impact:          impact,
		SourceRuleID:    r.ID(),
		MatchedPatterns: res.MatchedPatterns,
	}
}
