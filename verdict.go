package guardian

import "time"

// ReasonType enumerates the kinds of entries in a verdict's reason trail.
type ReasonType string

const (
	ReasonBlockedSource ReasonType = "BLOCKED_SOURCE"
	ReasonTrustedSource ReasonType = "TRUSTED_SOURCE"
	ReasonRuleTriggered ReasonType = "RULE_TRIGGERED"
	ReasonRuleApproved  ReasonType = "RULE_APPROVED"
	ReasonRuleFault     ReasonType = "RULE_FAULT"
	ReasonScoreAdjusted ReasonType = "SCORE_ADJUSTED"
	ReasonLowScore      ReasonType = "LOW_SCORE"
	ReasonScorePassed   ReasonType = "SCORE_PASSED"
)

// Impact is the severity tier of a single reason.
type Impact string

const (
	ImpactCritical Impact = "CRITICAL"
	ImpactNegative Impact = "NEGATIVE"
	ImpactNeutral  Impact = "NEUTRAL"
	ImpactPositive Impact = "POSITIVE"
	ImpactApproved Impact = "APPROVED"
)

// VerdictReason is one entry in the audit trail explaining a verdict.
type VerdictReason struct {
	Type            ReasonType `json:"type"`
	Message         string     `json:"message"`
	Impact          Impact     `json:"impact"`
	SourceRuleID    string     `json:"source_rule_id,omitempty"`
	MatchedPatterns []string   `json:"matched_patterns,omitempty"`
}

// Verdict is the final allow/block decision with its score and reason trail.
// EvaluationID and EvaluatedAt are audit metadata; every other field is a
// deterministic function of (content, tier, configuration snapshot).
type Verdict struct {
	EvaluationID string          `json:"evaluation_id"`
	Allowed      bool            `json:"allowed"`
	Score        GuardianScore   `json:"score"`
	Tier         AgeTier         `json:"tier"`
	TrustLevel   TrustLevel      `json:"trust_level"`
	Reasons      []VerdictReason `json:"reasons"`
	EvaluatedAt  time.Time       `json:"evaluated_at"`
}

// RankedItem pairs an allowed content item with its verdict, as returned by
// FilterAndRank.
type RankedItem struct {
	Item    ContentItem `json:"item"`
	Verdict Verdict     `json:"verdict"`
}
