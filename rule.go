package guardian

import "sort"

// RuleContext carries the per-evaluation inputs a rule may consult besides
// the content itself.
type RuleContext struct {
	Tier       AgeTier
	Trust      TrustLevel
	StrictMode bool
}

// ResultKind tags the variant of a RuleResult.
type ResultKind int

const (
	ResultSkip     ResultKind = iota // rule had nothing to say
	ResultApprove                    // decisive: allow, stop the chain
	ResultBlock                      // decisive: block, stop the chain
	ResultContinue                   // non-decisive score adjustment
)

// RuleResult is the outcome of one rule evaluation. It is a closed tagged
// variant: exactly one of the constructors below produces it, and the engine
// switches exhaustively on Kind.
type RuleResult struct {
	Kind            ResultKind
	Reason          string
	ReasonType      ReasonType // defaulted by the constructors, overridable
	MatchedPatterns []string   // Block only: every term that matched
	ScoreAdjustment int        // Continue only
}

// Approve builds a decisive allow result.
func Approve(reason string) RuleResult {
	return RuleResult{Kind: ResultApprove, Reason: reason, ReasonType: ReasonRuleApproved}
}

// Block builds a decisive block result citing the patterns that matched.
func Block(reason string, matched ...string) RuleResult {
	return RuleResult{Kind: ResultBlock, Reason: reason, ReasonType: ReasonRuleTriggered, MatchedPatterns: matched}
}

// Adjust builds a non-decisive result that shifts the final score.
func Adjust(delta int, reason string) RuleResult {
	return RuleResult{Kind: ResultContinue, Reason: reason, ReasonType: ReasonScoreAdjusted, ScoreAdjustment: delta}
}

// Skip builds an empty result; the chain proceeds unchanged.
func Skip() RuleResult { return RuleResult{Kind: ResultSkip} }

// Rule is one priority-ordered step in the gating pipeline.
type Rule interface {
	// ID is the stable identifier cited in verdict reasons.
	ID() string
	// Name is the human-readable rule name.
	Name() string
	// Priority orders evaluation; higher runs first.
	Priority() int
	// Decisive reports whether the rule can end the chain. Informational:
	// the engine acts on the returned RuleResult, not on this flag.
	Decisive() bool
	// Evaluate judges one content item. Implementations must be pure.
	Evaluate(item ContentItem, rctx RuleContext) RuleResult
}

// sortRules orders rules by priority descending, preserving registration
// order on ties so evaluation stays reproducible.
func sortRules(rules []Rule) []Rule {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})
	return sorted
}
