// Package guardian decides, for a single piece of media content and a target
// child age-tier, whether that content may be shown — and why. It combines a
// trust classification of the source, a priority-ordered rule chain, a
// six-factor weighted Guardian Score (0–1000) and per-tier score thresholds
// into an auditable allow/block verdict.
//
// The engine is synchronous, side-effect-free and stateless across calls:
// its only state is an immutable configuration snapshot swapped atomically
// on policy updates, so Evaluate, Filter and FilterAndRank are safe to call
// concurrently without locking. It performs no I/O; fetching content
// metadata, persisting verdicts and reacting to blocks all belong to the
// caller.
package guardian

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Config holds the policy and the optional hooks injected by the consumer.
type Config struct {
	// Policy is the configuration snapshot. Required; must validate.
	Policy Policy

	// ExtraRules are caller-implemented rules merged into the chain at
	// construction. They survive policy swaps.
	ExtraRules []Rule

	// Clock overrides the verdict timestamp source (nil = time.Now UTC).
	Clock func() time.Time

	// OnRuleFault is called when a rule panics or errors during evaluation.
	OnRuleFault func(ruleID string, recovered any)

	// OnEvaluation receives every verdict, for metrics or audit logging.
	OnEvaluation func(Verdict)
}

// Engine is the gating facade. Construct with NewEngine; the zero value is
// not usable.
type Engine struct {
	snap         atomic.Pointer[snapshot]
	extraRules   []Rule
	clock        func() time.Time
	onRuleFault  func(string, any)
	onEvaluation func(Verdict)
}

// snapshot is one compiled, immutable configuration. Every evaluation loads
// the current snapshot once and uses it throughout, so a concurrent Swap can
// never expose half-updated tables.
type snapshot struct {
	policy     Policy
	roster     *trustRoster
	reputation ReputationBands
	tiers      map[AgeTier]tierTable
	vocab      vocabulary
	rules      []Rule // priority-sorted, fixed
	strictest  AgeTier
}

// NewEngine validates and compiles the policy and assembles the rule chain.
// Missing policy-table entries and broken custom-rule expressions are
// construction errors: the engine fails fast rather than at call time.
func NewEngine(cfg Config) (*Engine, error) {
	e := &Engine{
		extraRules:   cfg.ExtraRules,
		clock:        cfg.Clock,
		onRuleFault:  cfg.OnRuleFault,
		onEvaluation: cfg.OnEvaluation,
	}
	if e.clock == nil {
		e.clock = func() time.Time { return time.Now().UTC() }
	}
	snap, err := compileSnapshot(cfg.Policy, cfg.ExtraRules)
	if err != nil {
		return nil, err
	}
	e.snap.Store(snap)
	return e, nil
}

// Swap validates, compiles and atomically installs a new policy. In-flight
// evaluations keep the snapshot they started with; the old policy stays
// active when the new one fails validation.
func (e *Engine) Swap(policy Policy) error {
	snap, err := compileSnapshot(policy, e.extraRules)
	if err != nil {
		return fmt.Errorf("swap policy: %w", err)
	}
	e.snap.Store(snap)
	return nil
}

// Policy returns the currently active policy snapshot.
func (e *Engine) Policy() Policy {
	return e.snap.Load().policy
}

// ClassifyTrust resolves a source identity against the active trust roster.
func (e *Engine) ClassifyTrust(sourceID, sourceName string) TrustLevel {
	return e.snap.Load().roster.classify(sourceID, sourceName)
}

// TrustFromReputation buckets a 0–100 reputation score by the active
// policy's cut points.
func (e *Engine) TrustFromReputation(score int) TrustLevel {
	return e.snap.Load().reputation.Classify(score)
}

func compileSnapshot(p Policy, extra []Rule) (*snapshot, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	tiers := make(map[AgeTier]tierTable, len(p.Tiers))
	blocklists := make(map[AgeTier][]string, len(p.Tiers))
	strictest := TierAll
	for tier, row := range p.Tiers {
		cats := make(map[string]struct{}, len(row.AllowedCategories))
		for _, c := range row.AllowedCategories {
			cats[strings.ToLower(c)] = struct{}{}
		}
		tiers[tier] = tierTable{
			requiredScore:  row.RequiredScore,
			maxDurationSec: row.MaxDurationSeconds,
			categories:     cats,
		}
		blocklists[tier] = row.Blocklist
		if tier.Strictness() > strictest.Strictness() {
			strictest = tier
		}
	}

	rules := []Rule{
		trustedChannelRule{},
		newKeywordBlocklistRule(blocklists),
		newSuspiciousPatternRule(lowerAll(p.Vocabulary.SuspiciousPatterns)),
	}
	for _, spec := range p.CustomRules {
		r, err := newExprRule(spec)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	rules = append(rules, extra...)

	return &snapshot{
		policy:     p,
		roster:     compileRoster(p.Trust),
		reputation: p.Reputation,
		tiers:      tiers,
		vocab: vocabulary{
			safeKeywords:     lowerAll(p.Vocabulary.SafeKeywords),
			strongIndicators: lowerAll(p.Vocabulary.StrongSafeIndicators),
			suspicious:       lowerAll(p.Vocabulary.SuspiciousPatterns),
		},
		rules:     sortRules(rules),
		strictest: strictest,
	}, nil
}

func (s *snapshot) score(item ContentItem, trust TrustLevel, tier AgeTier) GuardianScore {
	return scoreContent(item, trust, tier, s.tiers[tier], s.vocab)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
