package guardian

import (
	"fmt"
	"strings"
)

// Built-in rule priorities. The trusted-source rule must outrank the keyword
// blocklist so a vetted channel is approved before its text is ever scanned.
const (
	priorityTrustedChannel   = 200
	priorityKeywordBlocklist = 180
	prioritySuspiciousMotifs = 150
)

// suspiciousPatternPenalty is the score deduction per suspicious-pattern
// match, and suspiciousPenaltyCap the most a single evaluation can lose.
const (
	suspiciousPatternPenalty = 30
	suspiciousPenaltyCap     = 100
)

// trustedChannelRule approves content from auto-approved sources outright.
type trustedChannelRule struct{}

func (trustedChannelRule) ID() string     { return "trusted_channel" }
func (trustedChannelRule) Name() string   { return "Trusted channel" }
func (trustedChannelRule) Priority() int  { return priorityTrustedChannel }
func (trustedChannelRule) Decisive() bool { return true }

func (trustedChannelRule) Evaluate(item ContentItem, rctx RuleContext) RuleResult {
	if rctx.Trust.IsBlocked() {
		// The engine short-circuits blocked sources before the chain runs.
		return Skip()
	}
	if rctx.Trust.AutoApprove() {
		res := Approve(fmt.Sprintf("source %q is %s", item.SourceName, rctx.Trust))
		res.ReasonType = ReasonTrustedSource
		return res
	}
	return Skip()
}

// keywordBlocklistRule blocks content whose text contains any term from the
// target tier's blocklist. Stricter tiers carry superset lists, so a term
// blocked for teens is blocked for every younger tier too.
type keywordBlocklistRule struct {
	blocklists map[AgeTier][]string // lowercased, per tier
}

func newKeywordBlocklistRule(blocklists map[AgeTier][]string) *keywordBlocklistRule {
	compiled := make(map[AgeTier][]string, len(blocklists))
	for tier, terms := range blocklists {
		lowered := make([]string, 0, len(terms))
		for _, t := range terms {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				lowered = append(lowered, t)
			}
		}
		compiled[tier] = lowered
	}
	return &keywordBlocklistRule{blocklists: compiled}
}

func (*keywordBlocklistRule) ID() string     { return "keyword_blocklist" }
func (*keywordBlocklistRule) Name() string   { return "Keyword blocklist" }
func (*keywordBlocklistRule) Priority() int  { return priorityKeywordBlocklist }
func (*keywordBlocklistRule) Decisive() bool { return true }

func (r *keywordBlocklistRule) Evaluate(item ContentItem, rctx RuleContext) RuleResult {
	if rctx.Tier.Unrestricted() {
		return Skip()
	}
	text := item.TextContent()
	var matched []string
	for _, term := range r.blocklists[rctx.Tier] {
		if strings.Contains(text, term) {
			matched = append(matched, term)
		}
	}
	if len(matched) == 0 {
		return Skip()
	}
	return Block(
		fmt.Sprintf("blocked term(s) for tier %s: %s", rctx.Tier, strings.Join(matched, ", ")),
		matched...,
	)
}

// suspiciousPatternRule penalizes manipulative or low-quality phrasing. It is
// non-decisive and only active in strict mode.
type suspiciousPatternRule struct {
	patterns []string // lowercased
}

func newSuspiciousPatternRule(patterns []string) *suspiciousPatternRule {
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}
	return &suspiciousPatternRule{patterns: lowered}
}

func (*suspiciousPatternRule) ID() string     { return "suspicious_pattern" }
func (*suspiciousPatternRule) Name() string   { return "Suspicious pattern" }
func (*suspiciousPatternRule) Priority() int  { return prioritySuspiciousMotifs }
func (*suspiciousPatternRule) Decisive() bool { return false }

func (r *suspiciousPatternRule) Evaluate(item ContentItem, rctx RuleContext) RuleResult {
	if !rctx.StrictMode {
		return Skip()
	}
	matches := countMatches(item.TextContent(), r.patterns)
	if matches == 0 {
		return Skip()
	}
	penalty := matches * suspiciousPatternPenalty
	if penalty > suspiciousPenaltyCap {
		penalty = suspiciousPenaltyCap
	}
	return Adjust(-penalty, fmt.Sprintf("%d suspicious pattern(s) in content text", matches))
}

// countMatches counts how many of the lowercased patterns occur in text.
func countMatches(text string, patterns []string) int {
	n := 0
	for _, p := range patterns {
		if strings.Contains(text, p) {
			n++
		}
	}
	return n
}
