package guardian

import (
	"reflect"
	"testing"
	"time"
)

func testPolicy() Policy {
	p := DefaultPolicy()
	p.Trust.VerifiedPartnerIDs = []string{"UC-partner-1"}
	p.Trust.TrustedIDs = []string{"UC-trusted-1"}
	p.Trust.BlockedIDs = []string{"UC-banned-1"}
	return p
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Policy.Tiers == nil {
		cfg.Policy = testPolicy()
	}
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func findReason(v Verdict, rt ReasonType) (VerdictReason, bool) {
	for _, r := range v.Reasons {
		if r.Type == rt {
			return r, true
		}
	}
	return VerdictReason{}, false
}

func TestEvaluateVerifiedPartnerAutoApproves(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	item := ContentItem{
		ID:         "vid-1",
		Title:      "Nursery Rhymes Collection",
		SourceID:   "UC-partner-1",
		SourceName: "Partner Kids Studio",
		Duration:   600,
	}

	v := e.Evaluate(item, TierUnder5)
	if !v.Allowed {
		t.Fatal("verified partner content should be allowed")
	}
	if v.TrustLevel != TrustVerifiedPartner {
		t.Errorf("trust level = %v, want VERIFIED_PARTNER", v.TrustLevel)
	}
	reason, ok := findReason(v, ReasonTrustedSource)
	if !ok {
		t.Fatalf("reasons %v missing TRUSTED_SOURCE entry", v.Reasons)
	}
	if reason.SourceRuleID != "trusted_channel" {
		t.Errorf("source rule id = %q, want trusted_channel", reason.SourceRuleID)
	}
	if v.Score.Total == 0 {
		t.Error("approved verdict should still report a computed score")
	}
}

func TestEvaluateKeywordBlock(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	item := ContentItem{
		ID:         "vid-2",
		Title:      "Top clips rated 18+",
		SourceID:   "UC-unknown",
		SourceName: "Random Channel",
		Duration:   300,
	}

	v := e.Evaluate(item, TierUnder8)
	if v.Allowed {
		t.Fatal("content with a blocklisted term must be blocked")
	}
	if v.Score.Total != 0 {
		t.Errorf("blocked verdict score = %d, want 0", v.Score.Total)
	}
	reason, ok := findReason(v, ReasonRuleTriggered)
	if !ok {
		t.Fatalf("reasons %v missing RULE_TRIGGERED entry", v.Reasons)
	}
	found := false
	for _, m := range reason.MatchedPatterns {
		if m == "18+" {
			found = true
		}
	}
	if !found {
		t.Errorf("matched patterns %v should cite \"18+\"", reason.MatchedPatterns)
	}
}

func TestEvaluateBlockedSourceShortCircuits(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	item := ContentItem{
		ID:         "vid-3",
		Title:      "Perfectly wholesome nursery rhyme for kids", // safe text changes nothing
		SourceID:   "UC-banned-1",
		SourceName: "Friendly Looking Name",
		Duration:   120,
	}

	for _, tier := range AllTiers {
		v := e.Evaluate(item, tier)
		if v.Allowed {
			t.Errorf("tier %s: denylisted source must be blocked", tier)
		}
		if v.Score.Total != 0 {
			t.Errorf("tier %s: blocked source score = %d, want 0", tier, v.Score.Total)
		}
		if _, ok := findReason(v, ReasonBlockedSource); !ok {
			t.Errorf("tier %s: reasons missing BLOCKED_SOURCE", tier)
		}
	}
}

func TestTrustedSourceBeatsKeywordBlocklist(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	// Text that would trip the blocklist at any restricted tier.
	item := ContentItem{
		ID:         "vid-4",
		Title:      "Documentary: casino economics, rated 18+",
		SourceID:   "UC-trusted-1",
		SourceName: "Vetted Docs",
		Duration:   1500,
	}

	for _, tier := range AllTiers {
		v := e.Evaluate(item, tier)
		if !v.Allowed {
			t.Errorf("tier %s: trusted source must be approved before keyword scan", tier)
		}
	}
}

func TestEvaluateNeutralBaselineScenario(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	v := e.Evaluate(neutralBaselineItem(), TierAll)

	if v.Score.Total != 645 {
		t.Errorf("score total = %d, want 645", v.Score.Total)
	}
	if !v.Allowed {
		t.Error("tier ALL requires score 0; verdict must be allowed")
	}
	if _, ok := findReason(v, ReasonScorePassed); !ok {
		t.Errorf("reasons %v missing SCORE_PASSED", v.Reasons)
	}
}

func TestSuspiciousAdjustmentShiftsTotalExactly(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	snap := e.snap.Load()

	item := ContentItem{
		ID:         "vid-5",
		Title:      "My 3am experiment gone wrong not clickbait", // 3 suspicious patterns
		SourceID:   "UC-unknown",
		SourceName: "randomuploads",
		Duration:   300,
	}

	baseline := snap.score(item, TrustNeutral, TierUnder12).Total
	v := e.Evaluate(item, TierUnder12)

	if got := baseline - v.Score.Total; got != 90 {
		t.Errorf("rule adjustment shifted total by %d, want exactly 90 (baseline %d, got %d)",
			got, baseline, v.Score.Total)
	}
	reason, ok := findReason(v, ReasonScoreAdjusted)
	if !ok {
		t.Fatalf("reasons %v missing SCORE_ADJUSTED", v.Reasons)
	}
	if reason.SourceRuleID != "suspicious_pattern" {
		t.Errorf("adjustment source rule = %q, want suspicious_pattern", reason.SourceRuleID)
	}
	if reason.Impact != ImpactNegative {
		t.Errorf("adjustment impact = %v, want NEGATIVE", reason.Impact)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(t, Config{Clock: func() time.Time { return fixed }})

	item := neutralBaselineItem()
	a := e.Evaluate(item, TierUnder10)
	b := e.Evaluate(item, TierUnder10)

	// EvaluationID is fresh audit metadata per call; everything else must
	// be identical.
	a.EvaluationID, b.EvaluationID = "", ""
	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated evaluation differs:\n%+v\n%+v", a, b)
	}
}

func TestRequiredScoreMonotonicity(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	prev := -1
	for _, tier := range AllTiers {
		req := p.Tiers[tier].RequiredScore
		if req < prev {
			t.Errorf("required score drops at %s: %d < %d", tier, req, prev)
		}
		prev = req
	}

	// Holding the score fixed, anything allowed at a stricter tier passes
	// every looser threshold too.
	for i := 1; i < len(AllTiers); i++ {
		stricter, looser := AllTiers[i], AllTiers[i-1]
		threshold := p.Tiers[stricter].RequiredScore
		if threshold < p.Tiers[looser].RequiredScore {
			t.Errorf("score passing %s would fail %s", stricter, looser)
		}
	}
}

func TestUnknownTierFailsClosed(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	v := e.Evaluate(neutralBaselineItem(), AgeTier(42))

	if v.Tier != TierUnder5 {
		t.Errorf("unknown tier clamped to %v, want UNDER_5", v.Tier)
	}
}

func TestRulePanicFailsClosed(t *testing.T) {
	t.Parallel()

	var faultRule string
	panicky := stubRule{id: "explosive", priority: 500}
	e := newTestEngine(t, Config{
		ExtraRules: []Rule{panicRule{stubRule: panicky}},
		OnRuleFault: func(ruleID string, _ any) {
			faultRule = ruleID
		},
	})

	v := e.Evaluate(neutralBaselineItem(), TierUnder10)
	if v.Allowed {
		t.Fatal("a panicking rule must fail closed")
	}
	if _, ok := findReason(v, ReasonRuleFault); !ok {
		t.Errorf("reasons %v missing RULE_FAULT", v.Reasons)
	}
	if faultRule != "explosive" {
		t.Errorf("OnRuleFault rule id = %q, want explosive", faultRule)
	}
}

type panicRule struct{ stubRule }

func (panicRule) Evaluate(ContentItem, RuleContext) RuleResult {
	panic("boom")
}

func TestSwapChangesBehaviorAtomically(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	item := neutralBaselineItem()

	if !e.Evaluate(item, TierAll).Allowed {
		t.Fatal("baseline item should be allowed before the swap")
	}

	updated := testPolicy()
	updated.Trust.BlockedIDs = append(updated.Trust.BlockedIDs, item.SourceID)
	if err := e.Swap(updated); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if e.Evaluate(item, TierAll).Allowed {
		t.Error("denylisted source should be blocked after the swap")
	}

	// An invalid policy must be rejected and leave the active one intact.
	broken := testPolicy()
	delete(broken.Tiers, TierUnder5)
	if err := e.Swap(broken); err == nil {
		t.Fatal("Swap with a missing tier entry should fail")
	}
	if e.Evaluate(item, TierAll).Allowed {
		t.Error("failed swap must not disturb the active policy")
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	items := []ContentItem{
		{ID: "a", Title: "Counting practice for preschool", SourceID: "UC-unknown", SourceName: "Happy Learning", Duration: 200, Category: "education"},
		{ID: "b", Title: "Top clips rated 18+", SourceID: "UC-unknown", SourceName: "Random", Duration: 200},
		{ID: "c", Title: "Alphabet sing along for kids", SourceID: "UC-partner-1", SourceName: "Partner Kids Studio", Duration: 200, Category: "education"},
	}

	kept := e.Filter(items, TierUnder8)
	if len(kept) != 2 {
		t.Fatalf("Filter kept %d items, want 2", len(kept))
	}
	if kept[0].ID != "a" || kept[1].ID != "c" {
		t.Errorf("Filter order = [%s %s], want [a c]", kept[0].ID, kept[1].ID)
	}
}

func TestFilterAndRankSortsByScore(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	items := []ContentItem{
		{ID: "modest", Title: "Counting practice for preschool", SourceID: "UC-unknown", SourceName: "Happy Learning", Duration: 200, Category: "education"},
		{ID: "partner", Title: "Alphabet sing along for kids", SourceID: "UC-partner-1", SourceName: "Partner Kids Studio", Duration: 200, Category: "education"},
		{ID: "blocked", Title: "Top clips rated 18+", SourceID: "UC-unknown", SourceName: "Random", Duration: 200},
	}

	ranked := e.FilterAndRank(items, TierUnder8)
	if len(ranked) != 2 {
		t.Fatalf("FilterAndRank kept %d items, want 2", len(ranked))
	}
	if ranked[0].Item.ID != "partner" {
		t.Errorf("top ranked = %s, want partner", ranked[0].Item.ID)
	}
	if ranked[0].Verdict.Score.Total < ranked[1].Verdict.Score.Total {
		t.Error("ranking is not descending by score")
	}
}
