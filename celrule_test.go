package guardian

import (
	"strings"
	"testing"
)

func TestExprRuleCompileErrorFailsFast(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	p.CustomRules = []ExprRuleSpec{{
		ID:         "broken",
		Name:       "Broken",
		Priority:   100,
		Expression: "content.duration >>> 600", // not CEL
		Action:     ActionBlock,
	}}

	if _, err := NewEngine(Config{Policy: p}); err == nil {
		t.Fatal("NewEngine should reject an uncompilable custom rule")
	}
}

func TestExprRuleNonBoolExpressionRejected(t *testing.T) {
	t.Parallel()

	_, err := newExprRule(ExprRuleSpec{
		ID:         "non-bool",
		Priority:   100,
		Expression: `content["title"]`,
		Action:     ActionBlock,
	})
	if err == nil || !strings.Contains(err.Error(), "bool") {
		t.Fatalf("expected bool-output error, got %v", err)
	}
}

func TestExprRuleSpecValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    ExprRuleSpec
		wantErr bool
	}{
		{"valid block", ExprRuleSpec{ID: "r", Expression: "true", Action: ActionBlock}, false},
		{"valid adjust", ExprRuleSpec{ID: "r", Expression: "true", Action: ActionAdjust, Adjustment: -50}, false},
		{"missing id", ExprRuleSpec{Expression: "true", Action: ActionBlock}, true},
		{"missing expression", ExprRuleSpec{ID: "r", Action: ActionBlock}, true},
		{"unknown action", ExprRuleSpec{ID: "r", Expression: "true", Action: "quarantine"}, true},
		{"adjust without delta", ExprRuleSpec{ID: "r", Expression: "true", Action: ActionAdjust}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.spec.validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestExprRuleBlockAction(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	p.CustomRules = []ExprRuleSpec{{
		ID:         "long_video",
		Name:       "Overlong video",
		Priority:   100,
		Expression: `int(content["duration"]) > 600 && strict_mode`,
		Action:     ActionBlock,
		Reason:     "video too long for strict tiers",
	}}
	e := newTestEngine(t, Config{Policy: p})

	long := ContentItem{ID: "vid", Title: "A calm long documentary", SourceID: "UC-unknown", SourceName: "Docs", Duration: 700}

	v := e.Evaluate(long, TierUnder10)
	if v.Allowed {
		t.Fatal("custom block rule should have fired in strict mode")
	}
	reason, ok := findReason(v, ReasonRuleTriggered)
	if !ok {
		t.Fatalf("reasons %v missing RULE_TRIGGERED", v.Reasons)
	}
	if reason.SourceRuleID != "long_video" {
		t.Errorf("source rule id = %q, want long_video", reason.SourceRuleID)
	}

	if v := e.Evaluate(long, TierUnder13); !v.Allowed {
		t.Error("rule is strict-mode gated; UNDER_13 evaluation should pass")
	}
}

func TestExprRuleAdjustAction(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	p.CustomRules = []ExprRuleSpec{{
		ID:         "low_views",
		Name:       "Low view count",
		Priority:   100,
		Expression: `int(content["views"]) < 100`,
		Action:     ActionAdjust,
		Adjustment: -40,
		Reason:     "barely watched upload",
	}}
	e := newTestEngine(t, Config{Policy: p})
	snap := e.snap.Load()

	item := neutralBaselineItem()
	item.ViewCount = 5

	baseline := snap.score(item, TrustNeutral, TierUnder13).Total
	v := e.Evaluate(item, TierUnder13)
	if got := baseline - v.Score.Total; got != 40 {
		t.Errorf("adjustment shifted total by %d, want 40", got)
	}
}

func TestExprRuleApproveAction(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	p.CustomRules = []ExprRuleSpec{{
		ID:         "curated_series",
		Name:       "Curated series",
		Priority:   190,
		Expression: `string(content["id"]).startsWith("series-")`,
		Action:     ActionApprove,
		Reason:     "member of a hand-curated series",
	}}
	e := newTestEngine(t, Config{Policy: p})

	item := neutralBaselineItem()
	item.ID = "series-42"

	v := e.Evaluate(item, TierUnder5)
	if !v.Allowed {
		t.Fatal("approve action should allow the item")
	}
	if reason, ok := findReason(v, ReasonRuleApproved); !ok || reason.SourceRuleID != "curated_series" {
		t.Errorf("reasons %v missing RULE_APPROVED from curated_series", v.Reasons)
	}
}

func TestExprRuleRuntimeFaultFailsClosed(t *testing.T) {
	t.Parallel()

	faults := 0
	p := testPolicy()
	p.CustomRules = []ExprRuleSpec{{
		ID:         "faulty",
		Name:       "Faulty",
		Priority:   100,
		Expression: `content["no_such_key"] == "x"`, // compiles, errors at eval
		Action:     ActionBlock,
	}}
	e := newTestEngine(t, Config{
		Policy:      p,
		OnRuleFault: func(string, any) { faults++ },
	})

	v := e.Evaluate(neutralBaselineItem(), TierUnder13)
	if v.Allowed {
		t.Fatal("a faulting rule must fail closed for the evaluation")
	}
	if _, ok := findReason(v, ReasonRuleFault); !ok {
		t.Errorf("reasons %v missing RULE_FAULT", v.Reasons)
	}
	if faults == 0 {
		t.Error("OnRuleFault was not invoked")
	}
}
