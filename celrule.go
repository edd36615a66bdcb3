package guardian

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Actions an ExprRuleSpec may take when its expression matches.
const (
	ActionApprove = "approve"
	ActionBlock   = "block"
	ActionAdjust  = "adjust"
)

// ExprRuleSpec defines a custom rule delivered as policy data: a CEL
// expression over the content and evaluation context, plus the action to
// take when it evaluates true. This is how remote policy extends the rule
// chain without a code change.
type ExprRuleSpec struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Priority   int    `json:"priority"`
	Expression string `json:"expression"`
	Action     string `json:"action"`
	Adjustment int    `json:"adjustment,omitempty"` // ActionAdjust only
	Reason     string `json:"reason"`
}

func (s ExprRuleSpec) validate() error {
	if s.ID == "" {
		return fmt.Errorf("id can't be empty")
	}
	if s.Expression == "" {
		return fmt.Errorf("expression can't be empty")
	}
	switch s.Action {
	case ActionApprove, ActionBlock:
	case ActionAdjust:
		if s.Adjustment == 0 {
			return fmt.Errorf("adjust action needs a non-zero adjustment")
		}
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	return nil
}

// exprRule is the compiled form of an ExprRuleSpec.
type exprRule struct {
	spec    ExprRuleSpec
	program cel.Program
}

// newExprRule compiles the rule's CEL expression against the evaluation
// environment. Compile errors surface at engine construction (fail fast).
func newExprRule(spec ExprRuleSpec) (*exprRule, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	env, err := cel.NewEnv(
		cel.Variable("content", cel.MapType(cel.StringType, cel.AnyType)),
		cel.Variable("tier", cel.StringType),
		cel.Variable("strictness", cel.IntType),
		cel.Variable("strict_mode", cel.BoolType),
		cel.Variable("trust", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, issues := env.Compile(spec.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", spec.ID, issues.Err())
	}
	if ast.OutputType().String() != "bool" {
		return nil, fmt.Errorf("rule %q: expression must evaluate to bool, got %s", spec.ID, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program rule %q: %w", spec.ID, err)
	}
	return &exprRule{spec: spec, program: program}, nil
}

func (r *exprRule) ID() string     { return r.spec.ID }
func (r *exprRule) Name() string   { return r.spec.Name }
func (r *exprRule) Priority() int  { return r.spec.Priority }
func (r *exprRule) Decisive() bool { return r.spec.Action != ActionAdjust }

func (r *exprRule) Evaluate(item ContentItem, rctx RuleContext) RuleResult {
	out, _, err := r.program.Eval(map[string]any{
		"content":     contentVars(item),
		"tier":        rctx.Tier.String(),
		"strictness":  int64(rctx.Tier.Strictness()),
		"strict_mode": rctx.StrictMode,
		"trust":       rctx.Trust.String(),
	})
	if err != nil {
		// A faulting rule fails closed for this one evaluation.
		res := Block(fmt.Sprintf("rule %q failed: %v", r.spec.ID, err))
		res.ReasonType = ReasonRuleFault
		return res
	}
	matched, ok := out.Value().(bool)
	if !ok || !matched {
		return Skip()
	}

	reason := r.spec.Reason
	if reason == "" {
		reason = fmt.Sprintf("custom rule %q matched", r.spec.ID)
	}
	switch r.spec.Action {
	case ActionApprove:
		return Approve(reason)
	case ActionBlock:
		return Block(reason)
	default:
		return Adjust(r.spec.Adjustment, reason)
	}
}

// contentVars projects a ContentItem into the CEL content map. Optional
// fields degrade to neutral values so expressions stay total.
func contentVars(item ContentItem) map[string]any {
	ratio := -1.0
	if r, ok := item.LikeRatio(); ok {
		ratio = r
	}
	return map[string]any{
		"id":          item.ID,
		"title":       item.Title,
		"description": item.Description,
		"source_id":   item.SourceID,
		"source_name": item.SourceName,
		"category":    item.Category,
		"duration":    item.DurationSeconds(),
		"views":       item.ViewCount,
		"like_ratio":  ratio,
		"text":        item.TextContent(),
	}
}
