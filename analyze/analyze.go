package analyze

import (
	"io"
	"log/slog"

	"github.com/misselvexu/mixai-wren-engine/mdl"
	"github.com/misselvexu/mixai-wren-engine/plan"
)

// Rule is one plan rewrite pass
type Rule interface {
	RuleName() string
	Apply(plan.Plan) (plan.Transformed, error)
}

// Analyzer drives rule application over a whole plan tree. Each rule runs
// bottom-up first, resolving the innermost semantic nodes so a relation
// chain is concrete before its parent projects from it, and then top-down,
// catching nodes the bottom-up pass itself introduced while expanding. The
// schema of the final tree is recomputed at the end so every ancestor
// advertises what its children actually produce
type Analyzer struct {
	rules  []Rule
	logger *slog.Logger
}

func NewAnalyzer(rules ...Rule) *Analyzer {
	return &Analyzer{
		rules:  rules,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (self *Analyzer) WithLogger(logger *slog.Logger) *Analyzer {
	self.logger = logger
	return self
}

func (self *Analyzer) Analyze(p plan.Plan) (plan.Transformed, error) {
	changed := false

	for _, rule := range self.rules {
		up, err := plan.TransformUp(p, rule.Apply)
		if err != nil {
			return plan.Transformed{}, err
		}
		self.logger.Debug(
			"bottom-up pass done",
			"rule", rule.RuleName(),
			"changed", up.Changed,
		)

		down, err := plan.TransformDown(up.Plan, rule.Apply)
		if err != nil {
			return plan.Transformed{}, err
		}
		self.logger.Debug(
			"top-down pass done",
			"rule", rule.RuleName(),
			"changed", down.Changed,
		)

		p = down.Plan
		changed = changed || up.Changed || down.Changed
	}

	fixed, err := plan.RecomputeSchema(p)
	if err != nil {
		return plan.Transformed{}, err
	}

	return plan.Transformed{
		Plan:    fixed,
		Changed: changed,
	}, nil
}

// GenerateModel runs the model generation rule over a plan, the one-call
// entry point for callers that only need this stage
func GenerateModel(p plan.Plan, analyzed *mdl.Analyzed) (plan.Transformed, error) {
	return NewAnalyzer(NewModelGenerationRule(analyzed)).Analyze(p)
}
