package analyze

import (
	"errors"
	"fmt"

	"github.com/misselvexu/mixai-wren-engine/mdl"
	"github.com/misselvexu/mixai-wren-engine/plan"
)

// ErrNoSourcePlan reports a relation chain that resolved to nothing
var ErrNoSourcePlan = errors.New("failed to generate source plan")

// ErrMeasureNotAliased reports a calculation whose leading measure carries
// no alias. Measures must declare their output column name explicitly
var ErrMeasureNotAliased = errors.New("measures should have an alias")

// internalError marks an upstream invariant violation as opposed to bad
// user input
func internalError(format string, a ...interface{}) error {
	return fmt.Errorf("internal error: %s", fmt.Sprintf(format, a...))
}

// ModelGenerationRule expands every semantic node into primitive relational
// operators. Stateless apart from the shared immutable manifest handle, so
// one rule value is reentrant and safe to use from concurrent compilations
type ModelGenerationRule struct {
	analyzed *mdl.Analyzed
}

func NewModelGenerationRule(analyzed *mdl.Analyzed) *ModelGenerationRule {
	return &ModelGenerationRule{
		analyzed: analyzed,
	}
}

func (self *ModelGenerationRule) RuleName() string {
	return "ModelGenerationRule"
}

// Apply rewrites one node. Primitive operators that carry expressions are
// rebuilt through their validating constructor, which re-checks their
// invariants after earlier rewrites reshaped the children, and is reported
// as a change. Semantic nodes expand into concrete plans. Anything else,
// including extension nodes this rule does not own, passes through untouched
func (self *ModelGenerationRule) Apply(p plan.Plan) (plan.Transformed, error) {
	switch p.Kind() {
	case plan.KindProjection:
		n := p.(*plan.Projection)
		out, err := plan.NewProjection(n.Input, n.Exprs)
		if err != nil {
			return plan.Transformed{}, err
		}
		return plan.Changed(out), nil

	case plan.KindSubqueryAlias:
		n := p.(*plan.SubqueryAlias)
		out, err := plan.NewSubqueryAlias(n.Input, n.Alias)
		if err != nil {
			return plan.Transformed{}, err
		}
		return plan.Changed(out), nil

	case plan.KindAggregate:
		n := p.(*plan.Aggregate)
		out, err := plan.NewAggregate(n.Input, n.GroupExprs, n.AggExprs)
		if err != nil {
			return plan.Transformed{}, err
		}
		return plan.Changed(out), nil

	case plan.KindDistinctOn:
		n := p.(*plan.DistinctOn)
		out, err := plan.NewDistinctOn(n.Input, n.OnExprs)
		if err != nil {
			return plan.Transformed{}, err
		}
		return plan.Changed(out), nil

	case plan.KindWindow:
		n := p.(*plan.Window)
		out, err := plan.NewWindow(n.Input, n.WindowExprs)
		if err != nil {
			return plan.Transformed{}, err
		}
		return plan.Changed(out), nil

	case plan.KindExtension:
		switch node := p.(*plan.Extension).Node.(type) {
		case *ModelNode:
			return self.generateModel(node)
		case *ModelSourceNode:
			return self.generateModelSource(node)
		case *CalculationNode:
			return self.generateCalculation(node)
		case *PartialModelNode:
			return self.generatePartialModel(node)
		default:
			// not ours, leave it for whoever owns it
			return plan.Unchanged(p), nil
		}

	default:
		return plan.Unchanged(p), nil
	}
}

func (self *ModelGenerationRule) generateModel(node *ModelNode) (plan.Transformed, error) {
	source, err := node.Chain.Resolve(self.Apply)
	if err != nil {
		return plan.Transformed{}, err
	}
	if source == nil {
		return plan.Transformed{}, ErrNoSourcePlan
	}

	// no required column means the whole source passes through, which keeps
	// count-of-all-rows queries working without any projected column
	if len(node.RequiredExprs) == 0 {
		return plan.Changed(source), nil
	}

	out, err := plan.NewProjection(source, node.RequiredExprs)
	if err != nil {
		return plan.Transformed{}, err
	}
	return plan.Changed(out), nil
}

func (self *ModelGenerationRule) generateModelSource(node *ModelSourceNode) (plan.Transformed, error) {
	model, err := self.analyzed.RequireModel(node.ModelName)
	if err != nil {
		return plan.Transformed{}, err
	}

	source, err := mdl.CreateRemoteTableSource(model, self.analyzed)
	if err != nil {
		return plan.Transformed{}, err
	}

	// replay the filters an earlier stage pushed onto the original scan
	var filters []plan.Expr
	if node.OriginalScan != nil {
		scan, ok := node.OriginalScan.(*plan.TableScan)
		if !ok {
			return plan.Transformed{}, internalError(
				"model source of %s carries a non-scan original plan",
				node.ModelName,
			)
		}
		filters = scan.Filters
	}

	scan, err := plan.NewTableScan(source, filters)
	if err != nil {
		return plan.Transformed{}, err
	}

	// with no required column the plain scan is handed back as-is, a
	// pass-through rather than a rewrite, so aggregate-only queries do not
	// pick up a spurious alias
	if len(node.RequiredExprs) == 0 {
		return plan.Unchanged(scan), nil
	}

	out, err := plan.From(scan).
		Project(node.RequiredExprs...).
		Alias(mdl.Quoted(model.Name)).
		Build()
	if err != nil {
		return plan.Transformed{}, err
	}
	return plan.Changed(out), nil
}

func (self *ModelGenerationRule) generateCalculation(node *CalculationNode) (plan.Transformed, error) {
	source, err := node.Chain.Resolve(self.Apply)
	if err != nil {
		return plan.Transformed{}, err
	}
	if source == nil {
		return plan.Transformed{}, ErrNoSourcePlan
	}

	if len(node.Measures) == 0 {
		return plan.Transformed{}, fmt.Errorf(
			"calculation %s has no measure",
			node.CalculatedName,
		)
	}
	if len(node.Dimensions) == 0 {
		return plan.Transformed{}, fmt.Errorf(
			"calculation %s has no dimension",
			node.CalculatedName,
		)
	}

	first, ok := node.Measures[0].(*plan.Alias)
	if !ok {
		return plan.Transformed{}, ErrMeasureNotAliased
	}
	measure := first.Input
	name := first.As

	// aggregate on the unaliased measure, then rename its output back to
	// the declared name. The aggregation names its output column after the
	// rendered expression text, not after what the caller asked for, hence
	// the ident projection in the middle
	out, err := plan.From(source).
		Aggregate(node.Dimensions, []plan.Expr{measure}).
		Project(
			node.Dimensions[0],
			plan.NewAlias(plan.NewIdent(measure.Name()), name),
		).
		Alias(mdl.Quoted(node.CalculatedName)).
		Build()
	if err != nil {
		return plan.Transformed{}, err
	}
	return plan.Changed(out), nil
}

func (self *ModelGenerationRule) generatePartialModel(node *PartialModelNode) (plan.Transformed, error) {
	// stand the inner model up on its own, aliased by its quoted plan name,
	// and run this very rule over it so it fully resolves
	quoted := mdl.Quoted(node.Inner.PlanName)
	aliased, err := plan.NewSubqueryAlias(plan.NewExtension(node.Inner), quoted)
	if err != nil {
		return plan.Transformed{}, err
	}

	resolved, err := plan.TransformUp(aliased, self.Apply)
	if err != nil {
		return plan.Transformed{}, err
	}

	// project down to exactly the partial schema, resolving columns by name
	// against the partial schema instead of the full model schema
	exprs := make([]plan.Expr, 0, node.PartialSchema.Len())
	for _, f := range node.PartialSchema.Fields {
		exprs = append(exprs, plan.NewColumn(quoted, f.Name))
	}

	out, err := plan.From(resolved.Plan).
		Project(exprs...).
		Alias(quoted).
		Build()
	if err != nil {
		return plan.Transformed{}, err
	}
	return plan.Changed(out), nil
}
