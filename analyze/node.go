// Package analyze rewrites plans over semantic models into plans made of
// primitive relational operators only. The binder first turns a parsed query
// into a tree carrying opaque semantic nodes, the model generation rule then
// expands every semantic node into scans, projections, aggregations and
// aliases against the physical tables
package analyze

import (
	"fmt"

	"github.com/misselvexu/mixai-wren-engine/mdl"
	"github.com/misselvexu/mixai-wren-engine/plan"
)

// The semantic node kinds. All of them ride inside of a plan.Extension
// operator and advertise the schema their resolved replacement will expose.
// Nodes are built once by the binder and never mutated, a rewrite always
// produces a brand new concrete plan and drops the semantic node

// ModelNode produces the row set of one model projected down to the required
// output expressions. An empty required list means the whole source relation
// passes through untouched
type ModelNode struct {
	PlanName      string
	RequiredExprs []plan.Expr
	Chain         *RelationChain
	schema        *plan.Schema
}

func NewModelNode(planName string, required []plan.Expr, chain *RelationChain) *ModelNode {
	schema := &plan.Schema{}
	for _, e := range required {
		schema.Fields = append(schema.Fields, plan.Field{
			Relation: mdl.Quoted(planName),
			Name:     e.Name(),
		})
	}
	return &ModelNode{
		PlanName:      planName,
		RequiredExprs: required,
		Chain:         chain,
		schema:        schema,
	}
}

func (self *ModelNode) Name() string         { return "Model" }
func (self *ModelNode) Schema() *plan.Schema { return self.schema }
func (self *ModelNode) Inputs() []plan.Plan  { return nil }
func (self *ModelNode) WithInputs(inputs []plan.Plan) (plan.ExtensionNode, error) {
	if len(inputs) != 0 {
		return nil, fmt.Errorf("model node: expect no input, got %d", len(inputs))
	}
	return self, nil
}

// ModelSourceNode is the base relation backing one model, by name. The
// original scan, when carried, holds the filter predicates an earlier stage
// already pushed down, and they are replayed on the rebuilt scan
type ModelSourceNode struct {
	ModelName     string
	RequiredExprs []plan.Expr
	OriginalScan  plan.Plan
	schema        *plan.Schema
}

func NewModelSourceNode(modelName string, required []plan.Expr, originalScan plan.Plan) *ModelSourceNode {
	schema := &plan.Schema{}
	for _, e := range required {
		schema.Fields = append(schema.Fields, plan.Field{
			Relation: mdl.Quoted(modelName),
			Name:     e.Name(),
		})
	}
	return &ModelSourceNode{
		ModelName:     modelName,
		RequiredExprs: required,
		OriginalScan:  originalScan,
		schema:        schema,
	}
}

func (self *ModelSourceNode) Name() string         { return "ModelSource" }
func (self *ModelSourceNode) Schema() *plan.Schema { return self.schema }
func (self *ModelSourceNode) Inputs() []plan.Plan  { return nil }
func (self *ModelSourceNode) WithInputs(inputs []plan.Plan) (plan.ExtensionNode, error) {
	if len(inputs) != 0 {
		return nil, fmt.Errorf("model source node: expect no input, got %d", len(inputs))
	}
	return self, nil
}

// CalculationNode is the aggregated value of one calculated column, grouped
// by the dimension expressions. The first measure must be an aliased
// expression, its alias is the output column name
type CalculationNode struct {
	Chain          *RelationChain
	Dimensions     []plan.Expr
	Measures       []plan.Expr
	CalculatedName string
	schema         *plan.Schema
}

func NewCalculationNode(
	chain *RelationChain,
	dimensions []plan.Expr,
	measures []plan.Expr,
	calculatedName string,
) *CalculationNode {
	schema := &plan.Schema{}
	q := mdl.Quoted(calculatedName)
	if len(dimensions) > 0 {
		schema.Fields = append(schema.Fields, plan.Field{
			Relation: q,
			Name:     dimensions[0].Name(),
		})
	}
	if len(measures) > 0 {
		schema.Fields = append(schema.Fields, plan.Field{
			Relation: q,
			Name:     measures[0].Name(),
		})
	}
	return &CalculationNode{
		Chain:          chain,
		Dimensions:     dimensions,
		Measures:       measures,
		CalculatedName: calculatedName,
		schema:         schema,
	}
}

func (self *CalculationNode) Name() string         { return "Calculation" }
func (self *CalculationNode) Schema() *plan.Schema { return self.schema }
func (self *CalculationNode) Inputs() []plan.Plan  { return nil }
func (self *CalculationNode) WithInputs(inputs []plan.Plan) (plan.ExtensionNode, error) {
	if len(inputs) != 0 {
		return nil, fmt.Errorf("calculation node: expect no input, got %d", len(inputs))
	}
	return self, nil
}

// PartialModelNode restricts an inner model to a column subset, in the
// order the partial schema declares
type PartialModelNode struct {
	Inner         *ModelNode
	PartialSchema *plan.Schema
}

func NewPartialModelNode(inner *ModelNode, partial *plan.Schema) *PartialModelNode {
	return &PartialModelNode{
		Inner:         inner,
		PartialSchema: partial,
	}
}

func (self *PartialModelNode) Name() string         { return "PartialModel" }
func (self *PartialModelNode) Schema() *plan.Schema { return self.PartialSchema }
func (self *PartialModelNode) Inputs() []plan.Plan  { return nil }
func (self *PartialModelNode) WithInputs(inputs []plan.Plan) (plan.ExtensionNode, error) {
	if len(inputs) != 0 {
		return nil, fmt.Errorf("partial model node: expect no input, got %d", len(inputs))
	}
	return self, nil
}
