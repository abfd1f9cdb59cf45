package plan

import (
	"fmt"
	"strings"
)

const (
	KindTableScan = iota
	KindProjection
	KindFilter
	KindAggregate
	KindSubqueryAlias
	KindWindow
	KindDistinctOn
	KindSort
	KindLimit
	KindJoin
	KindExtension
)

const (
	JoinInner = iota
	JoinLeft
)

// Plan is one relational operator inside of the logical plan tree. A closed
// set of primitive operators plus Extension, which carries an opaque node an
// analyze pass understands. Each primitive operator is built through its
// validating constructor, WithInputs reruns the constructor against new
// children, re-validating the operator and recomputing its schema
type Plan interface {
	Kind() int
	Schema() *Schema
	Inputs() []Plan
	WithInputs(inputs []Plan) (Plan, error)
}

// ExtensionNode is the payload of an Extension operator. The engine treats
// it as opaque, only an analyze pass that recognizes the node by name knows
// what to do with it
type ExtensionNode interface {
	Name() string
	Schema() *Schema
	Inputs() []Plan
	WithInputs(inputs []Plan) (ExtensionNode, error)
}

func err(stage string, format string, a ...interface{}) error {
	return fmt.Errorf("%s: %s", stage, fmt.Sprintf(format, a...))
}

// checkExpr verifies every column the expression references resolves against
// the input schema
func checkExpr(stage string, e Expr, input *Schema) error {
	for _, c := range ExprColumns(e) {
		if _, e0 := input.Index(c.Relation, c.Column); e0 != nil {
			return err(stage, "%s", e0)
		}
	}
	return nil
}

func checkExprList(stage string, list []Expr, input *Schema) error {
	for _, e := range list {
		if e0 := checkExpr(stage, e, input); e0 != nil {
			return e0
		}
	}
	return nil
}

func wantInputs(stage string, inputs []Plan, n int) error {
	if len(inputs) != n {
		return err(stage, "expect %d input(s), got %d", n, len(inputs))
	}
	return nil
}

// outField computes the output field one projected expression produces. A
// plain column reference keeps its qualifier, everything else shows up as an
// unqualified derived column
func outField(e Expr) Field {
	if e.Type() == ExprColumn {
		c := e.(*Column)
		return Field{
			Relation: c.Relation,
			Name:     c.Column,
		}
	}
	return Field{
		Name: e.Name(),
	}
}

// ---- TableScan -------------------------------------------------------------

// TableSource is the physical relation a scan reads, ie the table path on
// the remote side plus its column set
type TableSource struct {
	Table   string
	Columns []string
}

// Bind is the name the scanned columns are qualified with, the trailing part
// of the table path
func (self *TableSource) Bind() string {
	idx := strings.LastIndex(self.Table, ".")
	if idx < 0 {
		return self.Table
	}
	return self.Table[idx+1:]
}

type TableScan struct {
	Source  *TableSource
	Filters []Expr
	schema  *Schema
}

func NewTableScan(source *TableSource, filters []Expr) (*TableScan, error) {
	if source == nil || source.Table == "" {
		return nil, err("table scan", "table source is empty")
	}
	if len(source.Columns) == 0 {
		return nil, err("table scan", "table %s has no column", source.Table)
	}

	schema := &Schema{}
	bind := source.Bind()
	for _, c := range source.Columns {
		schema.Fields = append(schema.Fields, Field{
			Relation: bind,
			Name:     c,
		})
	}

	if e0 := checkExprList("table scan", filters, schema); e0 != nil {
		return nil, e0
	}

	return &TableScan{
		Source:  source,
		Filters: filters,
		schema:  schema,
	}, nil
}

func (self *TableScan) Kind() int       { return KindTableScan }
func (self *TableScan) Schema() *Schema { return self.schema }
func (self *TableScan) Inputs() []Plan  { return nil }
func (self *TableScan) WithInputs(inputs []Plan) (Plan, error) {
	if e0 := wantInputs("table scan", inputs, 0); e0 != nil {
		return nil, e0
	}
	return NewTableScan(self.Source, self.Filters)
}

// ---- Projection ------------------------------------------------------------

type Projection struct {
	Input  Plan
	Exprs  []Expr
	schema *Schema
}

func NewProjection(input Plan, exprs []Expr) (*Projection, error) {
	if len(exprs) == 0 {
		return nil, err("projection", "empty expression list")
	}
	if e0 := checkExprList("projection", exprs, input.Schema()); e0 != nil {
		return nil, e0
	}

	schema := &Schema{}
	for _, e := range exprs {
		schema.Fields = append(schema.Fields, outField(e))
	}

	return &Projection{
		Input:  input,
		Exprs:  exprs,
		schema: schema,
	}, nil
}

func (self *Projection) Kind() int       { return KindProjection }
func (self *Projection) Schema() *Schema { return self.schema }
func (self *Projection) Inputs() []Plan  { return []Plan{self.Input} }
func (self *Projection) WithInputs(inputs []Plan) (Plan, error) {
	if e0 := wantInputs("projection", inputs, 1); e0 != nil {
		return nil, e0
	}
	return NewProjection(inputs[0], self.Exprs)
}

// ---- Filter ----------------------------------------------------------------

type Filter struct {
	Input     Plan
	Predicate Expr
}

func NewFilter(input Plan, predicate Expr) (*Filter, error) {
	if predicate == nil {
		return nil, err("filter", "empty predicate")
	}
	if e0 := checkExpr("filter", predicate, input.Schema()); e0 != nil {
		return nil, e0
	}
	return &Filter{
		Input:     input,
		Predicate: predicate,
	}, nil
}

func (self *Filter) Kind() int       { return KindFilter }
func (self *Filter) Schema() *Schema { return self.Input.Schema() }
func (self *Filter) Inputs() []Plan  { return []Plan{self.Input} }
func (self *Filter) WithInputs(inputs []Plan) (Plan, error) {
	if e0 := wantInputs("filter", inputs, 1); e0 != nil {
		return nil, e0
	}
	return NewFilter(inputs[0], self.Predicate)
}

// ---- Aggregate -------------------------------------------------------------

type Aggregate struct {
	Input      Plan
	GroupExprs []Expr
	AggExprs   []Expr
	schema     *Schema
}

func NewAggregate(input Plan, groupExprs []Expr, aggExprs []Expr) (*Aggregate, error) {
	if len(groupExprs) == 0 && len(aggExprs) == 0 {
		return nil, err("aggregate", "no group nor aggregate expression")
	}
	if e0 := checkExprList("aggregate", groupExprs, input.Schema()); e0 != nil {
		return nil, e0
	}
	for _, e := range aggExprs {
		if Unalias(e).Type() != ExprAggCall {
			return nil, err(
				"aggregate",
				"expression %s is not an aggregate function call",
				e.String(),
			)
		}
		if e0 := checkExpr("aggregate", e, input.Schema()); e0 != nil {
			return nil, e0
		}
	}

	// output is the group keys followed by the aggregated values
	schema := &Schema{}
	for _, e := range groupExprs {
		schema.Fields = append(schema.Fields, outField(e))
	}
	for _, e := range aggExprs {
		schema.Fields = append(schema.Fields, Field{Name: e.Name()})
	}

	return &Aggregate{
		Input:      input,
		GroupExprs: groupExprs,
		AggExprs:   aggExprs,
		schema:     schema,
	}, nil
}

func (self *Aggregate) Kind() int       { return KindAggregate }
func (self *Aggregate) Schema() *Schema { return self.schema }
func (self *Aggregate) Inputs() []Plan  { return []Plan{self.Input} }
func (self *Aggregate) WithInputs(inputs []Plan) (Plan, error) {
	if e0 := wantInputs("aggregate", inputs, 1); e0 != nil {
		return nil, e0
	}
	return NewAggregate(inputs[0], self.GroupExprs, self.AggExprs)
}

// ---- SubqueryAlias ---------------------------------------------------------

type SubqueryAlias struct {
	Input  Plan
	Alias  string
	schema *Schema
}

func NewSubqueryAlias(input Plan, alias string) (*SubqueryAlias, error) {
	if alias == "" {
		return nil, err("alias", "empty alias name")
	}
	return &SubqueryAlias{
		Input:  input,
		Alias:  alias,
		schema: input.Schema().Qualify(alias),
	}, nil
}

func (self *SubqueryAlias) Kind() int       { return KindSubqueryAlias }
func (self *SubqueryAlias) Schema() *Schema { return self.schema }
func (self *SubqueryAlias) Inputs() []Plan  { return []Plan{self.Input} }
func (self *SubqueryAlias) WithInputs(inputs []Plan) (Plan, error) {
	if e0 := wantInputs("alias", inputs, 1); e0 != nil {
		return nil, e0
	}
	return NewSubqueryAlias(inputs[0], self.Alias)
}

// ---- Window ----------------------------------------------------------------

type Window struct {
	Input       Plan
	WindowExprs []Expr
	schema      *Schema
}

func NewWindow(input Plan, windowExprs []Expr) (*Window, error) {
	if len(windowExprs) == 0 {
		return nil, err("window", "empty window expression list")
	}
	if e0 := checkExprList("window", windowExprs, input.Schema()); e0 != nil {
		return nil, e0
	}

	// window output appends the computed columns after the input's
	schema := &Schema{}
	schema.Fields = append(schema.Fields, input.Schema().Fields...)
	for _, e := range windowExprs {
		schema.Fields = append(schema.Fields, Field{Name: e.Name()})
	}

	return &Window{
		Input:       input,
		WindowExprs: windowExprs,
		schema:      schema,
	}, nil
}

func (self *Window) Kind() int       { return KindWindow }
func (self *Window) Schema() *Schema { return self.schema }
func (self *Window) Inputs() []Plan  { return []Plan{self.Input} }
func (self *Window) WithInputs(inputs []Plan) (Plan, error) {
	if e0 := wantInputs("window", inputs, 1); e0 != nil {
		return nil, e0
	}
	return NewWindow(inputs[0], self.WindowExprs)
}

// ---- DistinctOn ------------------------------------------------------------

// DistinctOn dedups rows. With an empty OnExprs list it is a plain distinct
// over the whole row, otherwise rows are deduped over the listed expressions
type DistinctOn struct {
	Input   Plan
	OnExprs []Expr
}

func NewDistinctOn(input Plan, onExprs []Expr) (*DistinctOn, error) {
	if e0 := checkExprList("distinct", onExprs, input.Schema()); e0 != nil {
		return nil, e0
	}
	return &DistinctOn{
		Input:   input,
		OnExprs: onExprs,
	}, nil
}

func (self *DistinctOn) Kind() int       { return KindDistinctOn }
func (self *DistinctOn) Schema() *Schema { return self.Input.Schema() }
func (self *DistinctOn) Inputs() []Plan  { return []Plan{self.Input} }
func (self *DistinctOn) WithInputs(inputs []Plan) (Plan, error) {
	if e0 := wantInputs("distinct", inputs, 1); e0 != nil {
		return nil, e0
	}
	return NewDistinctOn(inputs[0], self.OnExprs)
}

// ---- Sort ------------------------------------------------------------------

type SortKey struct {
	Expr Expr
	Asc  bool
}

type Sort struct {
	Input Plan
	Keys  []SortKey
}

func NewSort(input Plan, keys []SortKey) (*Sort, error) {
	if len(keys) == 0 {
		return nil, err("sort", "empty sort key list")
	}
	for _, k := range keys {
		if e0 := checkExpr("sort", k.Expr, input.Schema()); e0 != nil {
			return nil, e0
		}
	}
	return &Sort{
		Input: input,
		Keys:  keys,
	}, nil
}

func (self *Sort) Kind() int       { return KindSort }
func (self *Sort) Schema() *Schema { return self.Input.Schema() }
func (self *Sort) Inputs() []Plan  { return []Plan{self.Input} }
func (self *Sort) WithInputs(inputs []Plan) (Plan, error) {
	if e0 := wantInputs("sort", inputs, 1); e0 != nil {
		return nil, e0
	}
	return NewSort(inputs[0], self.Keys)
}

// ---- Limit -----------------------------------------------------------------

type Limit struct {
	Input Plan
	Fetch int64
}

func NewLimit(input Plan, fetch int64) (*Limit, error) {
	if fetch < 0 {
		return nil, err("limit", "negative limit %d", fetch)
	}
	return &Limit{
		Input: input,
		Fetch: fetch,
	}, nil
}

func (self *Limit) Kind() int       { return KindLimit }
func (self *Limit) Schema() *Schema { return self.Input.Schema() }
func (self *Limit) Inputs() []Plan  { return []Plan{self.Input} }
func (self *Limit) WithInputs(inputs []Plan) (Plan, error) {
	if e0 := wantInputs("limit", inputs, 1); e0 != nil {
		return nil, e0
	}
	return NewLimit(inputs[0], self.Fetch)
}

// ---- Join ------------------------------------------------------------------

type Join struct {
	Left     Plan
	Right    Plan
	JoinType int
	On       Expr
	schema   *Schema
}

func NewJoin(left Plan, right Plan, joinType int, on Expr) (*Join, error) {
	if on == nil {
		return nil, err("join", "empty join condition")
	}

	schema := &Schema{}
	schema.Fields = append(schema.Fields, left.Schema().Fields...)
	schema.Fields = append(schema.Fields, right.Schema().Fields...)

	if e0 := checkExpr("join", on, schema); e0 != nil {
		return nil, e0
	}

	return &Join{
		Left:     left,
		Right:    right,
		JoinType: joinType,
		On:       on,
		schema:   schema,
	}, nil
}

func (self *Join) Kind() int       { return KindJoin }
func (self *Join) Schema() *Schema { return self.schema }
func (self *Join) Inputs() []Plan  { return []Plan{self.Left, self.Right} }
func (self *Join) WithInputs(inputs []Plan) (Plan, error) {
	if e0 := wantInputs("join", inputs, 2); e0 != nil {
		return nil, e0
	}
	return NewJoin(inputs[0], inputs[1], self.JoinType, self.On)
}

// ---- Extension -------------------------------------------------------------

type Extension struct {
	Node ExtensionNode
}

func NewExtension(node ExtensionNode) *Extension {
	return &Extension{
		Node: node,
	}
}

func (self *Extension) Kind() int       { return KindExtension }
func (self *Extension) Schema() *Schema { return self.Node.Schema() }
func (self *Extension) Inputs() []Plan  { return self.Node.Inputs() }
func (self *Extension) WithInputs(inputs []Plan) (Plan, error) {
	n, e0 := self.Node.WithInputs(inputs)
	if e0 != nil {
		return nil, e0
	}
	return NewExtension(n), nil
}
