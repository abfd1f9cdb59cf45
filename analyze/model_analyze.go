package analyze

import (
	"fmt"

	"github.com/misselvexu/mixai-wren-engine/mdl"
	"github.com/misselvexu/mixai-wren-engine/plan"
	"github.com/misselvexu/mixai-wren-engine/sql"
)

// ModelAnalyzeRule is the binder. It turns a parsed select over semantic
// models into a logical plan whose relations are the semantic nodes the
// model generation rule afterwards expands. Name resolution happens here:
// from-clause names resolve against the manifest, every column reference is
// attributed to its model, calculated columns split into the projection or
// aggregation machinery computing them
type ModelAnalyzeRule struct {
	analyzed *mdl.Analyzed
}

func NewModelAnalyzeRule(analyzed *mdl.Analyzed) *ModelAnalyzeRule {
	return &ModelAnalyzeRule{
		analyzed: analyzed,
	}
}

// scope is one from-clause relation, ie a model under a bind name. Every
// scope but the first carries the condition joining it against the first
type scope struct {
	bind  string
	model *mdl.Model
	from  *sql.FromTable
	on    sql.Expr
	used  map[string]bool
}

// calcJoin is an aggregated calculated column turned into a relation that
// joins back against its base model on the primary key
type calcJoin struct {
	rel plan.Plan
	on  plan.Expr
}

type binding struct {
	self   *ModelAnalyzeRule
	sel    *sql.Select
	scopes []*scope
}

func (self *ModelAnalyzeRule) Bind(code *sql.Code) (plan.Plan, error) {
	return self.BindSelect(code.Select)
}

func (self *ModelAnalyzeRule) BindSelect(sel *sql.Select) (plan.Plan, error) {
	b := &binding{
		self: self,
		sel:  sel,
	}
	return b.bind()
}

// ---- ast helpers -----------------------------------------------------------

// colRefAst builds a column reference ast node programmatically, used for
// join conditions the binder manufactures itself
func colRefAst(rel string, col string) sql.Expr {
	if rel == "" {
		return &sql.Ref{Id: col}
	}
	return &sql.Primary{
		Leading: &sql.Ref{Id: rel},
		Suffix: []*sql.Suffix{
			{Ty: sql.SuffixDot, Component: col},
		},
	}
}

func eqAst(l sql.Expr, r sql.Expr) sql.Expr {
	return &sql.Binary{
		Op: sql.TkEq,
		L:  l,
		R:  r,
	}
}

// containsAgg reports whether an expression has an aggregate function call
// anywhere inside of it
func containsAgg(e sql.Expr) bool {
	switch n := e.(type) {
	case *sql.Primary:
		if sql.GetAggFunc(n) != "" {
			return true
		}
		for _, s := range n.Suffix {
			if s.Ty == sql.SuffixCall {
				for _, p := range s.Call.Parameters {
					if containsAgg(p) {
						return true
					}
				}
			}
			if s.Ty == sql.SuffixIndex && containsAgg(s.Index) {
				return true
			}
		}
		return containsAgg(n.Leading)
	case *sql.Unary:
		return containsAgg(n.Operand)
	case *sql.Binary:
		return containsAgg(n.L) || containsAgg(n.R)
	case *sql.Ternary:
		return containsAgg(n.Cond) || containsAgg(n.B0) || containsAgg(n.B1)
	default:
		return false
	}
}

// refRewriter mutates column references in place. fn gets the (relation,
// column) pair of every reference and can hand back a replacement
type refRewriter struct {
	fn func(rel string, col string) (string, string, bool)
}

func (self *refRewriter) AcceptConst(*sql.Const) (bool, error)   { return true, nil }
func (self *refRewriter) AcceptSuffix(*sql.Suffix) (bool, error) { return true, nil }
func (self *refRewriter) AcceptUnary(*sql.Unary) (bool, error)   { return true, nil }
func (self *refRewriter) AcceptBinary(*sql.Binary) (bool, error) { return true, nil }
func (self *refRewriter) AcceptTernary(*sql.Ternary) (bool, error) {
	return true, nil
}

func (self *refRewriter) AcceptRef(n *sql.Ref) (bool, error) {
	if n.Id == "*" {
		return true, nil
	}
	if rel, col, ok := self.fn("", n.Id); ok {
		if rel == "" {
			n.Id = col
			n.CanName.Reset()
		} else {
			// the textual form cannot carry a qualifier here, the canonical
			// name records the retarget instead
			n.CanName.Set(rel, col)
		}
	}
	return true, nil
}

func (self *refRewriter) AcceptPrimary(n *sql.Primary) (bool, error) {
	ref, isRef := n.Leading.(*sql.Ref)
	if isRef && len(n.Suffix) > 0 && n.Suffix[0].Ty == sql.SuffixDot {
		if rel, col, ok := self.fn(ref.Id, n.Suffix[0].Component); ok {
			ref.Id = rel
			n.Suffix[0].Component = col
			n.CanName.Set(rel, col)
		}
		return false, nil
	}
	return true, nil
}

func rewriteRefs(e sql.Expr, fn func(rel string, col string) (string, string, bool)) {
	_ = sql.VisitExprPreOrder(&refRewriter{fn: fn}, e)
}

// canNamer annotates every column reference with its resolved canonical
// name, ie which scope it binds into
type canNamer struct {
	resolve func(rel string, col string) (string, string)
}

func (self *canNamer) AcceptConst(*sql.Const) (bool, error)     { return true, nil }
func (self *canNamer) AcceptSuffix(*sql.Suffix) (bool, error)   { return true, nil }
func (self *canNamer) AcceptUnary(*sql.Unary) (bool, error)     { return true, nil }
func (self *canNamer) AcceptBinary(*sql.Binary) (bool, error)   { return true, nil }
func (self *canNamer) AcceptTernary(*sql.Ternary) (bool, error) { return true, nil }

func (self *canNamer) AcceptRef(n *sql.Ref) (bool, error) {
	if n.Id != "*" {
		if bind, col := self.resolve("", n.Id); bind != "" {
			n.CanName.Set(bind, col)
		}
	}
	return true, nil
}

func (self *canNamer) AcceptPrimary(n *sql.Primary) (bool, error) {
	ref, isRef := n.Leading.(*sql.Ref)
	if isRef && len(n.Suffix) > 0 && n.Suffix[0].Ty == sql.SuffixDot {
		if bind, col := self.resolve(ref.Id, n.Suffix[0].Component); bind != "" {
			n.CanName.Set(bind, col)
		}
		return false, nil
	}
	return true, nil
}

// toPlanExpr lowers one scalar ast node into a plan expression. A bare or
// qualified column reference becomes a Column so its qualifier survives,
// everything else rides as an opaque scalar
func toPlanExpr(e sql.Expr) plan.Expr {
	if r, ok := e.(*sql.Ref); ok && r.Id != "*" {
		if r.CanName.IsSet() {
			return plan.NewColumn(r.CanName.Table, r.CanName.Name)
		}
		return plan.NewColumn("", r.Id)
	}
	if p, ok := e.(*sql.Primary); ok {
		if ref, ok2 := p.Leading.(*sql.Ref); ok2 &&
			len(p.Suffix) == 1 &&
			p.Suffix[0].Ty == sql.SuffixDot {
			if p.CanName.IsSet() {
				return plan.NewColumn(p.CanName.Table, p.CanName.Name)
			}
			return plan.NewColumn(ref.Id, p.Suffix[0].Component)
		}
	}
	return plan.NewScalar(e)
}

// ---- binding ---------------------------------------------------------------

func (self *binding) bind() (plan.Plan, error) {
	if err := self.buildScopes(); err != nil {
		return nil, err
	}
	if err := self.collectUsage(); err != nil {
		return nil, err
	}
	self.annotateCanNames()

	root, joins, err := self.buildRelations()
	if err != nil {
		return nil, err
	}

	for _, cj := range joins {
		root, err = plan.NewJoin(root, cj.rel, plan.JoinLeft, cj.on)
		if err != nil {
			return nil, err
		}
	}

	if self.sel.Where != nil {
		root, err = plan.NewFilter(root, plan.NewScalar(self.sel.Where.Condition))
		if err != nil {
			return nil, err
		}
	}

	root, aggText, err := self.buildProjection(root)
	if err != nil {
		return nil, err
	}

	if self.sel.Having != nil {
		cond, err := self.replaceAggText(self.sel.Having.Condition, aggText)
		if err != nil {
			return nil, err
		}
		root, err = plan.NewFilter(root, plan.NewScalar(cond))
		if err != nil {
			return nil, err
		}
	}

	if self.sel.Distinct {
		root, err = plan.NewDistinctOn(root, nil)
		if err != nil {
			return nil, err
		}
	}

	if self.sel.OrderBy != nil {
		keys := []plan.SortKey{}
		for _, k := range self.sel.OrderBy.Name {
			e, err := self.replaceAggText(k, aggText)
			if err != nil {
				return nil, err
			}
			keys = append(keys, plan.SortKey{
				Expr: toPlanExpr(e),
				Asc:  self.sel.OrderBy.Order == sql.OrderAsc,
			})
		}
		root, err = plan.NewSort(root, keys)
		if err != nil {
			return nil, err
		}
	}

	if self.sel.Limit != nil {
		root, err = plan.NewLimit(root, self.sel.Limit.Limit)
		if err != nil {
			return nil, err
		}
	}

	return root, nil
}

func (self *binding) buildScopes() error {
	for _, ft := range self.sel.From.VarList {
		name := ft.Name[len(ft.Name)-1]
		model, err := self.self.analyzed.RequireModel(name)
		if err != nil {
			return err
		}

		bind := ft.Bind()
		for _, s := range self.scopes {
			if s.bind == bind {
				return fmt.Errorf("duplicated relation name %s in from clause", bind)
			}
		}

		self.scopes = append(self.scopes, &scope{
			bind:  bind,
			model: model,
			from:  ft,
			used:  map[string]bool{},
		})
	}

	// join conditions are pinned down before usage collection so the columns
	// they touch count as used on their scopes
	for _, s := range self.scopes[1:] {
		on, err := self.joinCondition(self.scopes[0], s)
		if err != nil {
			return err
		}
		s.on = on
	}
	return nil
}

func (self *binding) findScope(bind string) *scope {
	for _, s := range self.scopes {
		if s.bind == bind {
			return s
		}
	}
	return nil
}

// resolveColumn attributes one referenced column to its scope. Unqualified
// references search every scope and must be unambiguous
func (self *binding) resolveColumn(rel string, col string) (*scope, error) {
	if rel != "" {
		s := self.findScope(rel)
		if s == nil {
			return nil, fmt.Errorf("unknown relation %s", rel)
		}
		if s.model.GetColumn(col) == nil {
			return nil, fmt.Errorf(
				"column %s does not exist on model %s",
				col,
				s.model.Name,
			)
		}
		return s, nil
	}

	var found *scope
	for _, s := range self.scopes {
		if s.model.GetColumn(col) == nil {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf(
				"column %s is ambiguous, found on %s and %s",
				col,
				found.model.Name,
				s.model.Name,
			)
		}
		found = s
	}
	if found == nil {
		return nil, fmt.Errorf("column %s cannot be resolved", col)
	}
	return found, nil
}

// queryExprs lists every scalar expression the query carries
func (self *binding) queryExprs() []sql.Expr {
	out := []sql.Expr{}

	for _, item := range self.sel.Projection.ValueList {
		if col, ok := item.(*sql.Col); ok {
			out = append(out, col.Value)
		}
	}
	for _, s := range self.scopes {
		if s.on != nil {
			out = append(out, s.on)
		}
	}
	if self.sel.Where != nil {
		out = append(out, self.sel.Where.Condition)
	}
	if self.sel.GroupBy != nil {
		out = append(out, self.sel.GroupBy.Name...)
	}
	if self.sel.Having != nil {
		out = append(out, self.sel.Having.Condition)
	}
	if self.sel.OrderBy != nil {
		out = append(out, self.sel.OrderBy.Name...)
	}
	return out
}

func (self *binding) collectUsage() error {
	// a wildcard pulls in every physical column of every relation
	if self.sel.Projection.HasStar() {
		for _, s := range self.scopes {
			for _, c := range s.model.PhysicalColumns() {
				s.used[c.Name] = true
			}
		}
	}

	for _, e := range self.queryExprs() {
		for _, c := range plan.ExprColumns(plan.NewScalar(e)) {
			s, err := self.resolveColumn(c.Relation, c.Column)
			if err != nil {
				return err
			}
			s.used[c.Column] = true
		}
	}
	return nil
}

func (self *binding) annotateCanNames() {
	namer := &canNamer{
		resolve: func(rel string, col string) (string, string) {
			s, err := self.resolveColumn(rel, col)
			if err != nil {
				return "", ""
			}
			return s.bind, col
		},
	}
	for _, e := range self.queryExprs() {
		_ = sql.VisitExprPreOrder(namer, e)
	}
}

// buildRelations produces the joined relation tree of the from clause, plus
// the calculated-column joins to hang on top of it
func (self *binding) buildRelations() (plan.Plan, []calcJoin, error) {
	var root plan.Plan
	joins := []calcJoin{}

	for idx, s := range self.scopes {
		base, cj, err := self.buildScope(s, idx > 0)
		if err != nil {
			return nil, nil, err
		}
		joins = append(joins, cj...)

		if idx == 0 {
			root = base
			continue
		}

		root, err = plan.NewJoin(root, base, plan.JoinInner, plan.NewScalar(s.on))
		if err != nil {
			return nil, nil, err
		}
	}

	return root, joins, nil
}

func (self *binding) joinCondition(left *scope, right *scope) (sql.Expr, error) {
	if right.from.On != nil {
		return right.from.On, nil
	}

	// no explicit condition, fall back to the manifest relationship
	rel := self.self.analyzed.RelationshipBetween(left.model.Name, right.model.Name)
	if rel == nil {
		return nil, fmt.Errorf(
			"no join condition between %s and %s, and the manifest declares "+
				"no relationship for them",
			left.bind,
			right.bind,
		)
	}

	cond, err := sql.ParseExpr(rel.Condition)
	if err != nil {
		return nil, fmt.Errorf(
			"relationship %s has an invalid condition: %w",
			rel.Name,
			err,
		)
	}

	// the condition qualifies columns by model name, the query knows the
	// relations by their bind names
	rewriteRefs(cond, func(r string, c string) (string, string, bool) {
		if r == left.model.Name {
			return left.bind, c, true
		}
		if r == right.model.Name {
			return right.bind, c, true
		}
		return "", "", false
	})

	return cond, nil
}

// buildScope lowers one from-clause relation into its semantic node tree
func (self *binding) buildScope(s *scope, partial bool) (plan.Plan, []calcJoin, error) {
	physUsed := map[string]bool{}
	simpleCalc := []*mdl.Column{}
	aggCalc := []*mdl.Column{}

	for _, c := range s.model.Columns {
		if !s.used[c.Name] {
			continue
		}
		if c.Relationship != "" {
			return nil, nil, fmt.Errorf(
				"column %s of model %s is a relationship, it cannot be selected",
				c.Name,
				s.model.Name,
			)
		}
		if !c.IsCalculated {
			physUsed[c.Name] = true
			continue
		}

		expr, err := sql.ParseExpr(c.Expression)
		if err != nil {
			return nil, nil, fmt.Errorf(
				"calculated column %s of model %s has an invalid expression: %w",
				c.Name,
				s.model.Name,
				err,
			)
		}

		if containsAgg(expr) {
			aggCalc = append(aggCalc, c)
		} else {
			simpleCalc = append(simpleCalc, c)
			// whatever the expression reads has to come off the source
			for _, ref := range plan.ExprColumns(plan.NewScalar(expr)) {
				cc := s.model.GetColumn(ref.Column)
				if cc == nil || cc.IsCalculated {
					return nil, nil, fmt.Errorf(
						"calculated column %s of model %s references %s, "+
							"which is not a physical column of the model",
						c.Name,
						s.model.Name,
						ref.Column,
					)
				}
				physUsed[ref.Column] = true
			}
		}
	}

	// an aggregated calculation joins back on the primary key, the key has
	// to survive into the model output
	if len(aggCalc) > 0 {
		if s.model.PrimaryKey == "" {
			return nil, nil, fmt.Errorf(
				"model %s needs a primary key to compute an aggregated "+
					"calculated column",
				s.model.Name,
			)
		}
		physUsed[s.model.PrimaryKey] = true
		s.used[s.model.PrimaryKey] = true
	}

	quoted := mdl.Quoted(s.model.Name)

	// source scan requirement, in model declaration order
	srcRequired := []plan.Expr{}
	modelRequired := []plan.Expr{}
	outNames := []string{}

	for _, c := range s.model.PhysicalColumns() {
		directly := s.used[c.Name] && !partial
		if partial {
			// a joined relation keeps its full physical width on the inner
			// model, the partial node narrows it afterwards
			directly = true
		}
		if physUsed[c.Name] || directly {
			srcRequired = append(srcRequired, plan.NewColumn("", c.Name))
		}
		if directly {
			modelRequired = append(modelRequired, plan.NewColumn(quoted, c.Name))
			outNames = append(outNames, c.Name)
		}
	}
	for _, c := range simpleCalc {
		expr, _ := sql.ParseExpr(c.Expression)
		modelRequired = append(modelRequired, plan.NewAlias(plan.NewScalar(expr), c.Name))
		outNames = append(outNames, c.Name)
	}

	node := NewModelNode(
		s.model.Name,
		modelRequired,
		NewRelationChain(ChainLink{
			Plan: plan.NewExtension(
				NewModelSourceNode(s.model.Name, srcRequired, nil),
			),
		}),
	)

	var rel plan.Plan = plan.NewExtension(node)

	if partial {
		// narrow the joined model down to what the query touches
		fields := []plan.Field{}
		for _, name := range outNames {
			if s.used[name] {
				fields = append(fields, plan.Field{
					Relation: s.model.Name,
					Name:     name,
				})
			}
		}
		rel = plan.NewExtension(
			NewPartialModelNode(node, plan.NewSchema(fields...)),
		)
	}

	base, err := plan.NewSubqueryAlias(rel, s.bind)
	if err != nil {
		return nil, nil, err
	}

	joins := []calcJoin{}
	for _, c := range aggCalc {
		cj, err := self.buildAggCalc(s, c)
		if err != nil {
			return nil, nil, err
		}
		joins = append(joins, cj)
	}

	return base, joins, nil
}

// buildAggCalc turns one aggregated calculated column into a calculation
// node joined back against the base model on the primary key. References to
// the column elsewhere in the query are redirected to the calculation's
// output relation
func (self *binding) buildAggCalc(s *scope, c *mdl.Column) (calcJoin, error) {
	expr, err := sql.ParseExpr(c.Expression)
	if err != nil {
		return calcJoin{}, err
	}

	fn := sql.GetAggFunc(expr)
	if fn == "" {
		return calcJoin{}, fmt.Errorf(
			"calculated column %s of model %s: an aggregated expression "+
				"must be a bare aggregate function call, got %s",
			c.Name,
			s.model.Name,
			sql.PrintExpr(expr),
		)
	}

	quoted := mdl.Quoted(s.model.Name)
	pk := s.model.PrimaryKey

	// the inner model feeds the aggregation with the key plus whatever the
	// measure reads
	innerUsed := map[string]bool{pk: true}
	args := []plan.Expr{}

	call := expr.(*sql.Primary).Suffix[0].Call
	for _, p := range call.Parameters {
		if r, isRef := p.(*sql.Ref); isRef && r.Id == "*" {
			args = append(args, plan.NewScalar(p))
			continue
		}
		for _, ref := range plan.ExprColumns(plan.NewScalar(p)) {
			cc := s.model.GetColumn(ref.Column)
			if cc == nil || cc.IsCalculated {
				return calcJoin{}, fmt.Errorf(
					"calculated column %s of model %s references %s, which "+
						"is not a physical column of the model",
					c.Name,
					s.model.Name,
					ref.Column,
				)
			}
			innerUsed[ref.Column] = true
		}
		// qualify a plain reference so it survives under the model alias
		if r, isRef := p.(*sql.Ref); isRef {
			args = append(args, plan.NewColumn(quoted, r.Id))
		} else {
			args = append(args, plan.NewScalar(p))
		}
	}

	srcRequired := []plan.Expr{}
	modelRequired := []plan.Expr{}
	for _, pc := range s.model.PhysicalColumns() {
		if innerUsed[pc.Name] {
			srcRequired = append(srcRequired, plan.NewColumn("", pc.Name))
			modelRequired = append(modelRequired, plan.NewColumn(quoted, pc.Name))
		}
	}

	inner := NewModelNode(
		s.model.Name,
		modelRequired,
		NewRelationChain(ChainLink{
			Plan: plan.NewExtension(
				NewModelSourceNode(s.model.Name, srcRequired, nil),
			),
		}),
	)

	node := NewCalculationNode(
		NewRelationChain(ChainLink{Plan: plan.NewExtension(inner)}),
		[]plan.Expr{plan.NewColumn(quoted, pk)},
		[]plan.Expr{plan.NewAlias(plan.NewAggCall(fn, args...), c.Name)},
		c.Name,
	)

	quotedCalc := mdl.Quoted(c.Name)

	// redirect every reference to the calculated column onto the
	// calculation's output relation
	for _, e := range self.queryExprs() {
		rewriteRefs(e, func(r string, col string) (string, string, bool) {
			if col != c.Name {
				return "", "", false
			}
			if r == s.bind || r == "" {
				return quotedCalc, c.Name, true
			}
			return "", "", false
		})
	}

	on := plan.NewScalar(eqAst(
		colRefAst(s.bind, pk),
		colRefAst(quotedCalc, pk),
	))

	return calcJoin{
		rel: plan.NewExtension(node),
		on:  on,
	}, nil
}

// ---- projection & aggregation ----------------------------------------------

// buildProjection lowers the select list, together with the aggregation when
// the query groups. It returns the mapping from an aggregate expression's
// rendered text to its output column name, for having and order by to pick
// the aggregates up by name afterwards
func (self *binding) buildProjection(input plan.Plan) (plan.Plan, map[string]string, error) {
	aggText := map[string]string{}

	hasAgg := self.sel.GroupBy != nil
	for _, item := range self.sel.Projection.ValueList {
		if col, ok := item.(*sql.Col); ok && containsAgg(col.Value) {
			hasAgg = true
		}
	}

	if !hasAgg {
		exprs := []plan.Expr{}
		for _, item := range self.sel.Projection.ValueList {
			if item.Type() == sql.SelectVarStar {
				exprs = append(exprs, self.starColumns()...)
				continue
			}
			col := item.(*sql.Col)
			e := toPlanExpr(col.Value)
			if col.As != "" {
				e = plan.NewAlias(e, col.As)
			}
			exprs = append(exprs, e)
		}
		out, err := plan.NewProjection(input, exprs)
		if err != nil {
			return nil, nil, err
		}
		return out, aggText, nil
	}

	// grouped query. The aggregation computes the group keys and the bare
	// aggregate calls, the projection on top restores the select list order
	// and names
	groupExprs := []plan.Expr{}
	groupText := map[string]bool{}
	if self.sel.GroupBy != nil {
		for _, g := range self.sel.GroupBy.Name {
			groupExprs = append(groupExprs, toPlanExpr(g))
			groupText[sql.PrintExpr(g)] = true
		}
	}

	aggExprs := []plan.Expr{}
	outExprs := []plan.Expr{}

	for _, item := range self.sel.Projection.ValueList {
		if item.Type() == sql.SelectVarStar {
			return nil, nil, fmt.Errorf(
				"wildcard projection cannot be mixed with aggregation",
			)
		}
		col := item.(*sql.Col)
		v := col.Value

		if fn := sql.GetAggFunc(v); fn != "" {
			call, err := self.toAggCall(fn, v.(*sql.Primary))
			if err != nil {
				return nil, nil, err
			}
			aggExprs = append(aggExprs, call)

			name := call.Name()
			out := plan.Expr(plan.NewIdent(name))
			if col.As != "" {
				out = plan.NewAlias(out, col.As)
				aggText[sql.PrintExpr(v)] = col.As
			} else {
				aggText[sql.PrintExpr(v)] = name
			}
			outExprs = append(outExprs, out)
			continue
		}

		if containsAgg(v) {
			return nil, nil, fmt.Errorf(
				"unsupported aggregate expression %s, an aggregate must be "+
					"a bare function call in the select list",
				sql.PrintExpr(v),
			)
		}

		if !groupText[sql.PrintExpr(v)] {
			return nil, nil, fmt.Errorf(
				"%s must appear in the group by clause",
				sql.PrintExpr(v),
			)
		}

		e := toPlanExpr(v)
		if col.As != "" {
			e = plan.NewAlias(e, col.As)
		}
		outExprs = append(outExprs, e)
	}

	out, err := plan.From(input).
		Aggregate(groupExprs, aggExprs).
		Project(outExprs...).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return out, aggText, nil
}

func (self *binding) starColumns() []plan.Expr {
	out := []plan.Expr{}
	for _, s := range self.scopes {
		for _, c := range s.model.PhysicalColumns() {
			out = append(out, plan.NewColumn(s.bind, c.Name))
		}
	}
	return out
}

func (self *binding) toAggCall(fn string, v *sql.Primary) (*plan.AggCall, error) {
	args := []plan.Expr{}
	for _, p := range v.Suffix[0].Call.Parameters {
		if r, isRef := p.(*sql.Ref); isRef && r.Id == "*" {
			args = append(args, plan.NewScalar(p))
			continue
		}
		args = append(args, toPlanExpr(p))
	}
	return plan.NewAggCall(fn, args...), nil
}

// replaceAggText substitutes aggregate calls inside having and order by
// expressions with a reference to the select list column computing them
func (self *binding) replaceAggText(e sql.Expr, aggText map[string]string) (sql.Expr, error) {
	out := self.doReplaceAggText(sql.CloneExpr(e), aggText)
	if containsAgg(out) {
		return nil, fmt.Errorf(
			"aggregate %s used outside of the select list, having and order "+
				"by can only reference aggregates the select list computes",
			sql.PrintExpr(e),
		)
	}
	return out, nil
}

func (self *binding) doReplaceAggText(e sql.Expr, aggText map[string]string) sql.Expr {
	if sql.GetAggFunc(e) != "" {
		if name, ok := aggText[sql.PrintExpr(e)]; ok {
			return &sql.Ref{Id: name}
		}
		return e
	}

	switch n := e.(type) {
	case *sql.Unary:
		n.Operand = self.doReplaceAggText(n.Operand, aggText)
	case *sql.Binary:
		n.L = self.doReplaceAggText(n.L, aggText)
		n.R = self.doReplaceAggText(n.R, aggText)
	case *sql.Ternary:
		n.Cond = self.doReplaceAggText(n.Cond, aggText)
		n.B0 = self.doReplaceAggText(n.B0, aggText)
		n.B1 = self.doReplaceAggText(n.B1, aggText)
	case *sql.Primary:
		for _, s := range n.Suffix {
			if s.Ty == sql.SuffixCall {
				for idx, p := range s.Call.Parameters {
					s.Call.Parameters[idx] = self.doReplaceAggText(p, aggText)
				}
			}
			if s.Ty == sql.SuffixIndex {
				s.Index = self.doReplaceAggText(s.Index, aggText)
			}
		}
	default:
		break
	}
	return e
}
