package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/misselvexu/mixai-wren-engine/plan"
	"github.com/misselvexu/mixai-wren-engine/sql"
)

// Generate unparses a fully resolved plan back into SQL text for the remote
// engine. The plan must be primitive only, a semantic node left over from an
// incomplete rewrite is an error
func Generate(p plan.Plan) (string, error) {
	g := &sqlGen{}
	s, err := g.gen(p)
	if err != nil {
		return "", err
	}
	return s.text(), nil
}

// stmt is one select statement under construction. Clause slots fill in as
// the generator walks down the operator stack, a node whose clause slot is
// already taken wraps the statement into a derived table and starts fresh
type stmt struct {
	proj     []string
	aggProj  []string
	distinct bool
	from     string
	where    []string
	groupBy  []string
	orderBy  []string
	limit    string

	// rendered text of each aggregate output, keyed by its column name, so
	// the projection on top can splice the call back into its select list
	aggs map[string]string
}

func (self *stmt) text() string {
	buf := strings.Builder{}
	buf.WriteString("select ")
	if self.distinct {
		buf.WriteString("distinct ")
	}
	switch {
	case len(self.proj) > 0:
		buf.WriteString(strings.Join(self.proj, ", "))
	case len(self.aggProj) > 0:
		buf.WriteString(strings.Join(self.aggProj, ", "))
	default:
		buf.WriteString("*")
	}
	buf.WriteString(" from ")
	buf.WriteString(self.from)
	if len(self.where) > 0 {
		buf.WriteString(" where ")
		buf.WriteString(strings.Join(self.where, " and "))
	}
	if len(self.groupBy) > 0 {
		buf.WriteString(" group by ")
		buf.WriteString(strings.Join(self.groupBy, ", "))
	}
	if len(self.orderBy) > 0 {
		buf.WriteString(" order by ")
		buf.WriteString(strings.Join(self.orderBy, ", "))
	}
	if self.limit != "" {
		buf.WriteString(" limit ")
		buf.WriteString(self.limit)
	}
	return buf.String()
}

// bareFrom reports whether the statement is nothing but its from clause and
// can ride inside a join operand without a wrapper
func (self *stmt) bareFrom() bool {
	return len(self.proj) == 0 &&
		len(self.aggProj) == 0 &&
		!self.distinct &&
		len(self.where) == 0 &&
		len(self.groupBy) == 0 &&
		len(self.orderBy) == 0 &&
		self.limit == ""
}

type sqlGen struct {
	aliasIdx int
}

func (self *sqlGen) nextAlias() string {
	out := fmt.Sprintf("t%d", self.aliasIdx)
	self.aliasIdx++
	return out
}

// wrap turns the statement into a derived table under a generated alias
func (self *sqlGen) wrap(s *stmt) *stmt {
	return &stmt{
		from: "(" + s.text() + ") as " + self.nextAlias(),
	}
}

func (self *sqlGen) gen(p plan.Plan) (*stmt, error) {
	switch n := p.(type) {
	case *plan.TableScan:
		return self.genTableScan(n)
	case *plan.Projection:
		return self.genProjection(n)
	case *plan.Filter:
		return self.genFilter(n)
	case *plan.Aggregate:
		return self.genAggregate(n)
	case *plan.SubqueryAlias:
		return self.genSubqueryAlias(n)
	case *plan.Window:
		return self.genWindow(n)
	case *plan.DistinctOn:
		return self.genDistinctOn(n)
	case *plan.Sort:
		return self.genSort(n)
	case *plan.Limit:
		return self.genLimit(n)
	case *plan.Join:
		return self.genJoin(n)
	case *plan.Extension:
		return nil, fmt.Errorf(
			"semantic node %s remains in the plan, it was not fully rewritten",
			n.Node.Name(),
		)
	default:
		return nil, fmt.Errorf("unknown plan operator, kind %d", p.Kind())
	}
}

func (self *sqlGen) genTableScan(n *plan.TableScan) (*stmt, error) {
	out := &stmt{
		from: n.Source.Table,
	}
	for _, f := range n.Filters {
		out.where = append(out.where, exprSQL(f))
	}
	return out, nil
}

func (self *sqlGen) genProjection(n *plan.Projection) (*stmt, error) {
	s, err := self.gen(n.Input)
	if err != nil {
		return nil, err
	}
	if len(s.proj) > 0 {
		s = self.wrap(s)
	}
	for _, e := range n.Exprs {
		s.proj = append(s.proj, projEntry(e, s.aggs))
	}
	// the projection consumed the aggregate outputs
	s.aggProj = nil
	s.aggs = nil
	return s, nil
}

func (self *sqlGen) genFilter(n *plan.Filter) (*stmt, error) {
	s, err := self.gen(n.Input)
	if err != nil {
		return nil, err
	}
	if len(s.proj) > 0 || len(s.groupBy) > 0 {
		s = self.wrap(s)
	}
	s.where = append(s.where, exprSQL(n.Predicate))
	return s, nil
}

func (self *sqlGen) genAggregate(n *plan.Aggregate) (*stmt, error) {
	s, err := self.gen(n.Input)
	if err != nil {
		return nil, err
	}
	if len(s.proj) > 0 || len(s.groupBy) > 0 {
		s = self.wrap(s)
	}

	s.aggs = map[string]string{}
	for _, g := range n.GroupExprs {
		text := exprSQL(g)
		s.groupBy = append(s.groupBy, text)
		s.aggProj = append(s.aggProj, text)
	}
	for _, e := range n.AggExprs {
		name := e.Name()
		text := exprSQL(plan.Unalias(e))
		s.aggs[name] = text
		s.aggProj = append(s.aggProj, text+" as "+quoteIdent(name))
	}
	return s, nil
}

func (self *sqlGen) genSubqueryAlias(n *plan.SubqueryAlias) (*stmt, error) {
	s, err := self.gen(n.Input)
	if err != nil {
		return nil, err
	}
	return &stmt{
		from: "(" + s.text() + ") as " + quoteIdent(n.Alias),
	}, nil
}

func (self *sqlGen) genWindow(n *plan.Window) (*stmt, error) {
	s, err := self.gen(n.Input)
	if err != nil {
		return nil, err
	}
	if s.distinct || len(s.orderBy) > 0 || s.limit != "" {
		s = self.wrap(s)
	}
	if len(s.proj) == 0 {
		s.proj = append(s.proj, "*")
	}
	for _, e := range n.WindowExprs {
		s.proj = append(s.proj, projEntry(e, s.aggs))
	}
	return s, nil
}

func (self *sqlGen) genDistinctOn(n *plan.DistinctOn) (*stmt, error) {
	s, err := self.gen(n.Input)
	if err != nil {
		return nil, err
	}
	if s.distinct || len(s.orderBy) > 0 || s.limit != "" {
		s = self.wrap(s)
	}
	if len(n.OnExprs) == 0 {
		s.distinct = true
		return s, nil
	}
	on := []string{}
	for _, e := range n.OnExprs {
		on = append(on, exprSQL(e))
	}
	// distinct on narrows dedup to the listed expressions
	prefix := "distinct on (" + strings.Join(on, ", ") + ") "
	if len(s.proj) == 0 {
		s.proj = append(s.proj, prefix+"*")
	} else {
		s.proj[0] = prefix + s.proj[0]
	}
	return s, nil
}

func (self *sqlGen) genSort(n *plan.Sort) (*stmt, error) {
	s, err := self.gen(n.Input)
	if err != nil {
		return nil, err
	}
	if s.limit != "" {
		s = self.wrap(s)
	}
	for _, k := range n.Keys {
		dir := " asc"
		if !k.Asc {
			dir = " desc"
		}
		s.orderBy = append(s.orderBy, exprSQL(k.Expr)+dir)
	}
	return s, nil
}

func (self *sqlGen) genLimit(n *plan.Limit) (*stmt, error) {
	s, err := self.gen(n.Input)
	if err != nil {
		return nil, err
	}
	if s.limit != "" {
		s = self.wrap(s)
	}
	s.limit = strconv.FormatInt(n.Fetch, 10)
	return s, nil
}

func (self *sqlGen) genJoin(n *plan.Join) (*stmt, error) {
	l, err := self.gen(n.Left)
	if err != nil {
		return nil, err
	}
	r, err := self.gen(n.Right)
	if err != nil {
		return nil, err
	}

	kw := " inner join "
	if n.JoinType == plan.JoinLeft {
		kw = " left join "
	}

	return &stmt{
		from: self.joinOperand(l) + kw + self.joinOperand(r) +
			" on " + exprSQL(n.On),
	}, nil
}

func (self *sqlGen) joinOperand(s *stmt) string {
	if s.bareFrom() {
		return s.from
	}
	return "(" + s.text() + ") as " + self.nextAlias()
}

// ---- expression rendering --------------------------------------------------

// projEntry renders one select-list expression. An ident picking an
// aggregate output splices the aggregate call text back in, so the emitted
// statement computes the aggregate where its name says it does
func projEntry(e plan.Expr, aggs map[string]string) string {
	if a, ok := e.(*plan.Alias); ok {
		return innerEntry(a.Input, aggs) + " as " + quoteIdent(a.As)
	}
	if id, ok := e.(*plan.Ident); ok {
		if text, hit := aggs[id.Id]; hit {
			return text + " as " + quoteIdent(id.Id)
		}
	}
	return exprSQL(e)
}

func innerEntry(e plan.Expr, aggs map[string]string) string {
	if id, ok := e.(*plan.Ident); ok {
		if text, hit := aggs[id.Id]; hit {
			return text
		}
	}
	return exprSQL(e)
}

func exprSQL(e plan.Expr) string {
	switch n := e.(type) {
	case *plan.Column:
		if n.Relation == "" {
			return quoteIdent(n.Column)
		}
		return quoteIdent(n.Relation) + "." + quoteIdent(n.Column)

	case *plan.Alias:
		return exprSQL(n.Input) + " as " + quoteIdent(n.As)

	case *plan.Ident:
		return quoteIdent(n.Id)

	case *plan.Scalar:
		return sql.PrintExpr(n.Expr)

	case *plan.AggCall:
		args := make([]string, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, exprSQL(a))
		}
		d := ""
		if n.Distinct {
			d = "distinct "
		}
		return n.Func + "(" + d + strings.Join(args, ", ") + ")"

	default:
		return e.String()
	}
}

// quoteIdent quotes a name unless it is already a plain identifier or
// carries quoting of its own
func quoteIdent(name string) string {
	if name == "" {
		return name
	}
	if name[0] == '"' {
		return name
	}
	if isPlainIdent(name) {
		return name
	}
	return "\"" + strings.ReplaceAll(name, "\"", "\"\"") + "\""
}

func isPlainIdent(name string) bool {
	for idx, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
			break
		case c == '_':
			break
		case c >= '0' && c <= '9':
			if idx == 0 {
				return false
			}
			break
		default:
			return false
		}
	}
	return true
}
