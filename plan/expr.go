package plan

import (
	"strings"

	"github.com/misselvexu/mixai-wren-engine/sql"
)

const (
	ExprColumn = iota
	ExprAlias
	ExprIdent
	ExprScalar
	ExprAggCall
)

// Expr is the expression carried by a relational operator. It is a closed
// set, dispatch via Type. Name is the output column name the expression
// produces, String is the deterministic rendered text
type Expr interface {
	Type() int
	Name() string
	String() string
}

// Column references one column of an input relation, optionally qualified
type Column struct {
	Relation string
	Column   string
}

// Alias gives an expression an explicit output name
type Alias struct {
	Input Expr
	As    string
}

// Ident references an input column by its raw output name, whatever
// characters that name contains. Used to pick up a derived column whose name
// is the rendered text of the expression that produced it
type Ident struct {
	Id string
}

// Scalar wraps an arbitrary scalar expression tree from the sql front end
type Scalar struct {
	Expr sql.Expr
}

// AggCall is an aggregate function invocation
type AggCall struct {
	Func     string
	Args     []Expr
	Distinct bool
}

func NewColumn(relation string, column string) *Column {
	return &Column{
		Relation: relation,
		Column:   column,
	}
}

func NewAlias(input Expr, as string) *Alias {
	return &Alias{
		Input: input,
		As:    as,
	}
}

func NewIdent(id string) *Ident {
	return &Ident{
		Id: id,
	}
}

func NewScalar(expr sql.Expr) *Scalar {
	return &Scalar{
		Expr: expr,
	}
}

func NewAggCall(fn string, args ...Expr) *AggCall {
	return &AggCall{
		Func: fn,
		Args: args,
	}
}

func (self *Column) Type() int { return ExprColumn }
func (self *Column) Name() string {
	return self.Column
}
func (self *Column) String() string {
	if self.Relation == "" {
		return self.Column
	}
	return self.Relation + "." + self.Column
}

func (self *Alias) Type() int { return ExprAlias }
func (self *Alias) Name() string {
	return self.As
}
func (self *Alias) String() string {
	return self.Input.String() + " as " + self.As
}

func (self *Ident) Type() int { return ExprIdent }
func (self *Ident) Name() string {
	return self.Id
}
func (self *Ident) String() string {
	return self.Id
}

func (self *Scalar) Type() int { return ExprScalar }
func (self *Scalar) Name() string {
	return sql.PrintExpr(self.Expr)
}
func (self *Scalar) String() string {
	return sql.PrintExpr(self.Expr)
}

func (self *AggCall) Type() int { return ExprAggCall }
func (self *AggCall) Name() string {
	return self.String()
}
func (self *AggCall) String() string {
	args := make([]string, 0, len(self.Args))
	for _, a := range self.Args {
		args = append(args, a.String())
	}
	d := ""
	if self.Distinct {
		d = "distinct "
	}
	return self.Func + "(" + d + strings.Join(args, ", ") + ")"
}

// Unalias strips alias wrappers from an expression
func Unalias(e Expr) Expr {
	for e.Type() == ExprAlias {
		e = e.(*Alias).Input
	}
	return e
}

// ---------------------------------------------------------------------------
// column reference collection, used by the operator constructors to verify
// that an expression resolves against its input schema
// ---------------------------------------------------------------------------

type colCollector struct {
	out []Column
}

func (self *colCollector) AcceptConst(*sql.Const) (bool, error) { return true, nil }

func (self *colCollector) AcceptRef(n *sql.Ref) (bool, error) {
	if n.Id == "*" {
		return true, nil
	}
	// a resolved reference carries its canonical name, which wins over the
	// textual form
	if n.CanName.IsSet() {
		self.out = append(self.out, Column{
			Relation: n.CanName.Table,
			Column:   n.CanName.Name,
		})
		return true, nil
	}
	self.out = append(self.out, Column{Column: n.Id})
	return true, nil
}

func (self *colCollector) AcceptSuffix(*sql.Suffix) (bool, error) { return true, nil }

func (self *colCollector) AcceptPrimary(n *sql.Primary) (bool, error) {
	// a leading identifier followed by a dot is a qualified column reference,
	// a leading identifier followed by a call is a function invocation whose
	// name is not a column
	ref, isRef := n.Leading.(*sql.Ref)
	if isRef && len(n.Suffix) > 0 {
		switch n.Suffix[0].Ty {
		case sql.SuffixDot:
			if n.CanName.IsSet() {
				self.out = append(self.out, Column{
					Relation: n.CanName.Table,
					Column:   n.CanName.Name,
				})
			} else {
				self.out = append(self.out, Column{
					Relation: ref.Id,
					Column:   n.Suffix[0].Component,
				})
			}
			// remaining suffixes, example as an index on the column, cannot
			// introduce new column references of their own
			for _, s := range n.Suffix[1:] {
				if err := self.walkSuffix(s); err != nil {
					return false, err
				}
			}
			return false, nil

		case sql.SuffixCall:
			for _, s := range n.Suffix {
				if err := self.walkSuffix(s); err != nil {
					return false, err
				}
			}
			return false, nil

		default:
			break
		}
	}
	return true, nil
}

func (self *colCollector) walkSuffix(s *sql.Suffix) error {
	switch s.Ty {
	case sql.SuffixCall:
		for _, p := range s.Call.Parameters {
			if err := sql.VisitExprPreOrder(self, p); err != nil {
				return err
			}
		}
		return nil
	case sql.SuffixIndex:
		return sql.VisitExprPreOrder(self, s.Index)
	default:
		return nil
	}
}

func (self *colCollector) AcceptUnary(*sql.Unary) (bool, error)     { return true, nil }
func (self *colCollector) AcceptBinary(*sql.Binary) (bool, error)   { return true, nil }
func (self *colCollector) AcceptTernary(*sql.Ternary) (bool, error) { return true, nil }

// ExprColumns returns every input column a plan expression references
func ExprColumns(e Expr) []Column {
	switch e.Type() {
	case ExprColumn:
		return []Column{*e.(*Column)}

	case ExprAlias:
		return ExprColumns(e.(*Alias).Input)

	case ExprIdent:
		// an ident matches a column by raw name, without qualification
		return []Column{{Column: e.(*Ident).Id}}

	case ExprScalar:
		c := &colCollector{}
		// the visitor never fails
		_ = sql.VisitExprPreOrder(c, e.(*Scalar).Expr)
		return c.out

	case ExprAggCall:
		out := []Column{}
		for _, a := range e.(*AggCall).Args {
			out = append(out, ExprColumns(a)...)
		}
		return out

	default:
		return nil
	}
}
