package plan

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// plan tree dump, one operator per line, children indented under the parent

type printer struct {
	buf   bytes.Buffer
	color bool
}

func (self *printer) opName(n string) string {
	if self.color {
		return color.New(color.FgGreen, color.Bold).Sprint(n)
	}
	return n
}

func (self *printer) attr(n string) string {
	if self.color {
		return color.New(color.FgCyan).Sprint(n)
	}
	return n
}

func exprListText(list []Expr) string {
	parts := make([]string, 0, len(list))
	for _, e := range list {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

func (self *printer) describe(p Plan) string {
	switch p.Kind() {
	case KindTableScan:
		n := p.(*TableScan)
		out := fmt.Sprintf("%s: %s", self.opName("TableScan"), self.attr(n.Source.Table))
		if len(n.Filters) > 0 {
			out += fmt.Sprintf(" filters=[%s]", exprListText(n.Filters))
		}
		return out

	case KindProjection:
		n := p.(*Projection)
		return fmt.Sprintf("%s: %s", self.opName("Projection"), exprListText(n.Exprs))

	case KindFilter:
		n := p.(*Filter)
		return fmt.Sprintf("%s: %s", self.opName("Filter"), n.Predicate.String())

	case KindAggregate:
		n := p.(*Aggregate)
		return fmt.Sprintf(
			"%s: groupBy=[%s] aggr=[%s]",
			self.opName("Aggregate"),
			exprListText(n.GroupExprs),
			exprListText(n.AggExprs),
		)

	case KindSubqueryAlias:
		n := p.(*SubqueryAlias)
		return fmt.Sprintf("%s: %s", self.opName("SubqueryAlias"), self.attr(n.Alias))

	case KindWindow:
		n := p.(*Window)
		return fmt.Sprintf("%s: %s", self.opName("Window"), exprListText(n.WindowExprs))

	case KindDistinctOn:
		n := p.(*DistinctOn)
		if len(n.OnExprs) == 0 {
			return self.opName("Distinct")
		}
		return fmt.Sprintf("%s: on=[%s]", self.opName("DistinctOn"), exprListText(n.OnExprs))

	case KindSort:
		n := p.(*Sort)
		parts := []string{}
		for _, k := range n.Keys {
			dir := "asc"
			if !k.Asc {
				dir = "desc"
			}
			parts = append(parts, k.Expr.String()+" "+dir)
		}
		return fmt.Sprintf("%s: %s", self.opName("Sort"), strings.Join(parts, ", "))

	case KindLimit:
		n := p.(*Limit)
		return fmt.Sprintf("%s: %d", self.opName("Limit"), n.Fetch)

	case KindJoin:
		n := p.(*Join)
		jt := "inner"
		if n.JoinType == JoinLeft {
			jt = "left"
		}
		return fmt.Sprintf("%s: %s on %s", self.opName("Join"), jt, n.On.String())

	case KindExtension:
		n := p.(*Extension)
		return fmt.Sprintf(
			"%s: %s %s",
			self.opName("Extension"),
			self.attr(n.Node.Name()),
			n.Schema().String(),
		)

	default:
		return self.opName("Unknown")
	}
}

func (self *printer) print(p Plan, indent int) {
	self.buf.WriteString(strings.Repeat("  ", indent))
	self.buf.WriteString(self.describe(p))
	self.buf.WriteString("\n")
	for _, in := range p.Inputs() {
		self.print(in, indent+1)
	}
}

func Print(p Plan) string {
	pr := &printer{}
	pr.print(p, 0)
	return pr.buf.String()
}

func PrintColor(p Plan) string {
	pr := &printer{color: true}
	pr.print(p, 0)
	return pr.buf.String()
}
