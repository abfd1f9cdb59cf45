package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/misselvexu/mixai-wren-engine/sql"
)

func testScan(t *testing.T) *TableScan {
	s, err := NewTableScan(
		&TableSource{
			Table:   "db.orders",
			Columns: []string{"o_orderkey", "o_custkey", "o_totalprice"},
		},
		nil,
	)
	assert.NoError(t, err)
	return s
}

func scalar(t *testing.T, code string) *Scalar {
	e, err := sql.ParseExpr(code)
	assert.NoError(t, err)
	return NewScalar(e)
}

func TestSchema(t *testing.T) {
	assert := assert.New(t)

	s := NewSchema(
		Field{Relation: "a", Name: "x"},
		Field{Relation: "a", Name: "y"},
		Field{Relation: "b", Name: "y"},
	)

	{
		idx, err := s.Index("a", "x")
		assert.NoError(err)
		assert.Equal(0, idx)
	}
	{
		// unqualified and unique
		idx, err := s.Index("", "x")
		assert.NoError(err)
		assert.Equal(0, idx)
	}
	{
		// unqualified but lives in two relations
		_, err := s.Index("", "y")
		assert.Error(err)
	}
	{
		idx, err := s.Index("b", "y")
		assert.NoError(err)
		assert.Equal(2, idx)
	}
	{
		_, err := s.Index("", "zzz")
		assert.Error(err)
	}

	q := s.Qualify("m")
	assert.Equal("m", q.Fields[0].Relation)
	assert.Equal("m", q.Fields[2].Relation)
	assert.Equal([]string{"x", "y", "y"}, q.Names())

	assert.True(s.Equal(s))
	assert.False(s.Equal(q))
}

func TestTableScan(t *testing.T) {
	assert := assert.New(t)

	s := testScan(t)
	assert.Equal(KindTableScan, s.Kind())
	assert.Equal("orders", s.Source.Bind())
	assert.Equal(
		[]string{"o_orderkey", "o_custkey", "o_totalprice"},
		s.Schema().Names(),
	)
	assert.Equal("orders", s.Schema().Fields[0].Relation)

	// filter column must exist on the scanned table
	_, err := NewTableScan(
		s.Source,
		[]Expr{scalar(t, "orders.nosuch > 1")},
	)
	assert.Error(err)

	_, err = NewTableScan(&TableSource{Table: "t"}, nil)
	assert.Error(err)
}

func TestProjection(t *testing.T) {
	assert := assert.New(t)

	s := testScan(t)

	p, err := NewProjection(s, []Expr{
		NewColumn("orders", "o_orderkey"),
		NewAlias(NewColumn("orders", "o_totalprice"), "price"),
		scalar(t, "o_totalprice * 2"),
	})
	assert.NoError(err)

	assert.Equal(
		[]string{"o_orderkey", "price", "(o_totalprice * 2)"},
		p.Schema().Names(),
	)
	// a plain column reference keeps its qualifier, derived columns do not
	assert.Equal("orders", p.Schema().Fields[0].Relation)
	assert.Equal("", p.Schema().Fields[1].Relation)

	_, err = NewProjection(s, []Expr{NewColumn("orders", "nosuch")})
	assert.Error(err)

	_, err = NewProjection(s, nil)
	assert.Error(err)
}

func TestAggregate(t *testing.T) {
	assert := assert.New(t)

	s := testScan(t)

	a, err := NewAggregate(
		s,
		[]Expr{NewColumn("orders", "o_custkey")},
		[]Expr{NewAggCall("sum", NewColumn("orders", "o_totalprice"))},
	)
	assert.NoError(err)
	assert.Equal(
		[]string{"o_custkey", "sum(orders.o_totalprice)"},
		a.Schema().Names(),
	)

	// the aggregated column can be picked up again by its rendered name
	p, err := NewProjection(a, []Expr{
		NewColumn("orders", "o_custkey"),
		NewAlias(NewIdent("sum(orders.o_totalprice)"), "total"),
	})
	assert.NoError(err)
	assert.Equal([]string{"o_custkey", "total"}, p.Schema().Names())

	// non aggregate expression in the aggregate list
	_, err = NewAggregate(
		s,
		nil,
		[]Expr{NewColumn("orders", "o_custkey")},
	)
	assert.Error(err)

	_, err = NewAggregate(s, nil, nil)
	assert.Error(err)
}

func TestSubqueryAlias(t *testing.T) {
	assert := assert.New(t)

	s := testScan(t)
	a, err := NewSubqueryAlias(s, `"Orders"`)
	assert.NoError(err)

	for _, f := range a.Schema().Fields {
		assert.Equal(`"Orders"`, f.Relation)
	}

	_, err = NewSubqueryAlias(s, "")
	assert.Error(err)
}

func TestJoin(t *testing.T) {
	assert := assert.New(t)

	left, err := NewTableScan(
		&TableSource{Table: "orders", Columns: []string{"custkey", "price"}},
		nil,
	)
	assert.NoError(err)
	right, err := NewTableScan(
		&TableSource{Table: "customer", Columns: []string{"custkey", "name"}},
		nil,
	)
	assert.NoError(err)

	j, err := NewJoin(
		left,
		right,
		JoinInner,
		scalar(t, "orders.custkey = customer.custkey"),
	)
	assert.NoError(err)
	assert.Equal(4, j.Schema().Len())

	_, err = NewJoin(left, right, JoinInner, scalar(t, "orders.custkey = customer.nosuch"))
	assert.Error(err)
}

func TestBuilder(t *testing.T) {
	assert := assert.New(t)

	p, err := From(testScan(t)).
		Filter(scalar(t, "o_totalprice > 100")).
		Project(
			NewColumn("orders", "o_custkey"),
			NewColumn("orders", "o_totalprice"),
		).
		Alias("big_orders").
		Build()
	assert.NoError(err)

	assert.Equal(KindSubqueryAlias, p.Kind())
	assert.Equal([]string{"o_custkey", "o_totalprice"}, p.Schema().Names())
	assert.Equal("big_orders", p.Schema().Fields[0].Relation)

	// first error latches
	_, err = From(testScan(t)).
		Project(NewColumn("orders", "nosuch")).
		Alias("x").
		Build()
	assert.Error(err)
}

func TestPrint(t *testing.T) {
	assert := assert.New(t)

	p, err := From(testScan(t)).
		Project(NewColumn("orders", "o_custkey")).
		Alias("o").
		Build()
	assert.NoError(err)

	out := Print(p)
	assert.Contains(out, "SubqueryAlias: o")
	assert.Contains(out, "Projection: orders.o_custkey")
	assert.Contains(out, "TableScan: db.orders")
}
