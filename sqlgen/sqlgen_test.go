package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misselvexu/mixai-wren-engine/analyze"
	"github.com/misselvexu/mixai-wren-engine/mdl"
	"github.com/misselvexu/mixai-wren-engine/plan"
	"github.com/misselvexu/mixai-wren-engine/sql"
)

func testSource() *plan.TableSource {
	return &plan.TableSource{
		Table:   "db.orders",
		Columns: []string{"o_orderkey", "o_custkey", "o_totalprice"},
	}
}

func scalar(t *testing.T, code string) *plan.Scalar {
	e, err := sql.ParseExpr(code)
	require.NoError(t, err)
	return plan.NewScalar(e)
}

func col(rel string, name string) *plan.Column {
	return plan.NewColumn(rel, name)
}

func TestGenScanFilterProject(t *testing.T) {
	assert := assert.New(t)

	p, err := plan.Scan(testSource(), []plan.Expr{scalar(t, "o_totalprice > 100")}).
		Alias("o").
		Project(col("o", "o_orderkey")).
		Build()
	assert.NoError(err)

	out, err := Generate(p)
	assert.NoError(err)
	assert.Equal(
		"select o.o_orderkey from "+
			"(select * from db.orders where (o_totalprice > 100)) as o",
		out,
	)
}

func TestGenAggregate(t *testing.T) {
	assert := assert.New(t)

	group := []plan.Expr{col("o", "o_custkey")}
	aggs := []plan.Expr{plan.NewAggCall("sum", col("o", "o_totalprice"))}

	// a projection on top splices the aggregate call into the select list
	p, err := plan.Scan(testSource(), nil).
		Alias("o").
		Aggregate(group, aggs).
		Project(
			col("o", "o_custkey"),
			plan.NewAlias(plan.NewIdent("sum(o.o_totalprice)"), "total"),
		).
		Build()
	assert.NoError(err)

	out, err := Generate(p)
	assert.NoError(err)
	assert.Equal(
		"select o.o_custkey, sum(o.o_totalprice) as total from "+
			"(select * from db.orders) as o group by o.o_custkey",
		out,
	)

	// without a projection the aggregate emits its own select list, the
	// derived column name is kept through quoting
	p, err = plan.Scan(testSource(), nil).
		Alias("o").
		Aggregate(group, aggs).
		Build()
	assert.NoError(err)

	out, err = Generate(p)
	assert.NoError(err)
	assert.Equal(
		"select o.o_custkey, sum(o.o_totalprice) as \"sum(o.o_totalprice)\" "+
			"from (select * from db.orders) as o group by o.o_custkey",
		out,
	)
}

func TestGenJoin(t *testing.T) {
	assert := assert.New(t)

	right, err := plan.Scan(testSource(), nil).Alias("b").Build()
	assert.NoError(err)

	p, err := plan.Scan(testSource(), nil).
		Alias("a").
		Join(right, plan.JoinInner, scalar(t, "a.o_orderkey = b.o_orderkey")).
		Project(col("a", "o_custkey")).
		Build()
	assert.NoError(err)

	out, err := Generate(p)
	assert.NoError(err)
	assert.Equal(
		"select a.o_custkey from "+
			"(select * from db.orders) as a inner join "+
			"(select * from db.orders) as b on (a.o_orderkey = b.o_orderkey)",
		out,
	)
}

func TestGenSortLimitDistinct(t *testing.T) {
	assert := assert.New(t)

	p, err := plan.Scan(testSource(), nil).
		Alias("o").
		Project(col("o", "o_custkey")).
		Distinct().
		Sort(plan.SortKey{Expr: col("", "o_custkey"), Asc: false}).
		Limit(5).
		Build()
	assert.NoError(err)

	out, err := Generate(p)
	assert.NoError(err)
	assert.Equal(
		"select distinct o.o_custkey from "+
			"(select * from db.orders) as o order by o_custkey desc limit 5",
		out,
	)
}

func TestGenDistinctOn(t *testing.T) {
	assert := assert.New(t)

	p, err := plan.Scan(testSource(), nil).
		Alias("o").
		DistinctOn(col("o", "o_custkey")).
		Build()
	assert.NoError(err)

	out, err := Generate(p)
	assert.NoError(err)
	assert.Equal(
		"select distinct on (o.o_custkey) * from "+
			"(select * from db.orders) as o",
		out,
	)
}

func TestGenHavingWraps(t *testing.T) {
	assert := assert.New(t)

	// a filter above a projection cannot merge into the same statement, it
	// wraps the projection into a derived table
	p, err := plan.Scan(testSource(), nil).
		Alias("o").
		Aggregate(
			[]plan.Expr{col("o", "o_custkey")},
			[]plan.Expr{plan.NewAggCall("sum", col("o", "o_totalprice"))},
		).
		Project(
			col("o", "o_custkey"),
			plan.NewAlias(plan.NewIdent("sum(o.o_totalprice)"), "total"),
		).
		Filter(scalar(t, "total > 10")).
		Build()
	assert.NoError(err)

	out, err := Generate(p)
	assert.NoError(err)
	assert.Equal(
		"select * from (select o.o_custkey, sum(o.o_totalprice) as total "+
			"from (select * from db.orders) as o group by o.o_custkey) as t0 "+
			"where (total > 10)",
		out,
	)
}

// stubNode stands in for a semantic node the rewrite failed to erase
type stubNode struct{}

func (self *stubNode) Name() string        { return "Stub" }
func (self *stubNode) Schema() *plan.Schema { return plan.NewSchema(plan.Field{Name: "x"}) }
func (self *stubNode) Inputs() []plan.Plan { return nil }
func (self *stubNode) WithInputs([]plan.Plan) (plan.ExtensionNode, error) {
	return self, nil
}

func TestGenResidualExtension(t *testing.T) {
	assert := assert.New(t)

	_, err := Generate(plan.NewExtension(&stubNode{}))
	assert.Error(err)
	assert.Contains(err.Error(), "Stub")
}

const genManifest = `{
  "catalog": "wrenai",
  "schema": "spider",
  "models": [
    {
      "name": "orders",
      "columns": [
        {"name": "o_orderkey", "type": "integer"},
        {"name": "o_custkey", "type": "integer"},
        {"name": "o_totalprice", "type": "double"}
      ],
      "primaryKey": "o_orderkey"
    }
  ]
}`

func TestGenPipeline(t *testing.T) {
	assert := assert.New(t)

	m, err := mdl.ParseManifest([]byte(genManifest))
	require.NoError(t, err)
	analyzed, err := mdl.Analyze(m)
	require.NoError(t, err)

	code, err := sql.Parse(
		"select o_custkey, sum(o_totalprice) as total from orders " +
			"group by o_custkey",
	)
	require.NoError(t, err)

	bound, err := analyze.NewModelAnalyzeRule(analyzed).Bind(code)
	require.NoError(t, err)

	resolved, err := analyze.GenerateModel(bound, analyzed)
	require.NoError(t, err)

	out, err := Generate(resolved.Plan)
	assert.NoError(err)
	assert.Contains(out, "wrenai.spider.orders")
	assert.Contains(out, "group by")
	assert.Contains(out, "as total")
}
