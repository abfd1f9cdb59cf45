package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParserSelect(t *testing.T) {
	assert := assert.New(t)

	one := func(code string) *Select {
		c, err := Parse(code)
		assert.NoError(err, "code(%s)", code)
		if c == nil {
			return nil
		}
		return c.Select
	}

	{
		s := one("select * from orders")
		assert.NotNil(s)
		assert.True(s.Projection.HasStar())
		assert.Equal(1, len(s.From.VarList))
		assert.Equal("orders", s.From.VarList[0].Path())
		assert.Equal("orders", s.From.VarList[0].Bind())
	}

	{
		s := one("select a, b as bb from t as x")
		assert.Equal(2, len(s.Projection.ValueList))
		col := s.Projection.ValueList[1].(*Col)
		assert.Equal("bb", col.Alias())
		assert.Equal("x", s.From.VarList[0].Bind())
	}

	{
		s := one("select distinct a from t")
		assert.True(s.Distinct)
	}

	{
		// dotted relation name
		s := one("select * from wrenai.spider.orders as o")
		assert.Equal("wrenai.spider.orders", s.From.VarList[0].Path())
		assert.Equal("o", s.From.VarList[0].Bind())
	}

	{
		s := one(
			"select a from t where a > 10 group by a having count(*) > 1 " +
				"order by a desc limit 5",
		)
		assert.NotNil(s.Where)
		assert.NotNil(s.GroupBy)
		assert.NotNil(s.Having)
		assert.NotNil(s.OrderBy)
		assert.Equal(OrderDesc, s.OrderBy.Order)
		assert.NotNil(s.Limit)
		assert.Equal(int64(5), s.Limit.Limit)
	}
}

func TestParserJoin(t *testing.T) {
	assert := assert.New(t)

	c, err := Parse(
		"select o.custkey from orders as o join customer as c on o.custkey = c.custkey",
	)
	assert.NoError(err)

	from := c.Select.From
	assert.Equal(2, len(from.VarList))
	assert.Equal("o", from.VarList[0].Bind())
	assert.Equal("c", from.VarList[1].Bind())
	assert.Nil(from.VarList[0].On)
	assert.NotNil(from.VarList[1].On)
	assert.Equal(JoinInner, from.VarList[1].Join)

	// join without on is rejected
	_, err = Parse("select * from a join b")
	assert.Error(err)

	// comma list, condition comes from where
	c, err = Parse("select * from a, b where a.k = b.k")
	assert.NoError(err)
	assert.Equal(2, len(c.Select.From.VarList))
	assert.Nil(c.Select.From.VarList[1].On)
}

func TestParserError(t *testing.T) {
	assert := assert.New(t)

	one := func(code string) {
		_, err := Parse(code)
		assert.Error(err, "code(%s)", code)
	}

	one("select a")                    // missing from
	one("select from t")               // missing projection
	one("select * from")               // missing relation
	one("select * from t from t")      // duplicated from
	one("select * from t where")       // missing condition
	one("select * from t limit a")     // limit wants an integer
	one("select * from t select")      // dangling code
	one("select *, * from t")          // duplicated wildcard
	one("select foo(*) from t")        // wildcard only inside of agg call
	one("select * from t where a in ()")
}

func TestParserExpr(t *testing.T) {
	assert := assert.New(t)

	one := func(code string) Expr {
		e, err := ParseExpr(code)
		assert.NoError(err, "code(%s)", code)
		return e
	}

	// precedence
	assert.Equal("(a + (b * c))", PrintExpr(one("a + b * c")))
	assert.Equal("((a + b) * c)", PrintExpr(one("(a + b) * c")))
	assert.Equal("((a = 1) and (b = 2))", PrintExpr(one("a = 1 and b = 2")))
	assert.Equal("((a and b) or c)", PrintExpr(one("a and b or c")))

	// dot and call suffix
	assert.Equal("t.col", PrintExpr(one("t.col")))
	assert.Equal("sum(o.price)", PrintExpr(one("sum(o.price)")))
	assert.Equal("count(*)", PrintExpr(one("count(*)")))

	// between desugars into a range check
	assert.Equal(
		"((a >= 1) and (a <= 10))",
		PrintExpr(one("a between 1 and 10")),
	)
	assert.Equal(
		"not ((a >= 1) and (a <= 10))",
		PrintExpr(one("a not between 1 and 10")),
	)

	// in desugars into a disjunction of equality
	assert.Equal(
		"((a = 1) or (a = 2))",
		PrintExpr(one("a in (1, 2)")),
	)
	assert.Equal(
		"not (a = 1)",
		PrintExpr(one("a not in (1)")),
	)

	// like stays as a binary operator
	assert.Equal("(a like 'x%')", PrintExpr(one("a like 'x%'")))
	assert.Equal("(a not like 'x%')", PrintExpr(one("a not like 'x%'")))

	// ternary renders as a case expression
	assert.Equal(
		"case when (a > 0) then a else 0 end",
		PrintExpr(one("a > 0 ? a : 0")),
	)

	// string quote escape
	assert.Equal("'it''s'", PrintExpr(one("'it\\'s'")))
}

func TestParserExprError(t *testing.T) {
	assert := assert.New(t)

	one := func(code string) {
		_, err := ParseExpr(code)
		assert.Error(err, "code(%s)", code)
	}

	one("a +")
	one("a between 1")
	one("a not 1")
	one("a ? b")
	one("(a")
	one("a b")
}
