package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformOrder(t *testing.T) {
	assert := assert.New(t)

	p, err := From(testScan(t)).
		Project(NewColumn("orders", "o_custkey")).
		Alias("o").
		Build()
	assert.NoError(err)

	record := func(order *[]int) TransformFunc {
		return func(n Plan) (Transformed, error) {
			*order = append(*order, n.Kind())
			return Unchanged(n), nil
		}
	}

	{
		order := []int{}
		out, err := TransformUp(p, record(&order))
		assert.NoError(err)
		assert.False(out.Changed)
		assert.Equal(p, out.Plan)
		assert.Equal(
			[]int{KindTableScan, KindProjection, KindSubqueryAlias},
			order,
		)
	}

	{
		order := []int{}
		out, err := TransformDown(p, record(&order))
		assert.NoError(err)
		assert.False(out.Changed)
		assert.Equal(
			[]int{KindSubqueryAlias, KindProjection, KindTableScan},
			order,
		)
	}
}

func TestTransformRewrite(t *testing.T) {
	assert := assert.New(t)

	p, err := From(testScan(t)).
		Project(NewColumn("orders", "o_custkey")).
		Alias("o").
		Build()
	assert.NoError(err)

	// swap the base table for another one carrying the same columns, every
	// ancestor must be rebuilt against the new child
	replacement, err := NewTableScan(
		&TableSource{
			Table:   "other.orders",
			Columns: []string{"o_orderkey", "o_custkey", "o_totalprice"},
		},
		nil,
	)
	assert.NoError(err)

	out, err := TransformUp(p, func(n Plan) (Transformed, error) {
		if n.Kind() == KindTableScan {
			return Changed(replacement), nil
		}
		return Unchanged(n), nil
	})
	assert.NoError(err)
	assert.True(out.Changed)

	alias := out.Plan.(*SubqueryAlias)
	scan := alias.Input.(*Projection).Input.(*TableScan)
	assert.Equal("other.orders", scan.Source.Table)

	// a rewrite that breaks an ancestor's invariant surfaces the
	// constructor error
	narrow, err := NewTableScan(
		&TableSource{Table: "narrow", Columns: []string{"unrelated"}},
		nil,
	)
	assert.NoError(err)

	_, err = TransformUp(p, func(n Plan) (Transformed, error) {
		if n.Kind() == KindTableScan {
			return Changed(narrow), nil
		}
		return Unchanged(n), nil
	})
	assert.Error(err)
}

func TestTransformReplaceUnchanged(t *testing.T) {
	assert := assert.New(t)

	p, err := From(testScan(t)).
		Project(NewColumn("orders", "o_custkey")).
		Alias("o").
		Build()
	assert.NoError(err)

	// a rewrite may hand back a replacement node while reporting no change.
	// The replacement still has to end up wired into the parent, the flag
	// is only the change report
	replacement, err := NewTableScan(
		&TableSource{
			Table:   "other.orders",
			Columns: []string{"o_orderkey", "o_custkey", "o_totalprice"},
		},
		nil,
	)
	assert.NoError(err)

	out, err := TransformUp(p, func(n Plan) (Transformed, error) {
		if n.Kind() == KindTableScan {
			return Unchanged(replacement), nil
		}
		return Unchanged(n), nil
	})
	assert.NoError(err)
	assert.False(out.Changed)

	alias := out.Plan.(*SubqueryAlias)
	scan := alias.Input.(*Projection).Input.(*TableScan)
	assert.Equal("other.orders", scan.Source.Table)
}

func TestRecomputeSchema(t *testing.T) {
	assert := assert.New(t)

	p, err := From(testScan(t)).
		Project(NewColumn("orders", "o_custkey")).
		Alias("o").
		Build()
	assert.NoError(err)

	// wire in a new child behind the constructor's back, the alias schema
	// is stale until recomputed
	inner, err := From(testScan(t)).
		Project(
			NewColumn("orders", "o_custkey"),
			NewColumn("orders", "o_totalprice"),
		).
		Build()
	assert.NoError(err)

	alias := p.(*SubqueryAlias)
	alias.Input = inner
	assert.Equal(1, alias.Schema().Len())

	fixed, err := RecomputeSchema(alias)
	assert.NoError(err)
	assert.Equal(2, fixed.Schema().Len())
	assert.Equal("o", fixed.Schema().Fields[1].Relation)
}
