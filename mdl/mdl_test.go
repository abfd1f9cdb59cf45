package mdl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifestJSON = `{
  "catalog": "wrenai",
  "schema": "spider",
  "models": [
    {
      "name": "orders",
      "columns": [
        {"name": "o_orderkey", "type": "integer"},
        {"name": "o_custkey", "type": "integer"},
        {"name": "o_totalprice", "type": "double"},
        {
          "name": "discounted_price",
          "type": "double",
          "expression": "o_totalprice * 0.9",
          "isCalculated": true
        },
        {"name": "customer", "type": "customer", "relationship": "orders_customer"}
      ],
      "primaryKey": "o_orderkey"
    },
    {
      "name": "customer",
      "tableReference": "tpch.customer",
      "columns": [
        {"name": "custkey", "type": "integer"},
        {"name": "name", "type": "varchar"}
      ],
      "primaryKey": "custkey"
    }
  ],
  "relationships": [
    {
      "name": "orders_customer",
      "models": ["orders", "customer"],
      "joinType": "MANY_TO_ONE",
      "condition": "orders.o_custkey = customer.custkey"
    }
  ],
  "metrics": [
    {
      "name": "revenue",
      "baseObject": "orders",
      "dimension": [{"name": "o_custkey", "type": "integer"}],
      "measure": [
        {"name": "total", "type": "double", "expression": "sum(o_totalprice)"}
      ]
    }
  ]
}`

const testManifestYAML = `
catalog: wrenai
schema: spider
models:
  - name: orders
    columns:
      - name: o_orderkey
        type: integer
      - name: o_custkey
        type: integer
      - name: o_totalprice
        type: double
      - name: discounted_price
        type: double
        expression: o_totalprice * 0.9
        isCalculated: true
      - name: customer
        type: customer
        relationship: orders_customer
    primaryKey: o_orderkey
  - name: customer
    tableReference: tpch.customer
    columns:
      - name: custkey
        type: integer
      - name: name
        type: varchar
    primaryKey: custkey
relationships:
  - name: orders_customer
    models: [orders, customer]
    joinType: MANY_TO_ONE
    condition: orders.o_custkey = customer.custkey
metrics:
  - name: revenue
    baseObject: orders
    dimension:
      - name: o_custkey
        type: integer
    measure:
      - name: total
        type: double
        expression: sum(o_totalprice)
`

func testAnalyzed(t *testing.T) *Analyzed {
	m, err := ParseManifest([]byte(testManifestJSON))
	require.NoError(t, err)
	a, err := Analyze(m)
	require.NoError(t, err)
	return a
}

func TestManifestDecode(t *testing.T) {
	assert := assert.New(t)

	j, err := ParseManifest([]byte(testManifestJSON))
	assert.NoError(err)

	y, err := ParseManifestYAML([]byte(testManifestYAML))
	assert.NoError(err)

	// both formats decode into the very same manifest
	assert.Equal(j, y)

	assert.Equal("wrenai", j.Catalog)
	assert.Equal(2, len(j.Models))
	assert.Equal(1, len(j.Relationships))
	assert.Equal(1, len(j.Metrics))

	orders := j.Models[0]
	assert.Equal("orders", orders.Name)
	assert.True(orders.GetColumn("discounted_price").IsCalculated)
	assert.Nil(orders.GetColumn("nosuch"))

	// calculated and relationship columns are not physical
	names := []string{}
	for _, c := range orders.PhysicalColumns() {
		names = append(names, c.Name)
	}
	assert.Equal([]string{"o_orderkey", "o_custkey", "o_totalprice"}, names)

	_, err = ParseManifest([]byte("{"))
	assert.Error(err)
	_, err = ParseManifestYAML([]byte(":"))
	assert.Error(err)
}

func TestAnalyze(t *testing.T) {
	assert := assert.New(t)

	a := testAnalyzed(t)

	assert.NotNil(a.GetModel("orders"))
	assert.Nil(a.GetModel("nosuch"))

	m, err := a.RequireModel("customer")
	assert.NoError(err)
	assert.Equal("customer", m.Name)

	_, err = a.RequireModel("nosuch")
	assert.Error(err)
	assert.True(errors.Is(err, ErrModelNotFound))
	assert.Contains(err.Error(), "nosuch")

	assert.NotNil(a.GetRelationship("orders_customer"))
	assert.NotNil(a.GetMetric("revenue"))

	assert.Equal(1, len(a.RelationshipsOf("orders")))
	assert.NotNil(a.RelationshipBetween("customer", "orders"))
	assert.Nil(a.RelationshipBetween("orders", "orders"))

	// table path: explicit reference wins, otherwise catalog.schema.name
	assert.Equal("wrenai.spider.orders", a.QualifiedName(a.GetModel("orders")))
	assert.Equal("tpch.customer", a.QualifiedName(a.GetModel("customer")))
}

func TestAnalyzeError(t *testing.T) {
	assert := assert.New(t)

	one := func(m *Manifest) {
		_, err := Analyze(m)
		assert.Error(err)
	}

	col := func(n string) *Column { return &Column{Name: n, Type: "integer"} }

	// duplicated model
	one(&Manifest{Models: []*Model{
		{Name: "a", Columns: []*Column{col("x")}},
		{Name: "a", Columns: []*Column{col("x")}},
	}})

	// model without physical columns
	one(&Manifest{Models: []*Model{
		{Name: "a", Columns: []*Column{{Name: "x", IsCalculated: true}}},
	}})

	// relationship over an unknown model
	one(&Manifest{
		Models: []*Model{{Name: "a", Columns: []*Column{col("x")}}},
		Relationships: []*Relationship{
			{Name: "r", Models: []string{"a", "b"}, Condition: "a.x = b.x"},
		},
	})

	// metric over an unknown model
	one(&Manifest{
		Models:  []*Model{{Name: "a", Columns: []*Column{col("x")}}},
		Metrics: []*Metric{{Name: "m", BaseObject: "b"}},
	})
}

func TestQuoted(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(`"orders"`, Quoted("orders"))
	assert.Equal(`"a""b"`, Quoted(`a"b`))
}

func TestCreateRemoteTableSource(t *testing.T) {
	assert := assert.New(t)

	a := testAnalyzed(t)

	src, err := CreateRemoteTableSource(a.GetModel("orders"), a)
	assert.NoError(err)
	assert.Equal("wrenai.spider.orders", src.Table)
	assert.Equal([]string{"o_orderkey", "o_custkey", "o_totalprice"}, src.Columns)

	_, err = CreateRemoteTableSource(
		&Model{Name: "empty", Columns: []*Column{{Name: "c", IsCalculated: true}}},
		a,
	)
	assert.Error(err)
}
