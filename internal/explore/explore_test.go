package explore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/smartdoc/internal/apperr"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
	"github.com/KaramelBytes/smartdoc/internal/store"
)

var salesHeaders = []string{"region", "product", "amount"}

func salesRows() []ingest.Row {
	return []ingest.Row{
		{"region": "north", "product": "a", "amount": "10"},
		{"region": "south", "product": "a", "amount": "20"},
		{"region": "north", "product": "b", "amount": "30"},
		{"region": "south", "product": "b", "amount": "x"},
		{"region": "", "product": "a", "amount": "5"},
	}
}

func mustNormalize(t *testing.T, q Query) Query {
	t.Helper()
	q, err := q.Normalize()
	require.NoError(t, err)
	return q
}

func TestNumericFilterCountsRows(t *testing.T) {
	rows := []ingest.Row{{"amount": "10"}, {"amount": "20"}, {"amount": "30"}}
	var q Query
	require.NoError(t, json.Unmarshal([]byte(`{"filters":[{"column":"amount","operator":">","value":"15"}]}`), &q))
	res := Run([]string{"amount"}, rows, mustNormalize(t, q))
	assert.Equal(t, 2, res.RowsAfterFilter)
	assert.Equal(t, 2, res.TotalMatched)
	assert.Equal(t, ChartTable, res.RecommendedChart)
	assert.Equal(t, []string{"amount"}, res.Columns)
	assert.Equal(t, "SELECT * FROM data WHERE amount > 15 LIMIT 100", res.SQLEquivalent)
}

func TestValueDecoding(t *testing.T) {
	var f Filter
	require.NoError(t, json.Unmarshal([]byte(`{"column":"a","operator":"between","value":[1, 2.5]}`), &f))
	assert.Equal(t, Value{"1", "2.5"}, f.Value)
	require.NoError(t, json.Unmarshal([]byte(`{"column":"a","value":true}`), &f))
	assert.Equal(t, Value{"true"}, f.Value)
	assert.Error(t, json.Unmarshal([]byte(`{"column":"a","value":{"x":1}}`), &f))
}

func TestOperators(t *testing.T) {
	cases := []struct {
		name string
		f    Filter
		want int
	}{
		{"eq default", Filter{Column: "region", Value: Value{"north"}}, 2},
		{"double equals", Filter{Column: "region", Operator: "==", Value: Value{"south"}}, 2},
		{"not equal", Filter{Column: "region", Operator: "!=", Value: Value{"north"}}, 3},
		{"contains ignores case", Filter{Column: "region", Operator: "CONTAINS", Value: Value{"OUT"}}, 2},
		{"in", Filter{Column: "product", Operator: "in", Value: Value{"b", "z"}}, 2},
		{"between inclusive", Filter{Column: "amount", Operator: "between", Value: Value{"10", "20"}}, 2},
		{"non numeric cell excluded", Filter{Column: "amount", Operator: "<=", Value: Value{"100"}}, 4},
		{"unknown column excludes all", Filter{Column: "nope", Value: Value{"x"}}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Run(salesHeaders, salesRows(), mustNormalize(t, Query{Filters: []Filter{tc.f}}))
			assert.Equal(t, tc.want, res.RowsAfterFilter)
		})
	}
}

func TestNormalizeRejectsBadFilters(t *testing.T) {
	for _, f := range []Filter{
		{Column: "", Value: Value{"x"}},
		{Column: "a", Operator: "like", Value: Value{"x"}},
		{Column: "a", Operator: "between", Value: Value{"1"}},
		{Column: "a", Operator: "in", Value: Value{}},
	} {
		_, err := Query{Filters: []Filter{f}}.Normalize()
		assert.True(t, apperr.IsValidation(err), "%+v", f)
	}
	_, err := Query{SplitBy: "x"}.Normalize()
	assert.True(t, apperr.IsValidation(err))
	_, err = Query{Sort: &Sort{Column: "a", Direction: "up"}}.Normalize()
	assert.True(t, apperr.IsValidation(err))
}

func TestNonNumericOperandMatchesNothing(t *testing.T) {
	for _, f := range []Filter{
		{Column: "amount", Operator: ">", Value: Value{"abc"}},
		{Column: "amount", Operator: "<=", Value: Value{"ten"}},
		{Column: "amount", Operator: "between", Value: Value{"1", "high"}},
		{Column: "amount", Operator: "between", Value: Value{"low", "100"}},
	} {
		q := mustNormalize(t, Query{Filters: []Filter{f}})
		res := Run(salesHeaders, salesRows(), q)
		assert.Equal(t, 0, res.RowsAfterFilter, "%+v", f)
		assert.Empty(t, res.Results, "%+v", f)
	}
}

func TestCamelCaseGrouping(t *testing.T) {
	var q Query
	require.NoError(t, json.Unmarshal([]byte(`{"groupBy":"region","splitBy":"product","metric":"amount"}`), &q))
	assert.Equal(t, "region", q.GroupBy)
	assert.Equal(t, "product", q.SplitBy)

	require.NoError(t, json.Unmarshal([]byte(`{"group_by":"product","groupBy":"region"}`), &q))
	assert.Equal(t, "product", q.GroupBy, "snake_case wins when both are set")

	assert.Error(t, json.Unmarshal([]byte(`{"group":"region"}`), &q))
}

func TestGroupedBarSortedDescending(t *testing.T) {
	q := mustNormalize(t, Query{GroupBy: "region", Metric: "amount"})
	res := Run(salesHeaders, salesRows(), q)
	assert.Equal(t, ChartBar, res.RecommendedChart)
	assert.Equal(t, []map[string]any{
		{"region": "north", "amount": 40.0},
		{"region": "south", "amount": 20.0},
	}, res.Results)
	assert.Equal(t, "SELECT region, SUM(amount) FROM data GROUP BY region ORDER BY 2 DESC LIMIT 100", res.SQLEquivalent)
}

func TestPivot(t *testing.T) {
	q := mustNormalize(t, Query{GroupBy: "region", SplitBy: "product", Metric: "amount", Agg: "max"})
	res := Run(salesHeaders, salesRows(), q)
	assert.Equal(t, ChartGroupedBar, res.RecommendedChart)
	assert.Equal(t, []map[string]any{
		{"region": "north", "a": 10.0, "b": 30.0},
		{"region": "south", "a": 20.0, "b": 0.0},
	}, res.Results)
}

func TestKPIAndLegacyAggregate(t *testing.T) {
	q := mustNormalize(t, Query{Aggregate: map[string]string{"amount": "avg"}})
	res := Run(salesHeaders, salesRows(), q)
	assert.Equal(t, ChartKPI, res.RecommendedChart)
	assert.Equal(t, []map[string]any{{"amount": 16.25}}, res.Results)
	assert.Equal(t, "SELECT AVG(amount) FROM data", res.SQLEquivalent)

	res = Run(salesHeaders, salesRows(), mustNormalize(t, Query{Metric: "amount", Agg: "median"}))
	assert.Equal(t, []map[string]any{{"amount": 65.0}}, res.Results, "unknown aggregations sum")

	res = Run(salesHeaders, salesRows(), mustNormalize(t, Query{Metric: "product", Agg: "min"}))
	assert.Nil(t, res.Results[0]["product"])
	assert.NotEmpty(t, res.Message)
}

func TestUnknownMetricDegrades(t *testing.T) {
	res := Run(salesHeaders, salesRows(), mustNormalize(t, Query{Metric: "profit"}))
	assert.Empty(t, res.Results)
	assert.Equal(t, 5, res.RowsAfterFilter)
	assert.Contains(t, res.Message, "profit")
}

func TestSortAndLimit(t *testing.T) {
	q := mustNormalize(t, Query{
		Filters: []Filter{{Column: "amount", Operator: ">=", Value: Value{"0"}}},
		Sort:    &Sort{Column: "amount", Direction: "desc"},
		Limit:   2,
	})
	res := Run(salesHeaders, salesRows(), q)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "30", res.Results[0]["amount"])
	assert.Equal(t, "20", res.Results[1]["amount"])
	assert.Equal(t, 4, res.RowsAfterFilter)
}

func TestSQLQuoting(t *testing.T) {
	q := mustNormalize(t, Query{Filters: []Filter{
		{Column: "Order Date", Operator: "in", Value: Value{"O'Brien", "7"}},
		{Column: "x", Operator: "contains", Value: Value{"Ab"}},
	}})
	assert.Equal(t, `SELECT * FROM data WHERE "Order Date" IN ('O''Brien', 7) AND LOWER(x) LIKE '%ab%' LIMIT 100`, SQL(q))
}

func TestExecuteSavesView(t *testing.T) {
	reg := store.New()
	id := reg.Create(salesHeaders, salesRows())
	res, err := Execute(reg, id, Query{Metric: "amount", SaveAsView: "total"})
	require.NoError(t, err)
	assert.Equal(t, "total", res.SaveAsView)
	views, err := reg.Views(id)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "total", views[0].Name)

	_, err = Execute(reg, "missing", Query{})
	assert.True(t, apperr.IsNotFound(err))
	_, err = Execute(reg, id, Query{Limit: -1})
	assert.True(t, apperr.IsValidation(err))
}
