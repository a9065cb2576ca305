package explore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/smartdoc/internal/ingest"
	"github.com/KaramelBytes/smartdoc/internal/store"
)

// Chart shapes.
const (
	ChartGroupedBar = "grouped_bar"
	ChartBar        = "bar"
	ChartKPI        = "kpi"
	ChartTable      = "table"
)

// Result is an explore response. Results hold strings for raw rows and
// float64 for aggregates.
type Result struct {
	Results          []map[string]any `json:"results"`
	Columns          []string         `json:"columns"`
	RecommendedChart string           `json:"recommended_chart"`
	RowsAfterFilter  int              `json:"rows_after_filter"`
	TotalMatched     int              `json:"total_matched"`
	SQLEquivalent    string           `json:"sql_equivalent"`
	SaveAsView       string           `json:"save_as_view,omitempty"`
	Message          string           `json:"message,omitempty"`
}

// Run evaluates q over the rows. q must already be normalized.
func Run(headers []string, rows []ingest.Row, q Query) *Result {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	var kept []ingest.Row
	for _, r := range rows {
		if matchAll(r, known, q.Filters) {
			kept = append(kept, r)
		}
	}

	res := &Result{
		Columns:         append([]string(nil), headers...),
		RowsAfterFilter: len(kept),
		TotalMatched:    len(kept),
		SaveAsView:      q.SaveAsView,
		SQLEquivalent:   SQL(q),
	}

	for _, c := range []string{q.GroupBy, q.SplitBy, q.Metric} {
		if c != "" && !known[c] {
			res.Results = []map[string]any{}
			res.RecommendedChart = ChartTable
			res.Message = fmt.Sprintf("column %q is not in the dataset", c)
			return res
		}
	}

	switch {
	case q.Metric != "" && q.GroupBy != "" && q.SplitBy != "":
		res.RecommendedChart = ChartGroupedBar
		res.Results = pivot(kept, q)
	case q.Metric != "" && q.GroupBy != "":
		res.RecommendedChart = ChartBar
		res.Results = grouped(kept, q)
	case q.Metric != "":
		res.RecommendedChart = ChartKPI
		v, ok := aggregate(q.Agg, metricValues(kept, q.Metric))
		if !ok {
			res.Results = []map[string]any{{q.Metric: nil}}
			res.Message = fmt.Sprintf("no numeric values in %q", q.Metric)
		} else {
			res.Results = []map[string]any{{q.Metric: v}}
		}
	default:
		res.RecommendedChart = ChartTable
		out := make([]map[string]any, len(kept))
		for i, r := range kept {
			m := make(map[string]any, len(headers))
			for _, h := range headers {
				m[h] = r[h]
			}
			out[i] = m
		}
		res.Results = out
	}
	if q.Sort != nil {
		sortResults(res.Results, *q.Sort)
	}
	if len(res.Results) > q.Limit {
		res.Results = res.Results[:q.Limit]
	}
	return res
}

// Execute runs q against a stored dataset and records it as a saved view
// when the query asks to.
func Execute(reg *store.Registry, id string, q Query) (*Result, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	var res *Result
	err = reg.Read(id, func(ds store.Dataset) error {
		res = Run(ds.Headers, ds.Rows, q)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if q.SaveAsView != "" {
		if err := reg.SaveView(id, q.SaveAsView, q); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func matchAll(r ingest.Row, known map[string]bool, filters []Filter) bool {
	for _, f := range filters {
		if !known[f.Column] || !match(r[f.Column], f) {
			return false
		}
	}
	return true
}

func match(cell string, f Filter) bool {
	switch f.Operator {
	case OpEq:
		return cell == f.Value[0]
	case OpNe:
		return cell != f.Value[0]
	case OpContains:
		return strings.Contains(strings.ToLower(cell), strings.ToLower(f.Value[0]))
	case OpIn:
		for _, v := range f.Value {
			if cell == v {
				return true
			}
		}
		return false
	}
	x, ok := ingest.ParseFinite(cell)
	if !ok {
		return false
	}
	want, ok := ingest.ParseFinite(f.Value[0])
	if !ok {
		return false
	}
	switch f.Operator {
	case OpGt:
		return x > want
	case OpLt:
		return x < want
	case OpGe:
		return x >= want
	case OpLe:
		return x <= want
	case OpBetween:
		hi, ok := ingest.ParseFinite(f.Value[1])
		return ok && x >= want && x <= hi
	}
	return false
}

func metricValues(rows []ingest.Row, col string) []float64 {
	var out []float64
	for _, r := range rows {
		if v, ok := ingest.ParseFinite(r[col]); ok {
			out = append(out, v)
		}
	}
	return out
}

// aggregate applies agg to vals. count always succeeds; the others need at
// least one value except sum, which is 0 over nothing.
func aggregate(agg string, vals []float64) (float64, bool) {
	switch agg {
	case "count":
		return float64(len(vals)), true
	case "avg", "mean":
		if len(vals) == 0 {
			return 0, false
		}
		var s float64
		for _, v := range vals {
			s += v
		}
		return s / float64(len(vals)), true
	case "min", "max":
		if len(vals) == 0 {
			return 0, false
		}
		best := vals[0]
		for _, v := range vals[1:] {
			if (agg == "min" && v < best) || (agg == "max" && v > best) {
				best = v
			}
		}
		return best, true
	}
	var s float64
	for _, v := range vals {
		s += v
	}
	return s, true
}

type bucket struct {
	key  string
	vals []float64
}

// buckets groups metric values by a column in first-seen order. Rows with a
// missing key are dropped.
func buckets(rows []ingest.Row, by, metric string) []*bucket {
	idx := map[string]*bucket{}
	var order []*bucket
	for _, r := range rows {
		k := r[by]
		if ingest.IsMissing(k) {
			continue
		}
		b, ok := idx[k]
		if !ok {
			b = &bucket{key: k}
			idx[k] = b
			order = append(order, b)
		}
		if v, ok := ingest.ParseFinite(r[metric]); ok {
			b.vals = append(b.vals, v)
		}
	}
	return order
}

func grouped(rows []ingest.Row, q Query) []map[string]any {
	bs := buckets(rows, q.GroupBy, q.Metric)
	type pair struct {
		key string
		v   float64
	}
	ps := make([]pair, len(bs))
	for i, b := range bs {
		v, _ := aggregate(q.Agg, b.vals)
		ps[i] = pair{b.key, v}
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].v > ps[j].v })
	out := make([]map[string]any, len(ps))
	for i, p := range ps {
		out[i] = map[string]any{q.GroupBy: p.key, q.Metric: p.v}
	}
	return out
}

// pivot returns one row per group value with one column per split value,
// both sorted. Empty cells are 0.
func pivot(rows []ingest.Row, q Query) []map[string]any {
	cells := map[[2]string][]float64{}
	groups := map[string]bool{}
	splits := map[string]bool{}
	for _, r := range rows {
		g, s := r[q.GroupBy], r[q.SplitBy]
		if ingest.IsMissing(g) || ingest.IsMissing(s) {
			continue
		}
		groups[g], splits[s] = true, true
		k := [2]string{g, s}
		if v, ok := ingest.ParseFinite(r[q.Metric]); ok {
			cells[k] = append(cells[k], v)
		}
	}
	gs, ss := sortedKeys(groups), sortedKeys(splits)
	out := make([]map[string]any, 0, len(gs))
	for _, g := range gs {
		row := map[string]any{q.GroupBy: g}
		for _, s := range ss {
			v, _ := aggregate(q.Agg, cells[[2]string{g, s}])
			row[s] = v
		}
		out = append(out, row)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// sortResults orders by one column, numerically when both sides are numbers.
func sortResults(rs []map[string]any, s Sort) {
	desc := s.Direction == "desc"
	sort.SliceStable(rs, func(i, j int) bool {
		c := compare(rs[i][s.Column], rs[j][s.Column])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b any) int {
	fa, oka := asFloat(a)
	fb, okb := asFloat(b)
	if oka && okb {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		return ingest.ParseFinite(t)
	}
	return 0, false
}
