// Package explore filters and aggregates a stored dataset.
package explore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KaramelBytes/smartdoc/internal/apperr"
)

// Operators.
const (
	OpEq       = "eq"
	OpNe       = "!="
	OpGt       = ">"
	OpLt       = "<"
	OpGe       = ">="
	OpLe       = "<="
	OpContains = "contains"
	OpIn       = "in"
	OpBetween  = "between"
)

// DefaultLimit bounds results when the query sets none.
const DefaultLimit = 100

// Value is a filter operand. A JSON scalar decodes to one element, an array
// to one element per item.
type Value []string

// UnmarshalJSON accepts strings, numbers, booleans, null and flat arrays of
// those.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		out := make(Value, 0, len(items))
		for _, it := range items {
			s, ok, err := scalar(it)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, s)
			}
		}
		*v = out
		return nil
	}
	s, ok, err := scalar(b)
	if err != nil {
		return err
	}
	if ok {
		*v = Value{s}
	} else {
		*v = Value{}
	}
	return nil
}

func scalar(b []byte) (string, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return "", false, err
	}
	switch t := x.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, true, nil
	case json.Number:
		return t.String(), true, nil
	case bool:
		return fmt.Sprint(t), true, nil
	}
	return "", false, fmt.Errorf("filter value must be a scalar or a list of scalars")
}

// Filter is one predicate; predicates are ANDed.
type Filter struct {
	Column   string `json:"column"`
	Operator string `json:"operator,omitempty"`
	Value    Value  `json:"value"`
}

// Sort orders the results.
type Sort struct {
	Column    string `json:"column"`
	Direction string `json:"direction,omitempty"`
}

// Query is an explore request. Aggregate is the older {column: agg} form,
// honoured when Metric is empty.
type Query struct {
	Filters    []Filter          `json:"filters"`
	GroupBy    string            `json:"group_by,omitempty"`
	SplitBy    string            `json:"split_by,omitempty"`
	Metric     string            `json:"metric,omitempty"`
	Agg        string            `json:"agg,omitempty"`
	Aggregate  map[string]string `json:"aggregate,omitempty"`
	Sort       *Sort             `json:"sort,omitempty"`
	Limit      int               `json:"limit,omitempty"`
	SaveAsView string            `json:"save_as_view,omitempty"`
}

// UnmarshalJSON accepts groupBy/splitBy as spellings of group_by/split_by.
// Unknown fields are still rejected.
func (q *Query) UnmarshalJSON(b []byte) error {
	type plain Query
	var aux struct {
		plain
		GroupByCamel string `json:"groupBy"`
		SplitByCamel string `json:"splitBy"`
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&aux); err != nil {
		return err
	}
	*q = Query(aux.plain)
	if q.GroupBy == "" {
		q.GroupBy = aux.GroupByCamel
	}
	if q.SplitBy == "" {
		q.SplitBy = aux.SplitByCamel
	}
	return nil
}

// Normalize fills defaults and validates operator arity. Operands are not
// type-checked: a comparison against a non-numeric operand matches no row.
// Unknown aggregations are kept; they aggregate as sum.
func (q Query) Normalize() (Query, error) {
	if q.Limit < 0 {
		return q, apperr.Validation("limit", "must not be negative")
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Metric == "" && len(q.Aggregate) == 1 {
		for col, agg := range q.Aggregate {
			q.Metric, q.Agg = col, agg
		}
	}
	q.Agg = strings.ToLower(strings.TrimSpace(q.Agg))
	if q.Agg == "" {
		q.Agg = "sum"
	}
	if q.SplitBy != "" && q.GroupBy == "" {
		return q, apperr.Validation("split_by", "requires group_by")
	}
	if q.Sort != nil {
		if q.Sort.Column == "" {
			return q, apperr.Validation("sort", "column is empty")
		}
		switch d := strings.ToLower(q.Sort.Direction); d {
		case "", "asc", "desc":
			q.Sort = &Sort{Column: q.Sort.Column, Direction: d}
		default:
			return q, apperr.Validation("sort", "direction must be asc or desc, got %q", q.Sort.Direction)
		}
	}
	filters := make([]Filter, len(q.Filters))
	for i, f := range q.Filters {
		f.Operator = strings.ToLower(strings.TrimSpace(f.Operator))
		if f.Operator == "" || f.Operator == "==" {
			f.Operator = OpEq
		}
		if f.Column == "" {
			return q, apperr.Validation(fmt.Sprintf("filters[%d].column", i), "is empty")
		}
		if err := checkOperand(f); err != nil {
			return q, apperr.Validation(fmt.Sprintf("filters[%d]", i), "%v", err)
		}
		filters[i] = f
	}
	q.Filters = filters
	return q, nil
}

func checkOperand(f Filter) error {
	switch f.Operator {
	case OpEq, OpNe, OpContains:
		if len(f.Value) != 1 {
			return fmt.Errorf("%s takes one value", f.Operator)
		}
	case OpGt, OpLt, OpGe, OpLe:
		if len(f.Value) != 1 {
			return fmt.Errorf("%s takes one value", f.Operator)
		}
	case OpIn:
		if len(f.Value) == 0 {
			return fmt.Errorf("in takes at least one value")
		}
	case OpBetween:
		if len(f.Value) != 2 {
			return fmt.Errorf("between takes [low, high]")
		}
	default:
		return fmt.Errorf("unknown operator %q", f.Operator)
	}
	return nil
}
