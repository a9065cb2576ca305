package explore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var bareIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQL renders q as the equivalent statement over a table named data. It is
// for display only.
func SQL(q Query) string {
	var b strings.Builder
	agg := strings.ToUpper(q.Agg)
	switch agg {
	case "MEAN":
		agg = "AVG"
	case "SUM", "AVG", "COUNT", "MIN", "MAX":
	default:
		agg = "SUM"
	}
	metric := ""
	if q.Metric != "" {
		metric = fmt.Sprintf("%s(%s)", agg, ident(q.Metric))
	}
	switch {
	case q.Metric != "" && q.GroupBy != "" && q.SplitBy != "":
		fmt.Fprintf(&b, "SELECT %s, %s, %s FROM data", ident(q.GroupBy), ident(q.SplitBy), metric)
	case q.Metric != "" && q.GroupBy != "":
		fmt.Fprintf(&b, "SELECT %s, %s FROM data", ident(q.GroupBy), metric)
	case q.Metric != "":
		fmt.Fprintf(&b, "SELECT %s FROM data", metric)
	default:
		b.WriteString("SELECT * FROM data")
	}
	if len(q.Filters) > 0 {
		conds := make([]string, len(q.Filters))
		for i, f := range q.Filters {
			conds[i] = condition(f)
		}
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	if q.Metric != "" && q.GroupBy != "" {
		b.WriteString(" GROUP BY " + ident(q.GroupBy))
		if q.SplitBy != "" {
			b.WriteString(", " + ident(q.SplitBy))
		}
	}
	if q.Sort != nil {
		dir := "ASC"
		if q.Sort.Direction == "desc" {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", ident(q.Sort.Column), dir)
	} else if q.Metric != "" && q.GroupBy != "" && q.SplitBy == "" {
		b.WriteString(" ORDER BY 2 DESC")
	}
	if q.Limit > 0 && (q.Metric == "" || q.GroupBy != "") {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String()
}

func condition(f Filter) string {
	col := ident(f.Column)
	switch f.Operator {
	case OpEq:
		return col + " = " + literal(f.Value[0])
	case OpNe:
		return col + " <> " + literal(f.Value[0])
	case OpContains:
		return fmt.Sprintf("LOWER(%s) LIKE %s", col, literal("%"+strings.ToLower(f.Value[0])+"%"))
	case OpIn:
		vals := make([]string, len(f.Value))
		for i, v := range f.Value {
			vals[i] = literal(v)
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(vals, ", "))
	case OpBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, f.Value[0], f.Value[1])
	}
	return fmt.Sprintf("%s %s %s", col, f.Operator, f.Value[0])
}

func ident(name string) string {
	if bareIdent.MatchString(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func literal(v string) string {
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
