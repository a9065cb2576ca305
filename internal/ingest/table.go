package ingest

import "math"

// Row maps header names to raw cell values. Every row of a table carries
// exactly the table's headers as keys.
type Row map[string]string

// Table is a typed, header-resolved dataset body.
type Table struct {
	Headers []string
	Rows    []Row
}

// NewTable builds rows from a header list and a positional body. Short rows
// are padded with empty cells; extra cells are dropped.
func NewTable(headers []string, body Grid) *Table {
	t := &Table{Headers: append([]string(nil), headers...), Rows: make([]Row, 0, len(body))}
	for _, rec := range body {
		r := make(Row, len(headers))
		for j, h := range headers {
			if j < len(rec) {
				r[h] = rec[j]
			} else {
				r[h] = ""
			}
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

// Column extracts one column's values in row order.
func Column(rows []Row, name string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r[name]
	}
	return out
}

// CloneRows deep-copies rows so callers can mutate freely.
func CloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

// Downsample keeps every step-th row when rows*cols exceeds maxCells,
// preserving the original order. It returns the input unchanged otherwise.
func Downsample(rows []Row, cols, maxCells int) ([]Row, bool) {
	cells := len(rows) * cols
	if maxCells <= 0 || cells <= maxCells {
		return rows, false
	}
	step := int(math.Ceil(float64(cells) / float64(maxCells)))
	out := make([]Row, 0, len(rows)/step+1)
	for i := 0; i < len(rows); i += step {
		out = append(out, rows[i])
	}
	return out, true
}
