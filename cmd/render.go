package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/KaramelBytes/smartdoc/internal/ingest"
	"github.com/KaramelBytes/smartdoc/internal/utils"
)

// emit writes v as JSON under --format json, otherwise calls render.
func emit(w io.Writer, v any, render func(io.Writer)) error {
	if outFormat == "json" {
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	render(w)
	return nil
}

func renderTable(w io.Writer, header []string, rows [][]any) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, r := range rows {
		t.AppendRow(table.Row(r))
	}
	t.Render()
}

// renderRecords prints string rows in header order.
func renderRecords(w io.Writer, headers []string, rows []ingest.Row) {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = make([]any, len(headers))
		for j, h := range headers {
			out[i][j] = r[h]
		}
	}
	renderTable(w, headers, out)
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

// renderResults prints explore-style rows of mixed values.
func renderResults(w io.Writer, columns []string, results []map[string]any) {
	out := make([][]any, len(results))
	for i, r := range results {
		out[i] = make([]any, len(columns))
		for j, c := range columns {
			out[i][j] = formatValue(r[c])
		}
	}
	renderTable(w, columns, out)
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(results))
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return ingest.FormatNumber(t)
	}
	return fmt.Sprintf("%v", v)
}

func bullets(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%s:\n", title)
	for _, it := range items {
		_, _ = fmt.Fprintf(w, "  • %s\n", it)
	}
}

func sortedCounts(m map[string]int) [][]any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, []any{k, m[k]})
	}
	return out
}
