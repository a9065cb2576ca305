package ingest

import (
	"fmt"
	"strings"
	"unicode"
)

// Grid is a raw cell matrix before header resolution.
type Grid [][]string

// HierarchySeparator joins tokens of a two-row header.
const HierarchySeparator = " | "

// HeaderInfo describes how the header row was chosen.
type HeaderInfo struct {
	Row          int  `json:"row"`
	Hierarchical bool `json:"hierarchical"`
	TitleDropped bool `json:"title_dropped"`
	Placeholders int  `json:"placeholders"`
}

// width returns the widest row length.
func (g Grid) width() int {
	w := 0
	for _, r := range g {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// padded returns a copy of g where every row has the same width.
func (g Grid) padded() Grid {
	w := g.width()
	out := make(Grid, len(g))
	for i, r := range g {
		row := make([]string, w)
		copy(row, r)
		out[i] = row
	}
	return out
}

// ScoreHeaderRow rates how likely a raw row is to be the header.
func ScoreHeaderRow(row []string) float64 {
	var stripped []string
	empty := 0
	for _, c := range row {
		v := strings.TrimSpace(c)
		if v == "" {
			empty++
			continue
		}
		stripped = append(stripped, v)
	}
	if len(stripped) == 0 {
		return 0
	}
	emptyRatio := float64(empty) / float64(len(row))
	totalLen := 0
	uniq := map[string]struct{}{}
	textCells := 0
	for _, v := range stripped {
		totalLen += len([]rune(v))
		uniq[v] = struct{}{}
		if !strings.ContainsFunc(v, unicode.IsDigit) {
			textCells++
		}
	}
	n := float64(len(stripped))
	avgLen := float64(totalLen) / n
	uniqueRatio := float64(len(uniq)) / n
	textRatio := float64(textCells) / n
	score := 2*n + 0.5*avgLen + 3*uniqueRatio + 2*textRatio - 5*emptyRatio
	if score < 0 {
		return 0
	}
	return score
}

// BestHeaderRow returns the index of the highest scoring row among the first
// scan rows. Ties keep the earliest row; all-empty input yields 0.
func BestHeaderRow(g Grid, scan int) int {
	if scan <= 0 || scan > len(g) {
		scan = len(g)
	}
	best, bestScore := 0, 0.0
	for i := 0; i < scan; i++ {
		if s := ScoreHeaderRow(g[i]); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// isPlaceholder reports whether a raw header token would be replaced by col_N.
func isPlaceholder(raw string) bool {
	v := strings.TrimSpace(raw)
	return v == "" || strings.Contains(strings.ToLower(v), "unnamed")
}

func countPlaceholders(names []string) int {
	n := 0
	for _, v := range names {
		if isPlaceholder(v) {
			n++
		}
	}
	return n
}

// CleanHeaders normalizes whitespace, names blank or "unnamed" columns col_N
// (1-based) and suffixes case-insensitive duplicates with _2, _3, ...
// Cleaning an already-clean list returns it unchanged.
func CleanHeaders(cols []string) []string {
	cleaned := make([]string, 0, len(cols))
	seen := map[string]bool{}
	for idx, c := range cols {
		name := strings.ReplaceAll(c, "\n", " ")
		name = strings.Join(strings.Fields(name), " ")
		if name == "" || strings.Contains(strings.ToLower(name), "unnamed") {
			name = fmt.Sprintf("col_%d", idx+1)
		}
		base, k := name, 1
		for seen[strings.ToLower(name)] {
			k++
			name = fmt.Sprintf("%s_%d", base, k)
		}
		seen[strings.ToLower(name)] = true
		cleaned = append(cleaned, name)
	}
	return cleaned
}

// combineHeaderRows merges two header rows column-wise, skipping blanks.
func combineHeaderRows(top, bottom []string) []string {
	out := make([]string, len(top))
	for i := range top {
		var parts []string
		if v := strings.TrimSpace(top[i]); v != "" && !isPlaceholder(v) {
			parts = append(parts, v)
		}
		if i < len(bottom) {
			if v := strings.TrimSpace(bottom[i]); v != "" && !isPlaceholder(v) {
				parts = append(parts, v)
			}
		}
		out[i] = strings.Join(parts, HierarchySeparator)
	}
	return out
}

// looksLikeHeader reports whether a row has content and no numeric cells, so
// it can serve as the second level of a hierarchical header.
func looksLikeHeader(row []string) bool {
	filled := 0
	for _, c := range row {
		if strings.TrimSpace(c) == "" {
			continue
		}
		filled++
		if _, ok := ParseNumber(c); ok {
			return false
		}
		if _, ok := ParseTime(c); ok {
			return false
		}
	}
	return filled > 0
}

// Resolved is the outcome of header resolution.
type Resolved struct {
	Headers []string
	Body    Grid
	// Generated marks columns whose name was synthesized as col_N.
	Generated []bool
	Info      HeaderInfo
}

// ResolveHeaders picks the header row(s) of a raw grid and returns cleaned
// names together with the remaining body rows.
func ResolveHeaders(g Grid, scan int) Resolved {
	var res Resolved
	if len(g) == 0 {
		return res
	}
	g = g.padded()
	// A single long cell on top of a one-column grid is a title, not a header.
	if g.width() == 1 && len([]rune(strings.TrimSpace(g[0][0]))) > 30 {
		g = g[1:]
		res.Info.TitleDropped = true
		if len(g) == 0 {
			return res
		}
	}
	row := BestHeaderRow(g, scan)
	res.Info.Row = row
	raw := g[row]
	res.Body = g[row+1:]
	res.Info.Placeholders = countPlaceholders(raw)
	if res.Info.Placeholders > 0 && row+1 < len(g) && looksLikeHeader(g[row+1]) {
		merged := combineHeaderRows(raw, g[row+1])
		if p := countPlaceholders(merged); p < res.Info.Placeholders {
			raw = merged
			res.Body = g[row+2:]
			res.Info.Hierarchical = true
			res.Info.Placeholders = p
		}
	}
	res.Generated = make([]bool, len(raw))
	for i, v := range raw {
		res.Generated[i] = isPlaceholder(v)
	}
	res.Headers = CleanHeaders(raw)
	return res
}

// dropEmptyEdges removes fully blank body rows, and columns that are blank
// throughout the body and carry only a generated name.
func dropEmptyEdges(headers []string, generated []bool, body Grid) ([]string, Grid) {
	keep := make([]bool, len(headers))
	for j := range headers {
		if !generated[j] {
			keep[j] = true
			continue
		}
		for _, r := range body {
			if j < len(r) && strings.TrimSpace(r[j]) != "" {
				keep[j] = true
				break
			}
		}
	}
	var outHeaders []string
	for j, h := range headers {
		if keep[j] {
			outHeaders = append(outHeaders, h)
		}
	}
	var out Grid
	for _, r := range body {
		row := make([]string, 0, len(outHeaders))
		blank := true
		for j := range headers {
			if !keep[j] {
				continue
			}
			v := ""
			if j < len(r) {
				v = r[j]
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			row = append(row, v)
		}
		if !blank {
			out = append(out, row)
		}
	}
	return outHeaders, out
}
