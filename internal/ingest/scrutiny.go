package ingest

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/KaramelBytes/smartdoc/internal/parser"
)

// QualityReport holds per-column missing/zero/negative counts.
type QualityReport struct {
	Missing          map[string]int     `json:"missing"`
	MissingPct       map[string]float64 `json:"missing_pct"`
	NumericZeros     map[string]int     `json:"numeric_zeros"`
	NumericNegatives map[string]int     `json:"numeric_negatives"`
}

// HeaderIntelligence explains how trustworthy the resolved header is.
type HeaderIntelligence struct {
	HeaderRow        int                `json:"header_row"`
	MultirowDetected bool               `json:"multirow_detected"`
	Hierarchical     bool               `json:"hierarchical_headers"`
	TitleDropped     bool               `json:"title_dropped"`
	ColumnConfidence map[string]float64 `json:"column_confidence_scores"`
	EmptyClusters    []string           `json:"empty_clusters"`
	HeaderConfidence float64            `json:"header_confidence"`
}

// Report is the structured outcome of scrutinizing one uploaded file.
type Report struct {
	FileType           string              `json:"file_type"`
	OriginalName       string              `json:"original_name"`
	SizeBytes          int                 `json:"size_bytes"`
	UploadTime         time.Time           `json:"upload_time"`
	Message            string              `json:"message"`
	Headers            []string            `json:"headers"`
	RowsDetected       int                 `json:"rows_detected"`
	ColumnsDetected    int                 `json:"columns_detected"`
	Schema             []ColumnDescriptor  `json:"schema"`
	Quality            *QualityReport      `json:"quality"`
	Preview            []map[string]string `json:"preview"`
	Confidence         float64             `json:"confidence"`
	Suggestions        []string            `json:"suggestions"`
	HeaderIntelligence *HeaderIntelligence `json:"header_intelligence,omitempty"`
	SummaryExcerpt     string              `json:"summary_excerpt,omitempty"`
	ExtractedChars     *int                `json:"extracted_chars,omitempty"`
	TextBlocks         []string            `json:"text_blocks,omitempty"`
}

const looksGood = "Looks good — proceed to analysis."

// ScanQuality counts missing cells per column and zeros/negatives per
// numeric column.
func ScanQuality(t *Table, schema []ColumnDescriptor) QualityReport {
	q := QualityReport{
		Missing:          map[string]int{},
		MissingPct:       map[string]float64{},
		NumericZeros:     map[string]int{},
		NumericNegatives: map[string]int{},
	}
	n := len(t.Rows)
	for _, c := range schema {
		missing, zeros, negs := 0, 0, 0
		for _, r := range t.Rows {
			v := r[c.Name]
			if IsMissing(v) {
				missing++
				continue
			}
			if !c.Type.IsNumeric() {
				continue
			}
			if f, ok := ParseNumber(v); ok {
				if f == 0 {
					zeros++
				} else if f < 0 {
					negs++
				}
			}
		}
		q.Missing[c.Name] = missing
		if n > 0 {
			q.MissingPct[c.Name] = float64(missing) / float64(n)
		} else {
			q.MissingPct[c.Name] = 0
		}
		if c.Type.IsNumeric() {
			q.NumericZeros[c.Name] = zeros
			q.NumericNegatives[c.Name] = negs
		}
	}
	return q
}

// Confidence rates a detected table by size: more rows and columns mean a
// more trustworthy parse.
func Confidence(rows, cols int) float64 {
	base := math.Log10(math.Max(10, float64(rows)))/4 + float64(cols)/60
	return math.Round(math.Min(1, base)*1000) / 1000
}

// isGeneratedName reports whether a cleaned header was synthesized.
func isGeneratedName(name string) bool {
	return strings.HasPrefix(name, "col_") || strings.Contains(strings.ToLower(name), "unnamed")
}

// ColumnConfidence scores one header name.
func ColumnConfidence(name string) float64 {
	switch {
	case isGeneratedName(name):
		return 0.3
	case strings.Contains(name, HierarchySeparator):
		return 0.9
	case len([]rune(name)) < 3:
		return 0.6
	case len([]rune(name)) > 3 && strings.ContainsFunc(name, unicode.IsLetter):
		return 0.85
	default:
		return 0.7
	}
}

// emptyClusters lists columns with a run of more than two blank cells within
// the first ten rows, a typical trace of merged cells.
func emptyClusters(t *Table) []string {
	out := []string{}
	limit := min(10, len(t.Rows))
	for _, h := range t.Headers {
		run, hit := 0, false
		for i := 0; i < limit; i++ {
			if IsMissing(t.Rows[i][h]) {
				run++
				if run > 2 {
					hit = true
				}
			} else {
				run = 0
			}
		}
		if hit {
			out = append(out, h)
		}
	}
	return out
}

func headerIntelligence(p *Parsed) *HeaderIntelligence {
	hi := &HeaderIntelligence{
		HeaderRow:        p.Info.Row,
		MultirowDetected: p.Info.Hierarchical,
		TitleDropped:     p.Info.TitleDropped,
		ColumnConfidence: make(map[string]float64, len(p.Headers)),
		EmptyClusters:    emptyClusters(p.Table),
	}
	named := 0
	for _, h := range p.Headers {
		hi.ColumnConfidence[h] = ColumnConfidence(h)
		if strings.Contains(h, HierarchySeparator) {
			hi.Hierarchical = true
		}
		if !isGeneratedName(h) {
			named++
		}
	}
	if len(p.Headers) > 0 {
		hi.HeaderConfidence = float64(named) / float64(len(p.Headers))
	}
	return hi
}

func newReport(name string, size int, now time.Time) *Report {
	return &Report{
		FileType:     Format(name),
		OriginalName: name,
		SizeBytes:    size,
		UploadTime:   now.UTC(),
		Headers:      []string{},
		Schema:       []ColumnDescriptor{},
		Preview:      []map[string]string{},
		Suggestions:  []string{},
	}
}

// TableReport builds the report for a parsed table.
func TableReport(name string, size int, now time.Time, p *Parsed, opts Options) *Report {
	opts = opts.withDefaults()
	rep := newReport(name, size, now)
	if p.Format == "xlsx" || p.Format == "xls" {
		rep.FileType = "excel"
	}
	rows, cols := len(p.Rows), len(p.Headers)
	rep.Message = fmt.Sprintf("%s detected: %d rows × %d columns.", strings.ToUpper(p.Format), rows, cols)
	if rows == 0 || cols == 0 {
		return rep
	}
	rep.Headers = append(rep.Headers, p.Headers...)
	rep.RowsDetected, rep.ColumnsDetected = rows, cols
	rep.Schema = p.Schema
	q := ScanQuality(p.Table, p.Schema)
	rep.Quality = &q
	for i := 0; i < rows && i < opts.PreviewRows; i++ {
		rep.Preview = append(rep.Preview, p.Rows[i])
	}
	rep.Confidence = Confidence(rows, cols)
	rep.HeaderIntelligence = headerIntelligence(p)

	var sug []string
	for _, v := range q.NumericNegatives {
		if v > 0 {
			sug = append(sug, "Review negative values in numeric columns.")
			break
		}
	}
	for _, pct := range q.MissingPct {
		if pct > 0.2 {
			sug = append(sug, "Consider imputing or removing columns with >20% missing.")
			break
		}
	}
	if cols > 30 {
		sug = append(sug, "High-dimensional data: consider feature selection.")
	}
	if len(rep.HeaderIntelligence.EmptyClusters) > 0 {
		sug = append(sug, "Merged cell patterns detected - verify data structure.")
	}
	if rep.HeaderIntelligence.HeaderConfidence < 0.7 {
		sug = append(sug, "Low header confidence - review column names.")
	}
	if len(sug) == 0 {
		sug = []string{looksGood}
	}
	rep.Suggestions = sug
	return rep
}

// Scrutinize inspects an uploaded file. It never fails: read errors and
// unsupported formats degrade to a low-confidence report. The parsed table is
// returned for tabular input that yielded rows, nil otherwise.
func Scrutinize(name string, data []byte, now time.Time, opts Options) (*Report, *Parsed) {
	format := Format(name)
	if IsTabular(name) {
		p, err := ParseTabular(name, data, opts)
		switch {
		case errors.Is(err, ErrNotTabular):
			rep := newReport(name, len(data), now)
			rep.Message = "JSON detected (non-tabular)."
			rep.Preview = []map[string]string{{"raw_excerpt": excerptBytes(data, 1200)}}
			rep.Confidence = 0.5
			rep.Suggestions = []string{"Consider array-of-records JSON for richer analysis."}
			return rep, nil
		case err != nil:
			rep := newReport(name, len(data), now)
			rep.Message = fmt.Sprintf("%s read error: %v", strings.ToUpper(format), err)
			return rep, nil
		}
		rep := TableReport(name, len(data), now, p, opts)
		if len(p.Rows) == 0 || len(p.Headers) == 0 {
			return rep, nil
		}
		return rep, p
	}
	rep := newReport(name, len(data), now)
	doc, err := parser.Extract(name, data)
	switch {
	case errors.Is(err, parser.ErrUnsupported):
		rep.Message = fmt.Sprintf("Unsupported or unknown file type: %s", format)
		rep.Confidence = 0.2
		rep.Suggestions = []string{"Try CSV, XLSX, or JSON for structured analysis."}
		return rep, nil
	case err != nil:
		rep.Message = fmt.Sprintf("%s read error: %v", strings.ToUpper(format), err)
		return rep, nil
	}
	chars := doc.Chars
	rep.ExtractedChars = &chars
	rep.SummaryExcerpt = doc.Excerpt
	if doc.Placeholder {
		rep.Message = doc.Text
		rep.Confidence = 0
		rep.Suggestions = []string{"Upload the underlying tables as CSV/XLSX for structured analysis."}
		return rep, nil
	}
	rep.Message = fmt.Sprintf("%s detected — extracted summary.", strings.ToUpper(format))
	rep.TextBlocks = parser.SplitBlocks(doc.Text, 400, 0)
	rep.Confidence = 0.6
	if chars == 0 {
		rep.Confidence = 0.4
	}
	rep.Suggestions = []string{
		"For table-heavy documents, export the tables to CSV/XLSX for deeper analysis.",
		"Run detect on the extracted text blocks to classify the document domain.",
	}
	return rep, nil
}

func excerptBytes(data []byte, limit int) string {
	if len(data) > limit {
		data = data[:limit]
	}
	return strings.ToValidUTF8(string(data), "")
}
