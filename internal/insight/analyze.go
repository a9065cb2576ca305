package insight

import (
	"context"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/smartdoc/internal/analysis"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

// Request is one analysis job over an in-memory table.
type Request struct {
	DatasetID string
	FileType  string
	Headers   []string
	Rows      []ingest.Row
	Persona   Persona
	DataType  string
}

// Metadata describes the run.
type Metadata struct {
	RowCount         int     `json:"row_count"`
	ColCount         int     `json:"col_count"`
	DataQualityScore float64 `json:"data_quality_score"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
	Kind             string  `json:"document_type"`
	DataType         string  `json:"data_type"`
	Persona          Persona `json:"persona"`
	SampledRows      int     `json:"sampled_rows,omitempty"`
}

// Report is the full analysis response.
type Report struct {
	Summary         string                    `json:"summary"`
	Insights        []Insight                 `json:"insights"`
	Recommendations []string                  `json:"recommendations"`
	QuickActions    []QuickAction             `json:"quick_actions"`
	Narrative       Narrative                 `json:"narrative"`
	Charts          []ChartSuggestion         `json:"charts"`
	Quality         analysis.QualityBreakdown `json:"quality"`
	Profile         *analysis.Profile         `json:"technical,omitempty"`
	Metadata        Metadata                  `json:"metadata"`
	Status          string                    `json:"status"`
	Message         string                    `json:"message,omitempty"`
}

var (
	printer = message.NewPrinter(language.English)
	titler  = cases.Title(language.English)
)

// KindLabel renders a kind for people: "large_tabular" → "Large Tabular".
func KindLabel(kind string) string {
	return titler.String(strings.ReplaceAll(kind, "_", " "))
}

// Analyze profiles the rows and assembles insights, quick actions, the
// persona narrative, recommendations and chart suggestions. An empty table is
// not an error: the report carries a message instead.
func Analyze(ctx context.Context, req Request, opt analysis.Options) (*Report, error) {
	start := time.Now()
	if req.Persona == "" {
		req.Persona = Manager
	}
	if req.DataType == "" {
		req.DataType = "generic"
	}
	fileType := req.FileType
	if fileType == "" {
		fileType = "csv"
	}

	prof, err := analysis.Run(ctx, req.Headers, req.Rows, opt)
	if err != nil {
		return nil, err
	}
	kind := DocumentKind(fileType, len(req.Rows), len(req.Headers), "")
	quality := ingest.ScanQuality(&ingest.Table{Headers: req.Headers, Rows: req.Rows}, prof.Schema)

	insights := Evaluate(prof, DefaultRules)
	rep := &Report{
		Insights:        insights,
		Recommendations: Recommendations(kind, prof.MissingPct, quality.NumericNegatives),
		QuickActions:    QuickActions(req.DatasetID, req.Headers, req.Rows),
		Narrative:       BuildNarrative(req.Persona, req.DataType, prof, insights),
		Charts:          SuggestCharts(req.Headers),
		Quality:         prof.Quality,
		Profile:         prof,
		Status:          "ok",
		Metadata: Metadata{
			RowCount:         len(req.Rows),
			ColCount:         len(req.Headers),
			DataQualityScore: prof.Quality.Score,
			Kind:             kind,
			DataType:         req.DataType,
			Persona:          req.Persona,
			SampledRows:      prof.SampledRows,
		},
	}
	if len(req.Rows) == 0 || len(req.Headers) == 0 {
		rep.Message = "dataset is empty; nothing to analyze"
	}
	rep.Summary = Summarize(len(req.Rows), len(req.Headers), kind, prof.Quality.Score, insights)
	rep.Metadata.ProcessingTimeMs = elapsedMs(start)
	return rep, nil
}

// AnalyzeDocument reports on an extracted text excerpt.
func AnalyzeDocument(fileType, excerpt string, persona Persona) *Report {
	start := time.Now()
	if persona == "" {
		persona = Manager
	}
	kind := DocumentKind(fileType, 0, 0, excerpt)
	words := countWords(excerpt)
	var summary string
	switch kind {
	case KindShortText:
		summary = printer.Sprintf("Analyzed short %s text with %d tokens.", strings.ToUpper(fileType), words)
	case KindUnknown:
		summary = printer.Sprintf("Analyzed %s file (%s). Provided basic recommendations.", strings.ToUpper(fileType), kind)
	default:
		summary = printer.Sprintf("Analyzed %s document with %d tokens (%s).", strings.ToUpper(fileType), words, KindLabel(kind))
	}
	return &Report{
		Summary:         summary,
		Insights:        []Insight{},
		Recommendations: Recommendations(kind, nil, nil),
		QuickActions:    []QuickAction{},
		Narrative:       BuildNarrative(persona, "", nil, nil),
		Charts:          []ChartSuggestion{},
		Status:          "ok",
		Metadata: Metadata{
			Kind:             kind,
			Persona:          persona,
			ProcessingTimeMs: elapsedMs(start),
		},
	}
}

// Summarize writes the one-paragraph headline: size, quality, and the most
// severe finding.
func Summarize(rows, cols int, kind string, score float64, insights []Insight) string {
	var b strings.Builder
	b.WriteString(printer.Sprintf("Analyzed %d rows × %d columns (%s). Quality score %.1f/100.", rows, cols, KindLabel(kind), score))
	if top, ok := topInsight(insights); ok {
		b.WriteString(printer.Sprintf(" %d findings; top: %s (%s).", len(insights), top.Title, top.Detail))
	} else {
		b.WriteString(" No major issues found.")
	}
	return b.String()
}

var severityRank = map[string]int{SeverityInfo: 0, SeverityLow: 1, SeverityMedium: 2, SeverityHigh: 3}

// topInsight is the first insight of the highest severity present.
func topInsight(insights []Insight) (Insight, bool) {
	if len(insights) == 0 {
		return Insight{}, false
	}
	best := insights[0]
	for _, in := range insights[1:] {
		if severityRank[in.Severity] > severityRank[best.Severity] {
			best = in
		}
	}
	return best, true
}

func elapsedMs(start time.Time) float64 {
	return math.Round(float64(time.Since(start).Microseconds())/10) / 100
}
