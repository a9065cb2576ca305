package classify

import (
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

const detectSampleRows = 100

// Detection is the enriched classification returned by Detect.
type Detection struct {
	DataType               string                 `json:"data_type"`
	Confidence             float64                `json:"confidence"`
	Method                 string                 `json:"method"`
	DetectedColumns        int                    `json:"detected_columns"`
	SuggestedAnalyses      []string               `json:"suggested_analyses"`
	PersonaRecommendations PersonaRecommendations `json:"persona_recommendations"`
	Alternatives           []Alternative          `json:"alternatives"`
	ColumnPatterns         Patterns               `json:"column_patterns"`
	ProcessingTimeMs       float64                `json:"processing_time_ms"`
}

// DetectText builds the classifier input: headers, then the non-empty values
// of the first 100 sample rows, then any free-text blocks.
func DetectText(headers []string, sample []ingest.Row, textBlocks []string) string {
	parts := []string{Preprocess(strings.Join(headers, " "))}
	var vals []string
	for i, r := range sample {
		if i == detectSampleRows {
			break
		}
		for _, k := range rowKeys(headers, r) {
			if v := strings.TrimSpace(r[k]); v != "" {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) > 0 {
		parts = append(parts, Preprocess(strings.Join(vals, " ")))
	}
	if len(textBlocks) > 0 {
		parts = append(parts, Preprocess(strings.Join(textBlocks, " ")))
	}
	return strings.Join(parts, " ")
}

// rowKeys yields headers first, then keys the headers do not name, sorted.
func rowKeys(headers []string, r ingest.Row) []string {
	keys := make([]string, 0, len(r))
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
		if _, ok := r[h]; ok {
			keys = append(keys, h)
		}
	}
	var extra []string
	for k := range r {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// Detect classifies a dataset and attaches the catalog recommendations for
// the winning label. A failing classifier degrades to the generic label.
func Detect(c Classifier, headers []string, sample []ingest.Row, textBlocks []string) Detection {
	start := time.Now()
	text := DetectText(headers, sample, textBlocks)
	patterns := ColumnPatterns(headers)

	var res Result
	var err error
	if pc, ok := c.(patternClassifier); ok {
		res, err = pc.ClassifyPatterns(text, patterns)
	} else {
		res, err = c.Classify(text)
	}
	d := Detection{
		DetectedColumns: len(headers),
		ColumnPatterns:  patterns,
	}
	if err != nil {
		d.DataType = Generic
		d.Confidence = 0.1
		d.Method = MethodFallback
		d.SuggestedAnalyses = []string{"basic_summary", "pattern_detection"}
		d.Alternatives = []Alternative{}
	} else {
		d.DataType = res.Label
		d.Confidence = res.Confidence
		d.Method = res.Method
		d.SuggestedAnalyses = SuggestAnalyses(res.Label)
		d.Alternatives = res.Alternatives
	}
	d.PersonaRecommendations = PersonaMap(d.DataType)
	d.ProcessingTimeMs = round(float64(time.Since(start).Microseconds())/1000, 2)
	return d
}
