package insight

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Kinds of upload, as far as recommendations are concerned.
const (
	KindTabular      = "tabular"
	KindLargeTabular = "large_tabular"
	KindLongDocument = "long_document"
	KindDocument     = "document"
	KindLongText     = "long_text"
	KindText         = "text"
	KindShortText    = "short_text"
	KindUnknown      = "unknown"
)

var wordRe = regexp.MustCompile(`[a-z0-9]+`)

// countWords counts lower-cased alphanumeric words longer than one letter.
func countWords(text string) int {
	n := 0
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if len(w) > 1 {
			n++
		}
	}
	return n
}

// DocumentKind buckets an upload by file type and size.
func DocumentKind(fileType string, rows, cols int, excerpt string) string {
	switch strings.ToLower(strings.TrimSpace(fileType)) {
	case "csv", "tsv", "excel", "xlsx", "xls", "json":
		if rows == 0 || cols == 0 {
			return KindUnknown
		}
		if rows > 1000 && cols > 10 {
			return KindLargeTabular
		}
		return KindTabular
	case "pdf", "docx", "doc":
		switch n := countWords(excerpt); {
		case n > 200:
			return KindLongDocument
		case n > 50:
			return KindDocument
		}
		return KindShortText
	case "txt", "md", "markdown":
		switch n := countWords(excerpt); {
		case n > 500:
			return KindLongText
		case n > 100:
			return KindText
		}
		return KindShortText
	}
	return KindUnknown
}

var kindRecommendations = map[string][]string{
	KindLargeTabular: {
		"Perform correlation analysis to identify relationships between variables.",
		"Use dimensionality reduction techniques (PCA, t-SNE) for visualization.",
		"Split data into training/validation sets for machine learning preparation.",
		"Generate automated feature importance analysis.",
		"Create interactive data profiling report.",
	},
	KindTabular: {
		"Generate descriptive statistics (mean, median, mode, std dev) for numeric columns.",
		"Create distribution plots for all numeric variables.",
		"Perform outlier detection using IQR or Z-score methods.",
		"Analyze categorical variable cardinality and value distributions.",
		"Suggest appropriate visualization types based on data types and relationships.",
	},
	KindLongDocument: documentRecommendations,
	KindDocument:     documentRecommendations,
	KindLongText:     textRecommendations,
	KindText:         textRecommendations,
	KindShortText: {
		"Perform intent classification and categorization.",
		"Extract sentiment and emotional tone with confidence scores.",
		"Identify key entities and their relationships.",
		"Compare against similar text snippets for pattern recognition.",
	},
	KindUnknown: {
		"Consider converting to structured format (CSV/JSON) for detailed analysis.",
		"Extract basic metadata and file characteristics.",
		"Check file integrity and compatibility with analysis tools.",
	},
}

var documentRecommendations = []string{
	"Generate comprehensive AI executive summary with key takeaways.",
	"Extract and categorize named entities (people, organizations, locations, dates).",
	"Perform topic modeling to identify main themes and subjects.",
	"Create section-wise sentiment analysis to track emotional flow.",
	"Build interactive keyword explorer with frequency and context.",
	"Generate readability scores and complexity metrics.",
}

var textRecommendations = []string{
	"Perform semantic analysis to identify key concepts and relationships.",
	"Extract key phrases and terminologies specific to the domain.",
	"Generate text summarization at different compression ratios.",
	"Create timeline analysis if temporal references are present.",
	"Build entity relationship graph to visualize connections.",
}

// Recommendations lists next steps for an upload kind. For tabular kinds the
// per-column missing shares and negative counts add data-quality advice.
func Recommendations(kind string, missingPct map[string]float64, negatives map[string]int) []string {
	base, ok := kindRecommendations[kind]
	if !ok {
		base = kindRecommendations[KindUnknown]
	}
	var out []string
	if kind == KindLargeTabular {
		if sparse := columnsAbove(missingPct, MissingThreshold); len(sparse) > 0 {
			out = append(out, fmt.Sprintf("Consider imputation or removal for columns with >20%% missing values: %s",
				strings.Join(sparse[:min(3, len(sparse))], ", ")))
		}
	}
	out = append(out, base...)
	if kind == KindTabular || kind == KindLargeTabular {
		if len(columnsAbove(missingPct, 0.1)) > 0 {
			out = append(out, "Address missing values above 10% to improve data quality.")
		}
		for _, n := range negatives {
			if n > 0 {
				out = append(out, "Verify negative values in numeric columns are expected and valid.")
				break
			}
		}
	}
	return out
}

// columnsAbove returns the columns whose share exceeds limit, sorted by name.
func columnsAbove(pct map[string]float64, limit float64) []string {
	var out []string
	for c, v := range pct {
		if v > limit {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
