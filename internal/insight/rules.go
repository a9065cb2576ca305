// Package insight turns a statistical profile into findings, quick actions,
// a persona narrative and chart suggestions.
package insight

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/smartdoc/internal/analysis"
)

// Severity levels, lowest first.
const (
	SeverityInfo   = "info"
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Insight is one finding about the dataset.
type Insight struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
}

// Thresholds for the rule table.
const (
	MissingThreshold     = 0.2
	MissingHigh          = 0.5
	OutlierHighRatio     = 0.05
	ImbalanceThreshold   = 0.8
	CorrelationThreshold = 0.7
	CorrelationHigh      = 0.9
	correlationPairs     = 10
)

// Rule emits zero or more insights from a profile.
type Rule struct {
	Type string
	Emit func(p *analysis.Profile) []Insight
}

// DefaultRules is the ordered rule table; insights come out in this order.
var DefaultRules = []Rule{
	{Type: "missing", Emit: missingRule},
	{Type: "outlier", Emit: outlierRule},
	{Type: "imbalance", Emit: imbalanceRule},
	{Type: "correlation", Emit: correlationRule},
}

// Evaluate runs rules over p in order. A column or pair may trigger several
// rules independently.
func Evaluate(p *analysis.Profile, rules []Rule) []Insight {
	out := []Insight{}
	for _, r := range rules {
		out = append(out, r.Emit(p)...)
	}
	return out
}

func missingRule(p *analysis.Profile) []Insight {
	var out []Insight
	for _, c := range p.Schema {
		pct := p.MissingPct[c.Name]
		if pct < MissingThreshold {
			continue
		}
		sev := SeverityMedium
		if pct >= MissingHigh {
			sev = SeverityHigh
		}
		out = append(out, Insight{
			ID:       "missing-" + c.Name,
			Type:     "missing",
			Severity: sev,
			Title:    fmt.Sprintf("High missing values in “%s”", c.Name),
			Detail:   fmt.Sprintf("%.1f%% of rows missing", pct*100),
		})
	}
	return out
}

func outlierRule(p *analysis.Profile) []Insight {
	var out []Insight
	for _, s := range p.Numeric {
		if s.N == 0 || s.OutlierCount == 0 {
			continue
		}
		sev := SeverityLow
		if float64(s.OutlierCount)/float64(s.N) > OutlierHighRatio {
			sev = SeverityHigh
		}
		out = append(out, Insight{
			ID:       "outliers-" + s.Column,
			Type:     "outlier",
			Severity: sev,
			Title:    fmt.Sprintf("Outliers in “%s”", s.Column),
			Detail:   fmt.Sprintf("%d outliers detected via IQR", s.OutlierCount),
		})
	}
	return out
}

func imbalanceRule(p *analysis.Profile) []Insight {
	var out []Insight
	for _, s := range p.Categorical {
		if s.Distinct <= 1 || s.DominantShare < ImbalanceThreshold {
			continue
		}
		out = append(out, Insight{
			ID:       "imbalance-" + s.Column,
			Type:     "imbalance",
			Severity: SeverityMedium,
			Title:    fmt.Sprintf("Imbalanced categories in “%s”", s.Column),
			Detail:   fmt.Sprintf("Top category holds %.1f%% share", s.DominantShare*100),
		})
	}
	return out
}

func correlationRule(p *analysis.Profile) []Insight {
	var out []Insight
	for _, c := range analysis.TopPairs(p.Correlations, 0, correlationPairs) {
		r := math.Abs(c.R)
		if r < CorrelationThreshold {
			continue
		}
		sev := SeverityMedium
		if r >= CorrelationHigh {
			sev = SeverityHigh
		}
		out = append(out, Insight{
			ID:       fmt.Sprintf("corr-%s-%s", c.A, c.B),
			Type:     "correlation",
			Severity: sev,
			Title:    fmt.Sprintf("Strong correlation (%.2f)", c.R),
			Detail:   fmt.Sprintf("“%s” vs “%s”", c.A, c.B),
		})
	}
	return out
}
