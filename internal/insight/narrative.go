package insight

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/smartdoc/internal/analysis"
	"github.com/KaramelBytes/smartdoc/internal/apperr"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

// Persona is the audience a narrative is written for.
type Persona string

const (
	Junior    Persona = "junior"
	Manager   Persona = "manager"
	Executive Persona = "executive"
)

// ParsePersona validates s. Empty means manager.
func ParsePersona(s string) (Persona, error) {
	switch p := Persona(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Manager, nil
	case Junior, Manager, Executive:
		return p, nil
	}
	return "", apperr.Validation("persona", "must be junior, manager or executive, got %q", s)
}

// NarrativeItem is one sentence of a narrative.
type NarrativeItem struct {
	Text     string `json:"text"`
	Severity string `json:"severity,omitempty"`
}

// Narrative splits what needs attention now from what is worth exploring.
type Narrative struct {
	Critical      []NarrativeItem `json:"critical"`
	Opportunities []NarrativeItem `json:"opportunities"`
}

const executiveCriticalLimit = 3

// domainHints holds one static opportunity per domain label. The long-form
// labels are accepted for older clients.
var domainHints = map[string]string{
	"sales":               "Consider segmenting top customers for upsell.",
	"sales_transactional": "Consider segmenting top customers for upsell.",
	"hr":                  "Analyze headcount by department and grade.",
	"hr_roster":           "Analyze headcount by department and grade.",
	"finance":             "Review expense breakdown to optimize cost centers.",
	"financial_statement": "Review expense breakdown to optimize cost centers.",
}

// DomainHint returns the opportunity hint for a domain label, if any.
func DomainHint(domain string) (string, bool) {
	h, ok := domainHints[strings.ToLower(domain)]
	return h, ok
}

// BuildNarrative writes the persona overlay. High-severity insights are
// critical for every persona; executives see at most three critical items.
func BuildNarrative(persona Persona, domain string, p *analysis.Profile, insights []Insight) Narrative {
	n := Narrative{Critical: []NarrativeItem{}, Opportunities: []NarrativeItem{}}
	for _, in := range insights {
		if in.Severity == SeverityHigh {
			n.Critical = append(n.Critical, NarrativeItem{Text: in.Title + ": " + in.Detail, Severity: SeverityHigh})
		}
	}
	if hint, ok := DomainHint(domain); ok {
		n.Opportunities = append(n.Opportunities, NarrativeItem{Text: hint})
	}

	switch persona {
	case Executive:
		if s, ok := primaryMetric(p); ok {
			n.Critical = append([]NarrativeItem{{Text: fmt.Sprintf("Primary metric '%s' mean is %s (range %s–%s).",
				s.Column, ingest.FormatNumber(math.Round(s.Mean*1000)/1000), ingest.FormatNumber(s.Min), ingest.FormatNumber(s.Max))}}, n.Critical...)
		}
		if len(n.Critical) > executiveCriticalLimit {
			n.Critical = n.Critical[:executiveCriticalLimit]
		}
		n.Opportunities = append(n.Opportunities, NarrativeItem{Text: "Track KPIs and set alerts on major deviations."})
	case Junior:
		n.Critical = append(n.Critical, NarrativeItem{Text: "Fix missing values and duplicates before deeper analysis."})
		n.Opportunities = append(n.Opportunities, NarrativeItem{Text: "Start with distributions and correlations."})
	default:
		n.Critical = append(n.Critical, NarrativeItem{Text: "Ensure team-level performance metrics are defined."})
		n.Opportunities = append(n.Opportunities, NarrativeItem{Text: "Use Explore to build weekly performance views."})
	}
	return n
}

// primaryMetric is the first numeric column with at least one value.
func primaryMetric(p *analysis.Profile) (analysis.NumericStat, bool) {
	if p == nil {
		return analysis.NumericStat{}, false
	}
	for _, name := range p.NumericColumns() {
		if s, ok := p.Stat(name); ok && s.N > 0 {
			return s, true
		}
	}
	return analysis.NumericStat{}, false
}
