package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders a compact profile report suitable for terminals or docs.
func (p *Profile) Markdown(name string) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	if p.SampledRows > 0 {
		b.WriteString(fmt.Sprintf("Rows: ~%d (profiled %d)\n", p.Summary.Rows, p.SampledRows))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", p.Summary.Rows))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n", p.Summary.Columns))
	b.WriteString(fmt.Sprintf("Quality score: %.1f\n\n", p.Quality.Score))

	b.WriteString("[SCHEMA]\n")
	num := map[string]NumericStat{}
	for _, s := range p.Numeric {
		num[s.Column] = s
	}
	cat := map[string]CategoricalStat{}
	for _, s := range p.Categorical {
		cat[s.Column] = s
	}
	for _, c := range p.Schema {
		b.WriteString(fmt.Sprintf("- %s: %s (missing %.1f%%)", safeName(c.Name), c.Type, p.MissingPct[c.Name]*100))
		if s, ok := num[c.Name]; ok {
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g, iqr %.4g", s.Min, s.Max, s.Mean, s.Std, s.IQR))
			if s.OutlierCount > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d outside IQR fence", s.OutlierCount))
			}
		}
		if s, ok := cat[c.Name]; ok && len(s.Top5) > 0 {
			b.WriteString(" — top: ")
			for i, kv := range s.Top5 {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if s.Distinct > len(s.Top5) {
				b.WriteString(fmt.Sprintf("; distinct=%d", s.Distinct))
			}
		}
		b.WriteString("\n")
	}
	if len(p.Correlations) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, c := range TopPairs(p.Correlations, 0, 10) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", c.A, c.B, c.R))
		}
	}
	if p.SampledRows > 0 {
		b.WriteString("\n[NOTES]\n")
		b.WriteString(fmt.Sprintf("- profiled a strided sample of %d/%d rows\n", p.SampledRows, p.Summary.Rows))
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
