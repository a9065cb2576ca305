package analysis

import (
	"math"
	"slices"
	"sort"

	"github.com/KaramelBytes/smartdoc/internal/apperr"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

// Correlation is a defined Pearson coefficient between two columns.
type Correlation struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// TargetCorrelation relates one column to a chosen target.
type TargetCorrelation struct {
	Column string  `json:"column"`
	R      float64 `json:"r"`
}

// Pearson computes r over pairs where both cells parse as finite numbers.
// ok is false with fewer than three pairs or zero variance on either side.
func Pearson(xs, ys []string) (r float64, ok bool) {
	var x, y []float64
	for i := 0; i < len(xs) && i < len(ys); i++ {
		a, okA := ingest.ParseFinite(xs[i])
		b, okB := ingest.ParseFinite(ys[i])
		if !okA || !okB || ingest.IsMissing(xs[i]) || ingest.IsMissing(ys[i]) {
			continue
		}
		x = append(x, a)
		y = append(y, b)
	}
	n := len(x)
	if n < 3 {
		return 0, false
	}
	mx, _ := MeanStd(x)
	my, _ := MeanStd(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	den := math.Sqrt(sxx * syy)
	if den == 0 || math.IsNaN(den) {
		return 0, false
	}
	r = sxy / den
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

// Correlations computes every defined pair among columns, in column order.
func Correlations(rows []ingest.Row, columns []string) []Correlation {
	cols := make([][]string, len(columns))
	for i, c := range columns {
		cols[i] = ingest.Column(rows, c)
	}
	var out []Correlation
	for i := 0; i < len(columns); i++ {
		for j := i + 1; j < len(columns); j++ {
			if r, ok := Pearson(cols[i], cols[j]); ok {
				out = append(out, Correlation{A: columns[i], B: columns[j], R: r})
			}
		}
	}
	return out
}

// TopPairs returns up to limit pairs with |r| >= threshold, strongest first.
func TopPairs(corrs []Correlation, threshold float64, limit int) []Correlation {
	out := make([]Correlation, 0, len(corrs))
	for _, c := range corrs {
		if math.Abs(c.R) >= threshold {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return math.Abs(out[i].R) > math.Abs(out[j].R) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ForTarget lists the other numeric columns correlated with target at
// |r| >= threshold, strongest first.
func ForTarget(rows []ingest.Row, target string, others []string, threshold float64) []TargetCorrelation {
	tv := ingest.Column(rows, target)
	out := []TargetCorrelation{}
	for _, c := range others {
		if c == target {
			continue
		}
		if r, ok := Pearson(tv, ingest.Column(rows, c)); ok && math.Abs(r) >= threshold {
			out = append(out, TargetCorrelation{Column: c, R: r})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return math.Abs(out[i].R) > math.Abs(out[j].R) })
	return out
}

// CorrelationReport lists pairs, or correlations with one target.
type CorrelationReport struct {
	Target       string              `json:"target,omitempty"`
	Threshold    float64             `json:"threshold"`
	Pairs        []Correlation       `json:"pairs,omitempty"`
	Correlations []TargetCorrelation `json:"correlations,omitempty"`
	Message      string              `json:"message,omitempty"`
}

// maxTopPairs caps the untargeted pair list.
const maxTopPairs = 25

// Correlate relates the numeric columns of a table: the strongest 25 pairs at
// |r| >= threshold, or each column against target when one is named. A
// target that is not a numeric column is a ValidationError.
func Correlate(headers []string, rows []ingest.Row, target string, threshold float64) (*CorrelationReport, error) {
	numeric := numericNames(ingest.InferSchema(headers, rows))
	rep := &CorrelationReport{Target: target, Threshold: threshold}
	if target == "" {
		rep.Pairs = TopPairs(Correlations(rows, numeric), threshold, maxTopPairs)
		if len(numeric) < 2 {
			rep.Message = "fewer than two numeric columns"
		}
		return rep, nil
	}
	if !slices.Contains(numeric, target) {
		return nil, apperr.Validation("target", "%q is not a numeric column", target)
	}
	rep.Correlations = ForTarget(rows, target, numeric, threshold)
	return rep, nil
}
