package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

// NumericStat summarizes a numeric column. Std is the population standard
// deviation; quartiles are linearly interpolated.
type NumericStat struct {
	Column       string  `json:"column"`
	N            int     `json:"n"`
	Mean         float64 `json:"mean"`
	Std          float64 `json:"std"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Q1           float64 `json:"q1"`
	Q3           float64 `json:"q3"`
	IQR          float64 `json:"iqr"`
	OutlierCount int     `json:"outlier_count"`
}

// OutlierBounds returns the inclusive IQR fence.
func (s NumericStat) OutlierBounds() (lo, hi float64) {
	return s.Q1 - 1.5*s.IQR, s.Q3 + 1.5*s.IQR
}

// CategoryCount is one entry of a categorical top list.
type CategoryCount struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// CategoricalStat summarizes a categorical column. Missing cells form their
// own bucket in Distinct but never appear in Top5.
type CategoricalStat struct {
	Column        string          `json:"column"`
	Total         int             `json:"total"`
	Distinct      int             `json:"distinct_count"`
	DominantShare float64         `json:"dominant_share"`
	Top5          []CategoryCount `json:"top5"`
}

// Floats returns the finite numeric values of a column in order.
func Floats(values []string) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if ingest.IsMissing(v) {
			continue
		}
		if f, ok := ingest.ParseFinite(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// MeanStd returns the mean and population standard deviation.
func MeanStd(vals []float64) (mean, std float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(vals)))
}

// Median returns the interpolated median of vals.
func Median(vals []float64) float64 {
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	return quantile(cp, 0.5)
}

// Numeric computes the numeric summary of a column. ok is false when the
// column holds no finite values.
func Numeric(column string, values []string) (NumericStat, bool) {
	vals := Floats(values)
	if len(vals) == 0 {
		return NumericStat{Column: column}, false
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s := NumericStat{Column: column, N: len(vals), Min: sorted[0], Max: sorted[len(sorted)-1]}
	s.Mean, s.Std = MeanStd(vals)
	s.Q1 = quantile(sorted, 0.25)
	s.Q3 = quantile(sorted, 0.75)
	s.IQR = s.Q3 - s.Q1
	lo, hi := s.OutlierBounds()
	for _, v := range vals {
		if v < lo || v > hi {
			s.OutlierCount++
		}
	}
	return s, true
}

const missingBucket = "\x00missing"

// Categorical computes frequency statistics. Ties in the top list keep
// first-seen order.
func Categorical(column string, values []string) CategoricalStat {
	counts := map[string]int{}
	var order []string
	for _, raw := range values {
		key := strings.TrimSpace(raw)
		if ingest.IsMissing(raw) {
			key = missingBucket
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}
	s := CategoricalStat{Column: column, Total: len(values), Distinct: len(counts), Top5: []CategoryCount{}}
	var present []string
	for _, k := range order {
		if k != missingBucket {
			present = append(present, k)
		}
	}
	sort.SliceStable(present, func(i, j int) bool { return counts[present[i]] > counts[present[j]] })
	if len(present) > 5 {
		present = present[:5]
	}
	for _, k := range present {
		s.Top5 = append(s.Top5, CategoryCount{Value: k, Count: counts[k], Pct: float64(counts[k]) / float64(s.Total)})
	}
	if len(s.Top5) > 0 {
		s.DominantShare = float64(s.Top5[0].Count) / float64(s.Total)
	}
	return s
}

// quantile interpolates linearly between closest ranks of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}
