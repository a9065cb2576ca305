package analysis

import (
	"math"

	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

// QualityBreakdown holds the four components of the quality score, each in
// [0,1].
type QualityBreakdown struct {
	Completeness    float64 `json:"completeness"`
	Uniqueness      float64 `json:"uniqueness"`
	TypeConsistency float64 `json:"type_consistency"`
	Validity        float64 `json:"validity"`
	Score           float64 `json:"score"`
}

// valueKind buckets a cell by representation. Integers and decimals share
// the number kind.
func valueKind(v string) string {
	if _, ok := ingest.ParseNumber(v); ok {
		return "number"
	}
	if ingest.IsBoolToken(v) {
		return "bool"
	}
	if _, ok := ingest.ParseTime(v); ok {
		return "datetime"
	}
	return "text"
}

const consistencySample = 100

// Quality scores a dataset from 0 to 100:
// 100 × (0.4·completeness + 0.2·uniqueness + 0.2·type_consistency + 0.2·validity),
// rounded to one decimal. An empty dataset scores 0.
func Quality(headers []string, rows []ingest.Row) QualityBreakdown {
	var q QualityBreakdown
	if len(headers) == 0 || len(rows) == 0 {
		return q
	}
	total := len(headers) * len(rows)
	missing := 0
	var uniq float64
	consistent, valid := 0, 0
	for _, h := range headers {
		distinct := map[string]struct{}{}
		kinds := map[string]struct{}{}
		sampled := 0
		hasInf := false
		for _, r := range rows {
			v := r[h]
			if ingest.IsMissing(v) {
				missing++
				continue
			}
			distinct[v] = struct{}{}
			if sampled < consistencySample {
				kinds[valueKind(v)] = struct{}{}
				sampled++
			}
			if f, ok := ingest.ParseNumber(v); ok && math.IsInf(f, 0) {
				hasInf = true
			}
		}
		uniq += float64(len(distinct)) / float64(len(rows))
		if len(kinds) <= 1 {
			consistent++
		}
		if !hasInf {
			valid++
		}
	}
	cols := float64(len(headers))
	q.Completeness = 1 - float64(missing)/float64(total)
	q.Uniqueness = uniq / cols
	q.TypeConsistency = float64(consistent) / cols
	q.Validity = float64(valid) / cols
	score := 100 * (0.4*q.Completeness + 0.2*q.Uniqueness + 0.2*q.TypeConsistency + 0.2*q.Validity)
	score = math.Max(0, math.Min(100, score))
	q.Score = math.Round(score*10) / 10
	return q
}
