package analysis

import (
	"math"
	"strings"

	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

const (
	// DefaultZThreshold is the classic |z| cutoff.
	DefaultZThreshold = 3.0
	// RobustZThreshold is the cutoff for the MAD-based modified z-score.
	RobustZThreshold = 3.5

	maxOutliersPerColumn = 100
	maxDuplicateRows     = 50
)

// ZOutlier is one flagged cell of the z-score scan.
type ZOutlier struct {
	Row     int     `json:"row"`
	Value   float64 `json:"value"`
	Z       float64 `json:"z"`
	RobustZ float64 `json:"robust_z"`
}

// DuplicateReport counts rows that have at least one exact twin.
type DuplicateReport struct {
	Count int          `json:"count"`
	Rows  []ingest.Row `json:"rows"`
}

// ScanReport is the quality scan used by the detect and analyze paths.
type ScanReport struct {
	Duplicates DuplicateReport       `json:"duplicates"`
	Missing    map[string]int        `json:"missing"`
	Outliers   map[string][]ZOutlier `json:"outliers"`
}

// ZScan flags values whose classic z-score (population std) exceeds
// threshold, or whose modified z-score 0.6745·(x−median)/MAD exceeds
// RobustZThreshold. With a MAD of zero the mean absolute deviation scaled by
// 1.2533 stands in. Columns with zero or undefined spread are skipped.
func ZScan(values []string, threshold float64) []ZOutlier {
	if threshold <= 0 {
		threshold = DefaultZThreshold
	}
	type cell struct {
		row int
		v   float64
	}
	var cells []cell
	var vals []float64
	for i, raw := range values {
		if ingest.IsMissing(raw) {
			continue
		}
		if f, ok := ingest.ParseFinite(raw); ok {
			cells = append(cells, cell{i, f})
			vals = append(vals, f)
		}
	}
	mean, std := MeanStd(vals)
	if len(vals) < 2 || std == 0 || math.IsNaN(std) {
		return nil
	}
	median, mad := medianMAD(vals)
	scale := mad / 0.6745
	if mad == 0 {
		var sum float64
		for _, v := range vals {
			sum += math.Abs(v - median)
		}
		scale = 1.253314 * sum / float64(len(vals))
	}
	var out []ZOutlier
	for _, c := range cells {
		z := (c.v - mean) / std
		var rz float64
		if scale > 0 {
			rz = (c.v - median) / scale
		}
		if math.Abs(z) > threshold || math.Abs(rz) > RobustZThreshold {
			out = append(out, ZOutlier{Row: c.row, Value: c.v, Z: z, RobustZ: rz})
			if len(out) == maxOutliersPerColumn {
				break
			}
		}
	}
	return out
}

// rowKey renders a row's cells in header order as a comparable key.
func rowKey(r ingest.Row, headers []string) string {
	parts := make([]string, len(headers))
	for i, h := range headers {
		parts[i] = r[h]
	}
	return strings.Join(parts, "\x1f")
}

// Duplicates reports every row that exactly equals another row.
func Duplicates(headers []string, rows []ingest.Row) DuplicateReport {
	counts := make(map[string]int, len(rows))
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = rowKey(r, headers)
		counts[keys[i]]++
	}
	rep := DuplicateReport{Rows: []ingest.Row{}}
	for i, k := range keys {
		if counts[k] < 2 {
			continue
		}
		rep.Count++
		if len(rep.Rows) < maxDuplicateRows {
			rep.Rows = append(rep.Rows, rows[i])
		}
	}
	return rep
}

// Scan runs the duplicate, missing and z-score checks over numeric columns.
func Scan(headers []string, rows []ingest.Row, numeric []string, threshold float64) ScanReport {
	rep := ScanReport{
		Duplicates: Duplicates(headers, rows),
		Missing:    make(map[string]int, len(headers)),
		Outliers:   map[string][]ZOutlier{},
	}
	for _, h := range headers {
		n := 0
		for _, r := range rows {
			if ingest.IsMissing(r[h]) {
				n++
			}
		}
		rep.Missing[h] = n
	}
	for _, c := range numeric {
		if flagged := ZScan(ingest.Column(rows, c), threshold); len(flagged) > 0 {
			rep.Outliers[c] = flagged
		}
	}
	return rep
}
