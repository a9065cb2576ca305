package actions

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/smartdoc/internal/analysis"
	"github.com/KaramelBytes/smartdoc/internal/apperr"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
	"github.com/KaramelBytes/smartdoc/internal/store"
)

// MaxAffectedRecords caps the preview of rows a dedupe would remove.
const MaxAffectedRecords = 50

// DedupeExecuteURL confirms a previewed dedupe.
const DedupeExecuteURL = "/api/actions/deduplicate?confirm=true"

// DedupeResult reports what a dedupe removes or would remove.
type DedupeResult struct {
	WillRemove      int          `json:"will_remove"`
	WillKeep        int          `json:"will_keep"`
	AffectedRecords []ingest.Row `json:"affected_records"`
	ExecuteURL      string       `json:"execute_url"`
	Strategy        string       `json:"strategy"`
	DryRun          bool         `json:"dry_run"`
	Version         int          `json:"version"`
}

// FillResult reports filled cells per column.
type FillResult struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Filled  map[string]int `json:"filled"`
	Total   int            `json:"total"`
	Version int            `json:"version"`
}

// OutlierResult reports how many rows were dropped.
type OutlierResult struct {
	Removed int `json:"removed"`
	Kept    int `json:"kept"`
	Version int `json:"version"`
}

// ExportResult is a read-only segment of a dataset.
type ExportResult struct {
	Rows    []ingest.Row `json:"rows"`
	Count   int          `json:"count"`
	Headers []string     `json:"headers"`
}

// Executor runs actions against a registry. All mutations go through
// Registry.Mutate, so a failing action leaves the dataset untouched.
type Executor struct {
	reg    *store.Registry
	logger *slog.Logger
}

// New returns an executor over reg.
func New(reg *store.Registry, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{reg: reg, logger: logger}
}

// Deduplicate removes rows whose lower-cased, trimmed key values repeat. A
// dry run only reports.
func (x *Executor) Deduplicate(req DedupeRequest) (*DedupeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res := &DedupeResult{ExecuteURL: DedupeExecuteURL, Strategy: req.Strategy, DryRun: req.IsDryRun()}
	plan := func(ds store.Dataset) ([]ingest.Row, error) {
		if err := requireColumns(ds.Headers, append(append([]string(nil), req.Keys...), req.OrderBy)...); err != nil {
			return nil, err
		}
		keep := dedupeKeep(ds.Rows, req)
		var kept, removed []ingest.Row
		for i, r := range ds.Rows {
			if keep[i] {
				kept = append(kept, r)
			} else {
				removed = append(removed, r)
			}
		}
		res.WillKeep, res.WillRemove = len(kept), len(removed)
		n := min(len(removed), MaxAffectedRecords)
		res.AffectedRecords = ingest.CloneRows(removed[:n])
		return kept, nil
	}

	var err error
	if res.DryRun {
		err = x.reg.Read(req.DatasetID, func(ds store.Dataset) error {
			res.Version = ds.Version
			_, err := plan(ds)
			return err
		})
	} else {
		res.Version, err = x.reg.Mutate(req.DatasetID, func(ds *store.Dataset) (bool, error) {
			kept, err := plan(*ds)
			if err != nil || res.WillRemove == 0 {
				return false, err
			}
			ds.Rows = kept
			return true, nil
		})
	}
	if err != nil {
		return nil, err
	}
	if !res.DryRun {
		x.logger.Info("deduplicated dataset", "dataset", req.DatasetID, "removed", res.WillRemove, "version", res.Version)
	}
	return res, nil
}

// dedupeKeep marks the surviving row of each key group.
func dedupeKeep(rows []ingest.Row, req DedupeRequest) []bool {
	keep := make([]bool, len(rows))
	winner := map[string]int{}
	var order []string
	for i, r := range rows {
		k := canonicalKey(r, req.Keys)
		j, seen := winner[k]
		if !seen {
			winner[k] = i
			order = append(order, k)
			continue
		}
		if req.Strategy == KeepLatest && !newer(rows[j], r, req.OrderBy) {
			winner[k] = i
		}
	}
	for _, k := range order {
		keep[winner[k]] = true
	}
	return keep
}

// newer reports whether the current winner a beats the later row b. Without
// an order column the later row wins; otherwise the greater date or number
// wins, ties going to the later row, and parseable values beat unparseable.
func newer(a, b ingest.Row, orderBy string) bool {
	if orderBy == "" {
		return false
	}
	av, aok := orderValue(a[orderBy])
	bv, bok := orderValue(b[orderBy])
	switch {
	case aok && bok:
		return av > bv
	case aok:
		return true
	}
	return false
}

func orderValue(s string) (float64, bool) {
	if f, ok := ingest.ParseFinite(s); ok {
		return f, true
	}
	if t, ok := ingest.ParseTime(s); ok {
		return float64(t.UnixNano()), true
	}
	return 0, false
}

func canonicalKey(r ingest.Row, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strings.ToLower(strings.TrimSpace(r[k]))
	}
	return strings.Join(parts, "\x1f")
}

// FillMissing replaces missing cells. Columns with at least one parseable
// number get the strategy's value; every other column gets "N/A".
func (x *Executor) FillMissing(req FillRequest) (*FillResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res := &FillResult{Status: "ok", Filled: map[string]int{}}
	v, err := x.reg.Mutate(req.DatasetID, func(ds *store.Dataset) (bool, error) {
		for _, h := range ds.Headers {
			fill := "N/A"
			if vals := analysis.Floats(ingest.Column(ds.Rows, h)); len(vals) > 0 {
				fill = ingest.FormatNumber(fillValue(req.Strategy, vals))
			}
			for _, r := range ds.Rows {
				if ingest.IsMissing(r[h]) {
					r[h] = fill
					res.Filled[h]++
					res.Total++
				}
			}
		}
		return res.Total > 0, nil
	})
	if err != nil {
		return nil, err
	}
	res.Version = v
	if res.Total > 0 {
		res.Message = "Missing values filled"
		x.logger.Info("filled missing values", "dataset", req.DatasetID, "cells", res.Total, "version", v)
	} else {
		res.Message = "No missing values"
	}
	return res, nil
}

func fillValue(strategy string, vals []float64) float64 {
	switch strategy {
	case FillMean:
		m, _ := analysis.MeanStd(vals)
		return m
	case FillZero:
		return 0
	}
	return analysis.Median(vals)
}

// RemoveOutliers drops rows whose value in the column has |z| above the
// threshold. Zero spread counts as a standard deviation of 1. Rows without a
// parseable value are kept.
func (x *Executor) RemoveOutliers(req OutlierRequest) (*OutlierResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res := &OutlierResult{}
	v, err := x.reg.Mutate(req.DatasetID, func(ds *store.Dataset) (bool, error) {
		if err := requireColumns(ds.Headers, req.Column); err != nil {
			return false, err
		}
		vals := analysis.Floats(ingest.Column(ds.Rows, req.Column))
		if len(vals) == 0 {
			res.Kept = len(ds.Rows)
			return false, nil
		}
		mean, std := analysis.MeanStd(vals)
		if std == 0 {
			std = 1
		}
		kept := ds.Rows[:0]
		for _, r := range ds.Rows {
			if f, ok := ingest.ParseFinite(r[req.Column]); ok && math.Abs((f-mean)/std) > req.Z {
				res.Removed++
				continue
			}
			kept = append(kept, r)
		}
		ds.Rows = kept
		res.Kept = len(kept)
		return res.Removed > 0, nil
	})
	if err != nil {
		return nil, err
	}
	res.Version = v
	if res.Removed > 0 {
		x.logger.Info("removed outliers", "dataset", req.DatasetID, "column", req.Column, "removed", res.Removed, "version", v)
	}
	return res, nil
}

// ExportSegment returns copies of the rows matching every filter exactly.
func (x *Executor) ExportSegment(req ExportRequest) (*ExportResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(req.Filters))
	for c := range req.Filters {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	res := &ExportResult{Rows: []ingest.Row{}}
	err := x.reg.Read(req.DatasetID, func(ds store.Dataset) error {
		if err := requireColumns(ds.Headers, cols...); err != nil {
			return err
		}
		res.Headers = append([]string(nil), ds.Headers...)
	rows:
		for _, r := range ds.Rows {
			for _, c := range cols {
				if r[c] != req.Filters[c] {
					continue rows
				}
			}
			res.Rows = append(res.Rows, r)
		}
		res.Rows = ingest.CloneRows(res.Rows)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Count = len(res.Rows)
	return res, nil
}

// requireColumns fails with a ValidationError naming the first column not in
// headers. Empty names are ignored.
func requireColumns(headers []string, cols ...string) error {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	for _, c := range cols {
		if c != "" && !known[c] {
			return apperr.Validation("column", "unknown column %q", c)
		}
	}
	return nil
}
