// Package actions applies cleaning operations to stored datasets.
package actions

import (
	"strings"

	"github.com/KaramelBytes/smartdoc/internal/apperr"
)

// Deduplicate strategies.
const (
	KeepFirst  = "keep_first"
	KeepLatest = "keep_latest"
)

// Fill strategies for numeric columns.
const (
	FillMedian = "median"
	FillMean   = "mean"
	FillZero   = "zero"
)

// DefaultOutlierZ is the z-score cut used when a request leaves it unset.
const DefaultOutlierZ = 3.0

// DedupeRequest removes rows sharing a canonical key.
type DedupeRequest struct {
	DatasetID string   `json:"dataset_id"`
	Keys      []string `json:"key_columns,omitempty"`
	Strategy  string   `json:"strategy,omitempty"`
	OrderBy   string   `json:"order_by,omitempty"`
	// DryRun defaults to true; only an explicit false mutates.
	DryRun *bool `json:"dry_run,omitempty"`
}

// IsDryRun reports whether the request only previews.
func (r DedupeRequest) IsDryRun() bool { return r.DryRun == nil || *r.DryRun }

// Validate fills defaults and checks the request shape.
func (r *DedupeRequest) Validate() error {
	if err := needID(r.DatasetID); err != nil {
		return err
	}
	if len(r.Keys) == 0 {
		r.Keys = []string{"email"}
	}
	for _, k := range r.Keys {
		if strings.TrimSpace(k) == "" {
			return apperr.Validation("key_columns", "key column name is empty")
		}
	}
	switch r.Strategy {
	case "":
		r.Strategy = KeepFirst
	case KeepFirst, KeepLatest:
	default:
		return apperr.Validation("strategy", "must be %s or %s, got %q", KeepFirst, KeepLatest, r.Strategy)
	}
	if r.OrderBy != "" && r.Strategy != KeepLatest {
		return apperr.Validation("order_by", "only applies to %s", KeepLatest)
	}
	return nil
}

// FillRequest fills missing cells.
type FillRequest struct {
	DatasetID string `json:"dataset_id"`
	Strategy  string `json:"strategy,omitempty"`
}

// Validate fills defaults and checks the request shape.
func (r *FillRequest) Validate() error {
	if err := needID(r.DatasetID); err != nil {
		return err
	}
	switch r.Strategy {
	case "":
		r.Strategy = FillMedian
	case FillMedian, FillMean, FillZero:
	default:
		return apperr.Validation("strategy", "must be median, mean or zero, got %q", r.Strategy)
	}
	return nil
}

// OutlierRequest drops rows whose value in Column is further than Z standard
// deviations from the mean.
type OutlierRequest struct {
	DatasetID string  `json:"dataset_id"`
	Column    string  `json:"column"`
	Z         float64 `json:"z,omitempty"`
}

// Validate fills defaults and checks the request shape.
func (r *OutlierRequest) Validate() error {
	if err := needID(r.DatasetID); err != nil {
		return err
	}
	if r.Column == "" {
		return apperr.Validation("column", "is empty")
	}
	if r.Z == 0 {
		r.Z = DefaultOutlierZ
	}
	if r.Z < 0 {
		return apperr.Validation("z", "must be positive, got %g", r.Z)
	}
	return nil
}

// ExportRequest selects rows whose cells equal every filter value.
type ExportRequest struct {
	DatasetID string            `json:"dataset_id"`
	Filters   map[string]string `json:"filters,omitempty"`
}

// Validate checks the request shape.
func (r *ExportRequest) Validate() error {
	return needID(r.DatasetID)
}

func needID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Validation("dataset_id", "is empty")
	}
	return nil
}
