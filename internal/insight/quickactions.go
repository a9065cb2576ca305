package insight

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

// QuickAction is a one-click remediation offered next to the insights.
type QuickAction struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Severity  string         `json:"severity"`
	ActionURL string         `json:"action_url"`
	Preview   string         `json:"preview,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

// DedupeKeyColumns is the ordered allow-list of columns that identify a
// record well enough to deduplicate on.
var DedupeKeyColumns = []string{"email", "customer_id", "customer", "customer_name", "client", "client_id", "id"}

// FillMissingThreshold is the share of missing cells above which a
// fill-missing action is offered.
const FillMissingThreshold = 0.05

// QuickActions suggests fill-missing when more than 5% of all cells are
// missing, and deduplicate on the first allow-listed key column that holds
// repeated values.
func QuickActions(datasetID string, headers []string, rows []ingest.Row) []QuickAction {
	out := []QuickAction{}
	if len(headers) == 0 || len(rows) == 0 {
		return out
	}

	missing, cols := 0, 0
	for _, h := range headers {
		n := 0
		for _, r := range rows {
			if ingest.IsMissing(r[h]) {
				n++
			}
		}
		if n > 0 {
			cols++
		}
		missing += n
	}
	if share := float64(missing) / float64(len(headers)*len(rows)); share > FillMissingThreshold {
		out = append(out, QuickAction{
			ID:        "fill-missing",
			Title:     "Fill missing values",
			Severity:  SeverityMedium,
			ActionURL: "/api/actions/fill_missing",
			Preview:   fmt.Sprintf("%d missing cells across %d columns (%.1f%%)", missing, cols, share*100),
			Params:    map[string]any{"dataset_id": datasetID, "strategy": "median"},
		})
	}

	if key, ok := keyColumn(headers); ok {
		if dups := duplicateKeys(rows, key); dups > 0 {
			out = append(out, QuickAction{
				ID:        "deduplicate",
				Title:     fmt.Sprintf("Remove duplicate records by “%s”", key),
				Severity:  SeverityHigh,
				ActionURL: "/api/actions/deduplicate",
				Preview:   fmt.Sprintf("%d rows share a %s with an earlier row", dups, key),
				Params:    map[string]any{"dataset_id": datasetID, "key_columns": []string{key}, "dry_run": true},
			})
		}
	}
	return out
}

// keyColumn returns the header matching the first allow-listed key,
// compared case-insensitively.
func keyColumn(headers []string) (string, bool) {
	for _, want := range DedupeKeyColumns {
		for _, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return h, true
			}
		}
	}
	return "", false
}

// duplicateKeys counts rows whose trimmed, lower-cased key repeats an
// earlier row. Missing keys are ignored.
func duplicateKeys(rows []ingest.Row, key string) int {
	seen := make(map[string]struct{}, len(rows))
	dups := 0
	for _, r := range rows {
		v := r[key]
		if ingest.IsMissing(v) {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(v))
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}
