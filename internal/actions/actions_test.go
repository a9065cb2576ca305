package actions

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/smartdoc/internal/apperr"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
	"github.com/KaramelBytes/smartdoc/internal/store"
)

func seed(t *testing.T, headers []string, rows ...ingest.Row) (*Executor, string) {
	t.Helper()
	reg := store.New()
	id := reg.Create(headers, rows)
	return New(reg, nil), id
}

func boolPtr(b bool) *bool { return &b }

func TestDeduplicateKeepFirst(t *testing.T) {
	x, id := seed(t, []string{"email", "name"},
		ingest.Row{"email": "a@x.com", "name": "first"},
		ingest.Row{"email": " A@X.COM ", "name": "second"},
		ingest.Row{"email": "b@x.com", "name": "third"},
	)
	res, err := x.Deduplicate(DedupeRequest{DatasetID: id, DryRun: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.WillRemove)
	assert.Equal(t, 2, res.WillKeep)
	assert.Equal(t, KeepFirst, res.Strategy)
	assert.Equal(t, DedupeExecuteURL, res.ExecuteURL)
	assert.Equal(t, []ingest.Row{{"email": " A@X.COM ", "name": "second"}}, res.AffectedRecords)
	assert.Equal(t, 2, res.Version)

	ds, err := x.reg.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "third"}, ingest.Column(ds.Rows, "name"))
}

func TestDeduplicateDryRunDoesNotMutate(t *testing.T) {
	rows := make([]ingest.Row, 0, 120)
	for i := 0; i < 120; i++ {
		rows = append(rows, ingest.Row{"email": fmt.Sprintf("u%d@x.com", i%10)})
	}
	x, id := seed(t, []string{"email"}, rows...)
	res, err := x.Deduplicate(DedupeRequest{DatasetID: id})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 120, res.WillKeep+res.WillRemove)
	assert.Equal(t, 110, res.WillRemove)
	assert.Len(t, res.AffectedRecords, MaxAffectedRecords)
	assert.Equal(t, 1, res.Version)

	ds, _ := x.reg.Get(id)
	assert.Len(t, ds.Rows, 120)
}

func TestDeduplicateKeepLatest(t *testing.T) {
	h := []string{"email", "updated", "n"}
	rows := []ingest.Row{
		{"email": "a", "updated": "2024-03-01", "n": "1"},
		{"email": "a", "updated": "2024-05-01", "n": "2"},
		{"email": "a", "updated": "2024-04-01", "n": "3"},
		{"email": "b", "updated": "", "n": "4"},
		{"email": "b", "updated": "", "n": "5"},
	}
	x, id := seed(t, h, rows...)
	_, err := x.Deduplicate(DedupeRequest{DatasetID: id, Strategy: KeepLatest, OrderBy: "updated", DryRun: boolPtr(false)})
	require.NoError(t, err)
	ds, _ := x.reg.Get(id)
	assert.Equal(t, []string{"2", "5"}, ingest.Column(ds.Rows, "n"))

	x, id = seed(t, h, rows...)
	_, err = x.Deduplicate(DedupeRequest{DatasetID: id, Strategy: KeepLatest, DryRun: boolPtr(false)})
	require.NoError(t, err)
	ds, _ = x.reg.Get(id)
	assert.Equal(t, []string{"3", "5"}, ingest.Column(ds.Rows, "n"), "position decides without order_by")
}

func TestDeduplicateValidation(t *testing.T) {
	x, id := seed(t, []string{"email"}, ingest.Row{"email": "a"})
	_, err := x.Deduplicate(DedupeRequest{DatasetID: id, Strategy: "keep_random"})
	assert.True(t, apperr.IsValidation(err))
	_, err = x.Deduplicate(DedupeRequest{DatasetID: id, Keys: []string{"phone"}})
	assert.True(t, apperr.IsValidation(err))
	_, err = x.Deduplicate(DedupeRequest{DatasetID: id, OrderBy: "email"})
	assert.True(t, apperr.IsValidation(err))
	_, err = x.Deduplicate(DedupeRequest{DatasetID: "nope"})
	assert.True(t, apperr.IsNotFound(err))
	_, err = x.Deduplicate(DedupeRequest{})
	assert.True(t, apperr.IsValidation(err))
}

func TestFillMissing(t *testing.T) {
	h := []string{"amount", "city"}
	x, id := seed(t, h,
		ingest.Row{"amount": "1", "city": "oslo"},
		ingest.Row{"amount": "NaN", "city": "  "},
		ingest.Row{"amount": "3", "city": "None"},
		ingest.Row{"amount": "10", "city": "null"},
		ingest.Row{"amount": "", "city": "rome"},
	)
	res, err := x.FillMissing(FillRequest{DatasetID: id})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"amount": 2, "city": 3}, res.Filled)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, "Missing values filled", res.Message)

	ds, _ := x.reg.Get(id)
	assert.Equal(t, []string{"1", "3", "3", "10", "3"}, ingest.Column(ds.Rows, "amount"))
	assert.Equal(t, []string{"oslo", "N/A", "N/A", "N/A", "rome"}, ingest.Column(ds.Rows, "city"))
	for _, r := range ds.Rows {
		for _, v := range r {
			assert.False(t, ingest.IsMissing(v))
		}
	}

	again, err := x.FillMissing(FillRequest{DatasetID: id, Strategy: FillZero})
	require.NoError(t, err)
	assert.Zero(t, again.Total)
	assert.Equal(t, res.Version, again.Version)
}

func TestFillMissingMean(t *testing.T) {
	x, id := seed(t, []string{"v"}, ingest.Row{"v": "1"}, ingest.Row{"v": "2"}, ingest.Row{"v": ""})
	_, err := x.FillMissing(FillRequest{DatasetID: id, Strategy: FillMean})
	require.NoError(t, err)
	ds, _ := x.reg.Get(id)
	assert.Equal(t, "1.5", ds.Rows[2]["v"])

	_, err = x.FillMissing(FillRequest{DatasetID: id, Strategy: "mode"})
	assert.True(t, apperr.IsValidation(err))
}

func TestRemoveOutliers(t *testing.T) {
	h := []string{"v"}
	var rows []ingest.Row
	for i := 0; i < 20; i++ {
		rows = append(rows, ingest.Row{"v": "10"})
	}
	rows = append(rows, ingest.Row{"v": "1000"}, ingest.Row{"v": "n/a"})
	x, id := seed(t, h, rows...)
	res, err := x.RemoveOutliers(OutlierRequest{DatasetID: id, Column: "v"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 21, res.Kept)
	assert.Equal(t, 2, res.Version)
}

func TestRemoveOutliersIdenticalValues(t *testing.T) {
	x, id := seed(t, []string{"v"},
		ingest.Row{"v": "5"}, ingest.Row{"v": "5"}, ingest.Row{"v": "5"}, ingest.Row{"v": "5"}, ingest.Row{"v": "5"})
	res, err := x.RemoveOutliers(OutlierRequest{DatasetID: id, Column: "v", Z: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)
	assert.Equal(t, 5, res.Kept)
	assert.Equal(t, 1, res.Version)

	_, err = x.RemoveOutliers(OutlierRequest{DatasetID: id, Column: "missing"})
	assert.True(t, apperr.IsValidation(err))
	_, err = x.RemoveOutliers(OutlierRequest{DatasetID: id, Column: "v", Z: -1})
	assert.True(t, apperr.IsValidation(err))
}

func TestExportSegment(t *testing.T) {
	h := []string{"region", "amount"}
	x, id := seed(t, h,
		ingest.Row{"region": "west", "amount": "1"},
		ingest.Row{"region": "West", "amount": "2"},
		ingest.Row{"region": "west", "amount": "3"},
	)
	res, err := x.ExportSegment(ExportRequest{DatasetID: id, Filters: map[string]string{"region": "west"}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, h, res.Headers)
	assert.Equal(t, []string{"1", "3"}, ingest.Column(res.Rows, "amount"))

	res.Rows[0]["amount"] = "changed"
	ds, _ := x.reg.Get(id)
	assert.Equal(t, "1", ds.Rows[0]["amount"])
	assert.Equal(t, 1, ds.Version)

	_, err = x.ExportSegment(ExportRequest{DatasetID: id, Filters: map[string]string{"nope": "x"}})
	assert.True(t, apperr.IsValidation(err))
}
