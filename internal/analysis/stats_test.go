package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/smartdoc/internal/apperr"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

func rowsOf(headers []string, cells ...[]string) []ingest.Row {
	out := make([]ingest.Row, len(cells))
	for i, c := range cells {
		r := ingest.Row{}
		for j, h := range headers {
			r[h] = c[j]
		}
		out[i] = r
	}
	return out
}

func TestNumericIQROutlier(t *testing.T) {
	s, ok := Numeric("amount", []string{"10", "12", "11", "13", "1000"})
	require.True(t, ok)
	assert.Equal(t, 5, s.N)
	assert.Equal(t, 11.0, s.Q1)
	assert.Equal(t, 13.0, s.Q3)
	assert.Equal(t, 2.0, s.IQR)
	assert.Equal(t, 1, s.OutlierCount)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 1000.0, s.Max)
	assert.InDelta(t, 209.2, s.Mean, 1e-9)
}

func TestZScanFlagsExtremeValue(t *testing.T) {
	flagged := ZScan([]string{"10", "12", "11", "13", "1000"}, 3)
	require.Len(t, flagged, 1)
	assert.Equal(t, 4, flagged[0].Row)
	assert.Equal(t, 1000.0, flagged[0].Value)
}

func TestZScanClassicThreshold(t *testing.T) {
	vals := make([]string, 0, 101)
	for i := 0; i < 100; i++ {
		vals = append(vals, fmt.Sprint(50+i%3))
	}
	vals = append(vals, "500")
	flagged := ZScan(vals, 3)
	require.NotEmpty(t, flagged)
	last := flagged[len(flagged)-1]
	assert.Equal(t, 100, last.Row)
	assert.Greater(t, last.Z, 3.0)
}

func TestZScanSkipsZeroSpread(t *testing.T) {
	assert.Empty(t, ZScan([]string{"5", "5", "5", "5", "5"}, 3))
	assert.Empty(t, ZScan([]string{"5"}, 3))
}

func TestPearson(t *testing.T) {
	r, ok := Pearson([]string{"1", "2", "3", "4"}, []string{"-1", "-2", "-3", "-4"})
	require.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-12)

	_, ok = Pearson([]string{"1", "2"}, []string{"2", "4"})
	assert.False(t, ok, "fewer than three pairs")
	_, ok = Pearson([]string{"1", "2", "3"}, []string{"7", "7", "7"})
	assert.False(t, ok, "zero variance")

	r, ok = Pearson([]string{"1", "", "3", "4", "5"}, []string{"2", "9", "6", "x", "10"})
	require.True(t, ok, "pairwise deletion keeps three pairs")
	assert.InDelta(t, 1.0, r, 1e-12)
}

func TestCategoricalTopAndMissingBucket(t *testing.T) {
	s := Categorical("city", []string{"b", "a", "b", "a", "", "c"})
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 4, s.Distinct)
	require.Len(t, s.Top5, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{s.Top5[0].Value, s.Top5[1].Value, s.Top5[2].Value})
	assert.InDelta(t, 2.0/6, s.DominantShare, 1e-12)
}

func TestQualityScore(t *testing.T) {
	assert.Equal(t, 0.0, Quality(nil, nil).Score)
	assert.Equal(t, 0.0, Quality([]string{"a"}, nil).Score)

	h := []string{"id", "name"}
	perfect := rowsOf(h, []string{"1", "ann"}, []string{"2", "bob"}, []string{"3", "cy"})
	assert.Equal(t, 100.0, Quality(h, perfect).Score)

	messy := rowsOf(h, []string{"1", ""}, []string{"Inf", "x"}, []string{"2024-01-01", "x"})
	q := Quality(h, messy)
	assert.GreaterOrEqual(t, q.Score, 0.0)
	assert.LessOrEqual(t, q.Score, 100.0)
	assert.Equal(t, 0.5, q.Validity)
	assert.Equal(t, 0.5, q.TypeConsistency)
	assert.Equal(t, math.Round(q.Score*10)/10, q.Score)
}

func TestDuplicatesAndTopPairs(t *testing.T) {
	h := []string{"a", "b"}
	rows := rowsOf(h, []string{"1", "x"}, []string{"2", "y"}, []string{"1", "x"})
	d := Duplicates(h, rows)
	assert.Equal(t, 2, d.Count)
	assert.Len(t, d.Rows, 2)

	corrs := []Correlation{{"a", "b", 0.2}, {"a", "c", -0.95}, {"b", "c", 0.6}}
	top := TopPairs(corrs, 0.5, 25)
	assert.Equal(t, []Correlation{{"a", "c", -0.95}, {"b", "c", 0.6}}, top)
	assert.Len(t, TopPairs(corrs, 0, 1), 1)
}

func TestForTarget(t *testing.T) {
	h := []string{"sales", "ads", "noise"}
	rows := rowsOf(h,
		[]string{"10", "1", "5"},
		[]string{"20", "2", "1"},
		[]string{"30", "3", "4"},
		[]string{"40", "4", "2"},
	)
	got := ForTarget(rows, "sales", h, 0.5)
	require.Len(t, got, 1)
	assert.Equal(t, "ads", got[0].Column)
	assert.InDelta(t, 1.0, got[0].R, 1e-12)
}

func TestCorrelateReport(t *testing.T) {
	h := []string{"sales", "ads", "region"}
	rows := rowsOf(h,
		[]string{"10", "1", "n"},
		[]string{"20", "2", "s"},
		[]string{"30", "3", "n"},
		[]string{"40", "4", "s"},
	)
	rep, err := Correlate(h, rows, "", 0.5)
	require.NoError(t, err)
	require.Len(t, rep.Pairs, 1)
	assert.Equal(t, "sales", rep.Pairs[0].A)
	assert.Empty(t, rep.Message)

	rep, err = Correlate(h, rows, "ads", 0.5)
	require.NoError(t, err)
	require.Len(t, rep.Correlations, 1)
	assert.Equal(t, "sales", rep.Correlations[0].Column)

	_, err = Correlate(h, rows, "region", 0.5)
	assert.True(t, apperr.IsValidation(err))

	// nine perfectly correlated columns give 36 pairs; only 25 are reported
	var wide []string
	for j := 0; j < 9; j++ {
		wide = append(wide, fmt.Sprintf("c%d", j))
	}
	var cells [][]string
	for i := 1; i <= 6; i++ {
		row := make([]string, len(wide))
		for j := range wide {
			row[j] = fmt.Sprint(i*(j+1) + j)
		}
		cells = append(cells, row)
	}
	rep, err = Correlate(wide, rowsOf(wide, cells...), "", 0.5)
	require.NoError(t, err)
	assert.Len(t, rep.Pairs, 25)
}

func TestRunProfile(t *testing.T) {
	h := []string{"amount", "refund", "region", "when"}
	var cells [][]string
	for i := 0; i < 40; i++ {
		cells = append(cells, []string{
			fmt.Sprint(10 + i), fmt.Sprint(-10 - i), []string{"north", "south"}[i%2], fmt.Sprintf("2024-01-%02d", i%28+1),
		})
	}
	rows := rowsOf(h, cells...)
	p, err := Run(context.Background(), h, rows, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Summary{Rows: 40, Columns: 4, NumericColumns: 2, CategoricalColumns: 1, DateColumns: 1}, p.Summary)
	require.Len(t, p.Correlations, 1)
	assert.InDelta(t, -1.0, p.Correlations[0].R, 1e-12)
	assert.Equal(t, []string{"amount", "refund"}, p.NumericColumns())
	require.Len(t, p.Categorical, 1)
	assert.Equal(t, 0.5, p.Categorical[0].DominantShare)
	assert.Zero(t, p.SampledRows)

	md := p.Markdown("sales.csv")
	for _, want := range []string{"[DATASET SUMMARY]", "File: sales.csv", "Rows: 40", "[CORRELATIONS]", "amount ~ refund: r=-1.000"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRunDownsamplesAndHonorsContext(t *testing.T) {
	h := []string{"v"}
	var cells [][]string
	for i := 0; i < 100; i++ {
		cells = append(cells, []string{fmt.Sprint(i)})
	}
	rows := rowsOf(h, cells...)
	p, err := Run(context.Background(), h, rows, Options{MaxCells: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, p.SampledRows)
	assert.Equal(t, 100, p.Summary.Rows)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, h, rows, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmpty(t *testing.T) {
	p, err := Run(context.Background(), nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Quality.Score)
	assert.Empty(t, p.Numeric)
}
