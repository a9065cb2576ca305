package ingest

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestReadCSVSniffsSemicolon(t *testing.T) {
	g, err := ReadCSV([]byte("\xEF\xBB\xBFa;b\n1;2\n3;4\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, Grid{{"a", "b"}, {"1", "2"}, {"3", "4"}}, g)
}

func TestReadJSONRecordsKeepsKeyOrder(t *testing.T) {
	tbl, err := ReadJSONRecords([]byte(`[{"b":1.50,"a":"x"},{"a":"y","c":null,"d":true}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c", "d"}, tbl.Headers)
	assert.Equal(t, Row{"b": "1.50", "a": "x", "c": "", "d": ""}, tbl.Rows[0])
	assert.Equal(t, Row{"b": "", "a": "y", "c": "", "d": "true"}, tbl.Rows[1])

	wrapped, err := ReadJSONRecords([]byte(`{"data":[{"k":1}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, wrapped.Headers)

	_, err = ReadJSONRecords([]byte(`{"k":1}`))
	assert.True(t, errors.Is(err, ErrNotTabular))
	_, err = ReadJSONRecords([]byte(`[1,2]`))
	assert.True(t, errors.Is(err, ErrNotTabular))
}

func TestRecordsDecodeRequestRows(t *testing.T) {
	var body struct {
		Rows Records `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"rows":[{"amount":10,"name":"a"},{"name":"b","flag":false}]}`), &body))
	assert.Equal(t, []string{"amount", "name", "flag"}, body.Rows.Keys)
	assert.Equal(t, []Row{{"amount": "10", "name": "a"}, {"name": "b", "flag": "false"}}, body.Rows.Rows)

	assert.Error(t, json.Unmarshal([]byte(`{"rows":[1]}`), &body))
}

func TestParseTabularXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"region", "amount"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"North", 10}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"South", 20}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	p, err := ParseTabular("sales.xlsx", buf.Bytes(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "amount"}, p.Headers)
	assert.Equal(t, []string{"10", "20"}, Column(p.Rows, "amount"))
	assert.Equal(t, TypeInteger, p.TypeOf("amount"))
}

func TestScrutinizeCSV(t *testing.T) {
	data := []byte("id,amount,city\n1,10,Paris\n2,-5,\n3,0,Rome\n")
	rep, p := Scrutinize("orders.csv", data, fixedNow, DefaultOptions())
	require.NotNil(t, p)
	assert.Equal(t, "csv", rep.FileType)
	assert.Equal(t, 3, rep.RowsDetected)
	assert.Equal(t, 3, rep.ColumnsDetected)
	assert.Equal(t, []string{"id", "amount", "city"}, rep.Headers)
	assert.Len(t, rep.Preview, 3)
	assert.InDelta(t, 0.3, rep.Confidence, 1e-9)

	require.NotNil(t, rep.Quality)
	assert.Equal(t, 1, rep.Quality.Missing["city"])
	assert.InDelta(t, 1.0/3, rep.Quality.MissingPct["city"], 1e-9)
	assert.Equal(t, 1, rep.Quality.NumericZeros["amount"])
	assert.Equal(t, 1, rep.Quality.NumericNegatives["amount"])
	_, hasCity := rep.Quality.NumericZeros["city"]
	assert.False(t, hasCity)

	assert.Contains(t, rep.Suggestions, "Review negative values in numeric columns.")
	assert.Contains(t, rep.Suggestions, "Consider imputing or removing columns with >20% missing.")
	require.NotNil(t, rep.HeaderIntelligence)
	assert.Equal(t, 1.0, rep.HeaderIntelligence.HeaderConfidence)
	assert.Equal(t, 0.6, rep.HeaderIntelligence.ColumnConfidence["id"])
	assert.Equal(t, 0.85, rep.HeaderIntelligence.ColumnConfidence["amount"])
}

func TestScrutinizeCleanDataLooksGood(t *testing.T) {
	rep, _ := Scrutinize("x.csv", []byte("name,score\nann,1\nbob,2\n"), fixedNow, DefaultOptions())
	assert.Equal(t, []string{looksGood}, rep.Suggestions)
}

func TestScrutinizeDegrades(t *testing.T) {
	rep, p := Scrutinize("logo.png", []byte{0x89, 'P', 'N', 'G'}, fixedNow, DefaultOptions())
	assert.Nil(t, p)
	assert.Equal(t, 0.2, rep.Confidence)
	assert.Equal(t, "png", rep.FileType)

	rep, p = Scrutinize("scan.pdf", []byte("%PDF-1.7"), fixedNow, DefaultOptions())
	assert.Nil(t, p)
	assert.Equal(t, 0.0, rep.Confidence)
	require.NotNil(t, rep.ExtractedChars)
	assert.Equal(t, 0, *rep.ExtractedChars)
	assert.NotEmpty(t, rep.Message)

	rep, p = Scrutinize("cfg.json", []byte(`{"threshold": 3}`), fixedNow, DefaultOptions())
	assert.Nil(t, p)
	assert.Equal(t, 0.5, rep.Confidence)
	assert.Equal(t, `{"threshold": 3}`, rep.Preview[0]["raw_excerpt"])
}

func TestScrutinizeText(t *testing.T) {
	rep, p := Scrutinize("notes.txt", []byte("Revenue grew.\n\nCosts fell."), fixedNow, DefaultOptions())
	assert.Nil(t, p)
	assert.Equal(t, 0.6, rep.Confidence)
	assert.Equal(t, []string{"Revenue grew.\n\nCosts fell."}, rep.TextBlocks)
	assert.Equal(t, "Revenue grew. Costs fell.", rep.SummaryExcerpt)
}
