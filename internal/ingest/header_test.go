package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanHeadersIdempotent(t *testing.T) {
	raw := []string{"Name", " name ", "", "Unnamed: 3", "a\nb", "  spaced   out "}
	once := CleanHeaders(raw)
	assert.Equal(t, []string{"Name", "name_2", "col_3", "col_4", "a b", "spaced out"}, once)
	assert.Equal(t, once, CleanHeaders(once))
}

func TestScoreHeaderRow(t *testing.T) {
	assert.Equal(t, 0.0, ScoreHeaderRow([]string{"", " ", ""}))
	header := ScoreHeaderRow([]string{"id", "name", "amount"})
	data := ScoreHeaderRow([]string{"1", "bob", "10"})
	assert.Greater(t, header, data)
}

func TestBestHeaderRowSkipsPreamble(t *testing.T) {
	g := Grid{
		{"Report 2024", "", ""},
		{"id", "name", "amount"},
		{"1", "bob", "10"},
	}
	assert.Equal(t, 1, BestHeaderRow(g, 8))
	assert.Equal(t, 0, BestHeaderRow(Grid{{""}, {""}}, 8))
}

func TestResolveHeadersTitleGuard(t *testing.T) {
	g := Grid{
		{"Quarterly revenue export for the finance team"},
		{"amount"},
		{"10"},
	}
	res := ResolveHeaders(g, 8)
	assert.True(t, res.Info.TitleDropped)
	assert.Equal(t, []string{"amount"}, res.Headers)
	require.Len(t, res.Body, 1)
	assert.Equal(t, "10", res.Body[0][0])
}

func TestResolveHeadersHierarchical(t *testing.T) {
	g := Grid{
		{"Geographic Region", "Sales Performance Numbers", ""},
		{"", "First Half", "Second Half"},
		{"North", "10", "20"},
	}
	res := ResolveHeaders(g, 8)
	assert.True(t, res.Info.Hierarchical)
	assert.Equal(t, []string{
		"Geographic Region",
		"Sales Performance Numbers | First Half",
		"Second Half",
	}, res.Headers)
	require.Len(t, res.Body, 1)
	assert.Equal(t, "North", res.Body[0][0])
}

func TestResolveHeadersKeepsDataRowUnderBlankHeader(t *testing.T) {
	g := Grid{
		{"region name", "amount sold", ""},
		{"North", "10", "20"},
		{"South", "30", "40"},
	}
	res := ResolveHeaders(g, 8)
	assert.False(t, res.Info.Hierarchical)
	assert.Equal(t, []string{"region name", "amount sold", "col_3"}, res.Headers)
	assert.Len(t, res.Body, 2)
}

func TestDropEmptyEdges(t *testing.T) {
	headers := []string{"a", "col_2", "b"}
	gen := []bool{false, true, false}
	body := Grid{{"1", "", ""}, {"", "", ""}, {"2", "", "z"}}
	h, out := dropEmptyEdges(headers, gen, body)
	assert.Equal(t, []string{"a", "b"}, h)
	assert.Equal(t, Grid{{"1", ""}, {"2", "z"}}, out)
}
