package classify

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

func TestPreprocess(t *testing.T) {
	assert.Equal(t, "employee name, dept salary", Preprocess("  Employee   Name,Dept (Salary€) "))
	assert.Equal(t, "po_number - x", Preprocess("PO_Number - X!!"))
}

func TestColumnPatterns(t *testing.T) {
	p := ColumnPatterns([]string{"Order ID", "Invoice Date", "Total", "status"})
	assert.Equal(t, Patterns{HasIDs: true, HasDates: true, HasAmounts: true, HasStatus: true}, p)

	// Underscores are word characters, so these are not whole-word hits.
	assert.Equal(t, Patterns{}, ColumnPatterns([]string{"order_id", "unit_price"}))
}

func TestKeywordClassifierHR(t *testing.T) {
	k := NewKeyword()
	headers := []string{"employee name", "department", "salary", "hire date"}
	res, err := k.ClassifyPatterns(DetectText(headers, nil, nil), ColumnPatterns(headers))
	require.NoError(t, err)
	assert.Equal(t, "hr", res.Label)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, MethodKeyword, res.Method)
	assert.Len(t, res.Alternatives, 3)
}

func TestKeywordClassifierSalesWithBonuses(t *testing.T) {
	k := NewKeyword()
	headers := []string{"invoice", "customer", "region", "amount"}
	res, err := k.ClassifyPatterns(DetectText(headers, nil, nil), ColumnPatterns(headers))
	require.NoError(t, err)
	assert.Equal(t, "sales", res.Label)
	require.Len(t, res.Alternatives, 3)
	assert.Equal(t, Alternative{"ecommerce", 0.24}, res.Alternatives[0])
	assert.Equal(t, Alternative{"finance", 0.19}, res.Alternatives[1])
}

func TestKeywordClassifierNothingMatches(t *testing.T) {
	res, err := NewKeyword().Classify("zzz qqq")
	require.NoError(t, err)
	assert.Equal(t, Generic, res.Label)
	assert.Equal(t, 0.1, res.Confidence)
	assert.Equal(t, MethodFallback, res.Method)
}

const testModel = `
labels:
  - name: sales
    bias: 0
    weights: {revenue: 2.0, invoice: 1.0}
  - name: hr
    bias: 0
    weights: {salary: 2.0, employee: 1.0}
  - name: finance
    bias: -5
    weights: {}
`

func TestModelClassifier(t *testing.T) {
	m, err := ParseModel([]byte(testModel))
	require.NoError(t, err)
	res, err := m.Classify("Revenue by invoice")
	require.NoError(t, err)
	assert.Equal(t, "sales", res.Label)
	assert.Equal(t, MethodModel, res.Method)
	// logits 3, 0, -5
	assert.InDelta(t, 0.952, res.Confidence, 1e-3)
	assert.Empty(t, res.Alternatives)

	res, err = m.Classify("nothing here")
	require.NoError(t, err)
	assert.Equal(t, "sales", res.Label, "ties go to the first label")
	require.Len(t, res.Alternatives, 1)
	assert.Equal(t, "hr", res.Alternatives[0].Label)
}

func TestParseModelRejectsBadFiles(t *testing.T) {
	_, err := ParseModel([]byte("labels: []"))
	assert.Error(t, err)
	_, err = ParseModel([]byte("labels: [{name: a}, {name: a}]"))
	assert.Error(t, err)
	_, err = ParseModel([]byte(":::"))
	assert.Error(t, err)
}

func TestNewSelectsOnce(t *testing.T) {
	_, ok := New("", nil).(*KeywordClassifier)
	assert.True(t, ok)
	_, ok = New(filepath.Join(t.TempDir(), "missing.yaml"), nil).(*KeywordClassifier)
	assert.True(t, ok, "unavailable model falls back to keywords")

	p := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(p, []byte(testModel), 0o644))
	_, ok = New(p, nil).(*ModelClassifier)
	assert.True(t, ok)
}

type failing struct{}

func (failing) Classify(string) (Result, error) { return Result{}, errors.New("boom") }

func TestDetect(t *testing.T) {
	headers := []string{"employee", "department", "salary"}
	sample := []ingest.Row{{"employee": "Ann", "department": "Payroll", "salary": "100"}}
	d := Detect(NewHolder(NewKeyword()), headers, sample, []string{"annual review"})
	assert.Equal(t, "hr", d.DataType)
	assert.Equal(t, 3, d.DetectedColumns)
	assert.Equal(t, SuggestAnalyses("hr"), d.SuggestedAnalyses)
	assert.Contains(t, d.PersonaRecommendations.Executive, "workforce_planning")

	d = Detect(failing{}, headers, nil, nil)
	assert.Equal(t, Generic, d.DataType)
	assert.Equal(t, MethodFallback, d.Method)
	assert.Equal(t, []string{"basic_summary", "pattern_detection"}, d.SuggestedAnalyses)
	assert.Len(t, d.PersonaRecommendations.Junior, 4)
}

func TestCatalogs(t *testing.T) {
	assert.Equal(t, genericAnalyses, SuggestAnalyses("unknown-domain"))
	s := SuggestAnalyses("sales")
	s[0] = "mutated"
	assert.Equal(t, "revenue_trends", SuggestAnalyses("sales")[0])

	p := PersonaMap("finance")
	assert.Len(t, p.Manager, 6)
	assert.Len(t, PersonaMap("finance").Manager, 6, "extras are not accumulated across calls")
}

func TestHolderSwaps(t *testing.T) {
	h := NewHolder(NewKeyword())
	m, err := ParseModel([]byte(testModel))
	require.NoError(t, err)
	h.Store(m)
	res, err := h.Classify("salary employee")
	require.NoError(t, err)
	assert.Equal(t, MethodModel, res.Method)
	assert.Equal(t, "hr", res.Label)
}
