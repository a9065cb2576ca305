package insight

import "strings"

// ChartSuggestion proposes one visualization.
type ChartSuggestion struct {
	ChartType string   `json:"chart_type"`
	XAxis     string   `json:"x_axis,omitempty"`
	YAxis     string   `json:"y_axis,omitempty"`
	Dimension string   `json:"dimension,omitempty"`
	Columns   []string `json:"columns,omitempty"`
	Reasoning string   `json:"reasoning"`
}

var (
	numericHints     = []string{"amount", "revenue", "qty", "quantity", "price", "value", "score", "count", "cost"}
	dateHints        = []string{"date", "day", "month", "year", "timestamp", "period"}
	categoricalHints = []string{"customer", "product", "department", "region", "status", "segment", "category"}
)

const tableFallbackColumns = 8

func hasHint(name string, hints []string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, h := range hints {
		if strings.Contains(n, h) {
			return true
		}
	}
	return false
}

// SuggestCharts assigns roles from column-name substrings and proposes, in
// order: a line chart (date + numeric), a bar chart (categorical + numeric),
// a histogram (numeric) and a pie chart (categorical). Columns that are
// neither numeric- nor date-like count as categorical. A table of the first
// eight columns is proposed only when nothing else applies.
func SuggestCharts(columns []string) []ChartSuggestion {
	var dates, nums, cats []string
	for _, c := range columns {
		isDate, isNum := hasHint(c, dateHints), hasHint(c, numericHints)
		if isDate {
			dates = append(dates, c)
		}
		if isNum {
			nums = append(nums, c)
		}
		if hasHint(c, categoricalHints) || (!isDate && !isNum) {
			cats = append(cats, c)
		}
	}

	out := []ChartSuggestion{}
	if len(dates) > 0 && len(nums) > 0 {
		out = append(out, ChartSuggestion{ChartType: "line", XAxis: dates[0], YAxis: nums[0],
			Reasoning: "Detected date and numeric columns for time trend."})
	}
	if len(cats) > 0 && len(nums) > 0 {
		out = append(out, ChartSuggestion{ChartType: "bar", XAxis: cats[0], YAxis: nums[0],
			Reasoning: "Detected categorical and numeric columns for comparison."})
	}
	if len(nums) > 0 {
		out = append(out, ChartSuggestion{ChartType: "histogram", XAxis: nums[0],
			Reasoning: "Numeric column suitable for distribution analysis."})
	}
	if len(cats) > 0 {
		out = append(out, ChartSuggestion{ChartType: "pie", Dimension: cats[0],
			Reasoning: "Categorical column suitable for share breakdown (limited categories recommended)."})
	}
	if len(out) == 0 && len(columns) > 0 {
		n := min(len(columns), tableFallbackColumns)
		out = append(out, ChartSuggestion{ChartType: "table", Columns: append([]string(nil), columns[:n]...),
			Reasoning: "No strong signal detected; defaulting to tabular view."})
	}
	return out
}
