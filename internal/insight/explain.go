package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

// Contributor is one ranked dimension value.
type Contributor struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// Note is one line of an explanation.
type Note struct {
	Text   string        `json:"text"`
	Detail string        `json:"detail,omitempty"`
	Items  []Contributor `json:"items,omitempty"`
}

// Explanation answers a plain-language question with heuristics over rows.
type Explanation struct {
	Notes []Note `json:"explanation"`
}

const topContributors = 5

// Explain recognizes two question shapes: "why ... drop/decrease", answered
// with the largest month-over-month relative drop of the first numeric column
// bucketed by the first date column, and "top ... customer/product", answered
// with the five largest totals per customer, product or category.
func Explain(headers []string, rows []ingest.Row, question string) Explanation {
	q := strings.ToLower(question)
	var nums, dates []string
	for _, h := range headers {
		if anyNumeric(rows, h) {
			nums = append(nums, h)
		}
		if strings.Contains(strings.ToLower(h), "date") {
			dates = append(dates, h)
		}
	}

	switch {
	case strings.Contains(q, "why") && (strings.Contains(q, "drop") || strings.Contains(q, "decrease")):
		if len(nums) == 0 || len(dates) == 0 {
			return Explanation{Notes: []Note{{Text: "Insufficient date or numeric columns to diagnose a drop."}}}
		}
		period, pct, ok := worstDrop(rows, dates[0], nums[0])
		if !ok {
			return Explanation{Notes: []Note{}}
		}
		return Explanation{Notes: []Note{{
			Text:   fmt.Sprintf("Largest relative drop found in %s: %s%% vs previous period.", period, ingest.FormatNumber(pct)),
			Detail: "MoM on first numeric column.",
		}}}

	case strings.Contains(q, "top") && (strings.Contains(q, "customer") || strings.Contains(q, "product")):
		dim := dimensionColumn(headers)
		if len(nums) == 0 || dim == "" {
			return Explanation{Notes: []Note{{Text: "Could not find suitable dimension/value columns for ranking."}}}
		}
		return Explanation{Notes: []Note{{
			Text:  fmt.Sprintf("Top contributors by %s:", dim),
			Items: rankContributors(rows, dim, nums[0]),
		}}}
	}
	return Explanation{Notes: []Note{{Text: "No specific heuristic matched the question; try Explore or refine question."}}}
}

func dimensionColumn(headers []string) string {
	for _, h := range headers {
		switch strings.ToLower(h) {
		case "customer", "product", "category":
			return h
		}
	}
	return ""
}

func anyNumeric(rows []ingest.Row, col string) bool {
	for _, r := range rows {
		if _, ok := ingest.ParseFinite(r[col]); ok {
			return true
		}
	}
	return false
}

// worstDrop sums value per YYYY-MM prefix of the date column and returns the
// period with the most negative change relative to the previous period.
func worstDrop(rows []ingest.Row, dateCol, valCol string) (string, float64, bool) {
	buckets := map[string]float64{}
	for _, r := range rows {
		v, ok := ingest.ParseFinite(r[valCol])
		if !ok {
			continue
		}
		d := strings.TrimSpace(r[dateCol])
		if len(d) > 7 {
			d = d[:7]
		}
		buckets[d] += v
	}
	periods := make([]string, 0, len(buckets))
	for k := range buckets {
		periods = append(periods, k)
	}
	sort.Strings(periods)

	found := false
	var worst string
	var worstPct float64
	for i := 1; i < len(periods); i++ {
		prev, cur := buckets[periods[i-1]], buckets[periods[i]]
		if prev == 0 {
			continue
		}
		pct := math.Round((cur-prev)/prev*100*100) / 100
		if !found || pct < worstPct {
			worst, worstPct, found = periods[i], pct, true
		}
	}
	return worst, worstPct, found
}

func rankContributors(rows []ingest.Row, dim, valCol string) []Contributor {
	totals := map[string]float64{}
	var order []string
	for _, r := range rows {
		k := strings.TrimSpace(r[dim])
		v, ok := ingest.ParseFinite(r[valCol])
		if k == "" || !ok {
			continue
		}
		if _, seen := totals[k]; !seen {
			order = append(order, k)
		}
		totals[k] += v
	}
	out := make([]Contributor, len(order))
	for i, k := range order {
		out[i] = Contributor{Name: k, Total: totals[k]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if len(out) > topContributors {
		out = out[:topContributors]
	}
	return out
}
