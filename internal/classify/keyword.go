package classify

import (
	"math"
	"sort"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// domainKeywords is one row of the keyword table. A primary hit counts
// double; the sum is scaled by Weight.
type domainKeywords struct {
	Label     string
	Primary   []string
	Secondary []string
	Weight    float64
}

// domainTable order breaks ties: the earlier domain wins.
var domainTable = []domainKeywords{
	{"hr", []string{"employee", "department", "salary", "payroll", "attendance", "designation"},
		[]string{"hire", "termination", "performance", "review", "benefits", "compensation"}, 1.2},
	{"sales", []string{"revenue", "sales", "amount", "customer", "region", "invoice", "order"},
		[]string{"quota", "commission", "pipeline", "territory", "deal", "forecast"}, 1.1},
	{"finance", []string{"ledger", "account", "credit", "debit", "loan", "gst", "tax"},
		[]string{"balance", "expense", "asset", "liability", "audit", "budget"}, 1.1},
	{"personal_expense", []string{"expense", "category", "note", "fuel", "groceries", "payment_mode"},
		[]string{"budget", "savings", "spending", "transaction", "receipt"}, 1.0},
	{"admin", []string{"policy", "vendor", "contract", "compliance", "approval", "office"},
		[]string{"facility", "asset", "maintenance", "procurement", "document"}, 1.0},
	{"procurement", []string{"po_number", "supplier", "item", "purchase", "cost"},
		[]string{"vendor", "order", "delivery", "inventory", "requisition"}, 1.0},
	{"marketing", []string{"campaign", "impressions", "clicks", "budget", "reach", "ad_spend"},
		[]string{"conversion", "roi", "lead", "audience", "engagement", "ctr"}, 1.0},
	{"it", []string{"device", "software", "ticket", "server", "user", "network"},
		[]string{"support", "incident", "system", "application", "security"}, 1.0},
	{"factory", []string{"machine", "operator", "shift", "maintenance", "batch", "yield"},
		[]string{"production", "quality", "defect", "downtime", "efficiency"}, 1.0},
	{"manufacturing", []string{"production", "raw_material", "qc", "assembly", "process"},
		[]string{"manufacturing", "component", "inspection", "batch", "output"}, 1.0},
	{"personal_life", []string{"habit", "goal", "mood", "sleep", "energy", "reflection"},
		[]string{"wellness", "fitness", "health", "routine", "progress"}, 1.0},
	{"healthcare", []string{"patient", "diagnosis", "treatment", "medication", "hospital"},
		[]string{"medical", "health", "clinical", "therapy", "appointment"}, 1.0},
	{"education", []string{"student", "grade", "course", "attendance", "performance"},
		[]string{"teacher", "class", "assignment", "exam", "curriculum"}, 1.0},
	{"ecommerce", []string{"product", "sku", "price", "inventory", "category", "review"},
		[]string{"order", "shipping", "customer", "cart", "payment"}, 1.0},
}

type keywordRef struct {
	domain  int
	primary bool
}

// KeywordClassifier scores every domain by how many of its keywords occur as
// substrings of the text. All keywords are matched in one pass.
type KeywordClassifier struct {
	ac   ahocorasick.AhoCorasick
	refs [][]keywordRef // indexed by automaton pattern id
}

// NewKeyword builds the keyword automaton.
func NewKeyword() *KeywordClassifier {
	index := map[string]int{}
	var patterns []string
	var refs [][]keywordRef
	add := func(kw string, ref keywordRef) {
		i, ok := index[kw]
		if !ok {
			i = len(patterns)
			index[kw] = i
			patterns = append(patterns, kw)
			refs = append(refs, nil)
		}
		refs[i] = append(refs[i], ref)
	}
	for d, row := range domainTable {
		for _, kw := range row.Primary {
			add(kw, keywordRef{domain: d, primary: true})
		}
		for _, kw := range row.Secondary {
			add(kw, keywordRef{domain: d})
		}
	}
	b := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.StandardMatch, // IterOverlapping needs it
	})
	return &KeywordClassifier{ac: b.Build(patterns), refs: refs}
}

// Classify scores text without column-pattern bonuses.
func (k *KeywordClassifier) Classify(text string) (Result, error) {
	return k.ClassifyPatterns(text, Patterns{})
}

// ClassifyPatterns scores text and adds the column-pattern bonuses: amount
// columns favour finance (+2), then name columns favour hr (+1), then amount
// columns favour sales and ecommerce (+1.5). Scores are normalized by the
// best; the top three runners-up are reported.
func (k *KeywordClassifier) ClassifyPatterns(text string, p Patterns) (Result, error) {
	scores := k.scores(text)
	for d, row := range domainTable {
		switch {
		case row.Label == "finance" && p.HasAmounts:
			scores[d] += 2
		case row.Label == "hr" && p.HasNames:
			scores[d] += 1
		case (row.Label == "sales" || row.Label == "ecommerce") && p.HasAmounts:
			scores[d] += 1.5
		}
	}

	best := 0
	for d := range scores {
		if scores[d] > scores[best] {
			best = d
		}
	}
	if scores[best] <= 0 {
		return Result{Label: Generic, Confidence: 0.1, Alternatives: []Alternative{}, Method: MethodFallback}, nil
	}

	top := scores[best]
	var alts []Alternative
	for d, s := range scores {
		if d == best {
			continue
		}
		alts = append(alts, Alternative{Label: domainTable[d].Label, Confidence: round(s/top, 2)})
	}
	sort.SliceStable(alts, func(i, j int) bool { return alts[i].Confidence > alts[j].Confidence })
	if len(alts) > 3 {
		alts = alts[:3]
	}
	return Result{
		Label:        domainTable[best].Label,
		Confidence:   round(scores[best]/top, 2),
		Alternatives: alts,
		Method:       MethodKeyword,
	}, nil
}

// scores counts each distinct keyword once per domain.
func (k *KeywordClassifier) scores(text string) []float64 {
	seen := make([]bool, len(k.refs))
	iter := k.ac.IterOverlapping(text)
	for m := iter.Next(); m != nil; m = iter.Next() {
		seen[m.Pattern()] = true
	}
	primary := make([]int, len(domainTable))
	secondary := make([]int, len(domainTable))
	for i, hit := range seen {
		if !hit {
			continue
		}
		for _, r := range k.refs[i] {
			if r.primary {
				primary[r.domain]++
			} else {
				secondary[r.domain]++
			}
		}
	}
	out := make([]float64, len(domainTable))
	for d, row := range domainTable {
		out[d] = float64(primary[d]*2+secondary[d]) * row.Weight
	}
	return out
}

// Labels lists the domains the keyword table knows, in table order.
func Labels() []string {
	out := make([]string, len(domainTable))
	for i, row := range domainTable {
		out[i] = row.Label
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
