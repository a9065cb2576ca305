package analysis

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

// Options controls profiling.
type Options struct {
	// MaxCells bounds rows×columns; larger inputs are stride-sampled.
	MaxCells int
}

// DefaultOptions returns the stock profiling settings.
func DefaultOptions() Options {
	return Options{MaxCells: 200000}
}

// Summary counts rows and columns by kind.
type Summary struct {
	Rows               int `json:"rows"`
	Columns            int `json:"columns"`
	NumericColumns     int `json:"numeric_columns"`
	CategoricalColumns int `json:"categorical_columns"`
	DateColumns        int `json:"date_columns"`
}

// Profile is the statistical summary of one dataset.
type Profile struct {
	Summary      Summary                   `json:"summary"`
	Schema       []ingest.ColumnDescriptor `json:"schema"`
	MissingPct   map[string]float64        `json:"missing_pct"`
	Numeric      []NumericStat             `json:"numeric_stats"`
	Categorical  []CategoricalStat         `json:"categorical_stats"`
	Correlations []Correlation             `json:"correlations"`
	Quality      QualityBreakdown          `json:"quality"`
	// SampledRows is the number of rows profiled when the input was
	// downsampled, zero otherwise.
	SampledRows int `json:"sampled_rows,omitempty"`
}

// NumericColumns lists the columns whose inferred type is numeric.
func (p *Profile) NumericColumns() []string { return numericNames(p.Schema) }

// Stat returns the numeric stat of a column.
func (p *Profile) Stat(column string) (NumericStat, bool) {
	for _, s := range p.Numeric {
		if s.Column == column {
			return s, true
		}
	}
	return NumericStat{}, false
}

// Run profiles a dataset. Per-column statistics and correlations are computed
// concurrently; rows are never modified.
func Run(ctx context.Context, headers []string, rows []ingest.Row, opt Options) (*Profile, error) {
	p := &Profile{
		Summary:      Summary{Rows: len(rows), Columns: len(headers)},
		Schema:       []ingest.ColumnDescriptor{},
		MissingPct:   map[string]float64{},
		Numeric:      []NumericStat{},
		Categorical:  []CategoricalStat{},
		Correlations: []Correlation{},
	}
	if len(rows) == 0 || len(headers) == 0 {
		return p, nil
	}
	sample, sampled := ingest.Downsample(rows, len(headers), opt.MaxCells)
	if sampled {
		p.SampledRows = len(sample)
	}
	p.Schema = ingest.InferSchema(headers, sample)

	numeric := make([]*NumericStat, len(p.Schema))
	categorical := make([]*CategoricalStat, len(p.Schema))
	missing := make([]float64, len(p.Schema))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, col := range p.Schema {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vals := ingest.Column(sample, col.Name)
			n := 0
			for _, v := range vals {
				if ingest.IsMissing(v) {
					n++
				}
			}
			missing[i] = float64(n) / float64(len(vals))
			switch {
			case col.Type.IsNumeric():
				if s, ok := Numeric(col.Name, vals); ok {
					numeric[i] = &s
				}
			case col.Type.IsCategorical():
				s := Categorical(col.Name, vals)
				categorical[i] = &s
			}
			return nil
		})
	}
	var corrs []Correlation
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		corrs = Correlations(sample, numericNames(p.Schema))
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		p.Quality = Quality(headers, sample)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, col := range p.Schema {
		p.MissingPct[col.Name] = missing[i]
		switch {
		case col.Type.IsNumeric():
			p.Summary.NumericColumns++
		case col.Type.IsCategorical():
			p.Summary.CategoricalColumns++
		case col.Type == ingest.TypeDatetime:
			p.Summary.DateColumns++
		}
		if numeric[i] != nil {
			p.Numeric = append(p.Numeric, *numeric[i])
		}
		if categorical[i] != nil {
			p.Categorical = append(p.Categorical, *categorical[i])
		}
	}
	p.Correlations = TopPairs(corrs, 0, 0)
	return p, nil
}

func numericNames(schema []ingest.ColumnDescriptor) []string {
	var out []string
	for _, c := range schema {
		if c.Type.IsNumeric() {
			out = append(out, c.Name)
		}
	}
	return out
}
