package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/smartdoc/internal/explore"
)

var (
	expQuery     string
	expQueryFile string
	expGroupBy   string
	expSplitBy   string
	expMetric    string
	expAgg       string
	expLimit     int
)

var exploreCmd = &cobra.Command{
	Use:   "explore <file>",
	Short: "Filter, group and aggregate a dataset",
	Example: `  smartdoc explore sales.csv --group-by region --metric amount
  smartdoc explore sales.csv --query '{"filters":[{"column":"amount","operator":">","value":15}]}'
  smartdoc explore sales.csv --query-file q.json --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := exploreQuery(cmd)
		if err != nil {
			return err
		}
		reg, id, err := openDataset(args[0])
		if err != nil {
			return err
		}
		res, err := explore.Execute(reg, id, q)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), res, func(w io.Writer) {
			if res.Message != "" {
				_, _ = fmt.Fprintln(w, res.Message)
			}
			renderResults(w, res.Columns, res.Results)
			_, _ = fmt.Fprintf(w, "Chart: %s  Matched: %d\n", res.RecommendedChart, res.RowsAfterFilter)
			_, _ = fmt.Fprintf(w, "SQL: %s\n", res.SQLEquivalent)
		})
	},
}

// exploreQuery builds the query from --query/--query-file, then applies the
// shorthand flags on top.
func exploreQuery(cmd *cobra.Command) (explore.Query, error) {
	var q explore.Query
	raw := []byte(expQuery)
	if expQueryFile != "" {
		b, err := os.ReadFile(expQueryFile)
		if err != nil {
			return q, fmt.Errorf("read query file: %w", err)
		}
		raw = b
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &q); err != nil {
			return q, fmt.Errorf("invalid query: %w", err)
		}
	}
	f := cmd.Flags()
	if f.Changed("group-by") {
		q.GroupBy = expGroupBy
	}
	if f.Changed("split-by") {
		q.SplitBy = expSplitBy
	}
	if f.Changed("metric") {
		q.Metric = expMetric
	}
	if f.Changed("agg") {
		q.Agg = expAgg
	}
	if f.Changed("limit") {
		q.Limit = expLimit
	}
	return q, nil
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreCmd.Flags().StringVarP(&expQuery, "query", "q", "", "query as JSON")
	exploreCmd.Flags().StringVar(&expQueryFile, "query-file", "", "read the JSON query from a file")
	exploreCmd.Flags().StringVar(&expGroupBy, "group-by", "", "group rows by this column")
	exploreCmd.Flags().StringVar(&expSplitBy, "split-by", "", "pivot groups by this column (needs --group-by)")
	exploreCmd.Flags().StringVar(&expMetric, "metric", "", "numeric column to aggregate")
	exploreCmd.Flags().StringVar(&expAgg, "agg", "", "aggregation: sum|avg|count|min|max")
	exploreCmd.Flags().IntVar(&expLimit, "limit", 0, "maximum result rows")
}
