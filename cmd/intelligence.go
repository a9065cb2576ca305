package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/smartdoc/internal/analysis"
	"github.com/KaramelBytes/smartdoc/internal/apperr"
	"github.com/KaramelBytes/smartdoc/internal/insight"
	"github.com/KaramelBytes/smartdoc/internal/store"
)

var (
	corrTarget    string
	corrThreshold float64
)

var correlateCmd = &cobra.Command{
	Use:   "correlate <file>",
	Short: "List strong Pearson correlations between numeric columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold := corrThreshold
		if !cmd.Flags().Changed("threshold") {
			threshold = settings().CorrelationThreshold
		}
		if threshold < 0 || threshold > 1 {
			return apperr.Validation("threshold", "must be within [0,1], got %g", threshold)
		}
		reg, id, err := openDataset(args[0])
		if err != nil {
			return err
		}
		var rep *analysis.CorrelationReport
		err = reg.Read(id, func(ds store.Dataset) error {
			var err error
			rep, err = analysis.Correlate(ds.Headers, ds.Rows, corrTarget, threshold)
			return err
		})
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), rep, func(w io.Writer) { printCorrelations(w, rep) })
	},
}

func printCorrelations(w io.Writer, rep *analysis.CorrelationReport) {
	if rep.Message != "" {
		_, _ = fmt.Fprintln(w, rep.Message)
		return
	}
	if rep.Target != "" {
		rows := make([][]any, 0, len(rep.Correlations))
		for _, c := range rep.Correlations {
			rows = append(rows, []any{c.Column, fmt.Sprintf("%.3f", c.R)})
		}
		renderTable(w, []string{"column", "r vs " + rep.Target}, rows)
		return
	}
	rows := make([][]any, 0, len(rep.Pairs))
	for _, c := range rep.Pairs {
		rows = append(rows, []any{c.A, c.B, fmt.Sprintf("%.3f", c.R)})
	}
	renderTable(w, []string{"a", "b", "r"}, rows)
}

var explainCmd = &cobra.Command{
	Use:   "explain <file> <question>",
	Short: "Answer a plain-language question about a dataset",
	Example: `  smartdoc explain sales.csv "why did revenue drop?"
  smartdoc explain sales.csv "top customers"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args[1:], " "))
		if question == "" {
			return apperr.Validation("question", "question is required")
		}
		reg, id, err := openDataset(args[0])
		if err != nil {
			return err
		}
		var ex insight.Explanation
		_ = reg.Read(id, func(ds store.Dataset) error {
			ex = insight.Explain(ds.Headers, ds.Rows, question)
			return nil
		})
		return emit(cmd.OutOrStdout(), ex, func(w io.Writer) {
			for _, n := range ex.Notes {
				_, _ = fmt.Fprintf(w, "• %s\n", n.Text)
				if n.Detail != "" {
					_, _ = fmt.Fprintf(w, "  %s\n", n.Detail)
				}
				for _, it := range n.Items {
					_, _ = fmt.Fprintf(w, "  - %s: %s\n", it.Name, formatValue(it.Total))
				}
			}
		})
	},
}

var chartsCmd = &cobra.Command{
	Use:   "charts <file>",
	Short: "Suggest charts from a dataset's column names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, id, err := openDataset(args[0])
		if err != nil {
			return err
		}
		ds, err := reg.Get(id)
		if err != nil {
			return err
		}
		suggestions := insight.SuggestCharts(ds.Headers)
		return emit(cmd.OutOrStdout(), map[string]any{"suggestions": suggestions}, func(w io.Writer) {
			rows := make([][]any, 0, len(suggestions))
			for _, s := range suggestions {
				rows = append(rows, []any{s.ChartType, s.XAxis, s.YAxis, s.Dimension, s.Reasoning})
			}
			renderTable(w, []string{"chart", "x", "y", "dimension", "why"}, rows)
		})
	},
}

func init() {
	rootCmd.AddCommand(correlateCmd, explainCmd, chartsCmd)
	correlateCmd.Flags().StringVar(&corrTarget, "target", "", "rank all numeric columns against this one")
	correlateCmd.Flags().Float64Var(&corrThreshold, "threshold", 0.5, "minimum |r| (default from config)")
}
