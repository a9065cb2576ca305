package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/smartdoc/internal/actions"
	"github.com/KaramelBytes/smartdoc/internal/apperr"
	"github.com/KaramelBytes/smartdoc/internal/store"
)

var (
	actOutputPath string

	dedupeKeys     []string
	dedupeStrategy string
	dedupeOrderBy  string
	dedupeConfirm  bool

	fillStrategy string

	outlierColumn string
	outlierZ      float64

	exportWhere map[string]string
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <file>",
	Short: "Preview or remove duplicate rows",
	Long: `Rows are duplicates when their key columns match case- and whitespace-insensitively.
Without --confirm the command only reports what would be removed.`,
	Example: `  smartdoc dedupe customers.csv --keys email
  smartdoc dedupe customers.csv --keys email --strategy keep_latest --order-by updated_at --confirm -o clean.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if dedupeConfirm && actOutputPath == "" {
			return apperr.Validation("output", "--output is required with --confirm")
		}
		reg, id, err := openDataset(args[0])
		if err != nil {
			return err
		}
		dry := !dedupeConfirm
		res, err := actions.New(reg, logger).Deduplicate(actions.DedupeRequest{
			DatasetID: id,
			Keys:      dedupeKeys,
			Strategy:  dedupeStrategy,
			OrderBy:   dedupeOrderBy,
			DryRun:    &dry,
		})
		if err != nil {
			return err
		}
		err = emit(cmd.OutOrStdout(), res, func(w io.Writer) {
			verb := "Would remove"
			if !dry {
				verb = "Removed"
			}
			_, _ = fmt.Fprintf(w, "%s %d duplicate rows, keeping %d (%s)\n", verb, res.WillRemove, res.WillKeep, res.Strategy)
			if dry && res.WillRemove > 0 {
				ds, _ := reg.Get(id)
				renderRecords(w, ds.Headers, res.AffectedRecords)
				_, _ = fmt.Fprintln(w, "Run again with --confirm --output <file> to apply.")
			}
		})
		if err != nil || dry {
			return err
		}
		return saveResult(cmd.OutOrStdout(), reg, id)
	},
}

var fillMissingCmd = &cobra.Command{
	Use:   "fill-missing <file>",
	Short: "Fill empty cells: numeric columns by median|mean|zero, others with N/A",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, id, err := openDataset(args[0])
		if err != nil {
			return err
		}
		res, err := actions.New(reg, logger).FillMissing(actions.FillRequest{DatasetID: id, Strategy: fillStrategy})
		if err != nil {
			return err
		}
		err = emit(cmd.OutOrStdout(), res, func(w io.Writer) {
			_, _ = fmt.Fprintf(w, "%s (%d cells)\n", res.Message, res.Total)
			if res.Total > 0 {
				renderTable(w, []string{"column", "filled"}, sortedCounts(res.Filled))
			}
		})
		if err != nil {
			return err
		}
		return saveResult(cmd.OutOrStdout(), reg, id)
	},
}

var removeOutliersCmd = &cobra.Command{
	Use:   "remove-outliers <file>",
	Short: "Drop rows whose value in a numeric column has |z| above a threshold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, id, err := openDataset(args[0])
		if err != nil {
			return err
		}
		z := outlierZ
		if !cmd.Flags().Changed("z") {
			z = settings().OutlierZ
		}
		res, err := actions.New(reg, logger).RemoveOutliers(actions.OutlierRequest{DatasetID: id, Column: outlierColumn, Z: z})
		if err != nil {
			return err
		}
		err = emit(cmd.OutOrStdout(), res, func(w io.Writer) {
			_, _ = fmt.Fprintf(w, "Removed %d rows, kept %d\n", res.Removed, res.Kept)
		})
		if err != nil {
			return err
		}
		return saveResult(cmd.OutOrStdout(), reg, id)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the rows matching exact column values",
	Example: `  smartdoc export sales.csv --where region=north
  smartdoc export sales.csv --where region=north --where status=open -o north.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, id, err := openDataset(args[0])
		if err != nil {
			return err
		}
		res, err := actions.New(reg, logger).ExportSegment(actions.ExportRequest{DatasetID: id, Filters: exportWhere})
		if err != nil {
			return err
		}
		if actOutputPath != "" {
			if err := writeRows(actOutputPath, res.Headers, res.Rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d rows to %s\n", res.Count, actOutputPath)
			return nil
		}
		return emit(cmd.OutOrStdout(), res, func(w io.Writer) { renderRecords(w, res.Headers, res.Rows) })
	},
}

// saveResult writes the cleaned dataset when --output is set.
func saveResult(w io.Writer, reg *store.Registry, id string) error {
	if actOutputPath == "" {
		return nil
	}
	if err := writeDataset(reg, id, actOutputPath); err != nil {
		return err
	}
	if outFormat != "json" {
		_, _ = fmt.Fprintf(w, "✓ Wrote %s\n", actOutputPath)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(dedupeCmd, fillMissingCmd, removeOutliersCmd, exportCmd)
	for _, c := range []*cobra.Command{dedupeCmd, fillMissingCmd, removeOutliersCmd, exportCmd} {
		c.Flags().StringVarP(&actOutputPath, "output", "o", "", "write the resulting rows as CSV")
	}

	dedupeCmd.Flags().StringSliceVar(&dedupeKeys, "keys", nil, "key columns (default email)")
	dedupeCmd.Flags().StringVar(&dedupeStrategy, "strategy", actions.KeepFirst, "keep_first|keep_latest")
	dedupeCmd.Flags().StringVar(&dedupeOrderBy, "order-by", "", "column deciding the latest row (keep_latest only)")
	dedupeCmd.Flags().BoolVar(&dedupeConfirm, "confirm", false, "apply the removal instead of previewing it")

	fillMissingCmd.Flags().StringVar(&fillStrategy, "strategy", actions.FillMedian, "numeric fill: median|mean|zero")

	removeOutliersCmd.Flags().StringVar(&outlierColumn, "column", "", "numeric column to test")
	removeOutliersCmd.Flags().Float64Var(&outlierZ, "z", actions.DefaultOutlierZ, "z-score threshold (default from config)")
	_ = removeOutliersCmd.MarkFlagRequired("column")

	exportCmd.Flags().StringToStringVar(&exportWhere, "where", nil, "column=value filter; repeatable")
}
