package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

var scrutinizeCmd = &cobra.Command{
	Use:   "scrutinize <file>",
	Short: "Detect headers, schema and quality issues of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, _, err := scrutinizeFile(args[0])
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), rep, func(w io.Writer) { printScrutiny(w, rep) })
	},
}

func printScrutiny(w io.Writer, rep *ingest.Report) {
	_, _ = fmt.Fprintf(w, "File: %s (%s, %d bytes)\n", rep.OriginalName, rep.FileType, rep.SizeBytes)
	_, _ = fmt.Fprintf(w, "Rows: %d  Columns: %d  Confidence: %.2f\n", rep.RowsDetected, rep.ColumnsDetected, rep.Confidence)
	_, _ = fmt.Fprintln(w, rep.Message)
	if hi := rep.HeaderIntelligence; hi != nil {
		_, _ = fmt.Fprintf(w, "Header row: %d (confidence %.2f, multirow %t)\n", hi.HeaderRow, hi.HeaderConfidence, hi.MultirowDetected)
	}
	if len(rep.Schema) > 0 {
		rows := make([][]any, 0, len(rep.Schema))
		for _, c := range rep.Schema {
			missing := 0
			if rep.Quality != nil {
				missing = rep.Quality.Missing[c.Name]
			}
			rows = append(rows, []any{c.Name, c.Type, missing})
		}
		_, _ = fmt.Fprintln(w)
		renderTable(w, []string{"column", "type", "missing"}, rows)
	}
	if rep.SummaryExcerpt != "" {
		_, _ = fmt.Fprintf(w, "\nExcerpt: %s\n", rep.SummaryExcerpt)
	}
	bullets(w, "Suggestions", rep.Suggestions)
}

func init() {
	rootCmd.AddCommand(scrutinizeCmd)
}
