package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/smartdoc/internal/apperr"
	"github.com/KaramelBytes/smartdoc/internal/classify"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

const detectSampleRows = 100

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Classify the business domain of a dataset or document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, parsed, err := scrutinizeFile(args[0])
		if err != nil {
			return err
		}
		var headers []string
		var sample []ingest.Row
		if parsed != nil {
			headers = parsed.Headers
			sample = parsed.Rows[:min(len(parsed.Rows), detectSampleRows)]
		} else if len(rep.TextBlocks) == 0 {
			return &apperr.UnsupportedFormatError{Format: rep.FileType, Err: errors.New("no tabular data or text extracted")}
		}
		det := classify.Detect(classify.New(settings().ClassifierModel, logger), headers, sample, rep.TextBlocks)
		return emit(cmd.OutOrStdout(), det, func(w io.Writer) { printDetection(w, det) })
	},
}

func printDetection(w io.Writer, det classify.Detection) {
	_, _ = fmt.Fprintf(w, "Data type: %s (confidence %.2f, method %s)\n", det.DataType, det.Confidence, det.Method)
	if len(det.Alternatives) > 0 {
		rows := make([][]any, 0, len(det.Alternatives))
		for _, a := range det.Alternatives {
			rows = append(rows, []any{a.Label, fmt.Sprintf("%.2f", a.Confidence)})
		}
		_, _ = fmt.Fprintln(w)
		renderTable(w, []string{"alternative", "confidence"}, rows)
	}
	bullets(w, "Suggested analyses", det.SuggestedAnalyses)
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
