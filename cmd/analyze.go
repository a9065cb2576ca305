package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/smartdoc/internal/classify"
	"github.com/KaramelBytes/smartdoc/internal/insight"
	"github.com/KaramelBytes/smartdoc/internal/utils"
)

var (
	anaPersona    string
	anaDataType   string
	anaMarkdown   bool
	anaOutputPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a file and produce persona-aware insights",
	Example: `  smartdoc analyze sales.csv
  smartdoc analyze sales.xlsx --persona executive --data-type sales
  smartdoc analyze report.docx --format json
  smartdoc analyze sales.csv --markdown --output summary.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		persona, err := insight.ParsePersona(anaPersona)
		if err != nil {
			return err
		}
		scr, parsed, err := scrutinizeFile(path)
		if err != nil {
			return err
		}

		var rep *insight.Report
		if parsed == nil {
			rep = insight.AnalyzeDocument(scr.FileType, scr.SummaryExcerpt, persona)
		} else {
			job := insight.Request{
				DatasetID: datasetID(path),
				FileType:  parsed.Format,
				Headers:   parsed.Headers,
				Rows:      parsed.Rows,
				Persona:   persona,
				DataType:  anaDataType,
			}
			if job.DataType == "" {
				sample := job.Rows[:min(len(job.Rows), detectSampleRows)]
				job.DataType = classify.Detect(classify.New(settings().ClassifierModel, logger), job.Headers, sample, nil).DataType
			}
			rep, err = insight.Analyze(cmd.Context(), job, analysisOptions())
			if err != nil {
				return err
			}
		}

		if anaMarkdown {
			if rep.Profile == nil {
				return fmt.Errorf("--markdown needs a tabular file")
			}
			md := rep.Profile.Markdown(scr.OriginalName)
			if anaOutputPath != "" {
				if err := utils.SafeWriteFile(anaOutputPath, []byte(md)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
				return nil
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), md)
			return err
		}
		if anaOutputPath != "" {
			b, err := utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(anaOutputPath, b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		return emit(cmd.OutOrStdout(), rep, func(w io.Writer) { printAnalysis(w, rep) })
	},
}

func printAnalysis(w io.Writer, rep *insight.Report) {
	_, _ = fmt.Fprintln(w, rep.Summary)
	if rep.Message != "" {
		_, _ = fmt.Fprintln(w, rep.Message)
	}
	if len(rep.Insights) > 0 {
		rows := make([][]any, 0, len(rep.Insights))
		for _, in := range rep.Insights {
			rows = append(rows, []any{in.Severity, in.Title, in.Detail})
		}
		_, _ = fmt.Fprintln(w)
		renderTable(w, []string{"severity", "finding", "detail"}, rows)
	}
	narrative := make([]string, 0, len(rep.Narrative.Critical)+len(rep.Narrative.Opportunities))
	for _, it := range rep.Narrative.Critical {
		narrative = append(narrative, it.Text)
	}
	bullets(w, "Needs attention", narrative)
	narrative = narrative[:0]
	for _, it := range rep.Narrative.Opportunities {
		narrative = append(narrative, it.Text)
	}
	bullets(w, "Opportunities", narrative)
	bullets(w, "Recommendations", rep.Recommendations)
	actions := make([]string, 0, len(rep.QuickActions))
	for _, qa := range rep.QuickActions {
		actions = append(actions, qa.Title)
	}
	bullets(w, "Quick actions", actions)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaPersona, "persona", "", "audience: junior|manager|executive (default manager)")
	analyzeCmd.Flags().StringVar(&anaDataType, "data-type", "", "business domain; detected when empty")
	analyzeCmd.Flags().BoolVar(&anaMarkdown, "markdown", false, "print the statistical profile as Markdown")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "write the report to a file instead of stdout")
}
