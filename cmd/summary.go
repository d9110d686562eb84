package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cvilledata/crimedash/internal/analysis"
	"github.com/cvilledata/crimedash/internal/utils"
)

var (
	sumSel    selectionFlags
	sumJSON   bool
	sumOutput string
	sumAsOf   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Report totals, recency windows, growth rates and breakdowns",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		sel, err := sumSel.selection(t.Loc())
		if err != nil {
			return err
		}
		now := time.Now()
		if sumAsOf != "" {
			now, err = time.ParseInLocation("2006-01-02", sumAsOf, t.Loc())
			if err != nil {
				return fmt.Errorf("invalid --as-of: %w", err)
			}
			// End of that day.
			now = now.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		mc := analysis.DefaultMetricsConfig()
		if len(cfg.WindowsDays) > 0 {
			mc.WindowDays = cfg.WindowsDays
		}
		d := analysis.BuildDashboard(t, sel, now, mc)

		var out []byte
		if sumJSON {
			if out, err = utils.PrettyJSON(d); err != nil {
				return err
			}
		} else {
			out = []byte(d.Markdown())
		}
		return writeOutput(cmd, sumOutput, out, "summary")
	},
}

// writeOutput writes to path when set, otherwise to the command's stdout.
func writeOutput(cmd *cobra.Command, path string, out []byte, what string) error {
	if path == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	}
	if err := utils.SafeWriteFile(path, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s to %s\n", what, path)
	return nil
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	sumSel.register(summaryCmd)
	summaryCmd.Flags().BoolVar(&sumJSON, "json", false, "print JSON instead of Markdown")
	summaryCmd.Flags().StringVarP(&sumOutput, "output", "o", "", "optional path to write the report")
	summaryCmd.Flags().StringVar(&sumAsOf, "as-of", "", "evaluate windows and growth as of the end of this date (YYYY-MM-DD)")
}
