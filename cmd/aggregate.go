package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cvilledata/crimedash/internal/analysis"
	"github.com/cvilledata/crimedash/internal/filter"
	"github.com/cvilledata/crimedash/internal/utils"
)

var (
	aggSel    selectionFlags
	aggPeriod string
	aggLimit  int
	aggBottom bool
	aggJSON   bool
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <kind>",
	Short: "Group incident counts by period, hour or any filter dimension",
	Long: `Group incident counts for charting.

Kinds: ` + strings.Join(analysis.AggregateKinds(), ", ") + `

timeseries buckets by --period (day, week, month, quarter, year). Calendar
kinds (season, weekend, day_of_week, time_of_day, hour) keep their natural
order; the rest are sorted by count.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := analysis.AggregateRequest{Kind: args[0], Limit: aggLimit, Bottom: aggBottom}
		if aggPeriod != "" {
			p, err := analysis.ParsePeriod(aggPeriod)
			if err != nil {
				return err
			}
			req.Period = p
		}
		t, err := loadTable()
		if err != nil {
			return err
		}
		sel, err := aggSel.selection(t.Loc())
		if err != nil {
			return err
		}
		res, err := analysis.Aggregate(filter.Apply(t, sel), req)
		if err != nil {
			return err
		}

		if aggJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			return writeOutput(cmd, "", b, "aggregate")
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if res.Buckets != nil {
			fmt.Fprintf(tw, "%s\tCOUNT\n", strings.ToUpper(string(res.Period)))
			for _, b := range res.Buckets {
				fmt.Fprintf(tw, "%s\t%d\n", b.Label, b.Count)
			}
		} else {
			fmt.Fprintf(tw, "%s\tCOUNT\tPERCENT\n", strings.ToUpper(res.Kind))
			for _, c := range res.Counts {
				fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", c.Value, c.Count, c.Percent)
			}
		}
		fmt.Fprintf(tw, "TOTAL\t%d\n", res.Total)
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	aggSel.register(aggregateCmd)
	aggregateCmd.Flags().StringVar(&aggPeriod, "period", "", "timeseries bucket: day, week, month, quarter, year (default month)")
	aggregateCmd.Flags().IntVar(&aggLimit, "limit", 0, "keep only the first N categories (0 = all)")
	aggregateCmd.Flags().BoolVar(&aggBottom, "bottom", false, "list the least frequent categories first")
	aggregateCmd.Flags().BoolVar(&aggJSON, "json", false, "print JSON")
}
