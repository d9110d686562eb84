package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cvilledata/crimedash/internal/filter"
	"github.com/cvilledata/crimedash/internal/incident"
	"github.com/cvilledata/crimedash/internal/utils"
)

var (
	optSel  selectionFlags
	optDims []string
	optJSON bool
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the filter values still selectable under the given filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		sel, err := optSel.selection(t.Loc())
		if err != nil {
			return err
		}
		dims := incident.Dimensions
		if len(optDims) > 0 {
			dims = nil
			for _, name := range optDims {
				d, ok := incident.ParseDimension(name)
				if !ok {
					return fmt.Errorf("unknown dimension %q", name)
				}
				dims = append(dims, d)
			}
		}
		all := filter.ComputeOptions(t, sel)
		opts := make(filter.Options, len(dims))
		for _, d := range dims {
			opts[d] = all[d]
		}

		if optJSON {
			b, err := utils.PrettyJSON(opts)
			if err != nil {
				return err
			}
			return writeOutput(cmd, "", b, "options")
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Matching incidents: %d of %d\n", filter.Apply(t, sel).Len(), t.Len())
		for _, d := range dims {
			values := opts[d]
			if len(values) == 0 {
				fmt.Fprintf(w, "%s: (none)\n", d)
				continue
			}
			fmt.Fprintf(w, "%s (%d): %s\n", d, len(values), strings.Join(values, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
	optSel.register(optionsCmd)
	optionsCmd.Flags().StringSliceVarP(&optDims, "dimension", "d", nil, "only list these dimensions")
	optionsCmd.Flags().BoolVar(&optJSON, "json", false, "print JSON")
}
