package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cvilledata/crimedash/internal/filter"
	"github.com/cvilledata/crimedash/internal/incident"
)

// selectionFlags are the filter flags shared by the reporting commands.
type selectionFlags struct {
	filters       []string
	neighborhoods []string
	offenses      []string
	agencies      []string
	from, to      string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringArrayVarP(&f.filters, "filter", "f", nil, "dimension=value filter (repeatable), e.g. -f zip=22903 -f time_of_day=Night")
	fl.StringSliceVar(&f.neighborhoods, "neighborhood", nil, "neighborhood(s) to include")
	fl.StringSliceVar(&f.offenses, "offense", nil, "offense type(s) to include")
	fl.StringSliceVar(&f.agencies, "agency", nil, "agency(ies) to include")
	fl.StringVar(&f.from, "from", "", "first incident date to include (YYYY-MM-DD)")
	fl.StringVar(&f.to, "to", "", "last incident date to include (YYYY-MM-DD)")
}

func (f *selectionFlags) reset() {
	*f = selectionFlags{}
}

// selection builds the filter selection, reading dates in loc.
func (f *selectionFlags) selection(loc *time.Location) (filter.Selection, error) {
	q, err := filter.ParseArgs(f.filters)
	if err != nil {
		return filter.Selection{}, err
	}
	for d, values := range map[incident.Dimension][]string{
		incident.Neighborhood: f.neighborhoods,
		incident.Offense:      f.offenses,
		incident.Agency:       f.agencies,
	} {
		for _, v := range values {
			q.Add(string(d), v)
		}
	}
	if f.from != "" {
		q.Set("from", f.from)
	}
	if f.to != "" {
		q.Set("to", f.to)
	}
	return filter.FromQuery(q, loc)
}
