package filter

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cvilledata/crimedash/internal/incident"
)

const dateLayout = "2006-01-02"

// FromQuery builds a Selection from URL query parameters. Each dimension
// name may repeat (?offense=Assault&offense=Robbery); "all" or an empty
// value leaves it unconstrained. from/to take YYYY-MM-DD dates read in loc.
// Parameters that are not dimensions are ignored.
func FromQuery(q url.Values, loc *time.Location) (Selection, error) {
	sel := Selection{Values: map[incident.Dimension][]string{}}
	for key, values := range q {
		d, ok := incident.ParseDimension(key)
		if !ok {
			continue
		}
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" || strings.EqualFold(v, "all") {
				continue
			}
			sel.Values[d] = append(sel.Values[d], v)
		}
	}
	var err error
	if sel.From, err = parseDate(q.Get("from"), loc); err != nil {
		return Selection{}, fmt.Errorf("invalid from: %w", err)
	}
	if sel.To, err = parseDate(q.Get("to"), loc); err != nil {
		return Selection{}, fmt.Errorf("invalid to: %w", err)
	}
	if !sel.From.IsZero() && !sel.To.IsZero() && sel.To.Before(sel.From) {
		return Selection{}, fmt.Errorf("invalid range: to %s is before from %s",
			sel.To.Format(dateLayout), sel.From.Format(dateLayout))
	}
	return sel, nil
}

// ParseArgs converts "dimension=value" pairs into query values for
// FromQuery, rejecting unknown dimensions.
func ParseArgs(args []string) (url.Values, error) {
	q := url.Values{}
	for _, a := range args {
		key, val, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid filter %q (want dimension=value)", a)
		}
		d, ok := incident.ParseDimension(key)
		if !ok {
			return nil, fmt.Errorf("unknown filter dimension %q", key)
		}
		q.Add(string(d), val)
	}
	return q, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(dateLayout, s, loc)
}
