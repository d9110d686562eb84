package analysis

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/cvilledata/crimedash/internal/incident"
)

// Growth is a period-over-period percentage change. When the previous
// count is zero the change is not computable and Defined is false; this is
// distinct from a 0% change.
type Growth struct {
	Defined  bool
	Percent  float64
	Current  int
	Previous int
}

// GrowthRate returns (current-previous)/previous*100, or an undefined
// Growth when previous is zero.
func GrowthRate(current, previous int) Growth {
	g := Growth{Current: current, Previous: previous}
	if previous > 0 {
		g.Defined = true
		g.Percent = float64(current-previous) / float64(previous) * 100
	}
	return g
}

// String renders the change as a signed percentage or "N/A".
func (g Growth) String() string {
	if !g.Defined {
		return incident.Missing
	}
	return fmt.Sprintf("%+.1f%%", g.Percent)
}

type growthJSON struct {
	Percent  *float64 `json:"percent"`
	Current  int      `json:"current"`
	Previous int      `json:"previous"`
}

// MarshalJSON encodes an undefined change as a null percent.
func (g Growth) MarshalJSON() ([]byte, error) {
	out := growthJSON{Current: g.Current, Previous: g.Previous}
	if g.Defined {
		p := g.Percent
		out.Percent = &p
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (g *Growth) UnmarshalJSON(b []byte) error {
	var in growthJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*g = Growth{Current: in.Current, Previous: in.Previous}
	if in.Percent != nil {
		g.Defined = true
		g.Percent = *in.Percent
	}
	return nil
}

// PeriodGrowth compares the most recent complete period of type p before
// now with the one preceding it. The period containing now is still in
// progress and is never used.
func PeriodGrowth(t *incident.Table, now time.Time, p Period) Growth {
	open := Truncate(now.In(t.Loc()), p)
	curStart := Previous(open, p)
	prevStart := Previous(curStart, p)
	return GrowthRate(
		countRange(t, curStart, open),
		countRange(t, prevStart, curStart),
	)
}

// countRange counts records with from <= ts < to.
func countRange(t *incident.Table, from, to time.Time) int {
	n := 0
	for i := range t.Records {
		ts := t.Records[i].Time
		if !ts.Before(from) && ts.Before(to) {
			n++
		}
	}
	return n
}

// countThrough counts records with from <= ts <= to.
func countThrough(t *incident.Table, from, to time.Time) int {
	n := 0
	for i := range t.Records {
		ts := t.Records[i].Time
		if !ts.Before(from) && !ts.After(to) {
			n++
		}
	}
	return n
}
