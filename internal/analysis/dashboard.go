package analysis

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cvilledata/crimedash/internal/filter"
	"github.com/cvilledata/crimedash/internal/incident"
)

// ErrUnknownAggregate is returned for an aggregate kind that does not exist.
var ErrUnknownAggregate = errors.New("unknown aggregate")

// Aggregate kinds beyond the filter dimensions.
const (
	KindTimeSeries = "timeseries"
	KindHour       = "hour"
)

// AggregateKinds lists every accepted aggregate kind.
func AggregateKinds() []string {
	out := []string{KindTimeSeries, KindHour}
	for _, d := range incident.Dimensions {
		out = append(out, string(d))
	}
	return out
}

// AggregateRequest selects one grouped aggregate.
type AggregateRequest struct {
	Kind string
	// Period applies to timeseries only; zero means month.
	Period Period
	// Limit truncates categorical breakdowns; 0 keeps all values.
	Limit int
	// Bottom returns the least frequent values instead of the most frequent.
	Bottom bool
}

// AggregateResult holds either Buckets (timeseries) or Counts.
type AggregateResult struct {
	Kind    string          `json:"kind"`
	Period  Period          `json:"period,omitempty"`
	Total   int             `json:"total"`
	Buckets []Bucket        `json:"buckets,omitempty"`
	Counts  []CategoryCount `json:"counts,omitempty"`
}

// Aggregate computes the grouped aggregate named by req.Kind.
func Aggregate(t *incident.Table, req AggregateRequest) (AggregateResult, error) {
	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	res := AggregateResult{Kind: kind, Total: t.Len()}
	switch kind {
	case KindTimeSeries, "time_series", "trend":
		p := req.Period
		if p == "" {
			p = Month
		}
		res.Kind, res.Period = KindTimeSeries, p
		res.Buckets = TimeSeries(t, p)
		return res, nil
	case KindHour, "hour_of_day":
		res.Kind = KindHour
		res.Counts = ByHour(t)
		return res, nil
	case "weekday":
		kind = string(incident.DayOfWeek)
	}
	d, ok := incident.ParseDimension(kind)
	if !ok {
		return AggregateResult{}, fmt.Errorf("%w %q (want one of %s)", ErrUnknownAggregate, req.Kind, strings.Join(AggregateKinds(), ", "))
	}
	res.Kind = string(d)
	res.Counts = ByDimension(t, d)
	if !d.Derived() {
		if req.Bottom {
			res.Counts = BottomN(res.Counts, req.Limit)
		} else {
			res.Counts = limit(res.Counts, req.Limit)
		}
	}
	return res, nil
}

// Dashboard is everything a presentation layer needs for one selection.
type Dashboard struct {
	Source  string                          `json:"source"`
	Filters map[incident.Dimension][]string `json:"filters,omitempty"`
	From    string                          `json:"from,omitempty"`
	To      string                          `json:"to,omitempty"`
	Metrics Snapshot                        `json:"metrics"`

	TopOffenses    []CategoryCount `json:"top_offenses"`
	BottomOffenses []CategoryCount `json:"bottom_offenses"`
	Neighborhoods  []CategoryCount `json:"neighborhoods"`
	Agencies       []CategoryCount `json:"agencies"`
	LocationTypes  []CategoryCount `json:"location_types"`
	Zips           []CategoryCount `json:"zips"`
	Officers       []CategoryCount `json:"reporting_officers"`
	Streets        []CategoryCount `json:"streets"`
	Weekdays       []CategoryCount `json:"weekdays"`
	TimesOfDay     []CategoryCount `json:"times_of_day"`
	Seasons        []CategoryCount `json:"seasons"`
	Monthly        []Bucket        `json:"monthly"`
}

// BuildDashboard filters t by sel and computes the metrics and breakdowns
// for the resulting subset.
func BuildDashboard(t *incident.Table, sel filter.Selection, now time.Time, cfg MetricsConfig) *Dashboard {
	sub := filter.Apply(t, sel)
	d := &Dashboard{
		Source:  filepath.Base(t.Source),
		Metrics: ComputeMetrics(sub, now, cfg),

		TopOffenses:    TopN(ByDimension(sub, incident.Offense), 10),
		BottomOffenses: BottomN(ByDimension(sub, incident.Offense), 10),
		Neighborhoods:  ByDimension(sub, incident.Neighborhood),
		Agencies:       ByDimension(sub, incident.Agency),
		LocationTypes:  ByDimension(sub, incident.LocationType),
		Zips:           ByDimension(sub, incident.Zip),
		Officers:       TopN(ByDimension(sub, incident.ReportingOfficer), 10),
		Streets:        TopN(ByDimension(sub, incident.Street), 25),
		Weekdays:       ByWeekday(sub),
		TimesOfDay:     ByTimeOfDay(sub),
		Seasons:        BySeason(sub),
		Monthly:        TimeSeries(sub, Month),
	}
	for dim, values := range sel.Values {
		if len(values) == 0 {
			continue
		}
		if d.Filters == nil {
			d.Filters = map[incident.Dimension][]string{}
		}
		d.Filters[dim] = values
	}
	if !sel.From.IsZero() {
		d.From = sel.From.Format("2006-01-02")
	}
	if !sel.To.IsZero() {
		d.To = sel.To.Format("2006-01-02")
	}
	return d
}

// Markdown renders a compact text report of the dashboard.
func (d *Dashboard) Markdown() string {
	var b strings.Builder
	m := d.Metrics
	b.WriteString("[CRIME DASHBOARD]\n")
	if d.Source != "" && d.Source != "." {
		b.WriteString(fmt.Sprintf("Source: %s\n", d.Source))
	}
	if !m.LoadedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Loaded: %s\n", m.LoadedAt.Format(time.RFC3339)))
	}
	if m.LatestIncident != nil {
		b.WriteString(fmt.Sprintf("Data through: %s\n", m.LatestIncident.Format("2006-01-02 15:04")))
	}
	b.WriteString(fmt.Sprintf("Filters: %s\n", d.filterLine()))
	if m.Skipped > 0 {
		b.WriteString(fmt.Sprintf("Rows skipped (unparseable date): %d\n", m.Skipped))
	}

	b.WriteString("\n[KEY METRICS]\n")
	b.WriteString(fmt.Sprintf("- Total incidents: %d\n", m.Total))
	b.WriteString(fmt.Sprintf("- This month: %d (last month %d)\n", m.ThisMonth, m.LastMonth))
	b.WriteString(fmt.Sprintf("- This year: %d (year to date vs last year: %s)\n", m.ThisYear, m.YearToDate))
	for _, w := range m.Windows {
		b.WriteString(fmt.Sprintf("- Last %d days: %d\n", w.Days, w.Count))
	}
	for _, g := range []struct {
		p Period
		g Growth
	}{{Week, m.WeekOverWeek}, {Month, m.MonthOverMonth}, {Quarter, m.QuarterOverQuarter}, {Year, m.YearOverYear}} {
		b.WriteString(fmt.Sprintf("- %s: %s (%d vs %d)\n", comparisonName(g.p), g.g, g.g.Current, g.g.Previous))
	}
	if top := m.MostFrequentOffense; top != nil {
		b.WriteString(fmt.Sprintf("- Most frequent offense: %s (%d, %.1f%%)\n", safeVal(top.Value), top.Count, top.Percent))
	}

	if m.Total == 0 {
		b.WriteString("\n[NOTES]\n- No incidents match the current filters.\n")
		return b.String()
	}
	writeCounts(&b, "TOP OFFENSES", d.TopOffenses, 10)
	writeCounts(&b, "LEAST FREQUENT OFFENSES", d.BottomOffenses, 10)
	writeCounts(&b, "NEIGHBORHOODS", d.Neighborhoods, 10)
	writeCounts(&b, "AGENCIES", d.Agencies, 0)
	writeCounts(&b, "LOCATION TYPES", d.LocationTypes, 10)
	writeCounts(&b, "DAY OF WEEK", d.Weekdays, 0)
	writeCounts(&b, "TIME OF DAY", d.TimesOfDay, 0)
	writeCounts(&b, "SEASONS", d.Seasons, 0)

	if len(d.Monthly) > 0 {
		b.WriteString("\n[MONTHLY TREND]\n")
		start := 0
		if len(d.Monthly) > 12 {
			start = len(d.Monthly) - 12
		}
		for _, bk := range d.Monthly[start:] {
			b.WriteString(fmt.Sprintf("- %s: %d\n", bk.Label, bk.Count))
		}
	}
	return b.String()
}

func (d *Dashboard) filterLine() string {
	if len(d.Filters) == 0 && d.From == "" && d.To == "" {
		return "none"
	}
	dims := make([]string, 0, len(d.Filters))
	for dim := range d.Filters {
		dims = append(dims, string(dim))
	}
	sort.Strings(dims)
	parts := make([]string, 0, len(dims)+1)
	for _, dim := range dims {
		parts = append(parts, fmt.Sprintf("%s=%s", dim, strings.Join(d.Filters[incident.Dimension(dim)], "|")))
	}
	if d.From != "" || d.To != "" {
		from, to := d.From, d.To
		if from == "" {
			from = "start"
		}
		if to == "" {
			to = "latest"
		}
		parts = append(parts, fmt.Sprintf("date=%s..%s", from, to))
	}
	return strings.Join(parts, "; ")
}

func writeCounts(b *strings.Builder, title string, counts []CategoryCount, maxRows int) {
	if len(counts) == 0 {
		return
	}
	b.WriteString("\n[" + title + "]\n")
	for i, c := range counts {
		if maxRows > 0 && i >= maxRows {
			b.WriteString(fmt.Sprintf("- ... %d more\n", len(counts)-maxRows))
			break
		}
		b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", safeVal(c.Value), c.Count, c.Percent))
	}
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
