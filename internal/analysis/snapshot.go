package analysis

import (
	"time"

	"github.com/cvilledata/crimedash/internal/incident"
)

// MetricsConfig selects the trailing windows reported in a Snapshot.
type MetricsConfig struct {
	// WindowDays lists trailing window lengths in days.
	WindowDays []int
}

// DefaultMetricsConfig reports the last 3, 7, 14 and 30 days.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{WindowDays: []int{3, 7, 14, 30}}
}

// WindowCount is the number of incidents in the trailing Days days.
type WindowCount struct {
	Days  int `json:"days"`
	Count int `json:"count"`
}

// Snapshot holds the scalar metrics for one filtered subset. It is derived
// on demand and never cached.
type Snapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Total       int           `json:"total"`
	Windows     []WindowCount `json:"windows"`

	ThisMonth int `json:"this_month"`
	LastMonth int `json:"last_month"`
	ThisYear  int `json:"this_year"`

	WeekOverWeek       Growth `json:"week_over_week"`
	MonthOverMonth     Growth `json:"month_over_month"`
	QuarterOverQuarter Growth `json:"quarter_over_quarter"`
	YearOverYear       Growth `json:"year_over_year"`
	// YearToDate compares Jan 1..now with the same span one year earlier.
	YearToDate Growth `json:"year_to_date"`

	MostFrequentOffense *CategoryCount `json:"most_frequent_offense,omitempty"`

	FirstIncident  *time.Time `json:"first_incident,omitempty"`
	LatestIncident *time.Time `json:"latest_incident,omitempty"`
	LoadedAt       time.Time  `json:"loaded_at"`
	Skipped        int        `json:"skipped_rows"`
}

// Window returns the count for the given window length and whether it
// was computed.
func (s Snapshot) Window(days int) (int, bool) {
	for _, w := range s.Windows {
		if w.Days == days {
			return w.Count, true
		}
	}
	return 0, false
}

// ComputeMetrics derives the Snapshot for t as of now. Calendar boundaries
// are evaluated in the table's location. A window of N days covers
// now.AddDate(0, 0, -N) through now, both ends inclusive.
func ComputeMetrics(t *incident.Table, now time.Time, cfg MetricsConfig) Snapshot {
	if t == nil {
		t = incident.NewTable(nil)
	}
	now = now.In(t.Loc())
	s := Snapshot{
		GeneratedAt: now,
		Total:       t.Len(),
		Windows:     make([]WindowCount, 0, len(cfg.WindowDays)),
		LoadedAt:    t.LoadedAt,
		Skipped:     t.Skipped,
	}
	for _, days := range cfg.WindowDays {
		if days <= 0 {
			continue
		}
		s.Windows = append(s.Windows, WindowCount{
			Days:  days,
			Count: countThrough(t, now.AddDate(0, 0, -days), now),
		})
	}

	monthStart := Truncate(now, Month)
	yearStart := Truncate(now, Year)
	s.ThisMonth = countThrough(t, monthStart, now)
	s.LastMonth = countRange(t, Previous(monthStart, Month), monthStart)
	s.ThisYear = countThrough(t, yearStart, now)

	s.WeekOverWeek = PeriodGrowth(t, now, Week)
	s.MonthOverMonth = PeriodGrowth(t, now, Month)
	s.QuarterOverQuarter = PeriodGrowth(t, now, Quarter)
	s.YearOverYear = PeriodGrowth(t, now, Year)
	s.YearToDate = GrowthRate(s.ThisYear, countThrough(t, Previous(yearStart, Year), yearEarlier(now)))

	if top := TopN(ByDimension(t, incident.Offense), 1); len(top) == 1 {
		s.MostFrequentOffense = &top[0]
	}
	if first, last, ok := t.Span(); ok {
		s.FirstIncident, s.LatestIncident = &first, &last
	}
	return s
}
