// Package incident defines the immutable crime-incident record and the
// in-memory table the dashboard filters and aggregates.
package incident

import (
	"strings"
	"time"
)

// Dimension names a filterable attribute of an incident.
type Dimension string

const (
	Neighborhood     Dimension = "neighborhood"
	Offense          Dimension = "offense"
	Agency           Dimension = "agency"
	LocationType     Dimension = "location_type"
	Zip              Dimension = "zip"
	Street           Dimension = "street"
	ReportingOfficer Dimension = "reporting_officer"
	// Derived from the timestamp.
	Season    Dimension = "season"
	Weekend   Dimension = "weekend"
	DayOfWeek Dimension = "day_of_week"
	TimeOfDay Dimension = "time_of_day"
)

// Dimensions lists every filter dimension in display order.
var Dimensions = []Dimension{
	Neighborhood, Zip, Street, Season, Weekend, DayOfWeek, TimeOfDay,
	Agency, Offense, LocationType, ReportingOfficer,
}

// ParseDimension resolves a user-supplied dimension name. Matching ignores
// case, and '-' or ' ' are accepted in place of '_'.
func ParseDimension(s string) (Dimension, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for _, d := range Dimensions {
		if string(d) == key {
			return d, true
		}
	}
	return "", false
}

// Derived reports whether the dimension is computed from the timestamp
// rather than read from the source file.
func (d Dimension) Derived() bool {
	switch d {
	case Season, Weekend, DayOfWeek, TimeOfDay:
		return true
	}
	return false
}

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Record is a single reported incident. Records are never mutated after load.
type Record struct {
	ID               string       `json:"id"`
	Time             time.Time    `json:"time"`
	Neighborhood     string       `json:"neighborhood"`
	Offense          string       `json:"offense"`
	Agency           string       `json:"agency"`
	LocationType     string       `json:"location_type"`
	Zip              string       `json:"zip"`
	Street           string       `json:"street"`
	ReportingOfficer string       `json:"reporting_officer"`
	Coords           *Coordinates `json:"coords,omitempty"`
}

// Value returns the record's value for dimension d.
func (r *Record) Value(d Dimension) string {
	switch d {
	case Neighborhood:
		return r.Neighborhood
	case Offense:
		return r.Offense
	case Agency:
		return r.Agency
	case LocationType:
		return r.LocationType
	case Zip:
		return r.Zip
	case Street:
		return r.Street
	case ReportingOfficer:
		return r.ReportingOfficer
	case Season:
		return SeasonOf(r.Time.Month())
	case Weekend:
		return WeekendLabel(r.Time.Weekday())
	case DayOfWeek:
		return r.Time.Weekday().String()
	case TimeOfDay:
		return TimeOfDayOf(r.Time.Hour())
	}
	return ""
}

// Table is an ordered collection of incidents plus load metadata.
type Table struct {
	Records []Record
	// Skipped counts source rows excluded because their timestamp was
	// missing or unparseable.
	Skipped  int
	Source   string
	LoadedAt time.Time
	// Location is the zone timestamps were interpreted in. Nil means UTC.
	Location *time.Location
}

// NewTable wraps records in a Table interpreted in UTC.
func NewTable(records []Record) *Table {
	return &Table{Records: records, Location: time.UTC}
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Loc returns the table's location, defaulting to UTC.
func (t *Table) Loc() *time.Location {
	if t == nil || t.Location == nil {
		return time.UTC
	}
	return t.Location
}

// Subset returns a new table holding the records for which keep returns
// true. Load metadata is carried over.
func (t *Table) Subset(keep func(r *Record) bool) *Table {
	out := &Table{
		Records:  make([]Record, 0),
		Skipped:  t.Skipped,
		Source:   t.Source,
		LoadedAt: t.LoadedAt,
		Location: t.Location,
	}
	for i := range t.Records {
		if keep(&t.Records[i]) {
			out.Records = append(out.Records, t.Records[i])
		}
	}
	return out
}

// Span returns the earliest and latest incident timestamps. ok is false for
// an empty table.
func (t *Table) Span() (first, last time.Time, ok bool) {
	if t.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = t.Records[0].Time, t.Records[0].Time
	for i := 1; i < len(t.Records); i++ {
		ts := t.Records[i].Time
		if ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	return first, last, true
}
