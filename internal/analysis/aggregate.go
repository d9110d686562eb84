package analysis

import (
	"sort"
	"strconv"
	"time"

	"github.com/cvilledata/crimedash/internal/incident"
)

// CategoryCount is the number of incidents with a given value, with its
// share of the subset total.
type CategoryCount struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Bucket is the incident count for one period.
type Bucket struct {
	Start time.Time `json:"start"`
	Label string    `json:"label"`
	Count int       `json:"count"`
}

// TimeSeries counts incidents per period from the first to the last
// incident, including empty periods.
func TimeSeries(t *incident.Table, p Period) []Bucket {
	first, last, ok := t.Span()
	if !ok {
		return []Bucket{}
	}
	loc := t.Loc()
	counts := map[int64]int{}
	for i := range t.Records {
		counts[Truncate(t.Records[i].Time.In(loc), p).Unix()]++
	}
	end := Truncate(last.In(loc), p)
	var out []Bucket
	for start := Truncate(first.In(loc), p); !start.After(end); start = Next(start, p) {
		out = append(out, Bucket{Start: start, Label: Label(start, p), Count: counts[start.Unix()]})
	}
	return out
}

// ByHour counts incidents per hour of day, 0 through 23.
func ByHour(t *incident.Table) []CategoryCount {
	var hours [24]int
	for i := range t.Records {
		hours[t.Records[i].Time.In(t.Loc()).Hour()]++
	}
	out := make([]CategoryCount, 24)
	for h, n := range hours {
		out[h] = CategoryCount{Value: strconv.Itoa(h), Count: n, Percent: percent(n, t.Len())}
	}
	return out
}

// ByWeekday counts incidents per day of week, Sunday first.
func ByWeekday(t *incident.Table) []CategoryCount { return ByDimension(t, incident.DayOfWeek) }

// BySeason counts incidents per season, Winter first.
func BySeason(t *incident.Table) []CategoryCount { return ByDimension(t, incident.Season) }

// ByTimeOfDay counts incidents per time-of-day band, Early Morning first.
func ByTimeOfDay(t *incident.Table) []CategoryCount { return ByDimension(t, incident.TimeOfDay) }

// ByWeekend splits incidents into weekday and weekend.
func ByWeekend(t *incident.Table) []CategoryCount { return ByDimension(t, incident.Weekend) }

// ByDimension counts incidents per value of d. Derived calendar dimensions
// keep their natural order and include zero counts; source dimensions are
// sorted by descending count, then by value. The counts always sum to
// t.Len().
func ByDimension(t *incident.Table, d incident.Dimension) []CategoryCount {
	counts := map[string]int{}
	for i := range t.Records {
		counts[t.Records[i].Value(d)]++
	}
	total := t.Len()
	if order := incident.NaturalOrder(d); order != nil {
		out := make([]CategoryCount, len(order))
		for i, v := range order {
			out[i] = CategoryCount{Value: v, Count: counts[v], Percent: percent(counts[v], total)}
		}
		return out
	}
	out := make([]CategoryCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, CategoryCount{Value: v, Count: n, Percent: percent(n, total)})
	}
	sortDescending(out)
	return out
}

// TopN returns the n largest counts, ties broken by value.
func TopN(counts []CategoryCount, n int) []CategoryCount {
	out := append([]CategoryCount(nil), counts...)
	sortDescending(out)
	return limit(out, n)
}

// BottomN returns the n smallest non-zero counts, ties broken by value.
func BottomN(counts []CategoryCount, n int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for _, c := range counts {
		if c.Count > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count < out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return limit(out, n)
}

// HeatmapGrid counts incidents by day of week (rows, Sunday first) and hour
// of day (columns).
type HeatmapGrid struct {
	Days   []string   `json:"days"`
	Counts [7][24]int `json:"counts"`
	Max    int        `json:"max"`
}

// Heatmap builds the day-of-week by hour grid.
func Heatmap(t *incident.Table) HeatmapGrid {
	g := HeatmapGrid{Days: incident.Weekdays}
	for i := range t.Records {
		ts := t.Records[i].Time.In(t.Loc())
		g.Counts[ts.Weekday()][ts.Hour()]++
		if n := g.Counts[ts.Weekday()][ts.Hour()]; n > g.Max {
			g.Max = n
		}
	}
	return g
}

// Point is an incident with known coordinates, for map display.
type Point struct {
	ID           string    `json:"id"`
	Time         time.Time `json:"time"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	Offense      string    `json:"offense"`
	Neighborhood string    `json:"neighborhood"`
}

// Points returns the incidents that carry coordinates, in table order.
func Points(t *incident.Table) []Point {
	out := make([]Point, 0)
	for i := range t.Records {
		r := &t.Records[i]
		if r.Coords == nil {
			continue
		}
		out = append(out, Point{
			ID:           r.ID,
			Time:         r.Time,
			Lat:          r.Coords.Lat,
			Lon:          r.Coords.Lon,
			Offense:      r.Offense,
			Neighborhood: r.Neighborhood,
		})
	}
	return out
}

func sortDescending(out []CategoryCount) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
}

func limit(out []CategoryCount, n int) []CategoryCount {
	if n > 0 && len(out) > n {
		return out[:n]
	}
	return out
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
