package incident

import (
	"strings"
	"time"
)

// Season labels in natural order.
var Seasons = []string{"Winter", "Spring", "Summer", "Autumn"}

// Time-of-day labels in natural order.
var TimesOfDay = []string{"Early Morning", "Morning", "Afternoon", "Evening", "Night"}

// Weekday labels, Sunday first.
var Weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Weekend labels, weekdays first.
var WeekendLabels = []string{"Weekday", "Weekend"}

// SeasonOf maps a month to its meteorological season.
// Winter is Dec-Feb, Spring Mar-May, Summer Jun-Aug, Autumn Sep-Nov.
func SeasonOf(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Autumn"
	}
}

// TimeOfDayOf buckets an hour (0-23).
func TimeOfDayOf(hour int) string {
	switch {
	case hour < 6:
		return "Early Morning"
	case hour < 12:
		return "Morning"
	case hour < 17:
		return "Afternoon"
	case hour < 21:
		return "Evening"
	default:
		return "Night"
	}
}

// WeekendLabel returns "Weekend" for Saturday and Sunday.
func WeekendLabel(d time.Weekday) string {
	if d == time.Saturday || d == time.Sunday {
		return "Weekend"
	}
	return "Weekday"
}

// NaturalOrder returns the fixed label order for derived dimensions and nil
// for source dimensions.
func NaturalOrder(d Dimension) []string {
	switch d {
	case Season:
		return Seasons
	case Weekend:
		return WeekendLabels
	case DayOfWeek:
		return Weekdays
	case TimeOfDay:
		return TimesOfDay
	}
	return nil
}

// Missing is the placeholder for empty categorical values so that they stay
// selectable in filters.
const Missing = "N/A"

// NormalizeCategory trims, collapses inner whitespace and title-cases a
// categorical value. Empty input becomes Missing.
func NormalizeCategory(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Missing
	}
	for i, f := range fields {
		fields[i] = titleWord(f)
	}
	out := strings.Join(fields, " ")
	if strings.EqualFold(out, Missing) || strings.EqualFold(out, "nan") {
		return Missing
	}
	return out
}

func titleWord(w string) string {
	lower := strings.ToLower(w)
	var b strings.Builder
	b.Grow(len(lower))
	upper := true
	for _, r := range lower {
		if upper && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		upper = r == '-' || r == '/' || r == '('
		b.WriteRune(r)
	}
	return b.String()
}
