package analysis

import (
	"fmt"
	"strings"
	"time"
)

// Period is a calendar-aligned bucket size.
type Period string

const (
	Day     Period = "day"
	Week    Period = "week"
	Month   Period = "month"
	Quarter Period = "quarter"
	Year    Period = "year"
)

// Periods lists the supported bucket sizes from finest to coarsest.
var Periods = []Period{Day, Week, Month, Quarter, Year}

// ParsePeriod accepts a period name, its adjective form ("weekly") or its
// first letter.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily", "d":
		return Day, nil
	case "week", "weekly", "w":
		return Week, nil
	case "month", "monthly", "m":
		return Month, nil
	case "quarter", "quarterly", "q":
		return Quarter, nil
	case "year", "yearly", "annual", "y":
		return Year, nil
	}
	return "", fmt.Errorf("unknown period %q (want day, week, month, quarter or year)", s)
}

// Truncate returns the start of the period containing ts, in ts's location.
// Weeks start on Monday; months, quarters and years are calendar-aligned.
func Truncate(ts time.Time, p Period) time.Time {
	y, m, d := ts.Date()
	loc := ts.Location()
	switch p {
	case Week:
		offset := (int(ts.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case Quarter:
		return time.Date(y, ((m-1)/3)*3+1, 1, 0, 0, 0, 0, loc)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

// Next returns the start of the period after the one starting at start.
func Next(start time.Time, p Period) time.Time { return shift(start, p, 1) }

// Previous returns the start of the period before the one starting at start.
func Previous(start time.Time, p Period) time.Time { return shift(start, p, -1) }

func shift(start time.Time, p Period, n int) time.Time {
	switch p {
	case Week:
		return start.AddDate(0, 0, 7*n)
	case Month:
		return start.AddDate(0, n, 0)
	case Quarter:
		return start.AddDate(0, 3*n, 0)
	case Year:
		return start.AddDate(n, 0, 0)
	default:
		return start.AddDate(0, 0, n)
	}
}

// yearEarlier returns the same clock time one year before ts. A day that
// does not exist in that year (Feb 29) clamps to the month's last day
// instead of rolling into the next month.
func yearEarlier(ts time.Time) time.Time {
	y, m, d := ts.Date()
	if last := time.Date(y-1, m+1, 0, 0, 0, 0, 0, ts.Location()).Day(); d > last {
		d = last
	}
	return time.Date(y-1, m, d, ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), ts.Location())
}

// Label formats a period start for display.
func Label(start time.Time, p Period) string {
	switch p {
	case Month:
		return start.Format("2006-01")
	case Quarter:
		return fmt.Sprintf("%d-Q%d", start.Year(), (int(start.Month())-1)/3+1)
	case Year:
		return start.Format("2006")
	default:
		return start.Format("2006-01-02")
	}
}

// comparisonName is the growth label used in reports, e.g. "month-over-month".
func comparisonName(p Period) string {
	return string(p) + "-over-" + string(p)
}
