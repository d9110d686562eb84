package incident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  downtown ", "Downtown"},
		{"FIFEVILLE", "Fifeville"},
		{"larceny -  all other", "Larceny - All Other"},
		{"hit and run/property", "Hit And Run/Property"},
		{"", Missing},
		{"   ", Missing},
		{"n/a", Missing},
		{"NaN", Missing},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCategory(tt.in), "input %q", tt.in)
	}
}

func TestDerivedValues(t *testing.T) {
	// 2024-01-06 is a Saturday.
	r := Record{Time: time.Date(2024, 1, 6, 22, 15, 0, 0, time.UTC)}
	assert.Equal(t, "Winter", r.Value(Season))
	assert.Equal(t, "Weekend", r.Value(Weekend))
	assert.Equal(t, "Saturday", r.Value(DayOfWeek))
	assert.Equal(t, "Night", r.Value(TimeOfDay))

	r.Time = time.Date(2024, 7, 3, 5, 59, 0, 0, time.UTC)
	assert.Equal(t, "Summer", r.Value(Season))
	assert.Equal(t, "Weekday", r.Value(Weekend))
	assert.Equal(t, "Early Morning", r.Value(TimeOfDay))
}

func TestTimeOfDayBoundaries(t *testing.T) {
	want := map[int]string{
		0: "Early Morning", 5: "Early Morning", 6: "Morning", 11: "Morning",
		12: "Afternoon", 16: "Afternoon", 17: "Evening", 20: "Evening",
		21: "Night", 23: "Night",
	}
	for h, label := range want {
		assert.Equal(t, label, TimeOfDayOf(h), "hour %d", h)
	}
}

func TestParseDimension(t *testing.T) {
	d, ok := ParseDimension("Location-Type")
	require.True(t, ok)
	assert.Equal(t, LocationType, d)

	d, ok = ParseDimension("day of week")
	require.True(t, ok)
	assert.Equal(t, DayOfWeek, d)

	_, ok = ParseDimension("color")
	assert.False(t, ok)
}

func TestTableSubsetAndSpan(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tbl := NewTable([]Record{
		{ID: "1", Time: base.AddDate(0, 0, 2), Offense: "Assault"},
		{ID: "2", Time: base, Offense: "Larceny"},
		{ID: "3", Time: base.AddDate(0, 0, 5), Offense: "Assault"},
	})
	tbl.Skipped = 4

	first, last, ok := tbl.Span()
	require.True(t, ok)
	assert.Equal(t, base, first)
	assert.Equal(t, base.AddDate(0, 0, 5), last)

	sub := tbl.Subset(func(r *Record) bool { return r.Offense == "Assault" })
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, 4, sub.Skipped)
	assert.Equal(t, 3, tbl.Len(), "parent table must not change")

	empty := tbl.Subset(func(*Record) bool { return false })
	assert.NotNil(t, empty.Records)
	_, _, ok = empty.Span()
	assert.False(t, ok)
}
