package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvilledata/crimedash/internal/incident"
)

func TestComputeMetricsMonthly(t *testing.T) {
	tbl := monthlyTable(30, 40, 30)
	now := time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)

	s := ComputeMetrics(tbl, now, DefaultMetricsConfig())
	assert.Equal(t, 100, s.Total)
	assert.Equal(t, 0, s.ThisMonth)
	assert.Equal(t, 30, s.LastMonth)
	assert.Equal(t, 100, s.ThisYear)
	assert.InDelta(t, -25.0, s.MonthOverMonth.Percent, 1e-9)
	assert.False(t, s.QuarterOverQuarter.Defined)
	assert.False(t, s.YearOverYear.Defined)
	assert.False(t, s.YearToDate.Defined)

	require.NotNil(t, s.MostFrequentOffense)
	assert.Equal(t, "Larceny", s.MostFrequentOffense.Value)
	assert.Equal(t, 100.0, s.MostFrequentOffense.Percent)

	require.NotNil(t, s.LatestIncident)
	assert.Equal(t, time.Date(2024, 3, 28, 12, 0, 0, 0, time.UTC), *s.LatestIncident)
	assert.Len(t, s.Windows, 4)
}

func TestComputeMetricsWindowBoundaryInclusive(t *testing.T) {
	now := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	tbl := incident.NewTable([]incident.Record{
		{ID: "boundary", Time: now.AddDate(0, 0, -7)},
		{ID: "just-outside", Time: now.AddDate(0, 0, -7).Add(-time.Second)},
		{ID: "yesterday", Time: now.AddDate(0, 0, -1)},
		{ID: "now", Time: now},
		{ID: "future", Time: now.Add(time.Second)},
	})

	s := ComputeMetrics(tbl, now, MetricsConfig{WindowDays: []int{3, 7, 14, 0}})
	require.Len(t, s.Windows, 3, "non-positive windows are ignored")

	n, ok := s.Window(3)
	require.True(t, ok)
	assert.Equal(t, 2, n)
	n, _ = s.Window(7)
	assert.Equal(t, 3, n, "a row exactly 7 days old is inside the 7-day window")
	n, _ = s.Window(14)
	assert.Equal(t, 4, n)
	_, ok = s.Window(30)
	assert.False(t, ok)
}

func TestComputeMetricsYearToDateLeapDay(t *testing.T) {
	now := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	tbl := incident.NewTable([]incident.Record{
		{ID: "this-year", Time: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "feb-28", Time: time.Date(2023, 2, 28, 12, 0, 0, 0, time.UTC)},
		{ID: "mar-1", Time: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)},
	})

	s := ComputeMetrics(tbl, now, DefaultMetricsConfig())
	require.True(t, s.YearToDate.Defined)
	assert.Equal(t, 1, s.YearToDate.Current)
	assert.Equal(t, 1, s.YearToDate.Previous, "Feb 29 compares through Feb 28, not Mar 1")
	assert.InDelta(t, 0.0, s.YearToDate.Percent, 1e-9)
}

func TestComputeMetricsYearToDate(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	var records []incident.Record
	add := func(ts time.Time, n int) {
		for i := 0; i < n; i++ {
			records = append(records, incident.Record{Time: ts, Offense: "Assault"})
		}
	}
	add(time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), 8)
	add(time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC), 2) // same instant last year, included
	add(time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC), 50) // after the comparable span
	add(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 15)

	s := ComputeMetrics(incident.NewTable(records), now, DefaultMetricsConfig())
	assert.Equal(t, 15, s.ThisYear)
	require.True(t, s.YearToDate.Defined)
	assert.Equal(t, 10, s.YearToDate.Previous)
	assert.InDelta(t, 50.0, s.YearToDate.Percent, 1e-9)
	// 2023 complete vs 2022 (empty).
	assert.False(t, s.YearOverYear.Defined)
	assert.Equal(t, 60, s.YearOverYear.Current)
}

func TestComputeMetricsEmpty(t *testing.T) {
	now := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	for _, tbl := range []*incident.Table{nil, incident.NewTable(nil)} {
		s := ComputeMetrics(tbl, now, DefaultMetricsConfig())
		assert.Zero(t, s.Total)
		assert.Nil(t, s.MostFrequentOffense)
		assert.Nil(t, s.LatestIncident)
		assert.False(t, s.MonthOverMonth.Defined)
		for _, w := range s.Windows {
			assert.Zero(t, w.Count)
		}
	}
}

func TestComputeMetricsUsesTableLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	tbl := &incident.Table{
		Location: ny,
		Records: []incident.Record{
			{Time: time.Date(2024, 3, 31, 20, 0, 0, 0, ny)},
		},
	}
	// 2024-04-01 01:00 UTC is still March 31 in New York.
	now := time.Date(2024, 4, 1, 1, 0, 0, 0, time.UTC)
	s := ComputeMetrics(tbl, now, DefaultMetricsConfig())
	assert.Equal(t, 1, s.ThisMonth)
	assert.Equal(t, 0, s.LastMonth)
	assert.Equal(t, ny, s.GeneratedAt.Location())
}
