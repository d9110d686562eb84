package analysis

import (
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvilledata/crimedash/internal/filter"
	"github.com/cvilledata/crimedash/internal/incident"
)

func TestBuildDashboard(t *testing.T) {
	tbl := sampleTable()
	tbl.Source = "/data/charlottesville_crime_incidents.xlsx"
	now := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	sel := filter.Selection{}.With(incident.Offense, "Larceny")
	sel.From = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := BuildDashboard(tbl, sel, now, DefaultMetricsConfig())

	assert.Equal(t, "charlottesville_crime_incidents.xlsx", d.Source)
	assert.Equal(t, 3, d.Metrics.Total)
	assert.Equal(t, []string{"Larceny"}, d.Filters[incident.Offense])
	assert.Equal(t, "2024-01-01", d.From)
	assert.Empty(t, d.To)
	require.Len(t, d.TopOffenses, 1)
	assert.Equal(t, 100.0, d.TopOffenses[0].Percent)
	assert.Len(t, d.Seasons, 4)

	md := d.Markdown()
	for _, want := range []string{
		"[CRIME DASHBOARD]",
		"Source: charlottesville_crime_incidents.xlsx",
		"Filters: offense=Larceny; date=2024-01-01..latest",
		"[KEY METRICS]",
		"- Total incidents: 3",
		"- Last 7 days: 0",
		"- month-over-month: N/A (0 vs 0)",
		"- Most frequent offense: Larceny (3, 100.0%)",
		"[TOP OFFENSES]",
		"[MONTHLY TREND]",
		"- 2024-02: 0",
	} {
		assert.True(t, strings.Contains(md, want), "markdown missing %q\n%s", want, md)
	}
}

func TestBuildDashboardGrowthLine(t *testing.T) {
	d := BuildDashboard(monthlyTable(30, 40, 30), filter.Selection{}, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), DefaultMetricsConfig())
	md := d.Markdown()
	assert.Contains(t, md, "- month-over-month: -25.0% (30 vs 40)")
	assert.Contains(t, md, "Filters: none")
}

func TestBuildDashboardEmptySelection(t *testing.T) {
	sel := filter.Selection{}.With(incident.Neighborhood, "Nowhere")
	d := BuildDashboard(sampleTable(), sel, time.Now(), DefaultMetricsConfig())
	assert.Zero(t, d.Metrics.Total)
	assert.Empty(t, d.TopOffenses)
	assert.Contains(t, d.Markdown(), "No incidents match the current filters.")

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"month_over_month":{"percent":null`)
}
