package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvilledata/crimedash/internal/incident"
	"github.com/cvilledata/crimedash/internal/parser"
	"github.com/cvilledata/crimedash/internal/testutil"
)

var fixedNow = time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "incidents.csv")
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")), 0o644))
	return p
}

func TestLoadIncidentsCSV(t *testing.T) {
	p := writeCSV(t,
		"IncidentID,Date,HourReported,Neighborhood,Offense,Agency,Location Type,zip,FullStreet,ReportingOfficer,Latitude,Longitude",
		"202400001,2024-08-10,1523,  downtown ,LARCENY - ALL OTHER,cpd,Parking Lot,22902.0,100 E Main St,Smith John,38.03,-78.48",
		"202400002,08/12/2024 1:30 AM,,Fifeville,Assault,CPD,Residence,22903,,,0,0",
		"202400003,not a date,,Belmont,Vandalism,CPD,Street,22902,,,,",
		",,,,,,,,,,,",
		",2024-08-15T22:10:00Z,,,Burglary,UPD,,,,,,",
	)
	tbl, err := LoadIncidents(p, LoadOptions{Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)

	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, 1, tbl.Skipped, "unparseable date is excluded, blank row ignored")
	assert.Equal(t, fixedNow, tbl.LoadedAt)
	assert.Equal(t, p, tbl.Source)

	r := tbl.Records[0]
	assert.Equal(t, "202400001", r.ID)
	assert.Equal(t, time.Date(2024, 8, 10, 15, 23, 0, 0, time.UTC), r.Time, "hour column fills a date-only timestamp")
	assert.Equal(t, "Downtown", r.Neighborhood)
	assert.Equal(t, "Larceny - All Other", r.Offense)
	assert.Equal(t, "CPD", r.Agency)
	assert.Equal(t, "Parking Lot", r.LocationType)
	assert.Equal(t, "22902", r.Zip)
	assert.Equal(t, "100 E Main St", r.Street)
	require.NotNil(t, r.Coords)
	assert.InDelta(t, 38.03, r.Coords.Lat, 1e-9)

	r = tbl.Records[1]
	assert.Equal(t, time.Date(2024, 8, 12, 1, 30, 0, 0, time.UTC), r.Time)
	assert.Nil(t, r.Coords, "0,0 is a placeholder, not a location")
	assert.Equal(t, incident.Missing, r.Street)

	r = tbl.Records[2]
	assert.Equal(t, "row-6", r.ID)
	assert.Equal(t, incident.Missing, r.Neighborhood)
	assert.Equal(t, incident.Missing, r.Zip)
}

func TestLoadIncidentsXLSXSerialDates(t *testing.T) {
	p := filepath.Join(t.TempDir(), "charlottesville_crime_incidents.xlsx")
	testutil.WriteXLSX(t, p, "Sheet1", [][]string{
		{"IncidentID", "Date", "Neighborhood", "Offense", "Agency", "zip"},
		// 45500 = 2024-07-27; .75 = 18:00
		{"1", "45500.75", "Downtown", "Larceny", "CPD", "22902"},
		{"2", "2024-07-28 09:15:00", "Belmont", "Assault", "CPD", "22902"},
	})
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tbl, err := LoadIncidents(p, LoadOptions{Location: ny})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, time.Date(2024, 7, 27, 18, 0, 0, 0, ny), tbl.Records[0].Time)
	assert.Equal(t, time.Date(2024, 7, 28, 9, 15, 0, 0, ny), tbl.Records[1].Time)
	assert.Equal(t, ny, tbl.Loc())
}

func TestLoadIncidentsErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		path   string
		reason string
	}{
		"unset":       {"", "no data file configured"},
		"missing":     {filepath.Join(dir, "gone.xlsx"), "read source"},
		"unsupported": {filepath.Join(dir, "data.json"), "unsupported file type"},
		"schema": {
			writeCSV(t, "IncidentID,Date,Offense", "1,2024-01-01,Assault"),
			"missing required columns: neighborhood, agency",
		},
		"no dates": {
			writeCSV(t, "IncidentID,Date,Neighborhood,Offense,Agency", "1,soon,A,B,C"),
			"no incidents with a parseable date (1 rows skipped)",
		},
		"empty": {writeCSV(t, ""), "file has no header row"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadIncidents(tc.path, LoadOptions{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDataLoad))
			var dle *DataLoadError
			require.True(t, errors.As(err, &dle))
			assert.Equal(t, tc.reason, dle.Reason)
		})
	}

	_, err := LoadIncidents(filepath.Join(dir, "data.json"), LoadOptions{})
	assert.ErrorIs(t, err, parser.ErrUnsupported)
}

func TestLoadIncidentsMalformedXLSXCellRef(t *testing.T) {
	p := filepath.Join(t.TempDir(), "incidents.xlsx")
	testutil.WriteRawXLSX(t, p,
		`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>`+
			`<row r="2"><c r="1" t="inlineStr"><is><t>202400001</t></is></c></row>`,
		"IncidentID", "Date")

	var tbl *incident.Table
	var err error
	require.NotPanics(t, func() { tbl, err = LoadIncidents(p, LoadOptions{}) })
	assert.Nil(t, tbl)
	require.ErrorIs(t, err, ErrDataLoad)
	var dle *DataLoadError
	require.True(t, errors.As(err, &dle))
	assert.Equal(t, "read source", dle.Reason)
	assert.Contains(t, err.Error(), "invalid cell reference")
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"45292", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"45292.5", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"2024-03-05T10:00:00-05:00", time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC), true},
		{"3/5/2024 14:07", time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC), true},
		{"20240305", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"-5", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := parseTimestamp(tt.in, time.UTC)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), "input %q: got %s want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseHourReported(t *testing.T) {
	h, m, ok := parseHourReported("0045")
	require.True(t, ok)
	assert.Equal(t, 0, h)
	assert.Equal(t, 45, m)

	h, m, ok = parseHourReported("2359.0")
	require.True(t, ok)
	assert.Equal(t, 23, h)
	assert.Equal(t, 59, m)

	h, _, ok = parseHourReported("7:30")
	require.True(t, ok)
	assert.Equal(t, 7, h)

	_, _, ok = parseHourReported("2460")
	assert.False(t, ok)
	_, _, ok = parseHourReported("")
	assert.False(t, ok)
}

func TestResolveColumnsAliases(t *testing.T) {
	idx, missing := resolveColumns([]string{"Incident ID", "Date Reported", "NEIGHBORHOOD", "Offense Type", "Agency", "Lat", "Long"})
	assert.Empty(t, missing)
	assert.Equal(t, 0, idx[colID])
	assert.Equal(t, 1, idx[colTime])
	assert.Equal(t, 3, idx[colOffense])
	assert.Equal(t, 5, idx[colLat])
	assert.Equal(t, 6, idx[colLon])
	_, hasZip := idx[colZip]
	assert.False(t, hasZip)
}
