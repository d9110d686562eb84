package filter

import (
	"fmt"
	"math/rand"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvilledata/crimedash/internal/incident"
)

func rec(id, day, neighborhood, offense, agency string) incident.Record {
	ts, err := time.Parse("2006-01-02 15:04", day)
	if err != nil {
		panic(err)
	}
	return incident.Record{
		ID: id, Time: ts, Neighborhood: neighborhood, Offense: offense,
		Agency: agency, LocationType: "Street", Zip: "22902", Street: "Main St",
		ReportingOfficer: "Smith",
	}
}

func fixture() *incident.Table {
	return incident.NewTable([]incident.Record{
		rec("1", "2024-03-01 10:00", "Downtown", "Larceny", "CPD"),
		rec("2", "2024-03-02 23:00", "Downtown", "Assault", "CPD"),
		rec("3", "2024-03-03 14:00", "Belmont", "Larceny", "CPD"),
		rec("4", "2024-03-04 02:00", "Belmont", "Vandalism", "UPD"),
		rec("5", "2024-03-09 12:00", "Fifeville", "Robbery", "CPD"),
	})
}

func TestApplyEmptySelectionIsIdentity(t *testing.T) {
	tbl := fixture()
	assert.Same(t, tbl, Apply(tbl, Selection{}))
	assert.Same(t, tbl, Apply(tbl, Selection{Values: map[incident.Dimension][]string{incident.Offense: nil}}))
}

func TestApplyIntersectsDimensions(t *testing.T) {
	tbl := fixture()
	sel := Selection{}.With(incident.Neighborhood, "downtown", "Belmont").With(incident.Offense, "LARCENY")
	got := Apply(tbl, sel)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "1", got.Records[0].ID)
	assert.Equal(t, "3", got.Records[1].ID)

	got = Apply(tbl, Selection{}.With(incident.Weekend, "Weekend"))
	// 2024-03-02 and 2024-03-03 are Saturday and Sunday; 03-09 is Saturday.
	assert.Equal(t, 3, got.Len())
}

func TestApplyDateRangeInclusive(t *testing.T) {
	tbl := fixture()
	sel := Selection{
		From: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	}
	got := Apply(tbl, sel)
	require.Equal(t, 3, got.Len())
	assert.Equal(t, "2", got.Records[0].ID)
	assert.Equal(t, "4", got.Records[2].ID, "a 02:00 incident on the To day is included")
}

func TestComputeOptionsCascades(t *testing.T) {
	tbl := fixture()
	opts := ComputeOptions(tbl, Selection{}.With(incident.Neighborhood, "Downtown"))

	assert.Equal(t, []string{"Assault", "Larceny"}, opts[incident.Offense])
	assert.Equal(t, []string{"CPD"}, opts[incident.Agency])
	assert.Equal(t, []string{"Belmont", "Downtown", "Fifeville"}, opts[incident.Neighborhood],
		"own selection must not constrain own options")

	opts = ComputeOptions(tbl, Selection{}.With(incident.Neighborhood, "Downtown").With(incident.Offense, "Larceny"))
	assert.Equal(t, []string{"Belmont", "Downtown"}, opts[incident.Neighborhood])
	assert.Equal(t, []string{"Assault", "Larceny"}, opts[incident.Offense])
	assert.Equal(t, []string{"CPD"}, opts[incident.Agency])
}

func TestComputeOptionsNaturalOrderForDerived(t *testing.T) {
	opts := ComputeOptions(fixture(), Selection{})
	assert.Equal(t, []string{"Sunday", "Monday", "Friday", "Saturday"}, opts[incident.DayOfWeek])
	assert.Equal(t, []string{"Early Morning", "Morning", "Afternoon", "Night"}, opts[incident.TimeOfDay])
	assert.Equal(t, []string{"Spring"}, opts[incident.Season])
	assert.Equal(t, []string{"Weekday", "Weekend"}, opts[incident.Weekend])
	for _, d := range incident.Dimensions {
		assert.Contains(t, opts, d)
	}
}

func TestComputeOptionsEmptyResult(t *testing.T) {
	tbl := fixture()
	sel := Selection{}.With(incident.Neighborhood, "Belmont").With(incident.Offense, "Robbery").With(incident.Agency, "UPD")
	assert.Equal(t, 0, Apply(tbl, sel).Len())

	opts := ComputeOptions(tbl, sel)
	assert.Empty(t, opts[incident.Zip])
	assert.NotNil(t, opts[incident.Zip])
	assert.Empty(t, opts[incident.Season])
}

// options reference implementation: filter by everything but d, then collect.
func naiveOptions(tbl *incident.Table, sel Selection, d incident.Dimension) map[string]bool {
	sub := Apply(tbl, sel.With(d))
	out := map[string]bool{}
	for i := range sub.Records {
		out[sub.Records[i].Value(d)] = true
	}
	return out
}

func TestComputeOptionsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	neighborhoods := []string{"Downtown", "Belmont", "Fifeville", "Rose Hill"}
	offenses := []string{"Larceny", "Assault", "Vandalism", "Robbery", "Fraud"}
	agencies := []string{"CPD", "UPD"}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var records []incident.Record
	for i := 0; i < 300; i++ {
		records = append(records, incident.Record{
			ID:           fmt.Sprint(i),
			Time:         base.Add(time.Duration(rng.Intn(24*120)) * time.Hour),
			Neighborhood: neighborhoods[rng.Intn(len(neighborhoods))],
			Offense:      offenses[rng.Intn(len(offenses))],
			Agency:       agencies[rng.Intn(len(agencies))],
		})
	}
	tbl := incident.NewTable(records)

	for trial := 0; trial < 50; trial++ {
		sel := Selection{}
		if rng.Intn(2) == 0 {
			sel = sel.With(incident.Neighborhood, neighborhoods[rng.Intn(len(neighborhoods))])
		}
		if rng.Intn(2) == 0 {
			sel = sel.With(incident.Offense, offenses[rng.Intn(len(offenses))], offenses[rng.Intn(len(offenses))])
		}
		if rng.Intn(3) == 0 {
			sel = sel.With(incident.Agency, agencies[rng.Intn(len(agencies))])
		}
		if rng.Intn(3) == 0 {
			sel = sel.With(incident.Season, "Winter")
		}
		opts := ComputeOptions(tbl, sel)
		for _, d := range incident.Dimensions {
			want := naiveOptions(tbl, sel, d)
			got := map[string]bool{}
			for _, v := range opts[d] {
				got[v] = true
			}
			assert.Equal(t, want, got, "trial %d dimension %s", trial, d)
			// Selected values that exist under the other constraints stay selectable.
			for _, v := range sel.Values[d] {
				if want[v] {
					assert.True(t, got[v], "self-elimination of %s=%s", d, v)
				}
			}
		}
	}
}

func TestFromQuery(t *testing.T) {
	q := url.Values{
		"offense":       {"Assault", "Robbery"},
		"Neighborhood":  {"all"},
		"location-type": {""},
		"from":          {"2024-03-01"},
		"to":            {"2024-03-31"},
		"period":        {"month"},
	}
	sel, err := FromQuery(q, time.UTC)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Assault", "Robbery"}, sel.Values[incident.Offense])
	assert.NotContains(t, sel.Values, incident.Neighborhood)
	assert.NotContains(t, sel.Values, incident.LocationType)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), sel.From)

	_, err = FromQuery(url.Values{"from": {"03/01/2024"}}, time.UTC)
	assert.ErrorContains(t, err, "invalid from")

	_, err = FromQuery(url.Values{"from": {"2024-03-10"}, "to": {"2024-03-01"}}, time.UTC)
	assert.ErrorContains(t, err, "invalid range")
}

func TestParseArgs(t *testing.T) {
	q, err := ParseArgs([]string{"neighborhood=Downtown", "Offense=Assault", "offense=Robbery"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Downtown"}, q["neighborhood"])
	assert.Equal(t, []string{"Assault", "Robbery"}, q["offense"])

	_, err = ParseArgs([]string{"Downtown"})
	assert.Error(t, err)
	_, err = ParseArgs([]string{"color=red"})
	assert.ErrorContains(t, err, "unknown filter dimension")
}
