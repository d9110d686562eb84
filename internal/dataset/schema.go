package dataset

import (
	"strings"
	"unicode"
)

type column int

const (
	colID column = iota
	colTime
	colHour
	colNeighborhood
	colOffense
	colAgency
	colLocationType
	colZip
	colStreet
	colOfficer
	colLat
	colLon
)

// columnAliases lists accepted header spellings per column, compared after
// headerKey normalization. The first alias is the canonical name.
var columnAliases = map[column][]string{
	colID:           {"incidentid", "incident", "id", "recordid", "casenumber"},
	colTime:         {"date", "datetime", "datereported", "incidentdate", "reporteddate", "timestamp"},
	colHour:         {"hourreported", "hour", "time", "timereported"},
	colNeighborhood: {"neighborhood", "neighbourhood"},
	colOffense:      {"offense", "offence", "offensetype", "crimetype"},
	colAgency:       {"agency"},
	colLocationType: {"locationtype", "location", "premisetype"},
	colZip:          {"zip", "zipcode", "postalcode"},
	colStreet:       {"fullstreet", "street", "address", "blocknumberstreet"},
	colOfficer:      {"reportingofficer", "officer"},
	colLat:          {"latitude", "lat", "y"},
	colLon:          {"longitude", "lon", "lng", "long", "x"},
}

var requiredColumns = []column{colID, colTime, colNeighborhood, colOffense, colAgency}

// headerKey lowercases a header and drops everything but letters and digits.
func headerKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolveColumns maps each known column to its header index. The first
// header matching an alias wins; missing lists required columns by
// canonical name.
func resolveColumns(header []string) (idx map[column]int, missing []string) {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = headerKey(h)
	}
	idx = map[column]int{}
	for col, aliases := range columnAliases {
	search:
		for _, alias := range aliases {
			for i, k := range keys {
				if k == alias {
					idx[col] = i
					break search
				}
			}
		}
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, columnAliases[col][0])
		}
	}
	return idx, missing
}
