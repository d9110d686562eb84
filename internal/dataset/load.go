// Package dataset loads the incident source file into an incident.Table and
// caches it for a refresh window.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cvilledata/crimedash/internal/incident"
	"github.com/cvilledata/crimedash/internal/parser"
)

// LoadOptions controls how the source file is read and interpreted.
type LoadOptions struct {
	// SheetName selects the XLSX worksheet; empty means the first sheet.
	SheetName string
	// Location interprets zone-less timestamps. Nil means UTC.
	Location *time.Location
	// Now stamps Table.LoadedAt. Nil means time.Now.
	Now func() time.Time
}

// LoadIncidents reads the source file, normalizes column types and returns
// the full table. Rows whose timestamp is missing or unparseable are
// excluded and counted in Table.Skipped. Every failure is a *DataLoadError.
func LoadIncidents(path string, opt LoadOptions) (*incident.Table, error) {
	if strings.TrimSpace(path) == "" {
		return nil, loadError(path, "no data file configured", nil)
	}
	if !parser.Supported(path) {
		return nil, loadError(path, "unsupported file type", parser.ErrUnsupported)
	}
	sh, err := parser.ReadFile(path, parser.Options{SheetName: opt.SheetName})
	if err != nil {
		return nil, loadError(path, "read source", err)
	}
	if len(sh.Header) == 0 {
		return nil, loadError(path, "file has no header row", nil)
	}
	cols, missing := resolveColumns(sh.Header)
	if len(missing) > 0 {
		return nil, loadError(path, "missing required columns: "+strings.Join(missing, ", "), nil)
	}
	loc := opt.Location
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now
	if opt.Now != nil {
		now = opt.Now
	}

	tbl := &incident.Table{
		Records:  make([]incident.Record, 0, len(sh.Rows)),
		Source:   path,
		Location: loc,
	}
	for i, row := range sh.Rows {
		if blankRow(row) {
			continue
		}
		ts, ok := parseTimestamp(cell(row, cols, colTime), loc)
		if !ok {
			tbl.Skipped++
			continue
		}
		if hh, mm, ok := parseHourReported(cell(row, cols, colHour)); ok && isMidnight(ts) {
			ts = time.Date(ts.Year(), ts.Month(), ts.Day(), hh, mm, 0, 0, loc)
		}
		id := trimNumeric(cell(row, cols, colID))
		if id == "" {
			// spreadsheet row number: header is row 1
			id = fmt.Sprintf("row-%d", i+2)
		}
		tbl.Records = append(tbl.Records, incident.Record{
			ID:               id,
			Time:             ts,
			Neighborhood:     incident.NormalizeCategory(cell(row, cols, colNeighborhood)),
			Offense:          incident.NormalizeCategory(cell(row, cols, colOffense)),
			Agency:           normalizeAgency(cell(row, cols, colAgency)),
			LocationType:     incident.NormalizeCategory(cell(row, cols, colLocationType)),
			Zip:              normalizeZip(cell(row, cols, colZip)),
			Street:           incident.NormalizeCategory(cell(row, cols, colStreet)),
			ReportingOfficer: incident.NormalizeCategory(cell(row, cols, colOfficer)),
			Coords:           parseCoords(cell(row, cols, colLat), cell(row, cols, colLon)),
		})
	}
	if len(tbl.Records) == 0 {
		return nil, loadError(path, fmt.Sprintf("no incidents with a parseable date (%d rows skipped)", tbl.Skipped), nil)
	}
	tbl.LoadedAt = now()
	return tbl, nil
}

func cell(row []string, cols map[column]int, c column) string {
	i, ok := cols[c]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"20060102",
}

// excelEpoch is day zero of the 1900 date system as Excel counts it (the
// 1900 leap-year bug shifts it from Dec 31 to Dec 30).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// maxExcelSerial is 9999-12-31.
const maxExcelSerial = 2958465

// parseTimestamp accepts Excel serial dates, RFC 3339 and the common
// US-style layouts. Zone-less values are read in loc.
func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "-/") {
		if f >= 1 && f <= maxExcelSerial {
			return fromExcelSerial(f, loc), true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), true
	}
	for _, l := range timeLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fromExcelSerial(f float64, loc *time.Location) time.Time {
	days := math.Floor(f)
	secs := math.Round((f - days) * 86400)
	u := excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), 0, loc)
}

// parseHourReported reads military-time values such as "1523" or "45".
func parseHourReported(s string) (hour, minute int, ok bool) {
	s = trimNumeric(s)
	if s == "" || strings.Contains(s, ":") {
		if t, err := time.Parse("15:04", s); err == nil {
			return t.Hour(), t.Minute(), true
		}
		return 0, 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, 0, false
	}
	hour, minute = n/100, n%100
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}

// trimNumeric drops the ".0" spreadsheets append to integer cells.
func trimNumeric(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".0") {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return strings.TrimSuffix(s, ".0")
		}
	}
	return s
}

func normalizeZip(s string) string {
	s = trimNumeric(s)
	if s == "" {
		return incident.Missing
	}
	return s
}

// normalizeAgency keeps short all-caps acronyms (CPD, UPD) as written.
func normalizeAgency(s string) string {
	s = strings.TrimSpace(s)
	if s != "" && len(s) <= 5 && !strings.ContainsAny(s, " \t") {
		return strings.ToUpper(s)
	}
	return incident.NormalizeCategory(s)
}

// parseCoords returns nil unless both values parse, lie in range and are
// not the 0,0 placeholder some exports use for unknown locations.
func parseCoords(lat, lon string) *incident.Coordinates {
	if lat == "" || lon == "" {
		return nil
	}
	la, err1 := strconv.ParseFloat(lat, 64)
	lo, err2 := strconv.ParseFloat(lon, 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	if la == 0 && lo == 0 {
		return nil
	}
	if la < -90 || la > 90 || lo < -180 || lo > 180 {
		return nil
	}
	return &incident.Coordinates{Lat: la, Lon: lo}
}
