// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"archive/zip"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
)

// WriteXLSX writes a minimal single-sheet workbook at path. Numeric cells
// are stored as numbers, everything else through the shared string table.
// The relationship target uses a leading slash, as some exporters emit.
func WriteXLSX(tb testing.TB, path, sheetName string, rows [][]string) {
	tb.Helper()
	var shared []string
	sharedIdx := map[string]int{}
	var sheet strings.Builder
	for i, row := range rows {
		fmt.Fprintf(&sheet, `<row r="%d">`, i+1)
		for j, v := range row {
			if v == "" {
				continue
			}
			ref := fmt.Sprintf("%s%d", colName(j), i+1)
			if _, err := strconv.ParseFloat(v, 64); err == nil {
				fmt.Fprintf(&sheet, `<c r="%s"><v>%s</v></c>`, ref, v)
				continue
			}
			idx, ok := sharedIdx[v]
			if !ok {
				idx = len(shared)
				sharedIdx[v] = idx
				shared = append(shared, v)
			}
			fmt.Fprintf(&sheet, `<c r="%s" t="s"><v>%d</v></c>`, ref, idx)
		}
		sheet.WriteString(`</row>`)
	}

	writeWorkbook(tb, path, sheetName, sheet.String(), shared)
}

// WriteRawXLSX writes a single-sheet workbook whose <sheetData> content is
// sheetData verbatim, for exercising malformed or unusual cell markup.
// shared is the shared string table.
func WriteRawXLSX(tb testing.TB, path, sheetData string, shared ...string) {
	tb.Helper()
	writeWorkbook(tb, path, "Sheet1", sheetData, shared)
}

func writeWorkbook(tb testing.TB, path, sheetName, sheetData string, shared []string) {
	tb.Helper()
	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create xlsx: %v", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)

	sheet := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>` +
		sheetData + `</sheetData></worksheet>`

	var sst strings.Builder
	fmt.Fprintf(&sst, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="%d" uniqueCount="%d">`, len(shared), len(shared))
	for _, s := range shared {
		fmt.Fprintf(&sst, `<si><t>%s</t></si>`, xmlEscape(s))
	}
	sst.WriteString(`</sst>`)

	files := []struct{ name, body string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`},
		{"xl/workbook.xml", fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="%s" sheetId="1" r:id="rId1"/></sheets></workbook>`, xmlEscape(sheetName))},
		{"xl/_rels/workbook.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="/xl/worksheets/data.xml"/></Relationships>`},
		{"xl/sharedStrings.xml", sst.String()},
		{"xl/worksheets/data.xml", sheet},
	}
	for _, fl := range files {
		w, err := zw.Create(fl.name)
		if err != nil {
			tb.Fatalf("zip create %s: %v", fl.name, err)
		}
		if _, err := w.Write([]byte(fl.body)); err != nil {
			tb.Fatalf("zip write %s: %v", fl.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("zip close: %v", err)
	}
}

func colName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}
