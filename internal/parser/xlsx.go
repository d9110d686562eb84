package parser

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
)

// maxColumns is the widest sheet Excel can produce (column XFD).
const maxColumns = 16384

type xlsxReader struct{}

func (xlsxReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Read extracts rows from the selected worksheet. If opt.SheetName is empty
// and opt.SheetIndex <= 0, it defaults to the first sheet. Cell values are
// returned as stored: dates stay Excel serial numbers unless the workbook
// stored them as text.
func (xlsxReader) Read(path string, opt Options) (*Sheet, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer zr.Close()

	book, err := readWorkbook(zr)
	if err != nil {
		return nil, err
	}
	name, target, err := book.locate(opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	shared, err := readSharedStrings(zr)
	if err != nil {
		return nil, err
	}
	f, err := zr.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: worksheet %s: %w", target, err)
	}
	defer f.Close()

	rows := &rowDecoder{dec: xml.NewDecoder(f), shared: shared}
	sh := &Sheet{Name: name}
	for {
		row, err := rows.next()
		if errors.Is(err, io.EOF) {
			return sh, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read worksheet %s: %w", name, err)
		}
		if sh.Header == nil {
			sh.Header = row
			continue
		}
		sh.Rows = append(sh.Rows, padRow(row, len(sh.Header)))
	}
}

type workbook struct {
	Sheets []struct {
		Name    string `xml:"name,attr"`
		SheetID int    `xml:"sheetId,attr"`
		// r:id, matched by local name
		RID string `xml:"id,attr"`
	} `xml:"sheets>sheet"`
	// rels maps relationship ids to ZIP entry paths.
	rels map[string]string
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

func readWorkbook(zr *zip.ReadCloser) (*workbook, error) {
	b, err := fs.ReadFile(zr, "xl/workbook.xml")
	if err != nil {
		return nil, fmt.Errorf("open xlsx: missing xl/workbook.xml: %w", err)
	}
	var wb workbook
	if err := xml.Unmarshal(b, &wb); err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}
	wb.rels = map[string]string{}
	b, err = fs.ReadFile(zr, "xl/_rels/workbook.xml.rels")
	if errors.Is(err, fs.ErrNotExist) {
		return &wb, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open workbook relationships: %w", err)
	}
	var rels relationships
	if err := xml.Unmarshal(b, &rels); err != nil {
		return nil, fmt.Errorf("parse workbook relationships: %w", err)
	}
	for _, r := range rels.Items {
		if r.ID != "" && r.Target != "" {
			wb.rels[r.ID] = normalizeRelPath(r.Target)
		}
	}
	return &wb, nil
}

// locate resolves the requested sheet to its display name and ZIP path.
// A missing relationship falls back to the conventional sheetN.xml name.
func (wb *workbook) locate(opt Options) (name, target string, err error) {
	if opt.SheetName != "" {
		available := make([]string, 0, len(wb.Sheets))
		for _, s := range wb.Sheets {
			if strings.EqualFold(s.Name, opt.SheetName) {
				if t, ok := wb.rels[s.RID]; ok {
					return s.Name, t, nil
				}
			}
			available = append(available, s.Name)
		}
		return "", "", fmt.Errorf("sheet '%s' not found; available sheets: %s",
			opt.SheetName, strings.Join(available, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	for _, s := range wb.Sheets {
		if s.SheetID != idx {
			continue
		}
		if t, ok := wb.rels[s.RID]; ok {
			return s.Name, t, nil
		}
		name = s.Name
		break
	}
	target = fmt.Sprintf("xl/worksheets/sheet%d.xml", idx)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(target), ".xml")
	}
	return name, target, nil
}

// richText is the text of a shared or inline string: a plain <t> or a run
// of <r><t> fragments. Phonetic hints are ignored.
type richText struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (rt richText) String() string {
	if len(rt.Runs) == 0 {
		return rt.T
	}
	var b strings.Builder
	b.WriteString(rt.T)
	for _, r := range rt.Runs {
		b.WriteString(r.T)
	}
	return b.String()
}

func readSharedStrings(zr *zip.ReadCloser) ([]string, error) {
	b, err := fs.ReadFile(zr, "xl/sharedStrings.xml")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open shared strings: %w", err)
	}
	var sst struct {
		Items []richText `xml:"si"`
	}
	if err := xml.Unmarshal(b, &sst); err != nil {
		return nil, fmt.Errorf("parse shared strings: %w", err)
	}
	out := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		out[i] = si.String()
	}
	return out, nil
}

type xmlRow struct {
	Num   string `xml:"r,attr"`
	Cells []struct {
		Ref    string   `xml:"r,attr"`
		Type   string   `xml:"t,attr"`
		Value  string   `xml:"v"`
		Inline richText `xml:"is"`
	} `xml:"c"`
}

// rowDecoder streams <row> elements from a worksheet.
type rowDecoder struct {
	dec    *xml.Decoder
	shared []string
}

// next returns the following row's cell values by column, or io.EOF.
func (d *rowDecoder) next() ([]string, error) {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		var row xmlRow
		if err := d.dec.DecodeElement(&row, &se); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		return d.values(row)
	}
}

func (d *rowDecoder) values(row xmlRow) ([]string, error) {
	var out []string
	for _, c := range row.Cells {
		col := len(out)
		if c.Ref != "" {
			var ok bool
			if col, ok = columnIndex(c.Ref); !ok {
				return nil, fmt.Errorf("row %s: invalid cell reference %q", row.Num, c.Ref)
			}
		}
		if col >= len(out) {
			out = padRow(out, col+1)
		}
		switch c.Type {
		case "s":
			if i, err := strconv.Atoi(strings.TrimSpace(c.Value)); err == nil && i >= 0 && i < len(d.shared) {
				out[col] = d.shared[i]
			}
		case "inlineStr":
			out[col] = c.Inline.String()
		case "b":
			if strings.TrimSpace(c.Value) == "1" {
				out[col] = "TRUE"
			} else {
				out[col] = "FALSE"
			}
		default:
			out[col] = c.Value
		}
	}
	return out, nil
}

// columnIndex maps an A1-style reference such as "C12" to its 0-based
// column (2). ok is false unless the reference is letters followed by a
// row number and the column is within Excel's limit.
func columnIndex(ref string) (int, bool) {
	n := 0
	for n < len(ref) && isASCIILetter(ref[n]) {
		n++
	}
	if n == 0 || n > 3 || n == len(ref) {
		return 0, false
	}
	for _, c := range ref[n:] {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	col := 0
	for _, c := range strings.ToUpper(ref[:n]) {
		col = col*26 + int(c-'A') + 1
	}
	if col > maxColumns {
		return 0, false
	}
	return col - 1, true
}

func isASCIILetter(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}

// normalizeRelPath converts relationship Target paths to ZIP entry paths.
// Targets may carry a leading slash ("/xl/worksheets/sheet1.xml"); ZIP
// entries never do.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return "xl/" + rel
}
