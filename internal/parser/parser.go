package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sheet is a raw tabular read: a header row followed by data rows.
// Rows are padded to the header width.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Options tunes how a tabular file is read.
type Options struct {
	// SheetName selects an XLSX worksheet by name (case-insensitive).
	SheetName string
	// SheetIndex is the 1-based worksheet fallback when SheetName is empty.
	SheetIndex int
	// Delimiter for CSV. If 0, picked from the extension (.tsv is tab).
	Delimiter rune
}

// Reader defines a tabular file reader implementation.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) (*Sheet, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ReadFile selects a reader based on filename and returns the parsed sheet.
func ReadFile(path string, opt Options) (*Sheet, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

// Supported reports whether any registered reader handles the filename.
func Supported(path string) bool {
	for _, r := range registry {
		if r.CanRead(path) {
			return true
		}
	}
	return false
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported tabular format")

func padRow(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	tmp := make([]string, n)
	copy(tmp, row)
	return tmp
}
