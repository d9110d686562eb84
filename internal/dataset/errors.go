package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrDataLoad matches every *DataLoadError via errors.Is.
var ErrDataLoad = errors.New("data load failed")

// DataLoadError reports a missing or malformed source file. It is fatal for
// the render that triggered the load; there is no partial table.
type DataLoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	name := filepath.Base(e.Path)
	if e.Path == "" {
		name = "(unset)"
	}
	if e.Err != nil {
		return fmt.Sprintf("load incidents from %s: %s: %v", name, e.Reason, e.Err)
	}
	return fmt.Sprintf("load incidents from %s: %s", name, e.Reason)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

func (e *DataLoadError) Is(target error) bool { return target == ErrDataLoad }

func loadError(path, reason string, err error) error {
	return &DataLoadError{Path: path, Reason: reason, Err: err}
}
