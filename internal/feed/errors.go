package feed

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from a CSV header.
// The whole file is rejected; there is no partial acceptance.
type SchemaError struct {
	File    string   // base name of the offending file
	Missing []string // missing column names, in RequiredColumns order
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column(s): %s", e.File, strings.Join(e.Missing, ", "))
}

// TypeError reports a cell that cannot be coerced to its column's declared
// type. Row is 1-based over data rows; the header row is not counted.
type TypeError struct {
	File   string
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: row %d: column %q: cannot coerce %q: %v", e.File, e.Row, e.Column, e.Value, e.Err)
}

func (e *TypeError) Unwrap() error { return e.Err }
