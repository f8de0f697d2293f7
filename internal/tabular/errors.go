package tabular

import (
	"fmt"
	"strings"
)

// NotFoundError reports a CSV source path that does not exist. Fatal to the
// whole run, no partial table is ever produced.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("csv file not found: %s", e.Path)
}

// FormatError reports raw content that cannot be parsed as delimited tabular
// data.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("error reading csv: %s", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// SchemaError reports mandatory logical columns whose mapped header is absent
// from the parsed column set. The message enumerates both sides so the user
// can fix either the CSV or the column mapping.
type SchemaError struct {
	Missing []string // mapped column names that are absent
	Present []string // columns actually found in the CSV
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s; available columns: %s",
		strings.Join(e.Missing, ", "), strings.Join(e.Present, ", "))
}
