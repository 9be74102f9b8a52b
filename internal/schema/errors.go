package schema

import "fmt"

// SchemaError reports a required column missing from the source table
// (population, or the first dated column). It is fatal: the run cannot
// proceed without the column.
type SchemaError struct {
	// Column names the missing column, e.g. "Population".
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: required column %q absent", e.Column)
}

// DateParseError reports a dated column header that cannot be parsed with
// DateLayout. It is fatal and names the offending column: a malformed date
// header invalidates the positional alignment of every row.
type DateParseError struct {
	Column string
	Err    error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("schema: dated column %q does not parse as %q: %v", e.Column, DateLayout, e.Err)
}

func (e *DateParseError) Unwrap() error { return e.Err }
