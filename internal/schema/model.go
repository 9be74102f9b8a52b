// Package schema defines the data model shared by the mortality pipeline
// stages: the wide (one column per reporting date) record shape produced by
// the parser, the long Observation shape produced by the melt stage, and the
// fatal structural errors that abort a run.
package schema

import "time"

// DateLayout is the single expected layout of dated column headers in the
// source table: month/day/2-digit-year, e.g. "3/23/20".
const DateLayout = "1/2/06"

// Header models the ordered list of dated columns, parsed once from the CSV
// header row. Every record in the table is positionally aligned to it; the
// pipeline never re-derives dates per row.
type Header struct {
	// Labels are the raw dated column headers in source order.
	Labels []string

	// Dates are the parsed calendar dates, aligned 1:1 with Labels.
	Dates []time.Time
}

// Width returns the number of dated columns.
func (h Header) Width() int { return len(h.Dates) }

// ParseHeader parses dated column labels into a Header using DateLayout.
// A label that does not parse yields a DateParseError naming the column; this
// is fatal because it means the table's schema assumption is wrong, not that
// one row is bad.
func ParseHeader(labels []string) (Header, error) {
	h := Header{
		Labels: make([]string, 0, len(labels)),
		Dates:  make([]time.Time, 0, len(labels)),
	}
	for _, lbl := range labels {
		t, err := time.Parse(DateLayout, lbl)
		if err != nil {
			return Header{}, &DateParseError{Column: lbl, Err: err}
		}
		h.Labels = append(h.Labels, lbl)
		h.Dates = append(h.Dates, t)
	}
	return h, nil
}

// Record is one wide row of the normalized table: entity identity, population
// and the cumulative counts aligned to the shared Header. Nil pointers mean
// the source cell was empty or unparseable; the validator decides what to do
// with them.
type Record struct {
	// Line is the 1-based source line (header is line 1), kept for auditing.
	Line int

	// State is the region identifier (e.g. "Alabama").
	State string

	// County is the optional sub-region identifier (e.g. "Autauga").
	County string

	// Population is the entity's population figure; nil when missing.
	Population *int64

	// Counts holds one cumulative count per Header date; nil entries mean
	// the cell was missing. len(Counts) always equals the Header width for
	// records emitted by the parser.
	Counts []*int64
}

// EntityKey returns the identity used to group a record's rows: the state
// plus the sub-region. Aggregation must never split one entity key across
// two population-sum contexts.
func (r Record) EntityKey() string { return r.State + "\x00" + r.County }

// Observation is the atomic long-form unit: one (entity, date) pair. Count
// and Population carry over unchanged from the source Record.
type Observation struct {
	State      string
	County     string
	Date       time.Time
	Count      int64
	Population int64
}
