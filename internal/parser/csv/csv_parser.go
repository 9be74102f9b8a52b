// Package csv parses the wide mortality table and normalizes its schema: it
// locates the identity and population columns, discards non-observational
// identifier columns (geocodes, coordinates, combined keys), and resolves the
// remaining headers into the single ordered date list every record is aligned
// to. It avoids whole-file buffering and can handle large inputs safely.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mortality/internal/config"
	"mortality/internal/schema"
)

// DefaultDropColumns are identifier columns of the canonical wide layout that
// carry no observational value for the analysis. They are discarded when the
// pipeline config does not supply its own drop list.
var DefaultDropColumns = []string{
	"UID", "iso2", "iso3", "code3", "FIPS",
	"Country_Region", "Lat", "Long_", "Combined_Key",
}

// Options configures the CSV parser behavior. All fields are optional;
// sensible defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing ASCII spaces from each field value.
	TrimSpace bool

	// LazyQuotes tolerates unescaped quotes inside fields.
	LazyQuotes bool

	// HeaderMap maps source header names to canonical names before the
	// normalizer classifies them.
	HeaderMap map[string]string
}

// RowError describes a recoverable error associated with a specific source
// line. Rows with errors are dropped softly; the run continues.
type RowError struct {
	Line int
	Err  error
}

// Layout records where the identity and population columns sit in the source
// header, and which source indices hold dated columns.
type Layout struct {
	StateIdx  int
	CountyIdx int // -1 when the table has no sub-region column
	PopIdx    int

	// DateIdx maps Header position -> source column index.
	DateIdx []int

	// Header is the shared ordered date list.
	Header schema.Header
}

// Parser parses a wide CSV according to Options and the configured table
// columns. It is safe to reuse across inputs, but Parser itself is not
// concurrency-safe.
type Parser struct {
	opt Options
	tbl config.Table
}

// NewParser constructs a Parser with the provided Options and table mapping.
func NewParser(opt Options, tbl config.Table) *Parser {
	return &Parser{opt: opt, tbl: tbl}
}

// Parse reads the whole table from r. It returns the resolved Layout, the
// parsed wide records, and any per-row soft errors.
//
// Structural failures are fatal and typed:
//   - *schema.SchemaError when the state or population column (or every
//     dated column) is absent,
//   - *schema.DateParseError when a retained header cell does not parse
//     as a calendar date.
//
// Value-level problems (unparseable counts, missing cells) are NOT errors
// here: the cell becomes nil and the validator partitions the record later.
func (p *Parser) Parse(r io.Reader) (Layout, []schema.Record, []RowError, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1 // width is enforced against the resolved layout
	cr.ReuseRecord = true
	cr.LazyQuotes = p.opt.LazyQuotes
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		return Layout{}, nil, nil, fmt.Errorf("read header: %w", err)
	}

	lay, err := p.resolveLayout(head)
	if err != nil {
		return Layout{}, nil, nil, err
	}

	var (
		recs    []schema.Record
		rowErrs []RowError
		line    = 1 // header consumed
		width   = len(head)
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if len(row) != width {
			rowErrs = append(rowErrs, RowError{
				Line: line,
				Err:  fmt.Errorf("column count %d does not match header width %d", len(row), width),
			})
			continue
		}
		recs = append(recs, p.buildRecord(line, row, lay))
	}

	return lay, recs, rowErrs, nil
}

// resolveLayout classifies the header cells: identity columns, population,
// dropped identifiers, and dated columns. Every retained cell that is not an
// identity or population column must parse as a date.
func (p *Parser) resolveLayout(head []string) (Layout, error) {
	drop := p.tbl.DropColumns
	if drop == nil {
		drop = DefaultDropColumns
	}
	dropSet := make(map[string]struct{}, len(drop))
	for _, c := range drop {
		dropSet[c] = struct{}{}
	}

	lay := Layout{StateIdx: -1, CountyIdx: -1, PopIdx: -1}
	var dateLabels []string

	for i, raw := range head {
		name := strings.TrimSpace(stripBOM(raw))
		if mapped, ok := p.opt.HeaderMap[name]; ok && mapped != "" {
			name = mapped
		}
		switch {
		case name == p.tbl.StateColumn:
			lay.StateIdx = i
		case p.tbl.CountyColumn != "" && name == p.tbl.CountyColumn:
			lay.CountyIdx = i
		case name == p.tbl.PopulationColumn:
			lay.PopIdx = i
		default:
			if _, ok := dropSet[name]; ok {
				continue
			}
			dateLabels = append(dateLabels, name)
			lay.DateIdx = append(lay.DateIdx, i)
		}
	}

	if lay.StateIdx < 0 {
		return Layout{}, &schema.SchemaError{Column: p.tbl.StateColumn}
	}
	if lay.PopIdx < 0 {
		return Layout{}, &schema.SchemaError{Column: p.tbl.PopulationColumn}
	}
	if len(dateLabels) == 0 {
		return Layout{}, &schema.SchemaError{Column: "reporting dates"}
	}

	h, err := schema.ParseHeader(dateLabels)
	if err != nil {
		return Layout{}, err
	}
	lay.Header = h
	return lay, nil
}

// buildRecord assembles a wide record from one source row, aligned to the
// resolved layout. Cells that are empty or fail integer parsing become nil.
func (p *Parser) buildRecord(line int, row []string, lay Layout) schema.Record {
	rec := schema.Record{
		Line:       line,
		State:      p.cell(row[lay.StateIdx]),
		Population: parseCount(p.cell(row[lay.PopIdx])),
		Counts:     make([]*int64, len(lay.DateIdx)),
	}
	if lay.CountyIdx >= 0 {
		rec.County = p.cell(row[lay.CountyIdx])
	}
	for j, src := range lay.DateIdx {
		rec.Counts[j] = parseCount(p.cell(row[src]))
	}
	return rec
}

func (p *Parser) cell(s string) string {
	if p.opt.TrimSpace {
		return strings.TrimSpace(s)
	}
	return s
}

// parseCount parses a count cell. Empty or non-integer cells yield nil so
// that the completeness rule can reject the record downstream.
func parseCount(s string) *int64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
