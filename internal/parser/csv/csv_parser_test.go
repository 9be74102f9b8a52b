package csv

import (
	"errors"
	"strings"
	"testing"

	"mortality/internal/config"
	"mortality/internal/schema"
)

var testTable = config.Table{
	StateColumn:      "Province_State",
	CountyColumn:     "Admin2",
	PopulationColumn: "Population",
}

const wideSample = "UID,FIPS,Admin2,Province_State,Country_Region,Lat,Long_,Combined_Key,Population,1/22/20,1/23/20\n" +
	"84001001,1001,Autauga,Alabama,US,32.53,-86.64,\"Autauga, Alabama, US\",55869,0,1\n" +
	"84001003,1003,Baldwin,Alabama,US,30.72,-87.72,\"Baldwin, Alabama, US\",223234,2,3\n"

/*
TestParseWide verifies end-to-end schema normalization on a canonical wide
table: identifier columns are dropped, identity and population columns are
located by name, dated headers resolve into the shared ordered date list, and
every record's counts align positionally to that list.
*/
func TestParseWide(t *testing.T) {
	p := NewParser(Options{TrimSpace: true}, testTable)

	lay, recs, rowErrs, err := p.Parse(strings.NewReader(wideSample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("rowErrs=%v; want none", rowErrs)
	}
	if lay.Header.Width() != 2 {
		t.Fatalf("dated columns=%d; want 2", lay.Header.Width())
	}
	if lay.Header.Labels[0] != "1/22/20" || lay.Header.Labels[1] != "1/23/20" {
		t.Fatalf("labels=%v", lay.Header.Labels)
	}
	if len(recs) != 2 {
		t.Fatalf("records=%d; want 2", len(recs))
	}

	r := recs[0]
	if r.Line != 2 || r.State != "Alabama" || r.County != "Autauga" {
		t.Fatalf("record[0]=%+v", r)
	}
	if r.Population == nil || *r.Population != 55869 {
		t.Fatalf("population=%v; want 55869", r.Population)
	}
	if *r.Counts[0] != 0 || *r.Counts[1] != 1 {
		t.Fatalf("counts=%v", r.Counts)
	}
}

/*
TestParseMissingStructuralColumn verifies the fatal, typed schema errors: a
missing state or population column, and a table with no dated columns at all.
*/
func TestParseMissingStructuralColumn(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantCol string
	}{
		{
			name:    "no state column",
			header:  "Admin2,Population,1/22/20\n",
			wantCol: "Province_State",
		},
		{
			name:    "no population column",
			header:  "Admin2,Province_State,1/22/20\n",
			wantCol: "Population",
		},
		{
			name:    "no dated columns",
			header:  "Admin2,Province_State,Population\n",
			wantCol: "reporting dates",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(Options{}, testTable)
			_, _, _, err := p.Parse(strings.NewReader(tt.header))
			var se *schema.SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("error %T (%v); want *schema.SchemaError", err, err)
			}
			if se.Column != tt.wantCol {
				t.Fatalf("Column=%q; want %q", se.Column, tt.wantCol)
			}
		})
	}
}

/*
TestParseBadDateHeader verifies that a retained header cell that is neither a
known identifier nor a parseable date is a fatal DateParseError naming the
cell, rather than being silently treated as data.
*/
func TestParseBadDateHeader(t *testing.T) {
	in := "Province_State,Admin2,Population,NotADate,1/22/20\n"
	p := NewParser(Options{}, testTable)
	_, _, _, err := p.Parse(strings.NewReader(in))
	var dpe *schema.DateParseError
	if !errors.As(err, &dpe) {
		t.Fatalf("error %T (%v); want *schema.DateParseError", err, err)
	}
	if dpe.Column != "NotADate" {
		t.Fatalf("Column=%q; want NotADate", dpe.Column)
	}
}

/*
TestParseSoftRowErrors verifies that malformed data rows are dropped softly
with a line-tagged RowError while the rest of the file parses, and that empty
or non-integer cells become nil rather than zero.
*/
func TestParseSoftRowErrors(t *testing.T) {
	in := "Province_State,Admin2,Population,1/22/20,1/23/20\n" +
		"Alabama,Autauga,55869,0,1\n" +
		"Alabama,Baldwin,223234,2\n" + // short row
		"Alabama,Butler,,abc,3\n" // missing population, garbage count
	p := NewParser(Options{}, testTable)

	_, recs, rowErrs, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rowErrs) != 1 || rowErrs[0].Line != 3 {
		t.Fatalf("rowErrs=%v; want one at line 3", rowErrs)
	}
	if len(recs) != 2 {
		t.Fatalf("records=%d; want 2", len(recs))
	}

	butler := recs[1]
	if butler.Population != nil {
		t.Fatalf("empty population must be nil, got %v", *butler.Population)
	}
	if butler.Counts[0] != nil {
		t.Fatalf("non-integer count must be nil, got %v", *butler.Counts[0])
	}
	if butler.Counts[1] == nil || *butler.Counts[1] != 3 {
		t.Fatalf("count[1]=%v; want 3", butler.Counts[1])
	}
}

/*
TestParseHeaderMapAndBOM verifies the two header normalizations: a UTF-8 byte
order mark on the first cell is stripped, and HeaderMap renames source headers
to canonical names before classification.
*/
func TestParseHeaderMapAndBOM(t *testing.T) {
	in := "\uFEFFstate,county,pop,1/22/20\n" +
		"Alabama,Autauga,55869,4\n"
	p := NewParser(Options{HeaderMap: map[string]string{
		"state":  "Province_State",
		"county": "Admin2",
		"pop":    "Population",
	}}, testTable)

	lay, recs, _, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if lay.StateIdx != 0 || lay.CountyIdx != 1 || lay.PopIdx != 2 {
		t.Fatalf("layout=%+v", lay)
	}
	if len(recs) != 1 || recs[0].State != "Alabama" || *recs[0].Counts[0] != 4 {
		t.Fatalf("records=%+v", recs)
	}
}

/*
TestParseNoCountyColumn verifies the statewide layout: with no sub-region
column configured, CountyIdx is -1 and records carry an empty county.
*/
func TestParseNoCountyColumn(t *testing.T) {
	in := "Province_State,Population,1/22/20\nAlabama,4903185,7\n"
	tbl := config.Table{StateColumn: "Province_State", PopulationColumn: "Population"}
	p := NewParser(Options{}, tbl)

	lay, recs, _, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if lay.CountyIdx != -1 {
		t.Fatalf("CountyIdx=%d; want -1", lay.CountyIdx)
	}
	if recs[0].County != "" {
		t.Fatalf("County=%q; want empty", recs[0].County)
	}
}

/*
TestParseCustomDelimiter verifies the Comma option carries through to the
underlying reader.
*/
func TestParseCustomDelimiter(t *testing.T) {
	in := "Province_State;Admin2;Population;1/22/20\nAlabama;Autauga;55869;9\n"
	p := NewParser(Options{Comma: ';'}, testTable)
	_, recs, _, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(recs) != 1 || *recs[0].Counts[0] != 9 {
		t.Fatalf("records=%+v", recs)
	}
}
