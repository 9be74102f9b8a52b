// Package probe samples the first N bytes of a wide mortality CSV (local or
// remote) and classifies its header: identity columns, the population column,
// and the dated columns. It prefers HTTP Range requests but also defensively
// limits reads client-side, so it works even when Range is ignored.
//
// The probe is a schema exploration aid: it reports how the normalizer would
// read the table and can emit a starter pipeline config.
package probe

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"mortality/internal/schema"
)

// Options configures a probe run.
type Options struct {
	// URL samples a remote file; Path samples a local one. Exactly one must
	// be set.
	URL  string
	Path string

	// MaxBytes bounds the sample size. Default 20000.
	MaxBytes int

	// Delimiter is the CSV field delimiter. Default ','.
	Delimiter rune
}

// Column is one classified header cell.
type Column struct {
	Name string `json:"name"`
	// Kind is "identity", "population" or "date".
	Kind string `json:"kind"`
	// Date is the parsed calendar date for Kind=="date" (ISO form).
	Date string `json:"date,omitempty"`
}

// Report summarizes the sampled header.
type Report struct {
	Columns    []Column `json:"columns"`
	DateCount  int      `json:"date_count"`
	FirstDate  string   `json:"first_date,omitempty"`
	LastDate   string   `json:"last_date,omitempty"`
	Population string   `json:"population_column,omitempty"`
}

// Probe fetches a sample and classifies the header.
func Probe(opt Options) (Report, error) {
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = 20000
	}
	if opt.Delimiter == 0 {
		opt.Delimiter = ','
	}

	var (
		data []byte
		err  error
	)
	switch {
	case opt.URL != "":
		data, err = fetchFirstBytes(opt.URL, opt.MaxBytes)
	case opt.Path != "":
		data, err = readFirstBytes(opt.Path, opt.MaxBytes)
	default:
		return Report{}, fmt.Errorf("probe: either URL or Path is required")
	}
	if err != nil {
		return Report{}, err
	}

	headers, err := readHeader(data, opt.Delimiter)
	if err != nil {
		return Report{}, err
	}
	return classify(headers), nil
}

// fetchFirstBytes retrieves up to n bytes from url using HTTP GET. It sets a
// "Range: bytes=0-(n-1)" header, but also applies a client-side read limit so
// it succeeds even when the server ignores Range and returns 200 OK.
func fetchFirstBytes(url string, n int) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", n-1))
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Regardless of 206 or 200, only read up to n bytes.
	lr := &io.LimitedReader{R: resp.Body, N: int64(n)}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(lr); err != nil && err != io.EOF {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readFirstBytes(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	m, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:m], nil
}

// readHeader parses the first usable CSV line of the sample. Truncated
// samples are tolerated: only the header row is needed.
func readHeader(data []byte, delim rune) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	rec, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("probe: read header: %w", err)
	}
	if len(rec) > 0 {
		rec[0] = strings.TrimPrefix(rec[0], "\uFEFF")
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	return rec, nil
}

// classify labels each header cell. A cell that parses with the pipeline's
// date layout is a dated column; a folded name equal to "population" is the
// population column; everything else is identity.
func classify(headers []string) Report {
	rep := Report{Columns: make([]Column, 0, len(headers))}
	for _, h := range headers {
		col := Column{Name: h, Kind: "identity"}
		if t, err := timeParse(h); err == nil {
			col.Kind = "date"
			col.Date = t.Format("2006-01-02")
			rep.DateCount++
			if rep.FirstDate == "" {
				rep.FirstDate = col.Date
			}
			rep.LastDate = col.Date
		} else if foldFieldName(h) == "population" {
			col.Kind = "population"
			rep.Population = h
		}
		rep.Columns = append(rep.Columns, col)
	}
	return rep
}

func timeParse(s string) (t time.Time, err error) {
	return time.Parse(schema.DateLayout, s)
}

// foldFieldName lowercases a header, strips diacritics via NFD +
// mark-removal + NFC, and collapses separators to underscores, so that
// localized or decorated headers compare against canonical names.
func foldFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevUnderscore = false
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		default:
			// drop anything else
		}
	}
	return strings.Trim(b.String(), "_")
}

// MarshalReport renders a Report as indented JSON for the CLI.
func MarshalReport(rep Report) ([]byte, error) {
	return json.MarshalIndent(rep, "", "  ")
}
