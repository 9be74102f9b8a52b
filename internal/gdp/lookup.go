// Package gdp loads the auxiliary region -> per-capita GDP lookup table.
//
// The lookup is a small, externally supplied two-column CSV (region,
// gdp_per_capita) so tests and alternative analyses can substitute their own
// indicator without code changes.
package gdp

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mortality/internal/datasource"
)

// Load reads the lookup from src. A header row is detected and skipped when
// the second column of the first row is not numeric. Duplicate regions keep
// the last value.
func Load(ctx context.Context, src datasource.Source) (map[string]float64, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("gdp: open lookup: %w", err)
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	out := map[string]float64{}
	line := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("gdp: line %d: %w", line, err)
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("gdp: line %d: want 2 columns, got %d", line, len(row))
		}
		region := strings.TrimSpace(row[0])
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			if line == 1 {
				// header row
				continue
			}
			return nil, fmt.Errorf("gdp: line %d: value %q not numeric", line, row[1])
		}
		if region == "" {
			return nil, fmt.Errorf("gdp: line %d: empty region", line)
		}
		out[region] = v
	}
	return out, nil
}
