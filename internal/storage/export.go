// This file maps the pipeline's output tables onto a Repository: it creates
// the destination tables and streams rows through the batched loader. Column
// types stick to TEXT/BIGINT/DOUBLE PRECISION so the same DDL works on both
// SQLite and Postgres; dates are stored as ISO "2006-01-02" text and
// undefined ratios/indicators as NULL.
package storage

import (
	"context"
	"fmt"
	"strings"

	"mortality/internal/aggregate"
	"mortality/internal/schema"
	"mortality/internal/transformer/builtin"
)

const isoDate = "2006-01-02"

var exportTables = []struct {
	name string
	ddl  string
}{
	{"rejected", "(line BIGINT, state TEXT, county TEXT, reasons TEXT)"},
	{"observations", "(state TEXT, county TEXT, date TEXT, count BIGINT, population BIGINT)"},
	{"aggregates", "(region TEXT, date TEXT, total_population BIGINT, total_observed BIGINT, ratio DOUBLE PRECISION, gdp_per_capita DOUBLE PRECISION)"},
}

// EnsureTables creates the three output tables if they do not exist.
func EnsureTables(ctx context.Context, repo Repository, prefix string) error {
	for _, t := range exportTables {
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s%s %s", prefix, t.name, t.ddl)
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("storage: create %s%s: %w", prefix, t.name, err)
		}
	}
	return nil
}

// ExportStats summarizes an export run.
type ExportStats struct {
	Inserted int64
	Batches  int64
}

// Export writes the rejected audit rows, observations and aggregates into
// the repository, batching through LoadBatches.
func Export(
	ctx context.Context,
	repo Repository,
	cfg Config,
	rejected []builtin.RejectedRecord,
	obs []schema.Observation,
	aggs []aggregate.RegionAggregate,
) (ExportStats, error) {
	if err := EnsureTables(ctx, repo, cfg.TablePrefix); err != nil {
		return ExportStats{}, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var stats ExportStats

	load := func(table string, columns []string, rows [][]any) error {
		in := make(chan []any, batchSize)
		go func() {
			defer close(in)
			for _, r := range rows {
				select {
				case in <- r:
				case <-ctx.Done():
					return
				}
			}
		}()
		full := cfg.TablePrefix + table
		n, b, err := LoadBatches(ctx, columns, in, batchSize, func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
			return repo.CopyFrom(ctx, full, cols, batch)
		})
		stats.Inserted += n
		stats.Batches += b
		if err != nil {
			return fmt.Errorf("storage: load %s: %w", full, err)
		}
		return nil
	}

	rejRows := make([][]any, 0, len(rejected))
	for _, r := range rejected {
		rejRows = append(rejRows, []any{
			int64(r.Line), r.Record.State, r.Record.County, strings.Join(r.Reasons, "; "),
		})
	}
	if err := load("rejected", []string{"line", "state", "county", "reasons"}, rejRows); err != nil {
		return stats, err
	}

	obsRows := make([][]any, 0, len(obs))
	for _, o := range obs {
		obsRows = append(obsRows, []any{
			o.State, o.County, o.Date.Format(isoDate), o.Count, o.Population,
		})
	}
	if err := load("observations", []string{"state", "county", "date", "count", "population"}, obsRows); err != nil {
		return stats, err
	}

	aggRows := make([][]any, 0, len(aggs))
	for _, a := range aggs {
		var date any
		if !a.Date.IsZero() {
			date = a.Date.Format(isoDate)
		}
		var ratio any
		if a.RatioDefined {
			ratio = a.Ratio
		}
		var gdp any
		if a.GDPPerCapita != nil {
			gdp = *a.GDPPerCapita
		}
		aggRows = append(aggRows, []any{
			a.Region, date, a.TotalPopulation, a.TotalObserved, ratio, gdp,
		})
	}
	if err := load("aggregates", []string{"region", "date", "total_population", "total_observed", "ratio", "gdp_per_capita"}, aggRows); err != nil {
		return stats, err
	}

	return stats, nil
}
