// Package pipeline wires the mortality run end-to-end: fetch and parse the
// wide table, partition rows into valid and rejected sets, drop out-of-scope
// regions, melt to long form, aggregate per region, join the GDP indicator,
// fit the presentation regression, and optionally export the output tables.
//
// Data flows strictly left to right; every stage consumes an immutable input
// and produces a new output. Structural problems (schema, date format) abort
// the run; data-quality problems are isolated per row and never do.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"mortality/internal/aggregate"
	"mortality/internal/config"
	"mortality/internal/datasource"
	"mortality/internal/datasource/file"
	"mortality/internal/datasource/httpds"
	"mortality/internal/gdp"
	"mortality/internal/metrics"
	csvparser "mortality/internal/parser/csv"
	"mortality/internal/schema"
	"mortality/internal/storage"
	"mortality/internal/transformer"
	"mortality/internal/transformer/builtin"
)

// Counters holds run statistics, logged at the end of a run and mirrored to
// the metrics backend.
type Counters struct {
	Processed    int64 // rows parsed from the source (excl. header)
	ParseErrors  int64 // rows the CSV reader could not parse or align
	Deduped      int64 // duplicate entity rows collapsed
	Rejected     int64 // records rejected by validation
	Excluded     int64 // valid records dropped by region exclusion
	Observations int64 // long-form rows emitted
	Inserted     int64 // rows exported to storage
	Batches      int64 // export batches flushed
}

// Result is the complete output of one run: the audit partition, the
// long-form table, the aggregates with joined indicator, and the regression
// summary. Callers own the result; the pipeline keeps no state between runs.
type Result struct {
	Header       schema.Header
	Rejected     []builtin.RejectedRecord
	Observations []schema.Observation
	Aggregates   []aggregate.RegionAggregate

	// Regression is the ratio-vs-GDP fit; Defined is false when the lookup
	// was absent or the data was degenerate.
	Regression aggregate.RegressionSummary

	Counters Counters
}

// Function variables used to introduce test seams. In production these point
// to real implementations; tests can override them.
var (
	openSourceFn = openSource
	newRepoFn    = storage.New
)

// Run executes the whole batch. It either fails structurally with a typed
// cause or returns a complete Result annotated with the audit trail of
// excluded rows; partial results are never returned.
func Run(ctx context.Context, spec config.Pipeline) (*Result, error) {
	res := &Result{}

	// 1) Fetch + parse + normalize schema.
	start := time.Now()
	layout, recs, rowErrs, err := parseSource(ctx, spec)
	metrics.RecordStep(spec.Job, "parse", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	res.Header = layout.Header
	res.Counters.Processed = int64(len(recs) + len(rowErrs))
	res.Counters.ParseErrors = int64(len(rowErrs))
	for _, re := range rowErrs {
		log.Printf("parse: line %d dropped: %v", re.Line, re.Err)
	}

	// 2) Scrub identities and optionally collapse duplicate entities.
	chain := transformer.Chain{builtin.Normalize{}}
	if spec.Dedup.Enabled {
		chain = append(chain, builtin.DeDup{Policy: spec.Dedup.Policy})
	}
	before := len(recs)
	recs = chain.Apply(recs)
	res.Counters.Deduped = int64(before - len(recs))

	// 3) Partition into valid and rejected sets.
	start = time.Now()
	valid, rejected := builtin.Validate{Header: layout.Header}.Partition(recs)
	metrics.RecordStep(spec.Job, "validate", nil, time.Since(start))
	res.Rejected = rejected
	res.Counters.Rejected = int64(len(rejected))

	// 4) Drop out-of-scope regions.
	before = len(valid)
	valid = builtin.NewExclude(spec.ExcludeRegions).Apply(valid)
	res.Counters.Excluded = int64(before - len(valid))

	// 5) Melt wide records into observations.
	start = time.Now()
	obs := builtin.Melt{Header: layout.Header}.Observations(valid)
	metrics.RecordStep(spec.Job, "melt", nil, time.Since(start))
	res.Observations = obs
	res.Counters.Observations = int64(len(obs))

	// 6) Aggregate, optionally sharded by entity identity.
	start = time.Now()
	aggs, err := aggregate.ReduceSharded(ctx, obs, groupBy(spec.Aggregate.By), spec.Aggregate.Shards)
	metrics.RecordStep(spec.Job, "aggregate", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	// 7) Join the GDP indicator and fit the presentation regression.
	if spec.GDP.Path != "" {
		lookup, err := gdp.Load(ctx, file.NewLocal(spec.GDP.Path))
		if err != nil {
			return nil, err
		}
		aggregate.JoinGDP(aggs, lookup)
		reg, err := aggregate.RatioVsIndicator(aggs)
		if err != nil {
			return nil, err
		}
		if !reg.Defined {
			log.Printf("regress: undefined fit (n=%d); leaving summary unset", reg.N)
		}
		res.Regression = reg
	}
	res.Aggregates = aggs

	// 8) Optional export to a reporting sink.
	if kind := spec.Storage.Kind; kind != "" && kind != "none" {
		start = time.Now()
		err := export(ctx, spec, res)
		metrics.RecordStep(spec.Job, "export", err, time.Since(start))
		if err != nil {
			return nil, err
		}
	}

	logSummary(spec.Job, res.Counters)
	return res, nil
}

func parseSource(ctx context.Context, spec config.Pipeline) (csvparser.Layout, []schema.Record, []csvparser.RowError, error) {
	src, err := openSourceFn(spec.Source)
	if err != nil {
		return csvparser.Layout{}, nil, nil, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return csvparser.Layout{}, nil, nil, err
	}
	defer rc.Close()

	p := csvparser.NewParser(csvparser.Options{
		Comma:      spec.Parser.Rune("comma", ','),
		TrimSpace:  spec.Parser.Bool("trim_space", true),
		LazyQuotes: spec.Parser.Bool("lazy_quotes", false),
		HeaderMap:  spec.Parser.StringMap("header_map"),
	}, spec.Table)
	return p.Parse(rc)
}

// openSource builds a datasource from the pipeline spec.
func openSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		return httpds.New(httpds.Config{
			URL:                s.HTTP.URL,
			Timeout:            time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries:         s.HTTP.MaxRetries,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
		}), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", s.Kind)
	}
}

func groupBy(by string) aggregate.By {
	if by == "region_date" {
		return aggregate.ByRegionDate
	}
	return aggregate.ByRegion
}

func export(ctx context.Context, spec config.Pipeline, res *Result) error {
	repo, err := newRepoFn(ctx, storage.Config{
		Kind:        spec.Storage.Kind,
		DSN:         spec.Storage.DB.DSN,
		TablePrefix: spec.Storage.DB.TablePrefix,
		BatchSize:   spec.Storage.DB.BatchSize,
	})
	if err != nil {
		return err
	}
	defer repo.Close()

	stats, err := storage.Export(ctx, repo, storage.Config{
		TablePrefix: spec.Storage.DB.TablePrefix,
		BatchSize:   spec.Storage.DB.BatchSize,
	}, res.Rejected, res.Observations, res.Aggregates)
	res.Counters.Inserted = stats.Inserted
	res.Counters.Batches = stats.Batches
	metrics.RecordBatches(spec.Job, stats.Batches)
	return err
}

func logSummary(job string, c Counters) {
	log.Printf(
		"summary: processed=%d parse_errors=%d deduped=%d rejected=%d excluded=%d observations=%d inserted=%d batches=%d",
		c.Processed, c.ParseErrors, c.Deduped, c.Rejected, c.Excluded, c.Observations, c.Inserted, c.Batches,
	)
	metrics.RecordRow(job, "processed", c.Processed)
	metrics.RecordRow(job, "parse_errors", c.ParseErrors)
	metrics.RecordRow(job, "rejected", c.Rejected)
	metrics.RecordRow(job, "excluded", c.Excluded)
	metrics.RecordRow(job, "observations", c.Observations)
	metrics.RecordRow(job, "inserted", c.Inserted)
}
