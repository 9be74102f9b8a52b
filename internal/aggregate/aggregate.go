// Package aggregate reduces long-form observations into per-region summary
// statistics and fits the simple regression used for presentation.
package aggregate

import (
	"context"
	"sort"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"mortality/internal/schema"
)

// By selects the grouping key.
type By int

const (
	// ByRegion groups observations by region only.
	ByRegion By = iota
	// ByRegionDate groups observations by (region, date).
	ByRegionDate
)

// RegionAggregate is one reduced group. Ratio is defined only when
// TotalPopulation > 0; consumers must check RatioDefined rather than treat an
// undefined ratio as zero.
type RegionAggregate struct {
	Region string
	Date   time.Time // zero unless grouped by (region, date)

	TotalPopulation int64
	TotalObserved   int64

	Ratio        float64
	RatioDefined bool

	// GDPPerCapita is the joined economic indicator; nil when the region is
	// absent from the lookup.
	GDPPerCapita *float64
}

type groupKey struct {
	region string
	date   time.Time
}

type groupAcc struct {
	observed int64
	pop      int64
	seen     map[string]struct{} // entity keys whose population was counted
}

// Reduce groups observations by the selected key and reduces each group to a
// RegionAggregate. Counts are summed; population is summed once per distinct
// entity within the group, never once per date row, since population repeats
// across every date row of an entity. The result is recomputed fully on each
// call and sorted by region then date for deterministic output.
func Reduce(obs []schema.Observation, by By) []RegionAggregate {
	groups := make(map[groupKey]*groupAcc)
	for _, o := range obs {
		k := groupKey{region: o.State}
		if by == ByRegionDate {
			k.date = o.Date
		}
		acc, ok := groups[k]
		if !ok {
			acc = &groupAcc{seen: make(map[string]struct{})}
			groups[k] = acc
		}
		acc.observed += o.Count
		ek := o.State + "\x00" + o.County
		if _, counted := acc.seen[ek]; !counted {
			acc.seen[ek] = struct{}{}
			acc.pop += o.Population
		}
	}

	out := make([]RegionAggregate, 0, len(groups))
	for k, acc := range groups {
		out = append(out, finish(k, acc.observed, acc.pop))
	}
	sortAggregates(out)
	return out
}

// ReduceSharded is the parallel variant of Reduce. Observations are routed to
// shards by a hash of their entity key, so one entity's rows never split
// across two population-sum contexts; per-shard partials are then merged.
// With shards <= 1 it falls back to the sequential Reduce.
func ReduceSharded(ctx context.Context, obs []schema.Observation, by By, shards int) ([]RegionAggregate, error) {
	if shards <= 1 {
		return Reduce(obs, by), nil
	}

	parts := make([][]schema.Observation, shards)
	for _, o := range obs {
		s := int(xxh3.HashString(o.State+"\x00"+o.County) % uint64(shards))
		parts[s] = append(parts[s], o)
	}

	partials := make([][]RegionAggregate, shards)
	g, ctx := errgroup.WithContext(ctx)
	for i := range parts {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			partials[i] = Reduce(parts[i], by)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge: entities are shard-local, so population partials add up without
	// re-deduplication.
	merged := make(map[groupKey]*groupAcc)
	for _, part := range partials {
		for _, a := range part {
			k := groupKey{region: a.Region, date: a.Date}
			acc, ok := merged[k]
			if !ok {
				acc = &groupAcc{}
				merged[k] = acc
			}
			acc.observed += a.TotalObserved
			acc.pop += a.TotalPopulation
		}
	}

	out := make([]RegionAggregate, 0, len(merged))
	for k, acc := range merged {
		out = append(out, finish(k, acc.observed, acc.pop))
	}
	sortAggregates(out)
	return out, nil
}

// JoinGDP attaches the per-capita GDP indicator to each aggregate by exact
// region match. Regions absent from the lookup keep a nil indicator; that is
// expected, not an error.
func JoinGDP(aggs []RegionAggregate, lookup map[string]float64) {
	for i := range aggs {
		if v, ok := lookup[aggs[i].Region]; ok {
			gdp := v
			aggs[i].GDPPerCapita = &gdp
		}
	}
}

func finish(k groupKey, observed, pop int64) RegionAggregate {
	a := RegionAggregate{
		Region:          k.region,
		Date:            k.date,
		TotalPopulation: pop,
		TotalObserved:   observed,
	}
	if pop > 0 {
		a.Ratio = float64(observed) / float64(pop)
		a.RatioDefined = true
	}
	return a
}

func sortAggregates(out []RegionAggregate) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Date.Before(out[j].Date)
	})
}
