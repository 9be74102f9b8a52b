package builtin

import "mortality/internal/schema"

// Melt pivots wide records into long-form observations: one Observation per
// (record, header date), carrying state, county and population unchanged
// across all emitted rows.
//
// Melt assumes its input already passed validation: counts and population are
// present. It still self-guards against nil cells (zero contribution) so it
// does not depend on the validator being the only upstream producer. Emitted
// rows are grouped by source record; no further ordering is guaranteed and
// downstream aggregation must not depend on row order.
type Melt struct {
	Header schema.Header
}

// Observations emits exactly Header.Width() observations per record.
func (m Melt) Observations(in []schema.Record) []schema.Observation {
	out := make([]schema.Observation, 0, len(in)*m.Header.Width())
	for _, rec := range in {
		var pop int64
		if rec.Population != nil {
			pop = *rec.Population
		}
		for i, date := range m.Header.Dates {
			var count int64
			if i < len(rec.Counts) && rec.Counts[i] != nil {
				count = *rec.Counts[i]
			}
			out = append(out, schema.Observation{
				State:      rec.State,
				County:     rec.County,
				Date:       date,
				Count:      count,
				Population: pop,
			})
		}
	}
	return out
}
