package builtin

import (
	"fmt"

	"mortality/internal/schema"
)

// RejectedRecord is the audit-trail entry for a record that failed
// validation. A record appears at most once, carrying every reason that
// applied to it.
type RejectedRecord struct {
	Line    int
	Record  schema.Record
	Reasons []string
	Stage   string
}

// Validate partitions records into valid and rejected sets under two
// independent rules:
//
//   - completeness: the population and every dated count must be present
//     and non-negative;
//   - plausibility: no dated count may strictly exceed the record's
//     population. The counts are cumulative, so the bound holds at every
//     dated column, not just the last. A count equal to population is NOT a
//     violation.
//
// Rejections are not errors. The rejected set is first-class output: callers
// get it back from Partition, or via the Reject sink when Validate runs
// inside a transformer chain.
type Validate struct {
	// Header supplies column labels for human-readable reasons.
	Header schema.Header

	// Reject, when set, receives every rejected record during Apply.
	Reject func(RejectedRecord)
}

// Partition splits in into (valid, rejected). The two sets are a partition of
// the input: every record lands in exactly one, and relative order is
// preserved in both.
func (v Validate) Partition(in []schema.Record) ([]schema.Record, []RejectedRecord) {
	valid := make([]schema.Record, 0, len(in))
	var rejected []RejectedRecord

	for _, rec := range in {
		if reasons := v.check(rec); len(reasons) > 0 {
			rejected = append(rejected, RejectedRecord{
				Line:    rec.Line,
				Record:  rec,
				Reasons: reasons,
				Stage:   "validate",
			})
			continue
		}
		valid = append(valid, rec)
	}
	return valid, rejected
}

// Apply satisfies transformer.Transformer: valid records pass through,
// rejected ones are routed to the Reject sink (or silently dropped when no
// sink is configured).
func (v Validate) Apply(in []schema.Record) []schema.Record {
	valid, rejected := v.Partition(in)
	if v.Reject != nil {
		for _, r := range rejected {
			v.Reject(r)
		}
	}
	return valid
}

// check evaluates both rules and returns every reason that applied.
func (v Validate) check(rec schema.Record) []string {
	var reasons []string

	// Completeness: population first, then every dated count.
	switch {
	case rec.Population == nil:
		reasons = append(reasons, "population missing")
	case *rec.Population < 0:
		reasons = append(reasons, fmt.Sprintf("population %d negative", *rec.Population))
	}
	for i, c := range rec.Counts {
		if c == nil {
			reasons = append(reasons, fmt.Sprintf("count at %s missing", v.label(i)))
			continue
		}
		if *c < 0 {
			reasons = append(reasons, fmt.Sprintf("count %d at %s negative", *c, v.label(i)))
		}
	}

	// Plausibility: cumulative counts are bounded by population at every
	// point in time. Only strictly greater counts are violations.
	if rec.Population != nil && *rec.Population >= 0 {
		pop := *rec.Population
		for i, c := range rec.Counts {
			if c != nil && *c > pop {
				reasons = append(reasons, fmt.Sprintf("count %d at %s exceeds population %d", *c, v.label(i), pop))
			}
		}
	}

	return reasons
}

func (v Validate) label(i int) string {
	if i < len(v.Header.Labels) {
		return v.Header.Labels[i]
	}
	return fmt.Sprintf("column %d", i)
}
