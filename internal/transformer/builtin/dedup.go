// DeDup collapses duplicate entity rows by the (state, county) business key
// and chooses a winner according to a configurable policy:
//
//   - "keep-first"   : keep the earliest occurrence in the batch
//   - "keep-last"    : keep the latest occurrence in the batch (default)
//   - "most-complete": keep the record with the most non-missing cells;
//     ties break by "keep-last"
//
// It runs in-memory on a single batch before validation. A source that
// reports one entity on two rows would otherwise double that entity's
// population contribution in the aggregator, which dedupes population per
// entity key and relies on keys being unique within the batch.
package builtin

import (
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"mortality/internal/schema"
)

// DeDup implements a configurable, in-memory de-duplication policy.
type DeDup struct {
	// Policy selects the winner among duplicates: "keep-first", "keep-last",
	// or "most-complete" (default is "keep-last").
	Policy string
}

// Apply executes the de-duplication and returns a new slice containing only
// the winning record for each entity key, in first-occurrence order.
func (d DeDup) Apply(in []schema.Record) []schema.Record {
	if len(in) == 0 {
		return in
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-last"
	}

	type slot struct {
		rec   schema.Record
		first int // index of the first occurrence, for stable output order
		score int // completeness score under "most-complete"
	}

	// Entity keys are hashed; a uint64 map key avoids retaining the joined
	// string per entry.
	slots := make(map[uint64]*slot, len(in))
	for i, rec := range in {
		key := xxh3.HashString(rec.EntityKey())
		s, seen := slots[key]
		if !seen {
			slots[key] = &slot{rec: rec, first: i, score: completeness(rec)}
			continue
		}
		switch policy {
		case "keep-first":
			// first occurrence already stored
		case "most-complete":
			if sc := completeness(rec); sc >= s.score {
				s.rec, s.score = rec, sc
			}
		default: // keep-last
			s.rec = rec
		}
	}

	ordered := make([]*slot, 0, len(slots))
	for _, s := range slots {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(a, b int) bool { return ordered[a].first < ordered[b].first })

	out := make([]schema.Record, 0, len(ordered))
	for _, s := range ordered {
		out = append(out, s.rec)
	}
	return out
}

// completeness counts the non-missing cells of a record.
func completeness(rec schema.Record) int {
	n := 0
	if rec.Population != nil {
		n++
	}
	for _, c := range rec.Counts {
		if c != nil {
			n++
		}
	}
	return n
}
