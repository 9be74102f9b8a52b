package builtin

import "mortality/internal/schema"

// Exclude removes records whose region identifier is in the configured set:
// territories and special jurisdictions whose population dynamics sit outside
// the analysis's statistical model. Pure removal, order-preserving; an empty
// set is the identity.
type Exclude struct {
	regions map[string]struct{}
}

// NewExclude builds an Exclude stage from a list of region identifiers.
func NewExclude(regions []string) Exclude {
	set := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		set[r] = struct{}{}
	}
	return Exclude{regions: set}
}

// Apply returns a new slice holding only records whose State is not excluded.
// Remaining records are not altered.
func (e Exclude) Apply(in []schema.Record) []schema.Record {
	if len(e.regions) == 0 {
		return in
	}
	out := make([]schema.Record, 0, len(in))
	for _, rec := range in {
		if _, drop := e.regions[rec.State]; drop {
			continue
		}
		out = append(out, rec)
	}
	return out
}
