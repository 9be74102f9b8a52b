// Package builtin contains simple, reusable transformers used in the
// mortality pipeline.
package builtin

import (
	"strings"

	"mortality/internal/schema"
)

// Normalize scrubs the identity fields of each record: it collapses
// non-breaking spaces and mis-decoded NBSP sequences into plain spaces and
// trims the result. Counts are left untouched.
type Normalize struct{}

var nbspReplacer = strings.NewReplacer(" ", " ", "Â ", " ")

// Apply rewrites records in place and returns the same slice.
func (Normalize) Apply(in []schema.Record) []schema.Record {
	for i := range in {
		in[i].State = scrub(in[i].State)
		in[i].County = scrub(in[i].County)
	}
	return in
}

func scrub(s string) string {
	return strings.TrimSpace(nbspReplacer.Replace(s))
}
