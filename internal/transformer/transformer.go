// Package transformer defines the stage abstraction for record-level
// transforms and the ordered chain that applies them.
package transformer

import "mortality/internal/schema"

// Transformer rewrites or filters a batch of wide records. Implementations
// must not assume exclusive ownership of the input slice header; they return
// the slice callers should use next.
type Transformer interface {
	Apply([]schema.Record) []schema.Record
}

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every transformer in order, feeding each one the previous
// output.
func (c Chain) Apply(in []schema.Record) []schema.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
