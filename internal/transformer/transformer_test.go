package transformer

import (
	"testing"

	"mortality/internal/schema"
)

type tag string

func (t tag) Apply(in []schema.Record) []schema.Record {
	out := make([]schema.Record, len(in))
	for i, r := range in {
		r.State += string(t)
		out[i] = r
	}
	return out
}

type drop struct{}

func (drop) Apply(in []schema.Record) []schema.Record {
	return in[:0]
}

func TestChainAppliesInOrder(t *testing.T) {
	c := Chain{tag("-a"), tag("-b")}
	out := c.Apply([]schema.Record{{State: "x"}})
	if len(out) != 1 || out[0].State != "x-a-b" {
		t.Fatalf("out=%+v; want x-a-b", out)
	}
}

func TestChainFeedsPreviousOutput(t *testing.T) {
	c := Chain{drop{}, tag("-never")}
	out := c.Apply([]schema.Record{{State: "x"}})
	if len(out) != 0 {
		t.Fatalf("out=%+v; want empty after drop stage", out)
	}
}

func TestEmptyChainIsIdentity(t *testing.T) {
	in := []schema.Record{{State: "x"}}
	if out := (Chain{}).Apply(in); len(out) != 1 || out[0].State != "x" {
		t.Fatalf("out=%+v", out)
	}
}
