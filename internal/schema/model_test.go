package schema

import (
	"errors"
	"testing"
	"time"
)

/*
TestParseHeader verifies that dated column labels are parsed once into the
shared Header with the fixed month/day/2-digit-year layout, and that a label
that does not parse produces a DateParseError naming the offending column.
*/
func TestParseHeader(t *testing.T) {
	h, err := ParseHeader([]string{"1/22/20", "3/1/20", "12/31/21"})
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Width() != 3 {
		t.Fatalf("Width=%d; want 3", h.Width())
	}
	want := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	if !h.Dates[1].Equal(want) {
		t.Fatalf("Dates[1]=%v; want %v", h.Dates[1], want)
	}
	if h.Labels[2] != "12/31/21" {
		t.Fatalf("Labels[2]=%q; want raw label preserved", h.Labels[2])
	}
}

func TestParseHeaderBadLabel(t *testing.T) {
	_, err := ParseHeader([]string{"1/22/20", "Lat", "1/23/20"})
	if err == nil {
		t.Fatal("want DateParseError, got nil")
	}
	var dpe *DateParseError
	if !errors.As(err, &dpe) {
		t.Fatalf("error type %T; want *DateParseError", err)
	}
	if dpe.Column != "Lat" {
		t.Fatalf("Column=%q; want %q", dpe.Column, "Lat")
	}
}

func TestEntityKeyDistinguishesCounties(t *testing.T) {
	a := Record{State: "Alabama", County: "Autauga"}
	b := Record{State: "Alabama", County: "Baldwin"}
	if a.EntityKey() == b.EntityKey() {
		t.Fatal("different counties must have different entity keys")
	}
	if a.EntityKey() != (Record{State: "Alabama", County: "Autauga"}).EntityKey() {
		t.Fatal("entity key must be stable for equal identity")
	}
}
