package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"mortality/internal/aggregate"
	"mortality/internal/schema"
	"mortality/internal/transformer/builtin"
)

// fakeRepo records DDL statements and copied rows per table.
type fakeRepo struct {
	ddl    []string
	copied map[string][][]any
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{copied: map[string][][]any{}}
}

func (f *fakeRepo) CopyFrom(_ context.Context, table string, _ []string, rows [][]any) (int64, error) {
	f.copied[table] = append(f.copied[table], rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(_ context.Context, query string, _ ...any) error {
	f.ddl = append(f.ddl, query)
	return nil
}

func (f *fakeRepo) Close() error { return nil }

/*
TestExport verifies the full export path against a fake repository: the three
output tables are created with the configured prefix, every dataset lands in
its table, dates serialize as ISO text, and undefined ratio/indicator values
are exported as NULL (nil), never as zero.
*/
func TestExport(t *testing.T) {
	repo := newFakeRepo()
	cfg := Config{Kind: "fake", TablePrefix: "mort_", BatchSize: 2}

	rejected := []builtin.RejectedRecord{
		{
			Line:    7,
			Record:  schema.Record{State: "Alabama", County: "Butler"},
			Reasons: []string{"population missing", "count missing at 1/23/20"},
			Stage:   "validate",
		},
	}
	day := time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC)
	obs := []schema.Observation{
		{State: "Alabama", County: "Autauga", Date: day, Count: 1, Population: 100},
		{State: "Alabama", County: "Baldwin", Date: day, Count: 2, Population: 200},
		{State: "Alaska", County: "Nome", Date: day, Count: 3, Population: 50},
	}
	gdp := 46.8
	aggs := []aggregate.RegionAggregate{
		{Region: "Alabama", TotalPopulation: 300, TotalObserved: 3, Ratio: 0.01, RatioDefined: true, GDPPerCapita: &gdp},
		{Region: "Unassigned", TotalPopulation: 0, TotalObserved: 9, RatioDefined: false},
	}

	stats, err := Export(context.Background(), repo, cfg, rejected, obs, aggs)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if stats.Inserted != 6 {
		t.Fatalf("Inserted=%d; want 6", stats.Inserted)
	}
	// 1 rejected batch + 2 observation batches (size 2) + 1 aggregate batch
	if stats.Batches != 4 {
		t.Fatalf("Batches=%d; want 4", stats.Batches)
	}

	if len(repo.ddl) != 3 {
		t.Fatalf("ddl statements=%d; want 3", len(repo.ddl))
	}
	for _, stmt := range repo.ddl {
		if !strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS mort_") {
			t.Fatalf("ddl %q missing prefixed create", stmt)
		}
	}

	rej := repo.copied["mort_rejected"]
	if len(rej) != 1 {
		t.Fatalf("rejected rows=%d; want 1", len(rej))
	}
	if rej[0][0] != int64(7) || rej[0][1] != "Alabama" {
		t.Fatalf("rejected row=%v", rej[0])
	}
	if s, _ := rej[0][3].(string); !strings.Contains(s, "population missing") {
		t.Fatalf("reasons column=%v", rej[0][3])
	}

	ob := repo.copied["mort_observations"]
	if len(ob) != 3 {
		t.Fatalf("observation rows=%d; want 3", len(ob))
	}
	if ob[0][2] != "2020-01-22" {
		t.Fatalf("date column=%v; want ISO text", ob[0][2])
	}

	ag := repo.copied["mort_aggregates"]
	if len(ag) != 2 {
		t.Fatalf("aggregate rows=%d; want 2", len(ag))
	}
	// Region-grain aggregates carry no date.
	if ag[0][1] != nil {
		t.Fatalf("region-grain date=%v; want nil", ag[0][1])
	}
	if ag[0][4] != 0.01 || ag[0][5] != 46.8 {
		t.Fatalf("defined ratio/gdp=%v/%v", ag[0][4], ag[0][5])
	}
	if ag[1][4] != nil || ag[1][5] != nil {
		t.Fatalf("undefined ratio/gdp must export as nil, got %v/%v", ag[1][4], ag[1][5])
	}
}

/*
TestNewUnknownKind verifies the factory rejects unregistered backend kinds.
*/
func TestNewUnknownKind(t *testing.T) {
	if _, err := New(context.Background(), Config{Kind: "oracle"}); err == nil {
		t.Fatal("want error for unregistered kind")
	}
}

func TestRegisterAndNew(t *testing.T) {
	Register("fake-test", func(ctx context.Context, cfg Config) (Repository, error) {
		return newFakeRepo(), nil
	})
	repo, err := New(context.Background(), Config{Kind: "fake-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer repo.Close()
	if _, ok := repo.(*fakeRepo); !ok {
		t.Fatalf("repo type %T; want *fakeRepo", repo)
	}
}
