package storage

import (
	"context"
	"errors"
	"testing"
)

func feed(rows [][]any) <-chan []any {
	ch := make(chan []any, len(rows))
	for _, r := range rows {
		ch <- r
	}
	close(ch)
	return ch
}

func rowsOf(n int) [][]any {
	rows := make([][]any, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, []any{int64(i)})
	}
	return rows
}

/*
TestLoadBatches verifies batching arithmetic: rows are grouped into batches of
the requested size, the trailing partial batch flushes on channel close, and
totals match what CopyFn reports.
*/
func TestLoadBatches(t *testing.T) {
	tests := []struct {
		name        string
		rows        int
		batchSize   int
		wantBatches int64
	}{
		{name: "exact multiple", rows: 10, batchSize: 5, wantBatches: 2},
		{name: "trailing partial", rows: 7, batchSize: 3, wantBatches: 3},
		{name: "single short batch", rows: 2, batchSize: 100, wantBatches: 1},
		{name: "empty input", rows: 0, batchSize: 10, wantBatches: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls [][]int // per-call batch lengths
			copyFn := func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
				calls = append(calls, []int{len(batch)})
				return int64(len(batch)), nil
			}

			total, batches, err := LoadBatches(context.Background(), []string{"v"}, feed(rowsOf(tt.rows)), tt.batchSize, copyFn)
			if err != nil {
				t.Fatalf("LoadBatches: %v", err)
			}
			if total != int64(tt.rows) {
				t.Fatalf("total=%d; want %d", total, tt.rows)
			}
			if batches != tt.wantBatches {
				t.Fatalf("batches=%d; want %d", batches, tt.wantBatches)
			}
			seen := 0
			for _, c := range calls {
				if c[0] > tt.batchSize {
					t.Fatalf("batch of %d exceeds size %d", c[0], tt.batchSize)
				}
				seen += c[0]
			}
			if seen != tt.rows {
				t.Fatalf("rows through copyFn=%d; want %d", seen, tt.rows)
			}
		})
	}
}

func TestLoadBatchesCopyError(t *testing.T) {
	boom := errors.New("copy failed")
	copyFn := func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
		return 0, boom
	}
	_, _, err := LoadBatches(context.Background(), []string{"v"}, feed(rowsOf(4)), 2, copyFn)
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v; want copy error", err)
	}
}

func TestLoadBatchesBadArgs(t *testing.T) {
	if _, _, err := LoadBatches(context.Background(), nil, feed(nil), 0, func(context.Context, []string, [][]any) (int64, error) { return 0, nil }); err == nil {
		t.Fatal("want error for batchSize=0")
	}
	if _, _, err := LoadBatches(context.Background(), nil, feed(nil), 1, nil); err == nil {
		t.Fatal("want error for nil copyFn")
	}
}

func TestLoadBatchesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := make(chan []any) // never closed; cancellation must unblock
	_, _, err := LoadBatches(ctx, []string{"v"}, in, 10, func(context.Context, []string, [][]any) (int64, error) { return 0, nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v; want context.Canceled", err)
	}
}
