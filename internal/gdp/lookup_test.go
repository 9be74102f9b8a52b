package gdp

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type stringSource string

func (s stringSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

type failingSource struct{ err error }

func (f failingSource) Open(context.Context) (io.ReadCloser, error) { return nil, f.err }

/*
TestLoad verifies lookup parsing: the header row is skipped when its second
column is not numeric, values parse as floats, whitespace is trimmed, and
duplicate regions keep the last value.
*/
func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    map[string]float64
		wantErr bool
	}{
		{
			name: "with header",
			in:   "state,gdp_per_capita\nAlabama,46.8\nAlaska, 73.2\n",
			want: map[string]float64{"Alabama": 46.8, "Alaska": 73.2},
		},
		{
			name: "without header",
			in:   "Alabama,46.8\nAlaska,73.2\n",
			want: map[string]float64{"Alabama": 46.8, "Alaska": 73.2},
		},
		{
			name: "duplicate keeps last",
			in:   "Alabama,1\nAlabama,2\n",
			want: map[string]float64{"Alabama": 2},
		},
		{
			name:    "non-numeric value past header",
			in:      "state,gdp\nAlabama,46.8\nAlaska,n/a\n",
			wantErr: true,
		},
		{
			name:    "short row",
			in:      "Alabama\n",
			wantErr: true,
		},
		{
			name:    "empty region",
			in:      " ,46.8\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(context.Background(), stringSource(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("want error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries; want %d", len(got), len(tt.want))
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Fatalf("got[%q]=%v; want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestLoadOpenError(t *testing.T) {
	boom := errors.New("no such file")
	_, err := Load(context.Background(), failingSource{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v; want wrapped open error", err)
	}
}
