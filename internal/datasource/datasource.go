// Package datasource abstracts where the pipeline's input bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens a stream of raw table bytes. Implementations exist for local
// files and HTTP endpoints.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
