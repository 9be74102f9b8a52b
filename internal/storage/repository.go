// Package storage contains storage-agnostic contracts for exporting the
// pipeline's output tables (rejected audit rows, long-form observations,
// region aggregates) to a reporting sink.
//
// Concrete backends (Postgres, SQLite) register themselves with the factory
// at init time; the rest of the application depends only on the Repository
// interface and never imports database drivers directly.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Repository is the minimal interface of a storage backend.
type Repository interface {
	// CopyFrom bulk-inserts rows (aligned to the columns order) into table,
	// returning the number of rows inserted.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Exec runs a statement (DDL, deletes) without returning rows.
	Exec(ctx context.Context, query string, args ...any) error

	// Close releases the backend's resources.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Kind selects the registered backend, e.g. "sqlite" or "postgres".
	Kind string

	// DSN is the backend connection string (pgx pool DSN or SQLite path).
	DSN string

	// TablePrefix is prepended to the output table names.
	TablePrefix string

	// BatchSize bounds rows per insert batch; 0 means DefaultBatchSize.
	BatchSize int
}

// DefaultBatchSize is used when Config.BatchSize is zero.
const DefaultBatchSize = 500

// Factory opens a Repository for a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) a backend factory for the given kind. It
// is typically called from backend packages' init() functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository of the configured kind. Callers must Close it.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind=%q", cfg.Kind)
	}
	return f(ctx, cfg)
}
