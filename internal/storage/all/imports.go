// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories with the storage package.
//
// In other words, importing this package makes the following storage kinds
// available at runtime:
//
//   - "postgres" (mortality/internal/storage/postgres)
//   - "sqlite"   (mortality/internal/storage/sqlite)
//
// This pattern keeps backend-specific wiring in a single, small package and
// allows the rest of the application (pipeline, CLI) to depend only on the
// storage abstraction rather than individual backends.
package all

import (
	_ "mortality/internal/storage/postgres"
	_ "mortality/internal/storage/sqlite"
)
