// Package sqlite provides a SQLite-based implementation of driven.IndexStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Chunks and their vectors live in separate tables keyed by index position;
// index-wide values live in index_meta.
//
// # Data Location
//
// By default, the database is stored at ~/.docqa/data/index.db
//
// # Atomicity
//
// Save replaces the whole index in one transaction, so a failed save leaves
// the previous index intact.
package sqlite
