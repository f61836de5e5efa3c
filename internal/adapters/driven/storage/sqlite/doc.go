// Package sqlite provides SQLite-backed implementations of the storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Two databases are used:
//
//   - index.db: the documents, chunks and embeddings of one corpus index,
//     written once at build time next to a manifest.toml
//   - history.db: chat sessions and their messages
//
// # Schema
//
// Each database has versioned migrations in the migrations/ directory. Each
// migration is a pair of .up.sql and .down.sql files. Applied versions are
// recorded in a schema_migrations table.
//
// # Thread Safety
//
// All operations are thread-safe. The stores rely on database-level locking
// provided by SQLite in WAL mode.
package sqlite
