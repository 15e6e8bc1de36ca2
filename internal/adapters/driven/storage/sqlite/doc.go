// Package sqlite provides the persistent vector index backed by SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Segments, their provenance and their
// embeddings live in a single segments table; similarity ranking runs in Go
// after the source filter has been applied in SQL.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored at <index.dir>/index.db, by default ~/.docqa/index/index.db.
//
// # Thread Safety
//
// All operations are thread-safe. Ingestion workers write concurrently; the
// store relies on SQLite WAL mode, a busy timeout and one transaction per batch.
package sqlite
