// Package sqlite provides a driven.Store backed by a single SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// A catalog of tables and indexes is managed through versioned migrations
// stored in the migrations/ directory. Every document table created through
// CreateTable is a two-column SQLite table holding the primary key and the
// JSON-encoded document. Secondary indexes are expression indexes over
// json_extract.
//
// Store-native values are written as tagged JSON objects:
//
//	{"$type": "TIME", "instant": "2024-01-01T05:00:00Z", "timezone": "-05:00"}
//	{"$type": "GEOMETRY", "type": "Point", "wkb": "AQEAAAA..."}
//
// Document keys that start with "$" are stored with one more leading "$"
// and restored on read, so user data never takes the shape of a tag.
//
// # Data Location
//
// By default, the database is stored at ~/.docsuite/data/docsuite.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
