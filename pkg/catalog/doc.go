// Package catalog keeps WAL segment metadata in SQLite and serves it as a
// wal.SegmentDirectory.
//
// The catalog records one row per segment: its version, file path, size,
// transaction count and the commit time of its newest transaction. Writers
// register segments as they are sealed; the retention engine evicts rows as
// it deletes files. Registered versions always form a contiguous range.
//
// Two drivers are supported: "sqlite3" (github.com/mattn/go-sqlite3, cgo)
// and "sqlite" (modernc.org/sqlite, pure Go).
package catalog
