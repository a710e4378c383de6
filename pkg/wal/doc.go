// Package wal defines the write-ahead-log vocabulary shared by the retention
// engine and its collaborators.
//
// # Versions
//
// A WAL is split into segments. Each segment is identified by a [Version],
// a non-negative integer assigned in increasing order as segments are
// created and never reused. [NoVersion] is returned by directories that
// currently hold no segments.
//
// # Collaborators
//
// The retention engine never touches disk or checkpoint state directly. It
// consumes narrow interfaces:
//
//   - [SegmentDirectory]: which versions exist and what they contain
//   - [RecoveryFloor]: the lowest version crash recovery still needs
//   - [FileSystem]: deletes a segment file
//   - [Clock]: monotonic nanosecond time for age-based retention
//
// This package also ships the plain implementations used in production and
// tests: [OSFileSystem], [SystemClock], [ManualClock], [StaticFloor] and the
// in-memory [MemoryDirectory].
package wal
