package wal

import (
	"errors"
	"fmt"
	"time"
)

// Version identifies a WAL segment. Versions are assigned monotonically and
// never reused.
type Version int64

// NoVersion is reported by a directory that holds no segments.
const NoVersion Version = -1

// String renders the version as a plain integer.
func (v Version) String() string {
	return fmt.Sprintf("%d", int64(v))
}

// ErrSegmentNotFound is returned when a directory has no record of a version.
var ErrSegmentNotFound = errors.New("segment not found")

// SegmentInfo describes one WAL segment.
type SegmentInfo struct {
	Version      Version   `json:"version" yaml:"version"`
	Path         string    `json:"path" yaml:"path"`
	SizeBytes    int64     `json:"size_bytes" yaml:"size_bytes"`
	TxCount      int64     `json:"tx_count" yaml:"tx_count"`
	NewestTxTime time.Time `json:"newest_tx_time" yaml:"newest_tx_time"`
}

// SegmentDirectory exposes the set of existing segments and their metadata.
// Existing versions always form a contiguous range [LowestVersion, HighestVersion].
type SegmentDirectory interface {
	// HighestVersion returns the newest known version, or NoVersion.
	HighestVersion() (Version, error)

	// LowestVersion returns the oldest version still present, or NoVersion.
	LowestVersion() (Version, error)

	// PathFor returns the file path of the segment for v.
	PathFor(v Version) (string, error)

	// SizeOf returns the segment size in bytes.
	SizeOf(v Version) (int64, error)

	// TransactionCount returns the number of transactions the segment holds.
	TransactionCount(v Version) (int64, error)

	// NewestTransactionTime returns the commit time of the newest transaction in the segment.
	NewestTransactionTime(v Version) (time.Time, error)
}

// Evictor is implemented by directories that keep their own index of
// segments and must forget a version once its file is deleted.
type Evictor interface {
	Evict(v Version) error
}

// RecoveryFloor reports the lowest version that crash recovery needs.
// No version at or above the floor may be deleted.
type RecoveryFloor interface {
	LowestRequiredVersion() (Version, error)
}

// FileSystem deletes segment files.
type FileSystem interface {
	Delete(path string) error
}

// Clock supplies monotonic time in nanoseconds since the Unix epoch.
type Clock interface {
	Nanos() int64
}
