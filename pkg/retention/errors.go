package retention

import (
	"errors"
	"fmt"

	"mercator-hq/walkeeper/pkg/wal"
)

// Stages of a segment removal reported by DeletionError.
const (
	StageResolve = "resolve"
	StageArchive = "archive"
	StageDelete  = "delete"
	StageEvict   = "evict"
)

// ErrArchiveOverwritesSegment is returned when an archive would be written
// over the segment it copies.
var ErrArchiveOverwritesSegment = errors.New("archive target is the segment itself")

// DeletionError reports the segment whose removal aborted a prune pass.
// Segments older than Version were removed and everything newer was left in
// place. Version itself was left in place, except at StageEvict: its file
// was deleted, it is listed in Result.Deleted, and only the directory index
// still names it.
type DeletionError struct {
	Version wal.Version
	Path    string
	Stage   string
	Cause   error
}

// Error implements the error interface.
func (e *DeletionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s segment %d: %v", e.Stage, e.Version, e.Cause)
	}
	return fmt.Sprintf("%s segment %d (%s): %v", e.Stage, e.Version, e.Path, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *DeletionError) Unwrap() error {
	return e.Cause
}
