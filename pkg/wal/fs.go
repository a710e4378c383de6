package wal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// OSFileSystem deletes files on the local filesystem.
type OSFileSystem struct{}

// Delete removes the file at path. A file that is already gone is not an error:
// a previous pass may have removed it before its index entry was evicted.
func (OSFileSystem) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// StaticFloor is a RecoveryFloor with a fixed value.
type StaticFloor Version

// LowestRequiredVersion returns the fixed floor.
func (f StaticFloor) LowestRequiredVersion() (Version, error) {
	return Version(f), nil
}
