package catalog

import (
	"errors"
	"fmt"
)

// ErrNotContiguous is returned when registering or evicting a version would
// leave a gap in the catalog.
var ErrNotContiguous = errors.New("segment versions must stay contiguous")

// StorageError represents an error from the catalog database.
type StorageError struct {
	Driver    string // database/sql driver ("sqlite3", "sqlite")
	Operation string // operation that failed ("open", "register", "evict", ...)
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("catalog error [driver=%s, operation=%s]: %v", e.Driver, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(driver, operation string, cause error) *StorageError {
	return &StorageError{
		Driver:    driver,
		Operation: operation,
		Cause:     cause,
	}
}
