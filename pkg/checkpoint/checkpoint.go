package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/walkeeper/pkg/wal"
)

// ErrNoCheckpoint is returned when no checkpoint marker exists yet.
var ErrNoCheckpoint = errors.New("no checkpoint recorded")

// Marker is the content of a checkpoint file.
type Marker struct {
	// LogVersion is the segment recovery starts from.
	LogVersion wal.Version `yaml:"log_version" json:"log_version"`

	// TransactionID is the last transaction covered by the checkpoint.
	TransactionID int64 `yaml:"transaction_id" json:"transaction_id"`

	WrittenAt time.Time `yaml:"written_at" json:"written_at"`
}

// Read loads the marker at path.
func Read(path string) (*Marker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoCheckpoint)
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var m Marker
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	if m.LogVersion < 0 {
		return nil, fmt.Errorf("checkpoint %s: invalid log_version %d", path, m.LogVersion)
	}
	return &m, nil
}

// Write stores m at path. Readers see either the previous marker or the
// new one, never a partial file.
func Write(path string, m Marker) error {
	if m.LogVersion < 0 {
		return fmt.Errorf("write checkpoint: invalid log_version %d", m.LogVersion)
	}
	if m.WrittenAt.IsZero() {
		m.WrittenAt = time.Now().UTC()
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create checkpoint directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish checkpoint: %w", err)
	}
	return nil
}

// FileFloor is a wal.RecoveryFloor backed by a checkpoint marker. The file
// is read on every call so a new checkpoint takes effect immediately.
type FileFloor struct {
	path string
}

// NewFileFloor returns a floor reading the marker at path.
func NewFileFloor(path string) *FileFloor {
	return &FileFloor{path: path}
}

// Path returns the marker location.
func (f *FileFloor) Path() string {
	return f.path
}

// LowestRequiredVersion implements wal.RecoveryFloor.
func (f *FileFloor) LowestRequiredVersion() (wal.Version, error) {
	m, err := Read(f.path)
	if err != nil {
		return wal.NoVersion, err
	}
	return m.LogVersion, nil
}
