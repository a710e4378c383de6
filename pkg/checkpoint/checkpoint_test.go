package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/walkeeper/pkg/wal"
)

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "checkpoint.yaml")
	written := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)

	if err := Write(path, Marker{LogVersion: 42, TransactionID: 18231, WrittenAt: written}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	m, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if m.LogVersion != 42 || m.TransactionID != 18231 || !m.WrittenAt.Equal(written) {
		t.Errorf("Read() = %+v", m)
	}
}

func TestWrite_DefaultsTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.yaml")
	before := time.Now().Add(-time.Second)

	if err := Write(path, Marker{LogVersion: 1}); err != nil {
		t.Fatal(err)
	}
	m, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.WrittenAt.Before(before) {
		t.Errorf("WrittenAt = %v, want a current timestamp", m.WrittenAt)
	}
}

func TestWrite_Replaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.yaml")

	for _, v := range []wal.Version{3, 5, 8} {
		if err := Write(path, Marker{LogVersion: v}); err != nil {
			t.Fatal(err)
		}
	}
	m, _ := Read(path)
	if m.LogVersion != 8 {
		t.Errorf("LogVersion = %d, want 8", m.LogVersion)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the marker", len(entries))
	}
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "log_version: [1, 2"},
		{"negative version", "log_version: -3\n"},
		{"wrong type", "log_version: latest\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Read(path); err == nil {
				t.Error("Read() expected error")
			}
		})
	}
}

func TestFileFloor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.yaml")
	floor := NewFileFloor(path)

	if _, err := floor.LowestRequiredVersion(); !errors.Is(err, ErrNoCheckpoint) {
		t.Errorf("LowestRequiredVersion() error = %v, want ErrNoCheckpoint", err)
	}

	if err := Write(path, Marker{LogVersion: 7}); err != nil {
		t.Fatal(err)
	}
	if v, err := floor.LowestRequiredVersion(); err != nil || v != 7 {
		t.Errorf("LowestRequiredVersion() = (%d, %v), want 7", v, err)
	}

	// A newer checkpoint takes effect without reopening.
	if err := Write(path, Marker{LogVersion: 9}); err != nil {
		t.Fatal(err)
	}
	if v, _ := floor.LowestRequiredVersion(); v != 9 {
		t.Errorf("LowestRequiredVersion() = %d, want 9", v)
	}
}
