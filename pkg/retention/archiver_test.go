package retention

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileArchiver_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("commit tx 42;"), 4096)

	for _, codec := range Codecs {
		t.Run(codec, func(t *testing.T) {
			src := filepath.Join(t.TempDir(), "neostore.transaction.db.7")
			if err := os.WriteFile(src, payload, 0o600); err != nil {
				t.Fatal(err)
			}

			archiver, err := NewFileArchiver(filepath.Join(t.TempDir(), "archive"), codec)
			if err != nil {
				t.Fatalf("NewFileArchiver() error = %v", err)
			}

			dst, err := archiver.Archive(context.Background(), 7, src)
			if err != nil {
				t.Fatalf("Archive() error = %v", err)
			}
			ext, _ := Extension(codec)
			if want := filepath.Join(archiver.Dir(), "neostore.transaction.db.7"+ext); dst != want {
				t.Errorf("Archive() = %q, want %q", dst, want)
			}
			if CodecFor(dst) != codec {
				t.Errorf("CodecFor(%q) = %q, want %q", dst, CodecFor(dst), codec)
			}

			restored := filepath.Join(t.TempDir(), "restored")
			if err := Restore(dst, restored); err != nil {
				t.Fatalf("Restore() error = %v", err)
			}
			got, err := os.ReadFile(restored)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("restored %d bytes, want %d identical bytes", len(got), len(payload))
			}
		})
	}
}

func TestFileArchiver_MissingSource(t *testing.T) {
	archiver, err := NewFileArchiver(t.TempDir(), CodecGzip)
	if err != nil {
		t.Fatal(err)
	}

	dst, err := archiver.Archive(context.Background(), 1, filepath.Join(t.TempDir(), "gone"))
	if err != nil || dst != "" {
		t.Errorf("Archive() = (%q, %v), want (\"\", nil)", dst, err)
	}
}

func TestFileArchiver_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	archiver, err := NewFileArchiver(dir, CodecLZ4)
	if err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(t.TempDir(), "neostore.transaction.db.0")
	if err := os.WriteFile(src, []byte("segment"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := archiver.Archive(context.Background(), 0, src); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("archive directory holds %d entries, want 1", len(entries))
	}
}

func TestNewFileArchiver_UnknownCodec(t *testing.T) {
	if _, err := NewFileArchiver(t.TempDir(), "brotli"); err == nil {
		t.Error("NewFileArchiver() expected error for unknown codec")
	}
}

func TestRestore_RefusesExistingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "segment")
	if err := os.WriteFile(src, []byte("a"), 0o600); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "existing")
	if err := os.WriteFile(dst, []byte("b"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Restore(src, dst); err == nil {
		t.Error("Restore() expected error when target exists")
	}
}
