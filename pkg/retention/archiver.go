package retention

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"mercator-hq/walkeeper/pkg/wal"
)

// Archive codecs.
const (
	CodecNone   = "none"
	CodecGzip   = "gzip"
	CodecZstd   = "zstd"
	CodecSnappy = "snappy"
	CodecLZ4    = "lz4"
)

// Codecs lists the supported archive codecs.
var Codecs = []string{CodecNone, CodecGzip, CodecZstd, CodecSnappy, CodecLZ4}

// Archiver stores a copy of a segment before the engine deletes it.
type Archiver interface {
	// Archive copies the segment at path and returns the archive location.
	// A source that no longer exists is not an error and yields "".
	Archive(ctx context.Context, v wal.Version, path string) (string, error)

	// Codec names the compression applied to archives.
	Codec() string
}

// FileArchiver compresses segments into a local directory.
type FileArchiver struct {
	dir   string
	codec string
}

// NewFileArchiver creates an archiver writing into dir with codec. The
// directory is created if needed.
func NewFileArchiver(dir, codec string) (*FileArchiver, error) {
	if _, err := Extension(codec); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &FileArchiver{dir: dir, codec: codec}, nil
}

// Codec implements Archiver.
func (a *FileArchiver) Codec() string {
	return a.codec
}

// Dir returns the archive directory.
func (a *FileArchiver) Dir() string {
	return a.dir
}

// Archive implements Archiver. The archive appears under its final name only
// once it is completely written.
func (a *FileArchiver) Archive(ctx context.Context, v wal.Version, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext, _ := Extension(a.codec)
	dst := filepath.Join(a.dir, filepath.Base(path)+ext)
	if sameFile(dst, path) {
		return "", fmt.Errorf("archive segment %d: %w", v, ErrArchiveOverwritesSegment)
	}

	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("open segment %d: %w", v, err)
	}
	defer func() { _ = src.Close() }()

	tmp, err := os.CreateTemp(a.dir, ".archive-*")
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := compress(tmp, src, a.codec); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("compress segment %d: %w", v, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("publish archive: %w", err)
	}
	return dst, nil
}

// sameFile reports whether a and b resolve to the same path.
func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// Extension returns the file suffix for codec.
func Extension(codec string) (string, error) {
	switch codec {
	case CodecNone:
		return "", nil
	case CodecGzip:
		return ".gz", nil
	case CodecZstd:
		return ".zst", nil
	case CodecSnappy:
		return ".sz", nil
	case CodecLZ4:
		return ".lz4", nil
	default:
		return "", fmt.Errorf("unsupported archive codec %q (supported: %s)", codec, strings.Join(Codecs, ", "))
	}
}

// CodecFor infers the codec from an archive file name.
func CodecFor(name string) string {
	switch filepath.Ext(name) {
	case ".gz":
		return CodecGzip
	case ".zst":
		return CodecZstd
	case ".sz":
		return CodecSnappy
	case ".lz4":
		return CodecLZ4
	default:
		return CodecNone
	}
}

func compress(dst io.Writer, src io.Reader, codec string) error {
	var w io.WriteCloser
	switch codec {
	case CodecNone:
		_, err := io.Copy(dst, src)
		return err
	case CodecGzip:
		w = gzip.NewWriter(dst)
	case CodecZstd:
		enc, err := zstd.NewWriter(dst)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		w = enc
	case CodecSnappy:
		w = snappy.NewBufferedWriter(dst)
	case CodecLZ4:
		w = lz4.NewWriter(dst)
	default:
		return fmt.Errorf("unsupported archive codec %q", codec)
	}

	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// Restore decompresses the archive at src into dst, inferring the codec from
// the file name. dst must not exist.
func Restore(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = in.Close() }()

	r, closeReader, err := decompress(in, CodecFor(src))
	if err != nil {
		return err
	}
	defer closeReader()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("create segment: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("decompress %s: %w", src, err)
	}
	return out.Close()
}

func decompress(src io.Reader, codec string) (io.Reader, func(), error) {
	switch codec {
	case CodecGzip:
		reader, err := gzip.NewReader(src)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip reader: %w", err)
		}
		return reader, func() { _ = reader.Close() }, nil
	case CodecZstd:
		decoder, err := zstd.NewReader(src)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd reader: %w", err)
		}
		return decoder, decoder.Close, nil
	case CodecSnappy:
		return snappy.NewReader(src), func() {}, nil
	case CodecLZ4:
		return lz4.NewReader(src), func() {}, nil
	default:
		return src, func() {}, nil
	}
}
