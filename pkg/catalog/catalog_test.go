package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"mercator-hq/walkeeper/pkg/config"
	"mercator-hq/walkeeper/pkg/wal"
)

var drivers = []string{"sqlite", "sqlite3"}

// createTempCatalog opens a catalog in a temporary directory.
func createTempCatalog(t *testing.T, driver string) *Catalog {
	t.Helper()

	c, err := Open(config.CatalogConfig{
		Driver:       driver,
		Path:         filepath.Join(t.TempDir(), "segments.db"),
		MaxOpenConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Open(%s) error = %v", driver, err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func segment(v wal.Version) wal.SegmentInfo {
	return wal.SegmentInfo{
		Version:      v,
		Path:         fmt.Sprintf("/var/lib/neo4j/wal/neostore.transaction.db.%d", v),
		SizeBytes:    1000 + int64(v),
		TxCount:      10 * int64(v),
		NewestTxTime: time.Date(2024, 6, 1, int(v), 0, 0, 0, time.UTC),
	}
}

func register(t *testing.T, c *Catalog, lo, hi wal.Version) {
	t.Helper()
	for v := lo; v <= hi; v++ {
		if err := c.Register(context.Background(), segment(v)); err != nil {
			t.Fatalf("Register(%d) error = %v", v, err)
		}
	}
}

func TestCatalog_Empty(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			c := createTempCatalog(t, driver)

			hi, err := c.HighestVersion()
			if err != nil || hi != wal.NoVersion {
				t.Errorf("HighestVersion() = (%d, %v), want NoVersion", hi, err)
			}
			lo, err := c.LowestVersion()
			if err != nil || lo != wal.NoVersion {
				t.Errorf("LowestVersion() = (%d, %v), want NoVersion", lo, err)
			}
			if _, err := c.PathFor(0); !errors.Is(err, wal.ErrSegmentNotFound) {
				t.Errorf("PathFor(0) error = %v, want ErrSegmentNotFound", err)
			}
		})
	}
}

func TestCatalog_RegisterAndRead(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			c := createTempCatalog(t, driver)
			register(t, c, 3, 7)

			lo, _ := c.LowestVersion()
			hi, _ := c.HighestVersion()
			if lo != 3 || hi != 7 {
				t.Errorf("bounds = [%d, %d], want [3, 7]", lo, hi)
			}

			want := segment(5)
			path, _ := c.PathFor(5)
			size, _ := c.SizeOf(5)
			txs, _ := c.TransactionCount(5)
			newest, _ := c.NewestTransactionTime(5)
			if path != want.Path || size != want.SizeBytes || txs != want.TxCount || !newest.Equal(want.NewestTxTime) {
				t.Errorf("segment 5 = (%q, %d, %d, %v), want %+v", path, size, txs, newest, want)
			}

			list, err := c.List(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != 5 || list[0].Version != 3 || list[4].Version != 7 {
				t.Errorf("List() = %v", list)
			}

			count, bytes, err := c.Stats(context.Background())
			if err != nil || count != 5 || bytes != 1003+1004+1005+1006+1007 {
				t.Errorf("Stats() = (%d, %d, %v)", count, bytes, err)
			}
		})
	}
}

func TestCatalog_RegisterUpdatesExisting(t *testing.T) {
	c := createTempCatalog(t, "sqlite")
	register(t, c, 0, 2)

	updated := segment(2)
	updated.SizeBytes = 9999
	if err := c.Register(context.Background(), updated); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if size, _ := c.SizeOf(2); size != 9999 {
		t.Errorf("SizeOf(2) = %d, want 9999", size)
	}
}

func TestCatalog_RegisterRejectsGaps(t *testing.T) {
	c := createTempCatalog(t, "sqlite")
	register(t, c, 0, 2)

	tests := []struct {
		name string
		info wal.SegmentInfo
	}{
		{"gap above highest", segment(4)},
		{"negative version", wal.SegmentInfo{Version: -1, Path: "x"}},
		{"missing path", wal.SegmentInfo{Version: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Register(context.Background(), tt.info); err == nil {
				t.Error("Register() expected error")
			}
		})
	}

	if err := c.Register(context.Background(), segment(4)); !errors.Is(err, ErrNotContiguous) {
		t.Errorf("Register(4) error = %v, want ErrNotContiguous", err)
	}
}

func TestCatalog_Evict(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			c := createTempCatalog(t, driver)
			register(t, c, 0, 4)

			if err := c.Evict(2); !errors.Is(err, ErrNotContiguous) {
				t.Errorf("Evict(2) error = %v, want ErrNotContiguous", err)
			}
			for _, v := range []wal.Version{0, 1} {
				if err := c.Evict(v); err != nil {
					t.Fatalf("Evict(%d) error = %v", v, err)
				}
			}
			// Evicting a version that is already gone is a no-op.
			if err := c.Evict(0); err != nil {
				t.Errorf("second Evict(0) error = %v", err)
			}

			if lo, _ := c.LowestVersion(); lo != 2 {
				t.Errorf("LowestVersion() = %d, want 2", lo)
			}
			if _, err := c.SizeOf(1); !errors.Is(err, wal.ErrSegmentNotFound) {
				t.Errorf("SizeOf(1) error = %v, want ErrSegmentNotFound", err)
			}
		})
	}
}

func TestCatalog_Scan(t *testing.T) {
	c := createTempCatalog(t, "sqlite")
	root := t.TempDir()

	for _, name := range []string{
		"neostore.transaction.db.0",
		"neostore.transaction.db.1",
		"neostore.transaction.db.2",
		"neostore.transaction.db.tmp",
		"checkpoint.log",
	} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("segment"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Scan(context.Background(), root, "neostore.transaction.db")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Scan() = %d, want 3", n)
	}

	list, _ := c.List(context.Background())
	var got []wal.Version
	for _, s := range list {
		got = append(got, s.Version)
		if s.SizeBytes != int64(len("segment")) {
			t.Errorf("segment %d size = %d", s.Version, s.SizeBytes)
		}
	}
	if want := []wal.Version{0, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("scanned versions = %v, want %v", got, want)
	}
}

func TestCatalog_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.db")
	cfg := config.CatalogConfig{Driver: "sqlite", Path: path, WALMode: true, BusyTimeout: time.Second}

	c, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	register(t, c, 0, 3)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c, err = Open(cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer c.Close()

	if hi, _ := c.HighestVersion(); hi != 3 {
		t.Errorf("HighestVersion() after reopen = %d, want 3", hi)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.CatalogConfig{Driver: "postgres", Path: filepath.Join(t.TempDir(), "x.db")})

	var serr *StorageError
	if !errors.As(err, &serr) || serr.Operation != "open" {
		t.Errorf("Open() error = %v, want open StorageError", err)
	}
}

func TestCatalog_ImplementsDirectory(t *testing.T) {
	var _ wal.SegmentDirectory = (*Catalog)(nil)
	var _ wal.Evictor = (*Catalog)(nil)
}
