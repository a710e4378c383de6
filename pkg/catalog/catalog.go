package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/walkeeper/pkg/config"
	"mercator-hq/walkeeper/pkg/wal"
)

// Catalog is a SQLite-backed wal.SegmentDirectory. It also implements
// wal.Evictor so the retention engine can drop deleted versions.
type Catalog struct {
	db     *sql.DB
	config config.CatalogConfig
	logger *slog.Logger

	// mu orders writers so contiguity checks and writes are atomic.
	mu sync.Mutex
}

// Open opens (creating if needed) the catalog database described by cfg.
func Open(cfg config.CatalogConfig) (*Catalog, error) {
	if cfg.Driver == "" {
		cfg.Driver = config.DefaultCatalogDriver
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = config.DefaultCatalogMaxOpenConns
	}

	logger := slog.Default().With("component", "catalog.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "." && cfg.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, NewStorageError(cfg.Driver, "open", err)
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, NewStorageError(cfg.Driver, "open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	c := &Catalog{db: db, config: cfg, logger: logger}
	if err := c.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("segment catalog opened",
		"driver", cfg.Driver,
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
	)
	return c, nil
}

// initialize sets pragmas and creates the schema.
func (c *Catalog) initialize() error {
	if c.config.WALMode {
		if _, err := c.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return c.storageError("enable_wal", err)
		}
	}

	if _, err := c.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", c.config.BusyTimeout.Milliseconds())); err != nil {
		return c.storageError("set_busy_timeout", err)
	}

	if _, err := c.db.Exec(Schema); err != nil {
		return c.storageError("create_schema", err)
	}
	if _, err := c.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return c.storageError("insert_schema_version", err)
	}

	var version int
	if err := c.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return c.storageError("get_schema_version", err)
	}
	if version != SchemaVersion {
		return c.storageError("schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Ping verifies the database is reachable.
func (c *Catalog) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return c.storageError("ping", err)
	}
	return nil
}

// Register records a segment. A known version has its metadata replaced;
// a new version must directly follow the highest one unless the catalog is
// empty.
func (c *Catalog) Register(ctx context.Context, info wal.SegmentInfo) error {
	if info.Version < 0 {
		return fmt.Errorf("register segment: invalid version %d", info.Version)
	}
	if info.Path == "" {
		return fmt.Errorf("register segment %d: path is required", info.Version)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return c.storageError("register", err)
	}
	defer func() { _ = tx.Rollback() }()

	lo, hi, err := bounds(tx.QueryRowContext(ctx, selectBounds))
	if err != nil {
		return c.storageError("register", err)
	}
	if hi != wal.NoVersion && (info.Version < lo || info.Version > hi+1) {
		return fmt.Errorf("register segment %d into [%d, %d]: %w", info.Version, lo, hi, ErrNotContiguous)
	}

	var newest int64
	if !info.NewestTxTime.IsZero() {
		newest = info.NewestTxTime.UnixNano()
	}
	if _, err := tx.ExecContext(ctx, upsertSegment,
		int64(info.Version), info.Path, info.SizeBytes, info.TxCount, newest); err != nil {
		return c.storageError("register", err)
	}
	if err := tx.Commit(); err != nil {
		return c.storageError("register", err)
	}

	c.logger.Debug("segment registered", "version", info.Version, "path", info.Path)
	return nil
}

// Evict forgets v. Only the lowest or highest version may be evicted; a
// version that is not registered is already gone and is not an error.
func (c *Catalog) Evict(v wal.Version) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx := context.Background()
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return c.storageError("evict", err)
	}
	defer func() { _ = tx.Rollback() }()

	lo, hi, err := bounds(tx.QueryRowContext(ctx, selectBounds))
	if err != nil {
		return c.storageError("evict", err)
	}
	if hi == wal.NoVersion || v < lo || v > hi {
		return nil
	}
	if v != lo && v != hi {
		return fmt.Errorf("evict segment %d from [%d, %d]: %w", v, lo, hi, ErrNotContiguous)
	}

	if _, err := tx.ExecContext(ctx, deleteSegment, int64(v)); err != nil {
		return c.storageError("evict", err)
	}
	if err := tx.Commit(); err != nil {
		return c.storageError("evict", err)
	}
	return nil
}

// List returns every registered segment in ascending version order.
func (c *Catalog) List(ctx context.Context) ([]wal.SegmentInfo, error) {
	rows, err := c.db.QueryContext(ctx, selectSegments)
	if err != nil {
		return nil, c.storageError("list", err)
	}
	defer func() { _ = rows.Close() }()

	segments := []wal.SegmentInfo{}
	for rows.Next() {
		info, err := scanSegment(rows)
		if err != nil {
			return nil, c.storageError("scan", err)
		}
		segments = append(segments, info)
	}
	if err := rows.Err(); err != nil {
		return nil, c.storageError("list", err)
	}
	return segments, nil
}

// Stats returns the number of registered segments and their total size.
func (c *Catalog) Stats(ctx context.Context) (count int64, sizeBytes int64, err error) {
	if err := c.db.QueryRowContext(ctx, selectStats).Scan(&count, &sizeBytes); err != nil {
		return 0, 0, c.storageError("stats", err)
	}
	return count, sizeBytes, nil
}

// Scan registers segment files in root named "<prefix>.<version>", oldest
// first. Versions already registered get their size refreshed. The newest
// transaction time is taken from the file modification time and the
// transaction count is left at zero. Scan returns the number of files
// registered.
func (c *Catalog) Scan(ctx context.Context, root, prefix string) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("scan segments: %w", err)
	}

	var found []wal.SegmentInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		suffix, ok := strings.CutPrefix(entry.Name(), prefix+".")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil || n < 0 {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return 0, fmt.Errorf("scan segments: %w", err)
		}
		found = append(found, wal.SegmentInfo{
			Version:      wal.Version(n),
			Path:         filepath.Join(root, entry.Name()),
			SizeBytes:    fi.Size(),
			NewestTxTime: fi.ModTime(),
		})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Version < found[j].Version })

	for i, info := range found {
		if err := c.Register(ctx, info); err != nil {
			return i, err
		}
	}
	return len(found), nil
}

// HighestVersion implements wal.SegmentDirectory.
func (c *Catalog) HighestVersion() (wal.Version, error) {
	_, hi, err := bounds(c.db.QueryRow(selectBounds))
	if err != nil {
		return wal.NoVersion, c.storageError("highest_version", err)
	}
	return hi, nil
}

// LowestVersion implements wal.SegmentDirectory.
func (c *Catalog) LowestVersion() (wal.Version, error) {
	lo, _, err := bounds(c.db.QueryRow(selectBounds))
	if err != nil {
		return wal.NoVersion, c.storageError("lowest_version", err)
	}
	return lo, nil
}

// PathFor implements wal.SegmentDirectory.
func (c *Catalog) PathFor(v wal.Version) (string, error) {
	info, err := c.get(v)
	return info.Path, err
}

// SizeOf implements wal.SegmentDirectory.
func (c *Catalog) SizeOf(v wal.Version) (int64, error) {
	info, err := c.get(v)
	return info.SizeBytes, err
}

// TransactionCount implements wal.SegmentDirectory.
func (c *Catalog) TransactionCount(v wal.Version) (int64, error) {
	info, err := c.get(v)
	return info.TxCount, err
}

// NewestTransactionTime implements wal.SegmentDirectory.
func (c *Catalog) NewestTransactionTime(v wal.Version) (time.Time, error) {
	info, err := c.get(v)
	return info.NewestTxTime, err
}

func (c *Catalog) get(v wal.Version) (wal.SegmentInfo, error) {
	info, err := scanSegment(c.db.QueryRow(selectSegment, int64(v)))
	if errors.Is(err, sql.ErrNoRows) {
		return wal.SegmentInfo{}, fmt.Errorf("version %d: %w", v, wal.ErrSegmentNotFound)
	}
	if err != nil {
		return wal.SegmentInfo{}, c.storageError("get", err)
	}
	return info, nil
}

func (c *Catalog) storageError(op string, err error) *StorageError {
	return NewStorageError(c.config.Driver, op, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSegment(row scanner) (wal.SegmentInfo, error) {
	var (
		version, size, txs, newest int64
		path                       string
	)
	if err := row.Scan(&version, &path, &size, &txs, &newest); err != nil {
		return wal.SegmentInfo{}, err
	}
	info := wal.SegmentInfo{
		Version:   wal.Version(version),
		Path:      path,
		SizeBytes: size,
		TxCount:   txs,
	}
	if newest != 0 {
		info.NewestTxTime = time.Unix(0, newest).UTC()
	}
	return info, nil
}

// bounds reads MIN/MAX(version); an empty table yields NoVersion twice.
func bounds(row scanner) (lo, hi wal.Version, err error) {
	var minV, maxV sql.NullInt64
	if err := row.Scan(&minV, &maxV); err != nil {
		return wal.NoVersion, wal.NoVersion, err
	}
	if !minV.Valid || !maxV.Valid {
		return wal.NoVersion, wal.NoVersion, nil
	}
	return wal.Version(minV.Int64), wal.Version(maxV.Int64), nil
}
