package catalog

// SchemaVersion is the current catalog schema version.
const SchemaVersion = 1

// Schema creates the catalog tables.
const Schema = `
CREATE TABLE IF NOT EXISTS segments (
    version INTEGER PRIMARY KEY,
    path TEXT NOT NULL,
    size_bytes INTEGER NOT NULL DEFAULT 0,
    tx_count INTEGER NOT NULL DEFAULT 0,
    newest_tx_ns INTEGER NOT NULL DEFAULT 0,
    registered_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);
`

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

const getSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const upsertSegment = `
INSERT INTO segments (version, path, size_bytes, tx_count, newest_tx_ns, registered_at)
VALUES (?, ?, ?, ?, ?, datetime('now'))
ON CONFLICT(version) DO UPDATE SET
    path = excluded.path,
    size_bytes = excluded.size_bytes,
    tx_count = excluded.tx_count,
    newest_tx_ns = excluded.newest_tx_ns;
`

const selectBounds = `SELECT MIN(version), MAX(version) FROM segments;`

const selectSegment = `
SELECT version, path, size_bytes, tx_count, newest_tx_ns FROM segments WHERE version = ?;
`

const selectSegments = `
SELECT version, path, size_bytes, tx_count, newest_tx_ns FROM segments ORDER BY version ASC;
`

const deleteSegment = `DELETE FROM segments WHERE version = ?;`

const selectStats = `SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM segments;`
