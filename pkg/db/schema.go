package db

const (
	// SchemaV1 defines the SQL statements for version 1 of the journaldb component.
	// kv_store mirrors a browser-style string keyed store: one serialized value per key.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS dermavision_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS kv_store (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at REAL DEFAULT (unixepoch())
);
`
)
