package sqlite

// schemaVersion is bumped whenever the tables below change shape. A store
// with a different version is cleared on open: it only holds a cache.
const schemaVersion = "1"

const schema = `
-- Cached metadata, one row per entity. body is the JSON encoding of the
-- domain type; position keeps the repository's iteration order.
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    body TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sections (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    body TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS labels (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    body TEXT NOT NULL
);

-- Sync API tokens the cached rows are current as of
CREATE TABLE IF NOT EXISTS sync_tokens (
    resource TEXT PRIMARY KEY,
    token TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// entityTables lists the per-entity tables, in save order.
var entityTables = []string{"projects", "sections", "labels"}
