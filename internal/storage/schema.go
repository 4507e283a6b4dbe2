package storage

const schema = `
-- One row per stored blob. Values are JSON documents or raw strings; the
-- key layout (namespace:kind:scope) is owned by the callers.
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL
);
`
