package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB is a Store backed by a single SQLite file. Read and write failures are
// logged and degrade to "absent" rather than propagating, matching the
// contract the progress records were designed against; only opening the
// database can fail.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Get returns the value stored under key.
func (db *DB) Get(key string) (string, bool) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows {
			slog.Warn("storage read failed", "key", key, "error", err)
		}
		return "", false
	}
	return value, true
}

// Set stores value under key.
func (db *DB) Set(key, value string) {
	_, err := db.conn.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		slog.Error("storage write failed", "key", key, "error", err)
	}
}

// Delete removes key.
func (db *DB) Delete(key string) {
	if _, err := db.conn.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		slog.Error("storage delete failed", "key", key, "error", err)
	}
}

// Keys returns all keys with the given prefix in sorted order.
func (db *DB) Keys(prefix string) []string {
	rows, err := db.conn.Query(
		`SELECT key FROM kv WHERE key >= ? AND key < ? ORDER BY key`,
		prefix, prefix+"\xff",
	)
	if err != nil {
		slog.Warn("storage key scan failed", "prefix", prefix, "error", err)
		return nil
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			slog.Warn("storage key scan failed", "prefix", prefix, "error", err)
			return keys
		}
		keys = append(keys, k)
	}
	return keys
}

var _ Store = (*DB)(nil)
