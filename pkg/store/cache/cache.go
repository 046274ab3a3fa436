// Package cache keeps observer display names and whole query results in a
// small SQLite file so repeated report runs skip network and store round trips.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS observer_names (
    observer_id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    resolved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS query_results (
    statement_hash TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    stored_at INTEGER NOT NULL
);
`

type Cache struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// report queries run on a worker pool; one writer avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Cache{db: db, dbPath: path, now: time.Now}, nil
}

func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Cache) Path() string {
	return c.dbPath
}

// Names returns the observer name table view with the given time to live.
// A zero ttl never expires entries.
func (c *Cache) Names(ttl time.Duration) *NameCache {
	return &NameCache{c: c, ttl: ttl}
}

// Results returns the query result table view with the given time to live.
func (c *Cache) Results(ttl time.Duration) *ResultCache {
	return &ResultCache{c: c, ttl: ttl}
}

func (c *Cache) expired(stored int64, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return c.now().Sub(time.Unix(stored, 0)) > ttl
}
