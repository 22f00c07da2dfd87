package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// FileName is the name of the database file inside the cache directory.
const FileName = "cache.db"

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_expires_at ON entries (expires_at);`

// DiskCache is a cache persisted in a sqlite database, shared across runs.
type DiskCache struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the cache database in dir.
func Open(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(dir, FileName)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &DiskCache{
		db:   db,
		path: path,
		now:  time.Now,
	}, nil
}

// Path returns the database file location.
func (c *DiskCache) Path() string {
	return c.path
}

// Get retrieves a value from the cache. Expired rows read as misses.
func (c *DiskCache) Get(key string) ([]byte, bool, error) {
	var value []byte

	err := c.db.QueryRow(
		`SELECT value FROM entries WHERE key = ? AND expires_at > ?`,
		key, c.now().UnixNano(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	return value, true, nil
}

// Put stores a value in the cache.
func (c *DiskCache) Put(key string, value []byte, ttl time.Duration) error {
	_, err := c.db.Exec(`
		INSERT INTO entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at`,
		key, value, c.now().Add(ttl).UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// Prune deletes expired entries and reports how many were removed.
func (c *DiskCache) Prune() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM entries WHERE expires_at <= ?`, c.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned entries: %w", err)
	}

	return removed, nil
}

// Clear deletes every entry.
func (c *DiskCache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	return nil
}

// Shutdown closes the database. It is called by the injector on exit.
func (c *DiskCache) Shutdown() error {
	return c.db.Close()
}
