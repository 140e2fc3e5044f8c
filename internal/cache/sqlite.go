package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteCache provides a SQLite-based caching mechanism.
type SQLiteCache struct {
	db *sqlx.DB
}

// NewSQLite opens the SQLite database at the given file path and ensures the
// cache table is created.
func NewSQLite(filePath string) (*SQLiteCache, error) {
	db, err := sqlx.Connect("sqlite", filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite cache: %w", err)
	}
	// One connection keeps ":memory:" caches coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode on sqlite cache: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		value BLOB,
		expires_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_expires_at ON cache (expires_at);
	`
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

// Get retrieves an item from the cache. It returns nil if the item is not found or is expired.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, error) {
	var item struct {
		Value     []byte `db:"value"`
		ExpiresAt int64  `db:"expires_at"`
	}
	err := c.db.GetContext(ctx, &item, `SELECT value, expires_at FROM cache WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item from cache: %w", err)
	}

	if time.Now().Unix() > item.ExpiresAt {
		_ = c.Delete(ctx, key)
		return nil, nil
	}

	return item.Value, nil
}

// Set adds an item to the cache with a specific TTL (time-to-live).
func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).Unix()
	query := `INSERT OR REPLACE INTO cache (key, value, expires_at) VALUES (?, ?, ?)`
	if _, err := c.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to set item in cache: %w", err)
	}
	return nil
}

// Delete removes an item from the cache.
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete item from cache: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
