// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "analyses.db"

// SQLiteCache stores analyses in a local SQLite database. It is the
// default provider: no external service, survives restarts, and WAL mode
// tolerates the engine's concurrent analyzers.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens or creates the cache database under dir and creates
// the schema if it does not exist.
func NewSQLiteCache(dir string) (*SQLiteCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return c, nil
}

func (c *SQLiteCache) createSchema() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS analyses (
		paper_id TEXT PRIMARY KEY,
		analysis TEXT NOT NULL,
		stored_at TEXT NOT NULL
	)`)
	return err
}

// Lookup returns the cached analysis for id.
func (c *SQLiteCache) Lookup(ctx context.Context, id string) (string, bool, error) {
	var analysis string
	err := c.db.QueryRowContext(ctx,
		`SELECT analysis FROM analyses WHERE paper_id = ?`, id).Scan(&analysis)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup for %s: %w", id, err)
	}
	return analysis, true, nil
}

// Store upserts the analysis for id.
func (c *SQLiteCache) Store(ctx context.Context, id, analysis string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO analyses (paper_id, analysis, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET analysis = excluded.analysis, stored_at = excluded.stored_at`,
		id, analysis, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cache store for %s: %w", id, err)
	}
	return nil
}

// HealthCheck pings the database.
func (c *SQLiteCache) HealthCheck(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("cache health check: %w", err)
	}
	return nil
}

// Stats returns the number of cached analyses.
func (c *SQLiteCache) Stats(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache stats: %w", err)
	}
	return n, nil
}

// Clear removes all cached analyses.
func (c *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM analyses`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
