package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLiteKV is a KV persisted in a single-table SQLite database.
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLiteKV opens or creates the SQLite database at path and applies migrations.
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// A single connection serializes writes and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	kv := &SQLiteKV{db: db}
	if err := kv.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

// Close closes the underlying database.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

func (s *SQLiteKV) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("failed to migrate kv table: %w", err)
	}
	return nil
}

// Get implements KV
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set implements KV
func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Delete implements KV
func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}
