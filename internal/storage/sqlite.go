// Package storage persists the crawl frontier, per-page results and
// checkpoints of the statistics accumulator in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// SQLiteStorage implements crawler.Storage on a single SQLite file
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens the database at path, creating the file and the
// schema when missing
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStorage{db: db, path: path}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStorage) migrate(ctx context.Context) error {
	steps := []struct {
		name string
		sql  string
	}{
		{"pragmas", pragmaSQL},
		{"frontier", frontierSQL},
		{"checkpoint", checkpointSQL},
	}
	for _, step := range steps {
		if _, err := s.db.ExecContext(ctx, step.sql); err != nil {
			return fmt.Errorf("failed to apply %s schema to %s: %w", step.name, s.path, err)
		}
	}
	return nil
}

// Close closes the database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// GetMeta returns the value stored under key, or "" when there is none
func (s *SQLiteStorage) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM crawl_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read meta %s: %w", key, err)
	}
	return value, nil
}

// SetMeta stores value under key, replacing any previous value
func (s *SQLiteStorage) SetMeta(key, value string) error {
	return putMeta(s.db, key, value)
}

func putMeta(e execer, key, value string) error {
	_, err := e.Exec(`
		INSERT INTO crawl_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write meta %s: %w", key, err)
	}
	return nil
}
