package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/masahif/focuscrawl/internal/stats"
)

// Meta keys used by the accumulator checkpoint
const (
	metaLongestURL   = "longest_page_url"
	metaLongestWords = "longest_page_words"
	metaCheckpointAt = "checkpoint_at"
)

// SaveState replaces the stored accumulator checkpoint with state
func (s *SQLiteStorage) SaveState(state stats.State) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"visited", "accepted", "word_counts", "subdomain_counts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertKeys(tx, "INSERT INTO visited (url) VALUES (?)", state.Visited); err != nil {
		return fmt.Errorf("failed to save visited set: %w", err)
	}
	if err := insertKeys(tx, "INSERT INTO accepted (url) VALUES (?)", state.Accepted); err != nil {
		return fmt.Errorf("failed to save accepted set: %w", err)
	}
	if err := insertCounts(tx, "INSERT INTO word_counts (word, count) VALUES (?, ?)", state.Words); err != nil {
		return fmt.Errorf("failed to save word counts: %w", err)
	}
	if err := insertCounts(tx, "INSERT INTO subdomain_counts (host, count) VALUES (?, ?)", state.Subdomains); err != nil {
		return fmt.Errorf("failed to save subdomain counts: %w", err)
	}

	meta := map[string]string{
		metaLongestURL:   state.Longest.URL,
		metaLongestWords: strconv.Itoa(state.Longest.Words),
		metaCheckpointAt: time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range meta {
		if err := putMeta(tx, key, value); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadState reads the stored accumulator checkpoint. An empty database
// yields an empty state.
func (s *SQLiteStorage) LoadState() (stats.State, error) {
	var (
		state stats.State
		err   error
	)

	if state.Visited, err = s.queryKeys("SELECT url FROM visited ORDER BY url"); err != nil {
		return stats.State{}, fmt.Errorf("failed to load visited set: %w", err)
	}
	if state.Accepted, err = s.queryKeys("SELECT url FROM accepted ORDER BY url"); err != nil {
		return stats.State{}, fmt.Errorf("failed to load accepted set: %w", err)
	}
	if state.Words, err = s.queryCounts("SELECT word, count FROM word_counts"); err != nil {
		return stats.State{}, fmt.Errorf("failed to load word counts: %w", err)
	}
	if state.Subdomains, err = s.queryCounts("SELECT host, count FROM subdomain_counts"); err != nil {
		return stats.State{}, fmt.Errorf("failed to load subdomain counts: %w", err)
	}

	if state.Longest.URL, err = s.GetMeta(metaLongestURL); err != nil {
		return stats.State{}, err
	}
	words, err := s.GetMeta(metaLongestWords)
	if err != nil {
		return stats.State{}, err
	}
	if words != "" {
		if state.Longest.Words, err = strconv.Atoi(words); err != nil {
			return stats.State{}, fmt.Errorf("invalid %s %q: %w", metaLongestWords, words, err)
		}
	}

	return state, nil
}

// CheckpointTime returns when SaveState last ran, or the zero time
func (s *SQLiteStorage) CheckpointTime() (time.Time, error) {
	value, err := s.GetMeta(metaCheckpointAt)
	if err != nil || value == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

func insertKeys(tx *sql.Tx, query string, keys []string) error {
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, k := range keys {
		if _, err := stmt.Exec(k); err != nil {
			return err
		}
	}
	return nil
}

func insertCounts(tx *sql.Tx, query string, counts map[string]int) error {
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for k, n := range counts {
		if _, err := stmt.Exec(k, n); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStorage) queryKeys(query string) ([]string, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStorage) queryCounts(query string) (map[string]int, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			k string
			n int
		)
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		counts[k] = n
	}
	return counts, rows.Err()
}
