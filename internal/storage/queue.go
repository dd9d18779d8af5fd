package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/masahif/focuscrawl/internal/crawler"
)

// Enqueue inserts the URLs that have no row yet. URLs already known, in
// whatever state, are left alone.
func (s *SQLiteStorage) Enqueue(urls []string) (int, error) {
	if len(urls) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin enqueue: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert, err := tx.Prepare(`INSERT INTO pages (url, discovered_at) VALUES (?, ?) ON CONFLICT(url) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare enqueue: %w", err)
	}
	defer func() { _ = insert.Close() }()

	now := time.Now().UTC()
	added := 0
	for _, u := range urls {
		res, err := insert.Exec(u, now)
		if err != nil {
			return 0, fmt.Errorf("failed to enqueue %s: %w", u, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit enqueue: %w", err)
	}
	return added, nil
}

// Claim moves the earliest enqueued URL to processing and returns it. It
// returns nil, nil when nothing is queued.
func (s *SQLiteStorage) Claim() (*crawler.URLItem, error) {
	item := &crawler.URLItem{}
	err := s.db.QueryRow(`
		UPDATE pages SET state = 'processing', claimed_at = ?
		WHERE id = (SELECT MIN(id) FROM pages WHERE state = 'queued')
		RETURNING id, url`, time.Now().UTC()).Scan(&item.ID, &item.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim URL: %w", err)
	}
	return item, nil
}

// QueueStatus counts the rows per state
func (s *SQLiteStorage) QueueStatus() (crawler.QueueStatus, error) {
	var status crawler.QueueStatus

	rows, err := s.db.Query(`SELECT state, total FROM queue_status`)
	if err != nil {
		return status, fmt.Errorf("failed to read queue status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			state string
			total int
		)
		if err := rows.Scan(&state, &total); err != nil {
			return status, fmt.Errorf("failed to scan queue status: %w", err)
		}
		switch state {
		case "queued":
			status.Queued = total
		case "processing":
			status.Processing = total
		case "completed":
			status.Completed = total
		case "error":
			status.Errors = total
		}
	}
	return status, rows.Err()
}

// HasPending reports whether any URL is queued or claimed
func (s *SQLiteStorage) HasPending() (bool, error) {
	var pending bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM pages WHERE state IN ('queued', 'processing'))`).Scan(&pending)
	if err != nil {
		return false, fmt.Errorf("failed to check pending URLs: %w", err)
	}
	return pending, nil
}

// RequeueStale puts URLs claimed more than olderThan ago back in the queue.
// Zero requeues every claimed URL, as left behind by an interrupted run.
func (s *SQLiteStorage) RequeueStale(olderThan time.Duration) (int, error) {
	res, err := s.db.Exec(`
		UPDATE pages SET state = 'queued', claimed_at = NULL
		WHERE state = 'processing' AND claimed_at <= ?`, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale URLs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count requeued URLs: %w", err)
	}
	return int(n), nil
}
