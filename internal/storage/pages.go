package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/masahif/focuscrawl/internal/crawler"
)

// Complete stores the outcome of the crawl step for a claimed URL
func (s *SQLiteStorage) Complete(id int, page *crawler.PageData) error {
	_, err := s.db.Exec(`
		UPDATE pages SET
			state = 'completed',
			attempts = attempts + 1,
			status_code = ?, title = ?, content_hash = ?,
			word_count = ?, accepted = ?, links_found = ?,
			content_type = ?, response_bytes = ?,
			ttfb_ms = ?, download_ms = ?, crawled_at = ?
		WHERE id = ?`,
		page.StatusCode, page.Title, nullIfEmpty(page.ContentHash),
		page.WordCount, page.Accepted, page.LinksFound,
		page.ContentType, page.ResponseSize,
		page.TTFB.Milliseconds(), page.DownloadTime.Milliseconds(), page.CrawledAt,
		id)
	if err != nil {
		return fmt.Errorf("failed to complete page %d: %w", id, err)
	}
	return nil
}

// Fail marks a claimed URL as never fetched
func (s *SQLiteStorage) Fail(id int, errorType, message string) error {
	_, err := s.db.Exec(`
		UPDATE pages SET
			state = 'error',
			attempts = attempts + 1,
			error_type = ?, error_message = ?
		WHERE id = ?`, errorType, message, id)
	if err != nil {
		return fmt.Errorf("failed to record error for page %d: %w", id, err)
	}
	return nil
}

// PageRecord is one row of the frontier as stored
type PageRecord struct {
	crawler.PageData
	State     string
	Attempts  int
	ErrorType string
}

// Page returns the stored row for url, or nil when url was never enqueued
func (s *SQLiteStorage) Page(url string) (*PageRecord, error) {
	var (
		rec         PageRecord
		statusCode  sql.NullInt64
		title       sql.NullString
		contentHash sql.NullString
		wordCount   sql.NullInt64
		accepted    sql.NullBool
		linksFound  sql.NullInt64
		errorType   sql.NullString
	)

	err := s.db.QueryRow(`
		SELECT url, state, attempts, status_code, title, content_hash,
		       word_count, accepted, links_found, error_type
		FROM pages WHERE url = ?`, url).Scan(
		&rec.URL, &rec.State, &rec.Attempts, &statusCode, &title, &contentHash,
		&wordCount, &accepted, &linksFound, &errorType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", url, err)
	}

	rec.StatusCode = int(statusCode.Int64)
	rec.Title = title.String
	rec.ContentHash = contentHash.String
	rec.WordCount = int(wordCount.Int64)
	rec.Accepted = accepted.Bool
	rec.LinksFound = int(linksFound.Int64)
	rec.ErrorType = errorType.String
	return &rec, nil
}

func nullIfEmpty(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
