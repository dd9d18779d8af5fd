package crawler

import (
	"context"
	"time"

	"github.com/masahif/focuscrawl/internal/stats"
)

// Crawler is a crawl that can be started once and stopped from outside
type Crawler interface {
	Start(ctx context.Context, seedURLs []string) error
	Stop() error
	GetStats() CrawlStats
}

// Storage is the persistent frontier plus the accumulator checkpoint.
//
// Every URL moves through queued, processing and then either completed or
// error. A URL is enqueued at most once for the lifetime of the database.
type Storage interface {
	// Enqueue adds the URLs not seen before and reports how many were new
	Enqueue(urls []string) (int, error)
	// Claim hands out the oldest queued URL, or nil when none is queued
	Claim() (*URLItem, error)
	Complete(id int, page *PageData) error
	Fail(id int, errorType, message string) error

	QueueStatus() (QueueStatus, error)
	// HasPending reports whether any URL is queued or being processed
	HasPending() (bool, error)
	// RequeueStale returns URLs claimed longer than olderThan ago to the queue
	RequeueStale(olderThan time.Duration) (int, error)

	SaveState(state stats.State) error
	LoadState() (stats.State, error)

	Close() error
}

// QueueStatus counts frontier entries by lifecycle state
type QueueStatus struct {
	Queued     int
	Processing int
	Completed  int
	Errors     int
}

// CrawlStats counts the work done by one Start call
type CrawlStats struct {
	PagesCrawled  int
	PagesAccepted int
	ErrorCount    int
	StartTime     time.Time
	Duration      time.Duration
}
