package crawler

import "time"

// URLItem is a claimed frontier entry
type URLItem struct {
	ID  int
	URL string
}

// PageData is what gets stored for a page the crawl step ran on
type PageData struct {
	URL          string
	StatusCode   int
	Title        string
	ContentHash  string // SHA-256 of the visible text
	WordCount    int
	Accepted     bool // counted in the statistics
	LinksFound   int  // links handed back to the frontier
	TTFB         time.Duration
	DownloadTime time.Duration
	ResponseSize int64
	ContentType  string
	CrawledAt    time.Time
}

// Error types stored for URLs that were never fetched
const (
	ErrorTypeNetwork          = "network_error"
	ErrorTypeRobotsDisallowed = "robots_disallowed"
	ErrorTypeOutOfScope       = "out_of_scope"
)
