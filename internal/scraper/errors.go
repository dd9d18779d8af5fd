package scraper

import "errors"

var (
	// ErrFetchFailed marks a page whose status was not 200 or whose fetch
	// returned a transport error
	ErrFetchFailed = errors.New("fetch failed")

	// ErrContentOutOfBand marks a page whose word count falls outside the
	// accepted band
	ErrContentOutOfBand = errors.New("word count outside accepted band")

	// ErrNoContentSource is returned by TokenSet when the session was built
	// without a content source
	ErrNoContentSource = errors.New("no content source configured")

	// ErrScrapeFault wraps a panic recovered while processing a page
	ErrScrapeFault = errors.New("fault while scraping page")
)
