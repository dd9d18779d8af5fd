// Package scraper sequences one crawl step: it turns a fetched page into
// statistics and a filtered list of links for the frontier.
//
// A Session is created at crawl start and shared by every worker. It owns
// the statistics accumulator for the run, so nothing is kept in globals and
// the lifecycle is explicit: build with NewSession, feed pages with Scrape,
// read with Snapshot, drop the Session when the crawl ends.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/masahif/focuscrawl/internal/config"
	"github.com/masahif/focuscrawl/internal/neardup"
	"github.com/masahif/focuscrawl/internal/parser"
	"github.com/masahif/focuscrawl/internal/scope"
	"github.com/masahif/focuscrawl/internal/stats"
	"github.com/masahif/focuscrawl/internal/textproc"
	"github.com/masahif/focuscrawl/internal/urlnorm"
)

// Response is what the fetcher hands to a crawl step
type Response struct {
	URL         string // Final URL after redirects; empty means the requested URL
	StatusCode  int
	ContentType string
	Body        []byte
	Err         error // Transport error, if any
}

// ContentFunc retrieves the page at url. It backs the near-duplicate
// comparison and may serve cached responses.
type ContentFunc func(ctx context.Context, url string) (*Response, error)

// Result describes what a crawl step did with one page
type Result struct {
	URL         string // Canonical URL of the page
	StatusCode  int
	Title       string
	ContentHash string
	Words       int      // Token count of the visible text
	Accepted    bool     // Whether the page reached the statistics
	Links       []string // Canonical links for the frontier, in discovery order
	Err         error
}

// Session holds the rules and the accumulated statistics of one crawl run
type Session struct {
	scope    *scope.Filter
	stats    *stats.Accumulator
	neardup  *neardup.Filter
	parser   *parser.HTMLParser
	minWords int
	maxWords int
	topWords int
	content  ContentFunc
	logger   *slog.Logger
}

// Option configures a Session
type Option func(*sessionOptions)

type sessionOptions struct {
	content     ContentFunc
	logger      *slog.Logger
	concurrency int
	accumulator *stats.Accumulator
}

// WithContent sets the content source used for near-duplicate comparison.
// Without one every candidate compares as empty and nothing is dropped.
func WithContent(fn ContentFunc) Option {
	return func(o *sessionOptions) {
		o.content = fn
	}
}

// WithLogger sets the session logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// WithCompareConcurrency bounds concurrent content fetches per link batch
func WithCompareConcurrency(n int) Option {
	return func(o *sessionOptions) {
		o.concurrency = n
	}
}

// WithAccumulator makes the session record into acc, typically one restored
// from a checkpoint
func WithAccumulator(acc *stats.Accumulator) Option {
	return func(o *sessionOptions) {
		o.accumulator = acc
	}
}

// NewSession builds a session from validated scope rules
func NewSession(cfg config.ScopeConfig, opts ...Option) (*Session, error) {
	o := sessionOptions{
		logger:      slog.Default(),
		concurrency: neardup.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	filter, err := scope.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build scope filter: %w", err)
	}

	acc := o.accumulator
	if acc == nil {
		acc = newAccumulator(cfg, filter)
	}

	return &Session{
		scope:    filter,
		stats:    acc,
		neardup:  neardup.New(cfg.SimilarityThreshold, neardup.WithConcurrency(o.concurrency), neardup.WithLogger(o.logger)),
		parser:   parser.NewHTMLParser(),
		minWords: cfg.MinWords,
		maxWords: cfg.MaxWords,
		topWords: cfg.TopWords,
		content:  o.content,
		logger:   o.logger,
	}, nil
}

// NewAccumulator creates an empty accumulator with the statistics settings
// of cfg. Only visited URLs inside the scope of cfg count as unique pages.
func NewAccumulator(cfg config.ScopeConfig) (*stats.Accumulator, error) {
	filter, err := scope.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build scope filter: %w", err)
	}
	return newAccumulator(cfg, filter), nil
}

func newAccumulator(cfg config.ScopeConfig, filter *scope.Filter) *stats.Accumulator {
	return stats.NewAccumulator(stats.Options{
		StopWords:     textproc.NewStopWords(cfg.StopWords),
		PrimaryDomain: cfg.PrimaryDomain,
		PrimaryAlias:  cfg.PrimaryAlias,
		Counted:       filter.InScope,
	})
}

// Accumulator returns the statistics of the session
func (s *Session) Accumulator() *stats.Accumulator {
	return s.stats
}

// Scope returns the compiled scope filter of the session
func (s *Session) Scope() *scope.Filter {
	return s.scope
}

// Snapshot returns the current statistics with the configured number of
// top words
func (s *Session) Snapshot() stats.Snapshot {
	return s.stats.Snapshot(s.topWords)
}

// Scrape processes the page fetched from rawURL and returns the canonical
// links worth enqueuing. It never fails: pages that cannot be used yield no
// links.
func (s *Session) Scrape(ctx context.Context, rawURL string, resp *Response) []string {
	return s.Process(ctx, rawURL, resp).Links
}

// Process is Scrape with the details of what happened to the page. The steps
// run in a fixed order:
//
//  1. canonicalize rawURL and mark it visited
//  2. stop on a failed fetch
//  3. extract text and links, stop when the word count is out of band
//  4. record the page in the statistics
//  5. canonicalize links and keep those this call claims as visited
//  6. drop near-duplicates among them
//  7. keep those in scope
func (s *Session) Process(ctx context.Context, rawURL string, resp *Response) (result *Result) {
	result = &Result{URL: rawURL}
	if resp != nil {
		result.StatusCode = resp.StatusCode
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from fault while scraping", "url", rawURL, "panic", r)
			result.Links = nil
			result.Err = fmt.Errorf("%w: %v", ErrScrapeFault, r)
		}
	}()

	pageURL, err := urlnorm.Canonicalize(rawURL)
	if err != nil {
		s.logger.Warn("Skipping page with malformed URL", "url", rawURL, "error", err)
		result.Err = err
		return result
	}
	result.URL = pageURL
	s.stats.RecordVisited(pageURL)

	if err := fetchError(resp); err != nil {
		s.logger.Debug("Skipping failed fetch", "url", pageURL, "error", err)
		result.Err = err
		return result
	}
	if final, err := urlnorm.Canonicalize(resp.URL); resp.URL != "" && err == nil && final != pageURL && s.scope.InScope(final) {
		s.stats.RecordVisited(final)
	}

	parsed, tokens, err := s.extract(resp)
	if parsed != nil {
		result.Title = parsed.Title
		result.ContentHash = parsed.ContentHash
	}
	result.Words = len(tokens)
	if err != nil {
		s.logger.Debug("Skipping page content", "url", pageURL, "words", len(tokens), "error", err)
		result.Err = err
		return result
	}

	result.Accepted = s.stats.RecordAccepted(stats.PageRecord{
		URL:        pageURL,
		StatusCode: resp.StatusCode,
		Text:       parsed.Text,
		Tokens:     tokens,
	})

	claimed := s.claimLinks(pageURL, resp.URL, parsed)
	unique := s.neardup.Apply(ctx, claimed, s.TokenSet)

	links := make([]string, 0, len(unique))
	for _, link := range unique {
		if verdict := s.scope.Check(link); verdict != scope.Accepted {
			s.logger.Debug("Link out of scope", "url", link, "reason", verdict.String())
			continue
		}
		links = append(links, link)
	}
	result.Links = links

	s.logger.Debug("Scraped page",
		"url", pageURL,
		"words", result.Words,
		"raw_links", len(parsed.Links),
		"claimed", len(claimed),
		"after_neardup", len(unique),
		"links", len(links))

	return result
}

// fetchError reports why resp cannot be used, or nil
func fetchError(resp *Response) error {
	switch {
	case resp == nil:
		return fmt.Errorf("%w: no response", ErrFetchFailed)
	case resp.Err != nil:
		return fmt.Errorf("%w: %v", ErrFetchFailed, resp.Err)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}
	return nil
}

// extract parses resp and tokenizes its visible text. The parse result is
// returned together with ErrContentOutOfBand so callers can still report
// on the page.
func (s *Session) extract(resp *Response) (*parser.ParseResult, []string, error) {
	parsed, err := s.parser.Parse(resp.Body, resp.ContentType)
	if err != nil {
		return nil, nil, err
	}

	tokens := textproc.Tokenize(parsed.Text)
	if n := len(tokens); n < s.minWords || (s.maxWords > 0 && n > s.maxWords) {
		return parsed, tokens, fmt.Errorf("%w: %d words", ErrContentOutOfBand, n)
	}
	return parsed, tokens, nil
}

// claimLinks canonicalizes the raw links of a page and returns, in order,
// those newly inserted into the visited set by this call. Links are resolved
// against <base href> when present, otherwise against the final URL.
func (s *Session) claimLinks(pageURL, finalURL string, parsed *parser.ParseResult) []string {
	base := s.linkBase(pageURL, finalURL, parsed.BaseHref)

	claimed := make([]string, 0, len(parsed.Links))
	for _, link := range parsed.Links {
		canonical, err := urlnorm.Normalize(link.Href, base)
		if err != nil {
			if !errors.Is(err, urlnorm.ErrMalformedURL) {
				s.logger.Warn("Unexpected link error", "href", link.Href, "error", err)
			}
			continue
		}
		if s.stats.RecordVisited(canonical) {
			claimed = append(claimed, canonical)
		}
	}
	return claimed
}

func (s *Session) linkBase(pageURL, finalURL, baseHref string) *url.URL {
	base, err := urlnorm.Base(finalURL)
	if err != nil {
		// pageURL is already canonical
		base, _ = url.Parse(pageURL)
	}

	if base != nil && baseHref != "" {
		if ref, err := url.Parse(baseHref); err == nil {
			base = base.ResolveReference(ref)
		}
	}
	return base
}

// TokenSet fetches the page at url through the content source and returns
// its lower-cased token set. It is the token source of the near-duplicate
// filter.
func (s *Session) TokenSet(ctx context.Context, url string) (textproc.TokenSet, error) {
	if s.content == nil {
		return nil, ErrNoContentSource
	}

	resp, err := s.content(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := fetchError(resp); err != nil {
		return nil, err
	}

	parsed, err := s.parser.Parse(resp.Body, resp.ContentType)
	if err != nil {
		return nil, err
	}
	return textproc.NewTokenSet(textproc.Tokenize(parsed.Text)), nil
}
