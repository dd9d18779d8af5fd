// Package crawler runs a focused crawl: workers take URLs from the
// persistent queue, fetch them politely and hand every response to a
// scraper.Session, whose returned links go back into the queue.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/masahif/focuscrawl/internal/config"
	"github.com/masahif/focuscrawl/internal/scope"
	"github.com/masahif/focuscrawl/internal/scraper"
	"github.com/masahif/focuscrawl/internal/urlnorm"
)

// DefaultCheckpointInterval is how often statistics are logged and saved
const DefaultCheckpointInterval = 10 * time.Second

// DefaultCrawler implements Crawler on top of a Storage frontier
type DefaultCrawler struct {
	cfg     *config.CrawlConfig
	store   Storage
	session *scraper.Session
	client  *HTTPClient
	cache   *ContentCache

	checkpointEvery time.Duration

	mu     sync.Mutex
	stats  CrawlStats
	cancel context.CancelFunc
}

// NewCrawler creates a crawler for cfg. Statistics checkpointed in store
// by an earlier run are restored so a resumed crawl keeps counting where it
// stopped.
func NewCrawler(cfg *config.CrawlConfig, store Storage) (*DefaultCrawler, error) {
	state, err := store.LoadState()
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	acc, err := scraper.NewAccumulator(cfg.Scope)
	if err != nil {
		return nil, err
	}
	acc.Restore(state)

	client := NewHTTPClient(cfg.UserAgent, cfg.RequestTimeout, WithMaxBodySize(cfg.MaxBodySize))
	limiter := NewRateLimiter(cfg.RequestDelay)
	robots := NewRobotsPolicy(client, cfg.UserAgent, cfg.IgnoreRobots, WithRobotsLimiter(limiter))

	// allow runs only once the session below exists
	var session *scraper.Session
	cache := NewContentCache(client, limiter, robots, cfg.CacheSize, func(u string) bool {
		return session.Scope().InScope(u)
	})

	session, err = scraper.NewSession(cfg.Scope,
		scraper.WithAccumulator(acc),
		scraper.WithContent(cache.Content),
		scraper.WithCompareConcurrency(cfg.Concurrency),
	)
	if err != nil {
		return nil, err
	}

	if len(state.Visited) > 0 {
		slog.Info("Restored checkpoint", "visited", len(state.Visited), "accepted", len(state.Accepted))
	}

	return &DefaultCrawler{
		cfg:             cfg,
		store:           store,
		session:         session,
		client:          client,
		cache:           cache,
		checkpointEvery: DefaultCheckpointInterval,
		stats:           CrawlStats{StartTime: time.Now()},
	}, nil
}

// Session returns the crawl session holding the statistics
func (c *DefaultCrawler) Session() *scraper.Session {
	return c.session
}

// Start crawls from seedURLs, or from what is left in the queue when there
// are none, until the frontier is drained, the page limit is hit or ctx is
// cancelled. The statistics are checkpointed periodically and once more
// before Start returns.
func (c *DefaultCrawler) Start(ctx context.Context, seedURLs []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	requeued, err := c.store.RequeueStale(0)
	if err != nil {
		return fmt.Errorf("failed to requeue interrupted URLs: %w", err)
	}
	if requeued > 0 {
		slog.Info("Requeued URLs of an interrupted run", "count", requeued)
	}

	if len(seedURLs) == 0 {
		slog.Info("Starting crawler - resuming from existing queue")
	} else {
		seeds := c.claimSeeds(seedURLs)
		added, err := c.store.Enqueue(seeds)
		if err != nil {
			return fmt.Errorf("failed to enqueue seed URLs: %w", err)
		}
		slog.Info("Starting crawler", "seed_urls", len(seedURLs), "enqueued", added)
	}

	done := make(chan struct{})
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		c.reportProgress(done)
	}()

	var g errgroup.Group
	for id := range c.cfg.Concurrency {
		g.Go(func() error {
			c.work(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	close(done)
	<-reporterDone

	if ctx.Err() != nil {
		slog.Info("Crawling cancelled")
	} else {
		slog.Info("Crawling completed")
	}
	return c.checkpoint()
}

// claimSeeds canonicalizes the seeds and marks the in-scope ones visited
func (c *DefaultCrawler) claimSeeds(seedURLs []string) []string {
	var urls []string
	for _, seed := range seedURLs {
		canonical, err := urlnorm.Canonicalize(seed)
		if err != nil {
			slog.Warn("Skipping malformed seed URL", "url", seed, "error", err)
			continue
		}
		if verdict := c.session.Scope().Check(canonical); verdict != scope.Accepted {
			slog.Warn("Skipping out-of-scope seed URL", "url", canonical, "reason", verdict.String())
			continue
		}
		c.session.Accumulator().RecordVisited(canonical)
		urls = append(urls, canonical)
	}
	return urls
}

// Stop cancels a running Start and releases idle connections
func (c *DefaultCrawler) Stop() error {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.client.Close()
	return nil
}

// GetStats returns the counters of the current run
func (c *DefaultCrawler) GetStats() CrawlStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// work claims and visits URLs until ctx ends, the limit is reached or no
// URL is queued or in progress anywhere
func (c *DefaultCrawler) work(ctx context.Context, id int) {
	log := slog.With("worker_id", id)
	log.Debug("Worker started")
	defer log.Debug("Worker stopped")

	for ctx.Err() == nil {
		if c.limitReached() {
			log.Info("Worker reached limit")
			return
		}

		item, err := c.store.Claim()
		switch {
		case err != nil:
			log.Error("Worker failed to claim URL", "error", err)
		case item != nil:
			c.visit(ctx, log, item)
			continue
		case c.drained(log):
			log.Debug("Frontier drained")
			return
		}
		pause(ctx, c.cfg.RequestDelay)
	}
}

// limitReached reports whether pages plus failures hit the configured limit
func (c *DefaultCrawler) limitReached() bool {
	if c.cfg.Limit <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.PagesCrawled+c.stats.ErrorCount >= c.cfg.Limit
}

// drained reports whether nothing is queued and no worker holds a URL
// that could still produce links
func (c *DefaultCrawler) drained(log *slog.Logger) bool {
	pending, err := c.store.HasPending()
	if err != nil {
		log.Error("Failed to check queue", "error", err)
		return false
	}
	return !pending
}

func pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// visit fetches one claimed URL and runs the crawl step on the outcome
func (c *DefaultCrawler) visit(ctx context.Context, log *slog.Logger, item *URLItem) {
	resp, err := c.cache.Get(ctx, item.URL)
	c.cache.Forget(item.URL)

	if err != nil {
		if ctx.Err() != nil {
			// Stays claimed; RequeueStale picks it up on the next run
			return
		}
		c.session.Process(ctx, item.URL, &scraper.Response{Err: err})
		c.fail(log, item, err)
		return
	}

	result := c.session.Process(ctx, item.URL, resp.ScraperResponse())
	c.complete(log, item, resp, result)
}

func (c *DefaultCrawler) fail(log *slog.Logger, item *URLItem, err error) {
	var errorType string
	switch {
	case errors.Is(err, ErrRobotsDisallowed):
		errorType = ErrorTypeRobotsDisallowed
		log.Info("URL disallowed by robots.txt", "url", item.URL)
	case errors.Is(err, ErrOutOfScope):
		errorType = ErrorTypeOutOfScope
		log.Info("URL out of scope", "url", item.URL)
	default:
		errorType = ErrorTypeNetwork
		log.Error("Worker failed to fetch URL", "url", item.URL, "error", err)
	}

	if err := c.store.Fail(item.ID, errorType, err.Error()); err != nil {
		log.Error("Worker failed to save page error", "url", item.URL, "error", err)
	}

	c.mu.Lock()
	c.stats.ErrorCount++
	c.mu.Unlock()
}

func (c *DefaultCrawler) complete(log *slog.Logger, item *URLItem, resp *HTTPResponse, result *scraper.Result) {
	if len(result.Links) > 0 {
		added, err := c.store.Enqueue(result.Links)
		if err != nil {
			log.Error("Worker failed to enqueue links", "url", item.URL, "error", err)
		} else {
			log.Debug("Enqueued links", "url", item.URL, "new", added)
		}
	}

	page := &PageData{
		URL:          result.URL,
		StatusCode:   resp.StatusCode,
		Title:        result.Title,
		ContentHash:  result.ContentHash,
		WordCount:    result.Words,
		Accepted:     result.Accepted,
		LinksFound:   len(result.Links),
		TTFB:         resp.Metrics.TTFB,
		DownloadTime: resp.Metrics.DownloadTime,
		ResponseSize: int64(len(resp.Body)),
		ContentType:  resp.ContentType,
		CrawledAt:    time.Now().UTC(),
	}
	if err := c.store.Complete(item.ID, page); err != nil {
		log.Error("Worker failed to save page", "url", item.URL, "error", err)
	}

	c.mu.Lock()
	c.stats.PagesCrawled++
	if result.Accepted {
		c.stats.PagesAccepted++
	}
	c.mu.Unlock()

	attrs := []any{"url", item.URL, "status", resp.StatusCode, "words", result.Words, "links", len(result.Links)}
	if result.Err != nil {
		attrs = append(attrs, "skipped", result.Err.Error())
	}
	log.Info("Worker processed URL", attrs...)
}

// reportProgress logs the crawl counters and checkpoints the statistics on
// every tick until done is closed
func (c *DefaultCrawler) reportProgress(done <-chan struct{}) {
	ticker := time.NewTicker(c.checkpointEvery)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		queue, err := c.store.QueueStatus()
		if err != nil {
			slog.Error("Failed to get queue status", "error", err)
			continue
		}

		s := c.GetStats()
		slog.Info("Crawling stats",
			"crawled", s.PagesCrawled,
			"accepted", s.PagesAccepted,
			"unique_pages", c.session.Accumulator().UniqueCount(),
			"queued", queue.Queued,
			"processing", queue.Processing,
			"completed", queue.Completed,
			"errors", queue.Errors,
			"duration", s.Duration)

		if err := c.checkpoint(); err != nil {
			slog.Error("Failed to save checkpoint", "error", err)
		}
	}
}

func (c *DefaultCrawler) checkpoint() error {
	if err := c.store.SaveState(c.session.Accumulator().Export()); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
