package crawler

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/masahif/focuscrawl/internal/scraper"
)

var (
	// ErrNotFetchable is returned for URLs the crawler must not request
	ErrNotFetchable = errors.New("URL not fetchable")

	// ErrOutOfScope marks a URL rejected by the scope rules
	ErrOutOfScope = errors.New("out of scope")

	// ErrRobotsDisallowed marks a URL disallowed by robots.txt
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
)

// ContentCache is the single path through which the crawler requests
// pages. It checks scope and robots.txt, waits for the host's rate limit,
// lets concurrent callers share one request per URL and keeps the most
// recent responses so a page compared for near-duplicates is not fetched
// again when its turn in the queue comes.
type ContentCache struct {
	client  *HTTPClient
	limiter *RateLimiter
	robots  *RobotsPolicy
	allow   func(url string) bool

	group singleflight.Group

	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front is most recently used
}

type cacheEntry struct {
	url  string
	resp *HTTPResponse
}

// NewContentCache creates a cache holding up to capacity responses. allow
// reports whether a URL is in scope; nil allows everything.
func NewContentCache(client *HTTPClient, limiter *RateLimiter, robots *RobotsPolicy, capacity int, allow func(string) bool) *ContentCache {
	if capacity < 0 {
		capacity = 0
	}
	return &ContentCache{
		client:   client,
		limiter:  limiter,
		robots:   robots,
		allow:    allow,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the response for url, from the cache when present
func (c *ContentCache) Get(ctx context.Context, url string) (*HTTPResponse, error) {
	if resp, ok := c.lookup(url); ok {
		return resp, nil
	}

	v, err, shared := c.group.Do(url, func() (any, error) {
		if resp, ok := c.lookup(url); ok {
			return resp, nil
		}

		resp, err := c.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		c.store(url, resp)
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("Shared in-flight fetch", "url", url)
	}
	return v.(*HTTPResponse), nil
}

// Content adapts Get to the crawl step's content source. Refused and failed
// fetches are reported as errors, which the near-duplicate filter treats as
// empty content.
func (c *ContentCache) Content(ctx context.Context, url string) (*scraper.Response, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.ScraperResponse(), nil
}

// Forget drops url from the cache
func (c *ContentCache) Forget(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[url]; ok {
		c.order.Remove(el)
		delete(c.entries, url)
	}
}

// Len returns the number of cached responses
func (c *ContentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// fetch checks the URL, waits for its host and performs the request
func (c *ContentCache) fetch(ctx context.Context, rawURL string) (*HTTPResponse, error) {
	if c.allow != nil && !c.allow(rawURL) {
		return nil, fmt.Errorf("%w: %w", ErrNotFetchable, ErrOutOfScope)
	}

	if c.robots != nil {
		allowed, err := c.robots.Allowed(ctx, rawURL)
		if err != nil {
			slog.Warn("Robots.txt check failed", "url", rawURL, "error", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %w", ErrNotFetchable, ErrRobotsDisallowed)
		}

		if u, err := url.Parse(rawURL); err == nil && c.limiter != nil {
			c.limiter.SetDomainDelay(u.Host, c.robots.CrawlDelay(u.Host))
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	return c.client.Get(ctx, rawURL)
}

func (c *ContentCache) lookup(url string) (*HTTPResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).resp, true
}

func (c *ContentCache) store(url string, resp *HTTPResponse) {
	if c.capacity == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[url]; ok {
		el.Value.(*cacheEntry).resp = resp
		c.order.MoveToFront(el)
		return
	}

	c.entries[url] = c.order.PushFront(&cacheEntry{url: url, resp: resp})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).url)
	}
}
