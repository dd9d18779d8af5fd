package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// RobotsPolicy answers whether our user agent may fetch a URL. robots.txt
// is fetched once per host and the group that applies to us is kept.
//
// A missing robots.txt (4xx) allows everything. When robots.txt cannot be
// fetched or parsed the URL is allowed and the error returned for logging;
// the next URL of that host tries again.
type RobotsPolicy struct {
	client  *HTTPClient
	limiter *RateLimiter
	agent   string
	ignore  bool

	fetches singleflight.Group

	mu     sync.RWMutex
	groups map[string]*robotstxt.Group // by lower-cased host:port
}

// RobotsOption customizes a RobotsPolicy
type RobotsOption func(*RobotsPolicy)

// WithRobotsLimiter makes robots.txt fetches wait for their host in l, the
// same way page fetches do
func WithRobotsLimiter(l *RateLimiter) RobotsOption {
	return func(p *RobotsPolicy) {
		p.limiter = l
	}
}

// NewRobotsPolicy creates a policy for userAgent. With ignore set every URL
// is allowed and nothing is fetched.
func NewRobotsPolicy(client *HTTPClient, userAgent string, ignore bool, opts ...RobotsOption) *RobotsPolicy {
	p := &RobotsPolicy{
		client: client,
		agent:  userAgent,
		ignore: ignore,
		groups: make(map[string]*robotstxt.Group),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Allowed reports whether rawURL may be fetched
func (p *RobotsPolicy) Allowed(ctx context.Context, rawURL string) (bool, error) {
	if p.ignore {
		return true, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("invalid URL: %w", err)
	}

	group, err := p.group(ctx, u.Scheme, u.Host)
	if err != nil {
		return true, err
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return group.Test(path), nil
}

// CrawlDelay returns the Crawl-delay that robots.txt of host asks of us,
// or 0 when there is none or robots.txt was not fetched yet
func (p *RobotsPolicy) CrawlDelay(host string) time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if g, ok := p.groups[strings.ToLower(host)]; ok {
		return g.CrawlDelay
	}
	return 0
}

func (p *RobotsPolicy) group(ctx context.Context, scheme, host string) (*robotstxt.Group, error) {
	key := strings.ToLower(host)

	p.mu.RLock()
	g, ok := p.groups[key]
	p.mu.RUnlock()
	if ok {
		return g, nil
	}

	v, err, _ := p.fetches.Do(key, func() (any, error) {
		g, err := p.fetch(ctx, scheme+"://"+host+"/robots.txt")
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.groups[key] = g
		p.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*robotstxt.Group), nil
}

func (p *RobotsPolicy) fetch(ctx context.Context, robotsURL string) (*robotstxt.Group, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, robotsURL); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", robotsURL, err)
		}
	}

	resp, err := p.client.Get(ctx, robotsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", robotsURL, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("fetch %s: status %d", robotsURL, resp.StatusCode)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", robotsURL, err)
	}
	return data.FindGroup(p.agent), nil
}
