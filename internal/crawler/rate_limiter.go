package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces requests to each host by at least the politeness
// delay, or by the host's robots.txt Crawl-delay when that is longer.
// Hosts are keyed by host and port, case-insensitively.
type RateLimiter struct {
	base time.Duration

	mu    sync.Mutex
	hosts map[string]*hostLimit
}

type hostLimit struct {
	*rate.Limiter
	delay time.Duration
}

// NewRateLimiter creates a limiter allowing one request per delay per host
func NewRateLimiter(delay time.Duration) *RateLimiter {
	return &RateLimiter{
		base:  delay,
		hosts: make(map[string]*hostLimit),
	}
}

// Wait blocks until a request to rawURL's host may go out, or ctx ends
func (r *RateLimiter) Wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return r.host(u.Host).Wait(ctx)
}

// SetDomainDelay raises the delay of host. A delay at or below the current
// one is ignored, so robots.txt can only slow the crawl down.
func (r *RateLimiter) SetDomainDelay(host string, delay time.Duration) {
	if delay <= r.base {
		return
	}

	h := r.host(host)

	r.mu.Lock()
	defer r.mu.Unlock()
	if delay > h.delay {
		h.delay = delay
		h.SetLimit(rate.Every(delay))
	}
}

// Delay returns the spacing applied to host
func (r *RateLimiter) Delay(host string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.hosts[strings.ToLower(host)]; ok {
		return h.delay
	}
	return r.base
}

func (r *RateLimiter) host(host string) *hostLimit {
	key := strings.ToLower(host)

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.hosts[key]
	if !ok {
		h = &hostLimit{Limiter: rate.NewLimiter(rate.Every(r.base), 1), delay: r.base}
		r.hosts[key] = h
	}
	return h
}
