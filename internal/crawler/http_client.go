package crawler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/masahif/focuscrawl/internal/scraper"
)

// Client defaults
const (
	DefaultMaxBodySize  = 10 << 20
	DefaultMaxRedirects = 10
)

// ErrTooManyRedirects is returned when a fetch exceeds the redirect limit
var ErrTooManyRedirects = errors.New("too many redirects")

// HTTPClient fetches pages with a fixed User-Agent, a body size cap and
// per-request timings
type HTTPClient struct {
	client       *http.Client
	userAgent    string
	maxBodySize  int64
	maxRedirects int
}

// ClientOption customizes an HTTPClient
type ClientOption func(*HTTPClient)

// WithMaxBodySize caps how many body bytes are read; n <= 0 keeps the default
func WithMaxBodySize(n int64) ClientOption {
	return func(h *HTTPClient) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}

// WithMaxRedirects sets how many redirects a fetch follows
func WithMaxRedirects(n int) ClientOption {
	return func(h *HTTPClient) {
		h.maxRedirects = n
	}
}

// HTTPMetrics are the timings of one request. Phases that did not happen,
// such as DNS for an IP literal or TLS for plain HTTP, stay zero.
type HTTPMetrics struct {
	DNSLookup    time.Duration
	TCPConnect   time.Duration
	TLSHandshake time.Duration
	TTFB         time.Duration
	DownloadTime time.Duration
}

// HTTPResponse is a fetched page
type HTTPResponse struct {
	StatusCode  int
	Body        []byte
	ContentType string
	Truncated   bool // body cut at the size cap
	Metrics     HTTPMetrics
	FinalURL    string // after redirects
}

// NewHTTPClient creates a client whose requests time out after timeout
func NewHTTPClient(userAgent string, timeout time.Duration, opts ...ClientOption) *HTTPClient {
	h := &HTTPClient{
		userAgent:    userAgent,
		maxBodySize:  DefaultMaxBodySize,
		maxRedirects: DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= h.maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
	return h
}

// requestTimer records the phases of a request through httptrace
type requestTimer struct {
	start     time.Time
	dns       time.Time
	connect   time.Time
	handshake time.Time
	metrics   HTTPMetrics
}

func (rt *requestTimer) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { rt.dns = time.Now() },
		DNSDone:  func(httptrace.DNSDoneInfo) { rt.metrics.DNSLookup = time.Since(rt.dns) },

		ConnectStart: func(string, string) { rt.connect = time.Now() },
		ConnectDone:  func(string, string, error) { rt.metrics.TCPConnect = time.Since(rt.connect) },

		TLSHandshakeStart: func() { rt.handshake = time.Now() },
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			rt.metrics.TLSHandshake = time.Since(rt.handshake)
		},

		GotFirstResponseByte: func() { rt.metrics.TTFB = time.Since(rt.start) },
	}
}

// Get fetches url. Any HTTP status is a response; only transport failures,
// redirect loops and unreadable bodies are errors.
func (h *HTTPClient) Get(ctx context.Context, url string) (*HTTPResponse, error) {
	timer := &requestTimer{}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, timer.trace()), http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	timer.start = time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, truncated, err := readCapped(resp.Body, h.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	timer.metrics.DownloadTime = time.Since(timer.start)

	return &HTTPResponse{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Truncated:   truncated,
		Metrics:     timer.metrics,
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// readCapped reads at most limit bytes of r and reports whether more followed
func readCapped(r io.Reader, limit int64) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

// ScraperResponse converts the response for a crawl step
func (r *HTTPResponse) ScraperResponse() *scraper.Response {
	return &scraper.Response{
		URL:         r.FinalURL,
		StatusCode:  r.StatusCode,
		ContentType: r.ContentType,
		Body:        r.Body,
	}
}

// Close drops idle connections
func (h *HTTPClient) Close() {
	h.client.CloseIdleConnections()
}
