package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// robotsServer serves robots.txt with the given status and body and counts
// how often it was requested
func robotsServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		fetches.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &fetches
}

func newTestPolicy(userAgent string) *RobotsPolicy {
	return NewRobotsPolicy(NewHTTPClient(userAgent, 5*time.Second), userAgent, false)
}

func TestRobotsPolicyRules(t *testing.T) {
	server, _ := robotsServer(t, http.StatusOK, `
User-agent: *
Disallow: /admin/
Disallow: /private/
Allow: /private/public/
Disallow: /*.php$

User-agent: otherbot
Disallow: /

Sitemap: https://www.ics.uci.edu/sitemap.xml
`)
	policy := newTestPolicy("FocusCrawl/1.0")

	tests := []struct {
		path    string
		allowed bool
	}{
		{"/", true},
		{"/blog/post", true},
		{"/admin/page", false},
		{"/admin", true},
		{"/private/data", false},
		{"/private/public/page", true},
		{"/index.php", false},
		{"/index.php?page=2", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			allowed, err := policy.Allowed(context.Background(), server.URL+tt.path)
			if err != nil {
				t.Fatalf("Allowed: %v", err)
			}
			if allowed != tt.allowed {
				t.Errorf("Allowed(%s) = %v, want %v", tt.path, allowed, tt.allowed)
			}
		})
	}
}

func TestRobotsPolicyAgentGroup(t *testing.T) {
	server, _ := robotsServer(t, http.StatusOK, `
User-agent: *
Disallow: /

User-agent: FocusCrawl
Disallow: /private/
Crawl-delay: 4
`)
	host := mustHost(t, server.URL)

	t.Run("own group", func(t *testing.T) {
		policy := newTestPolicy("FocusCrawl/1.0 (+https://github.com/masahif/focuscrawl)")
		for path, want := range map[string]bool{"/": true, "/about": true, "/private/x": false} {
			if got, _ := policy.Allowed(context.Background(), server.URL+path); got != want {
				t.Errorf("Allowed(%s) = %v, want %v", path, got, want)
			}
		}
		if got := policy.CrawlDelay(host); got != 4*time.Second {
			t.Errorf("CrawlDelay = %v, want 4s", got)
		}
	})

	t.Run("wildcard group", func(t *testing.T) {
		policy := newTestPolicy("OtherCrawler/2.0")
		if got, _ := policy.Allowed(context.Background(), server.URL+"/about"); got {
			t.Errorf("Expected the wildcard group to disallow everything")
		}
		if got := policy.CrawlDelay(host); got != 0 {
			t.Errorf("CrawlDelay = %v, want 0", got)
		}
	})
}

func TestRobotsPolicyCrawlDelay(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		delay time.Duration
	}{
		{"whole seconds", "User-agent: *\nCrawl-delay: 5\n", 5 * time.Second},
		{"fractional", "User-agent: *\nCrawl-delay: 1.5\n", 1500 * time.Millisecond},
		{"absent", "User-agent: *\nDisallow: /admin/\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := robotsServer(t, http.StatusOK, tt.body)
			policy := newTestPolicy("FocusCrawl/1.0")
			host := mustHost(t, server.URL)

			if got := policy.CrawlDelay(host); got != 0 {
				t.Errorf("CrawlDelay before fetching = %v, want 0", got)
			}
			if _, err := policy.Allowed(context.Background(), server.URL+"/"); err != nil {
				t.Fatalf("Allowed: %v", err)
			}
			if got := policy.CrawlDelay(host); got != tt.delay {
				t.Errorf("CrawlDelay = %v, want %v", got, tt.delay)
			}
		})
	}
}

func TestRobotsPolicyUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"not found", http.StatusNotFound, false},
		{"forbidden", http.StatusForbidden, false},
		{"server error", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := robotsServer(t, tt.status, "User-agent: *\nDisallow: /\n")

			allowed, err := newTestPolicy("FocusCrawl/1.0").Allowed(context.Background(), server.URL+"/page")
			if !allowed {
				t.Errorf("Expected URL allowed when robots.txt is %d", tt.status)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("unreachable host", func(t *testing.T) {
		policy := newTestPolicy("FocusCrawl/1.0")
		allowed, err := policy.Allowed(context.Background(), "http://127.0.0.1:1/page")
		if !allowed || err == nil {
			t.Errorf("Expected allowed with an error, got %v (err=%v)", allowed, err)
		}
		if got := policy.CrawlDelay("127.0.0.1:1"); got != 0 {
			t.Errorf("CrawlDelay = %v, want 0", got)
		}
	})
}

func TestRobotsPolicyIgnore(t *testing.T) {
	server, fetches := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /\n")

	policy := NewRobotsPolicy(NewHTTPClient("FocusCrawl/1.0", 5*time.Second), "FocusCrawl/1.0", true)
	allowed, err := policy.Allowed(context.Background(), server.URL+"/admin/secret")
	if err != nil || !allowed {
		t.Errorf("Expected allowed when ignoring robots.txt, got %v (err=%v)", allowed, err)
	}
	if fetches.Load() != 0 {
		t.Errorf("robots.txt fetched %d times while ignored", fetches.Load())
	}
}

func TestRobotsPolicyFetchesOncePerHost(t *testing.T) {
	server, fetches := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /admin/\n")
	policy := newTestPolicy("FocusCrawl/1.0")

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := policy.Allowed(context.Background(), server.URL+"/admin/x"); allowed {
				t.Error("Expected /admin/x to be disallowed")
			}
		}()
	}
	wg.Wait()

	if allowed, _ := policy.Allowed(context.Background(), server.URL+"/people"); !allowed {
		t.Error("Expected /people to be allowed")
	}
	if n := fetches.Load(); n != 1 {
		t.Errorf("Expected robots.txt fetched once, got %d", n)
	}
}

func mustHost(t *testing.T, rawURL string) string {
	t.Helper()

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", rawURL, err)
	}
	return u.Host
}

func TestRobotsPolicyWaitsForHost(t *testing.T) {
	server, fetches := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /admin/\n")

	const delay = 300 * time.Millisecond
	limiter := NewRateLimiter(delay)
	client := NewHTTPClient("FocusCrawl/1.0", 5*time.Second)
	policy := NewRobotsPolicy(client, "FocusCrawl/1.0", false, WithRobotsLimiter(limiter))

	// A page request to the host just went out
	if err := limiter.Wait(context.Background(), server.URL+"/"); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	start := time.Now()
	if allowed, err := policy.Allowed(context.Background(), server.URL+"/people"); err != nil || !allowed {
		t.Fatalf("Allowed = %v (err=%v)", allowed, err)
	}
	if elapsed := time.Since(start); elapsed < delay-50*time.Millisecond {
		t.Errorf("robots.txt fetched after %v, want the %v host delay", elapsed, delay)
	}

	t.Run("cancelled wait", func(t *testing.T) {
		other, _ := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /\n")
		_ = limiter.Wait(context.Background(), other.URL+"/")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		allowed, err := policy.Allowed(ctx, other.URL+"/x")
		if err == nil || !allowed {
			t.Errorf("Expected allowed with an error while waiting, got %v (err=%v)", allowed, err)
		}
	})

	if n := fetches.Load(); n != 1 {
		t.Errorf("Expected robots.txt fetched once, got %d", n)
	}
}
