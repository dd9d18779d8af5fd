// Package stats accumulates corpus statistics over one crawl run: the
// visited set, the word-frequency table, the longest page and per-subdomain
// page counts. An Accumulator is created at crawl start, shared by every
// crawl step, read through Snapshot and discarded when the run ends.
package stats

import (
	"net/url"
	"strings"
	"sync"

	"github.com/masahif/focuscrawl/internal/textproc"
)

// PageRecord is the transient result of one fetch
type PageRecord struct {
	URL        string   // Canonical URL of the page
	StatusCode int      // HTTP status code of the fetch
	Text       string   // Visible text extracted from the page
	Tokens     []string // Word tokens of Text, case preserved
}

// LongestPage records the page with the most tokens
type LongestPage struct {
	URL   string `yaml:"url"`
	Words int    `yaml:"words"`
}

// Options configures an Accumulator
type Options struct {
	StopWords     *textproc.StopWords // nil selects the default English list
	PrimaryDomain string              // root whose subdomains are tallied
	PrimaryAlias  string              // label excluded from the tally, e.g. "www"

	// Counted selects the visited URLs that count as unique pages. Visited
	// URLs it rejects still block re-claiming. nil counts every URL.
	Counted func(url string) bool
}

// Accumulator holds process-wide crawl statistics. All methods are safe for
// concurrent use; every mutation happens under a single mutex so that
// test-and-insert on the visited set and counter increments are atomic.
type Accumulator struct {
	mu         sync.Mutex
	visited    map[string]struct{}
	unique     int
	accepted   map[string]struct{}
	words      map[string]int
	subdomains map[string]int
	longest    LongestPage

	stopWords *textproc.StopWords
	counted   func(string) bool
	primary   string
	aliasHost string
}

// NewAccumulator creates an empty accumulator
func NewAccumulator(opts Options) *Accumulator {
	stopWords := opts.StopWords
	if stopWords == nil {
		stopWords = textproc.DefaultStopWords()
	}

	primary := strings.Trim(strings.ToLower(opts.PrimaryDomain), ".")
	var aliasHost string
	if primary != "" && opts.PrimaryAlias != "" {
		aliasHost = strings.ToLower(opts.PrimaryAlias) + "." + primary
	}

	return &Accumulator{
		visited:    make(map[string]struct{}),
		accepted:   make(map[string]struct{}),
		words:      make(map[string]int),
		subdomains: make(map[string]int),
		stopWords:  stopWords,
		counted:    opts.Counted,
		primary:    primary,
		aliasHost:  aliasHost,
	}
}

// RecordVisited inserts url into the visited set and reports whether it was
// newly inserted
func (a *Accumulator) RecordVisited(url string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.insertVisited(url)
}

// insertVisited adds url to the visited set; a.mu must be held
func (a *Accumulator) insertVisited(url string) bool {
	if _, ok := a.visited[url]; ok {
		return false
	}
	a.visited[url] = struct{}{}
	if a.counted == nil || a.counted(url) {
		a.unique++
	}
	return true
}

// Visited reports whether url is in the visited set
func (a *Accumulator) Visited(url string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.visited[url]
	return ok
}

// VisitedCount returns the size of the visited set
func (a *Accumulator) VisitedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.visited)
}

// UniqueCount returns how many visited URLs count as unique pages
func (a *Accumulator) UniqueCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.unique
}

// RecordAccepted folds an accepted page into the statistics. A page URL is
// counted at most once; later calls for the same URL return false and
// change nothing.
func (a *Accumulator) RecordAccepted(page PageRecord) bool {
	// Case folding and stop-word filtering need no lock
	counted := make([]string, 0, len(page.Tokens))
	for _, tok := range textproc.Lower(page.Tokens) {
		if !a.stopWords.Contains(tok) {
			counted = append(counted, tok)
		}
	}
	host := a.trackedHost(page.URL)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.accepted[page.URL]; ok {
		return false
	}
	a.accepted[page.URL] = struct{}{}
	a.insertVisited(page.URL)

	for _, tok := range counted {
		a.words[tok]++
	}

	if len(page.Tokens) > a.longest.Words {
		a.longest = LongestPage{URL: page.URL, Words: len(page.Tokens)}
	}

	if host != "" {
		a.subdomains[host]++
	}

	return true
}

// trackedHost returns the host of rawURL when it is a subdomain of the
// primary domain other than its alias, and "" otherwise
func (a *Accumulator) trackedHost(rawURL string) string {
	if a.primary == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	if !strings.HasSuffix(host, "."+a.primary) || host == a.aliasHost {
		return ""
	}
	return host
}
