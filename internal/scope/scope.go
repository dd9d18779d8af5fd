// Package scope decides, from a canonical URL alone, whether a link is worth
// following: it must use http(s), sit under an allowed domain, respect the
// path restriction of its domain, avoid known crawler traps and point at
// something other than a binary resource.
//
// A Filter is immutable once built, so every method is a pure function of
// its input and safe for concurrent use.
package scope

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/masahif/focuscrawl/internal/config"
)

// Verdict names the check that decided a URL's fate
type Verdict int

// Checks run in the order listed; the first failing one is reported
const (
	Accepted Verdict = iota
	RejectedMalformed
	RejectedScheme
	RejectedDomain
	RejectedPath
	RejectedTrap
	RejectedExtension
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case RejectedMalformed:
		return "malformed"
	case RejectedScheme:
		return "scheme"
	case RejectedDomain:
		return "domain"
	case RejectedPath:
		return "path"
	case RejectedTrap:
		return "trap"
	case RejectedExtension:
		return "extension"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

type restriction struct {
	domain string
	prefix string
}

// Filter applies compiled scope and trap rules
type Filter struct {
	domains        []string
	restricted     []restriction
	extensions     map[string]struct{}
	trapParams     map[string]struct{}
	trapSubstrings []string
	trapPatterns   []*regexp.Regexp
}

// New compiles the scope rules of cfg
func New(cfg config.ScopeConfig) (*Filter, error) {
	f := &Filter{
		extensions: make(map[string]struct{}, len(cfg.BinaryExtensions)),
		trapParams: make(map[string]struct{}, len(cfg.Traps.QueryParams)),
	}

	for _, d := range cfg.AllowedDomains {
		if d = normalizeDomain(d); d != "" {
			f.domains = append(f.domains, d)
		}
	}

	for _, rp := range cfg.RestrictedPaths {
		f.restricted = append(f.restricted, restriction{
			domain: normalizeDomain(rp.Domain),
			prefix: rp.PathPrefix,
		})
	}

	for _, ext := range cfg.BinaryExtensions {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			f.extensions[ext] = struct{}{}
		}
	}

	for _, p := range cfg.Traps.QueryParams {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			f.trapParams[p] = struct{}{}
		}
	}

	for _, s := range cfg.Traps.Substrings {
		if s = strings.ToLower(s); s != "" {
			f.trapSubstrings = append(f.trapSubstrings, s)
		}
	}

	for _, pattern := range cfg.Traps.Patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", config.ErrInvalidTrapPattern, pattern, err)
		}
		f.trapPatterns = append(f.trapPatterns, re)
	}

	return f, nil
}

// InScope reports whether the URL passes every check
func (f *Filter) InScope(rawURL string) bool {
	return f.Check(rawURL) == Accepted
}

// Check runs the checks in order and returns the first failure, or Accepted
func (f *Filter) Check(rawURL string) Verdict {
	u, err := url.Parse(rawURL)
	if err != nil {
		return RejectedMalformed
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return RejectedScheme
	}

	host := strings.ToLower(u.Hostname())
	if !f.allowedHost(host) {
		return RejectedDomain
	}

	for _, r := range f.restricted {
		if underDomain(host, r.domain) && !strings.HasPrefix(u.Path, r.prefix) {
			return RejectedPath
		}
	}

	if f.isTrap(rawURL, u) {
		return RejectedTrap
	}

	if f.isBinary(u.Path) {
		return RejectedExtension
	}

	return Accepted
}

// IsTrap reports whether the URL matches a trap marker, substring or pattern
func (f *Filter) IsTrap(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		u = nil
	}
	return f.isTrap(rawURL, u)
}

func (f *Filter) isTrap(rawURL string, u *url.URL) bool {
	lower := strings.ToLower(rawURL)
	for _, s := range f.trapSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}

	if u != nil && len(f.trapParams) > 0 {
		for key := range u.Query() {
			if _, ok := f.trapParams[strings.ToLower(key)]; ok {
				return true
			}
		}
	}

	for _, re := range f.trapPatterns {
		if re.MatchString(rawURL) {
			return true
		}
	}

	return false
}

func (f *Filter) allowedHost(host string) bool {
	if host == "" {
		return false
	}
	for _, d := range f.domains {
		if underDomain(host, d) {
			return true
		}
	}
	return false
}

// isBinary checks the extension of the final path segment
func (f *Filter) isBinary(p string) bool {
	ext := path.Ext(path.Base(p))
	if ext == "" {
		return false
	}
	_, ok := f.extensions[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ok
}

// underDomain matches the domain itself or any of its subdomains, on a
// label boundary
func underDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func normalizeDomain(d string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
}
