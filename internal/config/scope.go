package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// RestrictedPath limits a domain that is allowed by suffix to a path prefix
type RestrictedPath struct {
	Domain     string `mapstructure:"domain" yaml:"domain"`           // Host suffix the restriction applies to
	PathPrefix string `mapstructure:"path_prefix" yaml:"path_prefix"` // Required path prefix on that host
}

// TrapConfig lists the rules identifying crawler traps
type TrapConfig struct {
	QueryParams []string `mapstructure:"query_params" yaml:"query_params"` // Query parameter names that mark a trap
	Substrings  []string `mapstructure:"substrings" yaml:"substrings"`     // Literal substrings that mark a trap
	Patterns    []string `mapstructure:"patterns" yaml:"patterns"`         // Regular expressions matched against the URL
}

// ScopeConfig holds the rules deciding which links are followed and how
// page content is counted
type ScopeConfig struct {
	AllowedDomains   []string         `mapstructure:"allowed_domains" yaml:"allowed_domains"`
	RestrictedPaths  []RestrictedPath `mapstructure:"restricted_paths" yaml:"restricted_paths"`
	BinaryExtensions []string         `mapstructure:"binary_extensions" yaml:"binary_extensions"`
	Traps            TrapConfig       `mapstructure:"traps" yaml:"traps"`

	// Empty means the built-in English list
	StopWords []string `mapstructure:"stop_words" yaml:"stop_words,omitempty"`

	MinWords            int     `mapstructure:"min_words" yaml:"min_words"`
	MaxWords            int     `mapstructure:"max_words" yaml:"max_words"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`

	PrimaryDomain string `mapstructure:"primary_domain" yaml:"primary_domain"` // Root whose subdomains are tallied
	PrimaryAlias  string `mapstructure:"primary_alias" yaml:"primary_alias"`   // Label excluded from the tally, e.g. "www"
	TopWords      int    `mapstructure:"top_words" yaml:"top_words"`
}

// DatePathPattern matches a YYYY/MM/DD path segment run, including a day
// segment carrying an extension such as 15.html
const DatePathPattern = `/[0-2][0-9]{3}/(0[1-9]|1[0-2])/(0[1-9]|[12][0-9]|3[01])(?:[./?]|$)`

// DefaultScopeConfig returns the rules for the UCI ICS crawl
func DefaultScopeConfig() ScopeConfig {
	return ScopeConfig{
		AllowedDomains: []string{
			"ics.uci.edu",
			"cs.uci.edu",
			"informatics.uci.edu",
			"stat.uci.edu",
			"today.uci.edu",
		},
		RestrictedPaths: []RestrictedPath{
			{Domain: "today.uci.edu", PathPrefix: "/department/information_computer_sciences/"},
		},
		BinaryExtensions: []string{
			"css", "js", "bmp", "gif", "jpg", "jpeg", "ico",
			"png", "tif", "tiff", "mid", "mp2", "mp3", "mp4",
			"wav", "avi", "mov", "mpeg", "ram", "m4v", "mkv", "ogg", "ogv", "pdf",
			"ps", "eps", "tex", "ppt", "pptx", "doc", "docx", "xls", "xlsx", "names",
			"data", "dat", "exe", "bz2", "tar", "msi", "bin", "7z", "psd", "dmg", "iso",
			"epub", "dll", "cnf", "tgz", "sha1",
			"thmx", "mso", "arff", "rtf", "jar", "csv",
			"rm", "smil", "wmv", "swf", "wma", "zip", "rar", "gz",
		},
		Traps: TrapConfig{
			QueryParams: []string{"replytocom", "share", "action", "session", "sessionid", "sid", "phpsessid"},
			Substrings:  []string{"calendar", "replyto", ";jsessionid="},
			Patterns:    []string{DatePathPattern},
		},
		MinWords:            250,
		MaxWords:            50000,
		SimilarityThreshold: 0.90,
		PrimaryDomain:       "ics.uci.edu",
		PrimaryAlias:        "www",
		TopWords:            50,
	}
}

// Validate checks that the rules are usable
func (s *ScopeConfig) Validate() error {
	if len(s.AllowedDomains) == 0 {
		return ErrNoAllowedDomains
	}

	for _, domain := range s.AllowedDomains {
		if err := checkDomain(domain); err != nil {
			return err
		}
	}

	for _, rp := range s.RestrictedPaths {
		if rp.Domain == "" || !strings.HasPrefix(rp.PathPrefix, "/") {
			return fmt.Errorf("%w: %q -> %q", ErrInvalidRestrictedPath, rp.Domain, rp.PathPrefix)
		}
	}

	for _, pattern := range s.Traps.Patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidTrapPattern, pattern, err)
		}
	}

	if s.MinWords < 0 || (s.MaxWords > 0 && s.MinWords > s.MaxWords) {
		return ErrInvalidWordBand
	}

	if s.SimilarityThreshold <= 0 || s.SimilarityThreshold > 1 {
		return ErrInvalidSimilarityThreshold
	}

	if s.TopWords <= 0 {
		return ErrInvalidTopWords
	}

	return nil
}

// checkDomain rejects empty entries and bare public suffixes such as "edu"
// or "co.uk", which would put a whole registry in scope
func checkDomain(domain string) error {
	d := strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
	if d == "" {
		return fmt.Errorf("%w: empty domain", ErrInvalidDomain)
	}
	if net.ParseIP(d) != nil {
		return nil
	}
	if suffix, _ := publicsuffix.PublicSuffix(d); suffix == d {
		return fmt.Errorf("%w: %q is a public suffix", ErrInvalidDomain, domain)
	}
	return nil
}
