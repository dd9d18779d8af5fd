// Package config holds the crawler settings: how to fetch, where to store
// and report, and the link-selection rules applied to every page.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Report formats accepted by ReportFormat
const (
	ReportFormatText     = "text"
	ReportFormatMarkdown = "markdown"
	ReportFormatYAML     = "yaml"
)

// MinRequestDelay is the smallest delay between two requests to one host
const MinRequestDelay = 100 * time.Millisecond

// CrawlConfig holds crawler configuration
type CrawlConfig struct {
	SeedURLs       []string      `mapstructure:"seed_urls" yaml:"seed_urls"`
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`
	RequestDelay   time.Duration `mapstructure:"request_delay" yaml:"request_delay"` // per host
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
	IgnoreRobots   bool          `mapstructure:"ignore_robots" yaml:"ignore_robots"`
	Limit          int           `mapstructure:"limit" yaml:"limit"`                 // pages plus failures, 0 = no limit
	CacheSize      int           `mapstructure:"cache_size" yaml:"cache_size"`       // responses kept for reuse
	MaxBodySize    int64         `mapstructure:"max_body_size" yaml:"max_body_size"` // bytes read per response

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	ReportPath   string `mapstructure:"report_path" yaml:"report_path"` // empty for stdout
	ReportFormat string `mapstructure:"report_format" yaml:"report_format"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file"`

	Scope ScopeConfig `mapstructure:"scope" yaml:"scope"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() *CrawlConfig {
	return &CrawlConfig{
		Concurrency:    4,
		RequestDelay:   500 * time.Millisecond,
		RequestTimeout: 30 * time.Second,
		UserAgent:      "FocusCrawl/1.0",
		CacheSize:      512,
		MaxBodySize:    10 << 20,
		DatabasePath:   "./focuscrawl.db",
		ReportFormat:   ReportFormatText,
		LogLevel:       "info",
		LogFormat:      "json",
		Scope:          DefaultScopeConfig(),
	}
}

// Validate reports every invalid setting at once. A request delay below
// MinRequestDelay is raised to it rather than rejected.
func (c *CrawlConfig) Validate() error {
	var errs []error
	check := func(ok bool, err error) {
		if !ok {
			errs = append(errs, err)
		}
	}

	check(c.Concurrency > 0, ErrInvalidConcurrency)
	check(c.RequestTimeout > 0, ErrInvalidTimeout)
	check(c.CacheSize >= 0, ErrInvalidCacheSize)
	check(c.MaxBodySize >= 0, ErrInvalidMaxBodySize)
	check(c.DatabasePath != "", ErrEmptyDatabasePath)

	switch strings.ToLower(c.ReportFormat) {
	case ReportFormatText, ReportFormatMarkdown, ReportFormatYAML:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidReportFormat, c.ReportFormat))
	}

	if err := c.Scope.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.RequestDelay < MinRequestDelay {
		c.RequestDelay = MinRequestDelay
	}
	return errors.Join(errs...)
}
