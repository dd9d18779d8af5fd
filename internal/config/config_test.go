package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Concurrency != 4 {
		t.Errorf("Expected concurrency 4, got %d", cfg.Concurrency)
	}

	if cfg.RequestDelay != 500*time.Millisecond {
		t.Errorf("Expected request delay 500ms, got %v", cfg.RequestDelay)
	}

	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected request timeout 30s, got %v", cfg.RequestTimeout)
	}

	if cfg.UserAgent != "FocusCrawl/1.0" {
		t.Errorf("Expected user agent 'FocusCrawl/1.0', got %s", cfg.UserAgent)
	}

	if cfg.IgnoreRobots {
		t.Errorf("Expected ignore robots false, got %v", cfg.IgnoreRobots)
	}

	if cfg.Limit != 0 {
		t.Errorf("Expected limit 0, got %d", cfg.Limit)
	}

	if cfg.DatabasePath != "./focuscrawl.db" {
		t.Errorf("Expected database path './focuscrawl.db', got %s", cfg.DatabasePath)
	}

	if cfg.MaxBodySize != 10<<20 {
		t.Errorf("Expected max body size 10MiB, got %d", cfg.MaxBodySize)
	}

	if cfg.ReportFormat != ReportFormatText {
		t.Errorf("Expected report format text, got %s", cfg.ReportFormat)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestConfigValidateReportsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Concurrency = -1
	cfg.MaxBodySize = -1
	cfg.ReportFormat = "csv"
	cfg.Scope.TopWords = 0

	err := cfg.Validate()
	for _, want := range []error{ErrInvalidConcurrency, ErrInvalidMaxBodySize, ErrInvalidReportFormat, ErrInvalidTopWords} {
		if !errors.Is(err, want) {
			t.Errorf("Validate() = %v, missing %v", err, want)
		}
	}
	if errors.Is(err, ErrInvalidTimeout) {
		t.Errorf("Validate() reported a valid timeout: %v", err)
	}
}

func TestDefaultScopeConfig(t *testing.T) {
	scope := DefaultScopeConfig()

	if len(scope.AllowedDomains) != 5 {
		t.Errorf("Expected 5 allowed domains, got %d", len(scope.AllowedDomains))
	}
	if scope.MinWords != 250 {
		t.Errorf("Expected min words 250, got %d", scope.MinWords)
	}
	if scope.SimilarityThreshold != 0.90 {
		t.Errorf("Expected similarity threshold 0.90, got %v", scope.SimilarityThreshold)
	}
	if scope.PrimaryDomain != "ics.uci.edu" || scope.PrimaryAlias != "www" {
		t.Errorf("Unexpected primary domain %q alias %q", scope.PrimaryDomain, scope.PrimaryAlias)
	}
	if scope.TopWords != 50 {
		t.Errorf("Expected top words 50, got %d", scope.TopWords)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *CrawlConfig
		wantErr error
	}{
		{
			name:    "valid config",
			config:  DefaultConfig(),
			wantErr: nil,
		},
		{
			name: "invalid concurrency",
			config: &CrawlConfig{
				Concurrency:    0,
				RequestTimeout: 30 * time.Second,
				DatabasePath:   "./test.db",
				ReportFormat:   ReportFormatText,
				Scope:          DefaultScopeConfig(),
			},
			wantErr: ErrInvalidConcurrency,
		},
		{
			name: "invalid timeout",
			config: &CrawlConfig{
				Concurrency:    10,
				RequestTimeout: 0,
				DatabasePath:   "./test.db",
				ReportFormat:   ReportFormatText,
				Scope:          DefaultScopeConfig(),
			},
			wantErr: ErrInvalidTimeout,
		},
		{
			name: "empty database path",
			config: &CrawlConfig{
				Concurrency:    10,
				RequestTimeout: 30 * time.Second,
				DatabasePath:   "",
				ReportFormat:   ReportFormatText,
				Scope:          DefaultScopeConfig(),
			},
			wantErr: ErrEmptyDatabasePath,
		},
		{
			name: "unknown report format",
			config: &CrawlConfig{
				Concurrency:    10,
				RequestTimeout: 30 * time.Second,
				DatabasePath:   "./test.db",
				ReportFormat:   "html",
				Scope:          DefaultScopeConfig(),
			},
			wantErr: ErrInvalidReportFormat,
		},
		{
			name: "minimum delay enforcement",
			config: &CrawlConfig{
				Concurrency:    10,
				RequestDelay:   50 * time.Millisecond,
				RequestTimeout: 30 * time.Second,
				DatabasePath:   "./test.db",
				ReportFormat:   ReportFormatMarkdown,
				Scope:          DefaultScopeConfig(),
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.name == "minimum delay enforcement" && tt.config.RequestDelay < MinRequestDelay {
				t.Errorf("Expected minimum delay to be enforced, got %v", tt.config.RequestDelay)
			}
		})
	}
}

func TestScopeConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *ScopeConfig)
		wantErr error
	}{
		{"defaults", func(s *ScopeConfig) {}, nil},
		{"empty allow-list", func(s *ScopeConfig) { s.AllowedDomains = nil }, ErrNoAllowedDomains},
		{"public suffix", func(s *ScopeConfig) { s.AllowedDomains = []string{"edu"} }, ErrInvalidDomain},
		{"multi-label public suffix", func(s *ScopeConfig) { s.AllowedDomains = []string{"co.uk"} }, ErrInvalidDomain},
		{"blank domain", func(s *ScopeConfig) { s.AllowedDomains = []string{"  "} }, ErrInvalidDomain},
		{"ip address", func(s *ScopeConfig) { s.AllowedDomains = []string{"127.0.0.1"} }, nil},
		{"relative restricted prefix", func(s *ScopeConfig) {
			s.RestrictedPaths = []RestrictedPath{{Domain: "today.uci.edu", PathPrefix: "department"}}
		}, ErrInvalidRestrictedPath},
		{"bad trap regex", func(s *ScopeConfig) { s.Traps.Patterns = []string{"(unclosed"} }, ErrInvalidTrapPattern},
		{"inverted word band", func(s *ScopeConfig) { s.MinWords, s.MaxWords = 100, 10 }, ErrInvalidWordBand},
		{"unbounded max words", func(s *ScopeConfig) { s.MaxWords = 0 }, nil},
		{"zero threshold", func(s *ScopeConfig) { s.SimilarityThreshold = 0 }, ErrInvalidSimilarityThreshold},
		{"threshold above one", func(s *ScopeConfig) { s.SimilarityThreshold = 1.5 }, ErrInvalidSimilarityThreshold},
		{"zero top words", func(s *ScopeConfig) { s.TopWords = 0 }, ErrInvalidTopWords},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := DefaultScopeConfig()
			tt.mutate(&scope)

			err := scope.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
