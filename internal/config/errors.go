package config

import "errors"

var (
	// ErrInvalidConcurrency is returned when concurrency is not greater than 0
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidCacheSize is returned when cache size is negative
	ErrInvalidCacheSize = errors.New("cache_size cannot be negative")
	// ErrInvalidMaxBodySize is returned when the body size cap is negative
	ErrInvalidMaxBodySize = errors.New("max_body_size cannot be negative")
	// ErrEmptyDatabasePath is returned when database path is empty
	ErrEmptyDatabasePath = errors.New("database_path cannot be empty")
	// ErrInvalidReportFormat is returned for an unknown report format
	ErrInvalidReportFormat = errors.New("report_format must be one of text, markdown, yaml")

	// ErrNoAllowedDomains is returned when the domain allow-list is empty
	ErrNoAllowedDomains = errors.New("scope.allowed_domains cannot be empty")
	// ErrInvalidDomain is returned for an unusable allowed domain
	ErrInvalidDomain = errors.New("invalid allowed domain")
	// ErrInvalidRestrictedPath is returned for a restricted path without domain or absolute prefix
	ErrInvalidRestrictedPath = errors.New("invalid restricted path")
	// ErrInvalidTrapPattern is returned when a trap regex does not compile
	ErrInvalidTrapPattern = errors.New("invalid trap pattern")
	// ErrInvalidWordBand is returned when min_words exceeds max_words
	ErrInvalidWordBand = errors.New("min_words must be between 0 and max_words")
	// ErrInvalidSimilarityThreshold is returned when the threshold is outside (0, 1]
	ErrInvalidSimilarityThreshold = errors.New("similarity_threshold must be in (0, 1]")
	// ErrInvalidTopWords is returned when top_words is not positive
	ErrInvalidTopWords = errors.New("top_words must be greater than 0")
)
