// Package logging builds the crawler's structured logger. Records go to
// stderr, so a report written to stdout stays clean, and optionally to a
// size-rotated file.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Output formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

var (
	// ErrUnknownLevel is returned for a level name slog does not know
	ErrUnknownLevel = errors.New("unknown log level")

	// ErrUnknownFormat is returned for a format other than json or text
	ErrUnknownFormat = errors.New("unknown log format")
)

// Config represents the logging configuration
type Config struct {
	Level      slog.Level
	Format     string
	FilePath   string
	MaxSize    int64 // MB
	MaxBackups int
	Console    io.Writer // nil disables console output
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() *Config {
	return &Config{
		Level:      slog.LevelInfo,
		Format:     FormatJSON,
		MaxSize:    100,
		MaxBackups: 5,
		Console:    os.Stderr,
	}
}

// ParseLevel converts a level name to slog.Level. An empty name means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
}

// Logger is a slog.Logger that owns its log file
type Logger struct {
	*slog.Logger
	file io.Closer
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// New creates a logger writing to the console, the rotated file or both.
// With neither configured records are discarded.
func New(config Config) (*Logger, error) {
	var (
		writers []io.Writer
		file    *RotatingFileWriter
	)

	if config.Console != nil {
		writers = append(writers, config.Console)
	}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		var err error
		file, err = NewRotatingFileWriter(config.FilePath, config.MaxSize*1024*1024, config.MaxBackups)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, file)
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = io.MultiWriter(writers...)
	}

	opts := &slog.HandlerOptions{Level: config.Level}

	var handler slog.Handler
	switch strings.ToLower(config.Format) {
	case FormatJSON, "":
		handler = slog.NewJSONHandler(writer, opts)
	case FormatText:
		handler = slog.NewTextHandler(writer, opts)
	default:
		if file != nil {
			_ = file.Close()
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, config.Format)
	}

	logger := &Logger{Logger: slog.New(handler)}
	if file != nil {
		logger.file = file
	}
	return logger, nil
}

// SetDefault creates a logger and installs it as the slog default. The
// caller closes the returned logger on exit.
func SetDefault(config Config) (*Logger, error) {
	logger, err := New(config)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger.Logger)
	return logger, nil
}
