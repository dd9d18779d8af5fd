// Package report renders crawl statistics for people.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/masahif/focuscrawl/internal/config"
	"github.com/masahif/focuscrawl/internal/stats"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format
var ErrUnknownFormat = errors.New("unknown report format")

// Writer renders a statistics snapshot
type Writer interface {
	Write(snap stats.Snapshot) error
}

// NewWriter returns the writer for format, writing to output
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch strings.ToLower(format) {
	case config.ReportFormatText, "":
		return NewTextWriter(output), nil
	case config.ReportFormatMarkdown:
		return NewMarkdownWriter(output), nil
	case config.ReportFormatYAML:
		return NewYAMLWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
