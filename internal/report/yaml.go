package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/masahif/focuscrawl/internal/stats"
)

// YAMLWriter writes the snapshot as a YAML document for other tools
type YAMLWriter struct {
	output io.Writer
}

// NewYAMLWriter creates a YAMLWriter
func NewYAMLWriter(output io.Writer) *YAMLWriter {
	return &YAMLWriter{output: output}
}

// Write outputs the snapshot
func (w *YAMLWriter) Write(snap stats.Snapshot) error {
	enc := yaml.NewEncoder(w.output)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
