package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/masahif/focuscrawl/internal/stats"
)

// TextWriter writes the plain report, one fact per line:
//
//	Number of unique pages: 1234
//	Longest page: https://www.ics.uci.edu/ (5678 words)
//
//	50 most common words:
//	research, 321
//	...
//
//	Subdomains:
//	vision.ics.uci.edu, 42
type TextWriter struct {
	output io.Writer
}

// NewTextWriter creates a TextWriter
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{output: output}
}

// Write outputs the snapshot
func (w *TextWriter) Write(snap stats.Snapshot) error {
	bw := bufio.NewWriter(w.output)

	fmt.Fprintf(bw, "Number of unique pages: %d\n", snap.UniquePages)
	if snap.Longest.URL != "" {
		fmt.Fprintf(bw, "Longest page: %s (%d words)\n", snap.Longest.URL, snap.Longest.Words)
	} else {
		fmt.Fprintln(bw, "Longest page: none")
	}

	fmt.Fprintf(bw, "\n%d most common words:\n", len(snap.TopWords))
	for _, wc := range snap.TopWords {
		fmt.Fprintf(bw, "%s, %d\n", wc.Word, wc.Count)
	}

	fmt.Fprintln(bw, "\nSubdomains:")
	for _, sc := range snap.Subdomains {
		fmt.Fprintf(bw, "%s, %d\n", sc.Host, sc.Count)
	}

	return bw.Flush()
}
