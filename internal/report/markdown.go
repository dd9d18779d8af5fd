package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/masahif/focuscrawl/internal/stats"
)

// MarkdownWriter writes the report as Markdown tables
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write outputs the snapshot
func (w *MarkdownWriter) Write(snap stats.Snapshot) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Report")
	md.PlainText("")

	longest := "none"
	if snap.Longest.URL != "" {
		longest = snap.Longest.URL + " (" + strconv.Itoa(snap.Longest.Words) + " words)"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Unique Pages", strconv.Itoa(snap.UniquePages)},
			{"Accepted Pages", strconv.Itoa(snap.AcceptedPages)},
			{"Longest Page", longest},
			{"Generated", snap.TakenAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	md.H2("Most Common Words")
	md.PlainText("")
	if len(snap.TopWords) == 0 {
		md.PlainText("No words recorded.")
	} else {
		rows := make([][]string, 0, len(snap.TopWords))
		for i, wc := range snap.TopWords {
			rows = append(rows, []string{strconv.Itoa(i + 1), wc.Word, strconv.Itoa(wc.Count)})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Rank", "Word", "Count"},
			Rows:   rows,
		})
	}
	md.PlainText("")

	md.H2("Subdomains")
	md.PlainText("")
	if len(snap.Subdomains) == 0 {
		md.PlainText("No subdomains recorded.")
	} else {
		rows := make([][]string, 0, len(snap.Subdomains))
		for _, sc := range snap.Subdomains {
			rows = append(rows, []string{sc.Host, strconv.Itoa(sc.Count)})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Host", "Pages"},
			Rows:   rows,
		})
	}

	return md.Build()
}
