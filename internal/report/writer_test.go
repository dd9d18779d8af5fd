package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/masahif/focuscrawl/internal/stats"
)

func testSnapshot() stats.Snapshot {
	return stats.Snapshot{
		UniquePages:   1234,
		AcceptedPages: 800,
		Longest:       stats.LongestPage{URL: "https://www.ics.uci.edu/longest", Words: 5678},
		TopWords: []stats.WordCount{
			{Word: "research", Count: 321},
			{Word: "students", Count: 200},
		},
		Subdomains: []stats.SubdomainCount{
			{Host: "graphics.ics.uci.edu", Count: 3},
			{Host: "vision.ics.uci.edu", Count: 42},
		},
		TakenAt: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextWriter(&buf).Write(testSnapshot()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := `Number of unique pages: 1234
Longest page: https://www.ics.uci.edu/longest (5678 words)

2 most common words:
research, 321
students, 200

Subdomains:
graphics.ics.uci.edu, 3
vision.ics.uci.edu, 42
`
	if got := buf.String(); got != want {
		t.Errorf("Unexpected text report:\n%s\nwant:\n%s", got, want)
	}
}

func TestTextWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextWriter(&buf).Write(stats.Snapshot{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Number of unique pages: 0") {
		t.Error("Expected zero unique pages")
	}
	if !strings.Contains(output, "Longest page: none") {
		t.Error("Expected no longest page")
	}
}

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).Write(testSnapshot()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"# Crawl Report",
		"## Most Common Words",
		"## Subdomains",
		"1234",
		"https://www.ics.uci.edu/longest (5678 words)",
		"research",
		"321",
		"vision.ics.uci.edu",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected markdown output to contain %q", want)
		}
	}

	if strings.Index(output, "graphics.ics.uci.edu") > strings.Index(output, "vision.ics.uci.edu") {
		t.Error("Expected subdomains in host order")
	}
}

func TestMarkdownWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).Write(stats.Snapshot{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "No words recorded.") || !strings.Contains(output, "No subdomains recorded.") {
		t.Errorf("Expected empty-section notes, got:\n%s", output)
	}
}

func TestYAMLWriter(t *testing.T) {
	var buf bytes.Buffer
	snap := testSnapshot()
	if err := NewYAMLWriter(&buf).Write(snap); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if !strings.Contains(buf.String(), "unique_pages: 1234") {
		t.Errorf("Expected snake_case keys, got:\n%s", buf.String())
	}

	var decoded stats.Snapshot
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode YAML report: %v", err)
	}
	if decoded.UniquePages != snap.UniquePages || decoded.Longest != snap.Longest {
		t.Errorf("Decoded report differs: %+v", decoded)
	}
	if len(decoded.TopWords) != 2 || decoded.TopWords[0] != snap.TopWords[0] {
		t.Errorf("Decoded top words differ: %+v", decoded.TopWords)
	}
	if !decoded.TakenAt.Equal(snap.TakenAt) {
		t.Errorf("Decoded time differs: %v", decoded.TakenAt)
	}
}

func TestNewWriter(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"text", "*report.TextWriter", false},
		{"", "*report.TextWriter", false},
		{"markdown", "*report.MarkdownWriter", false},
		{"YAML", "*report.YAMLWriter", false},
		{"json", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w, err := NewWriter(tt.format, &bytes.Buffer{})
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("Expected ErrUnknownFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWriter() error = %v", err)
			}

			var got string
			switch w.(type) {
			case *TextWriter:
				got = "*report.TextWriter"
			case *MarkdownWriter:
				got = "*report.MarkdownWriter"
			case *YAMLWriter:
				got = "*report.YAMLWriter"
			}
			if got != tt.want {
				t.Errorf("NewWriter(%q) = %s, want %s", tt.format, got, tt.want)
			}
		})
	}
}
