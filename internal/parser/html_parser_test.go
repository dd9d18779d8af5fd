package parser

import (
	"reflect"
	"strings"
	"testing"
)

const hallPage = `<!DOCTYPE html>
<html>
<head>
	<title>Donald Bren Hall</title>
	<base href="https://www.ics.uci.edu/base/">
	<style>body { color: red; }</style>
	<script>var hidden = "script text";</script>
</head>
<body>
	<h1>Donald Bren Hall</h1>
	<p>Home of the school isn't hidden</p>
	<a href="/relative-link#frag">Relative Link</a>
	<a href="https://www.ics.uci.edu/absolute-link">Absolute Link</a>
	<a href="https://external.com/page" rel="nofollow">External Link</a>
	<a href="#anchor">Anchor Link</a>
	<a href="javascript:void(0)">JavaScript Link</a>
	<a>No href</a>
	<a href="   ">Blank href</a>
	<a href="/page-with-text">Link with <span>nested</span> text</a>
	<noscript>Enable JS</noscript>
	<object data="tour.swf"><a href="/tour">plain version</a></object>
</body>
</html>`

func TestParseDocument(t *testing.T) {
	result, err := NewHTMLParser().Parse([]byte(hallPage), "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if result.Title != "Donald Bren Hall" {
		t.Errorf("Title = %q", result.Title)
	}
	if result.BaseHref != "https://www.ics.uci.edu/base/" {
		t.Errorf("BaseHref = %q", result.BaseHref)
	}
	if len(result.ContentHash) != 64 {
		t.Errorf("ContentHash = %q, want 64 hex digits", result.ContentHash)
	}

	t.Run("visible text", func(t *testing.T) {
		for _, hidden := range []string{"color: red", "script text", "Enable JS", "plain version"} {
			if strings.Contains(result.Text, hidden) {
				t.Errorf("Text contains hidden %q: %q", hidden, result.Text)
			}
		}
		for _, shown := range []string{"Donald Bren Hall", "Home of the school isn't hidden", "Link with nested text"} {
			if !strings.Contains(result.Text, shown) {
				t.Errorf("Text lacks %q: %q", shown, result.Text)
			}
		}
		if strings.Count(result.Text, "Donald Bren Hall") != 1 {
			t.Errorf("Title text should not be visible: %q", result.Text)
		}
	})

	t.Run("links", func(t *testing.T) {
		want := []Link{
			{Href: "/relative-link#frag", Text: "Relative Link"},
			{Href: "https://www.ics.uci.edu/absolute-link", Text: "Absolute Link"},
			{Href: "https://external.com/page", Text: "External Link", Rel: "nofollow"},
			{Href: "#anchor", Text: "Anchor Link"},
			{Href: "javascript:void(0)", Text: "JavaScript Link"},
			{Href: "/page-with-text", Text: "Link with nested text"},
			{Href: "/tour", Text: "plain version"},
		}
		if !reflect.DeepEqual(result.Links, want) {
			t.Errorf("Links = %+v\nwant %+v", result.Links, want)
		}
	})
}

func TestParseFirstTitleAndBase(t *testing.T) {
	body := `<html><head><title> One </title><base target="_top"><base href="/first/"><base href="/second/"></head>
<body><svg><title>Two</title></svg></body></html>`

	result, err := NewHTMLParser().Parse([]byte(body), "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.Title != "One" || result.BaseHref != "/first/" {
		t.Errorf("Got title %q and base %q", result.Title, result.BaseHref)
	}
}

func TestParseCharset(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
	}{
		{"header", "<html><body><p>caf\xe9</p></body></html>", "text/html; charset=iso-8859-1"},
		{"meta", `<html><head><meta charset="iso-8859-1"></head><body><p>caf` + "\xe9" + `</p></body></html>`, "text/html"},
		{"utf-8", "<html><body><p>café</p></body></html>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewHTMLParser().Parse([]byte(tt.body), tt.contentType)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if result.Text != "café" {
				t.Errorf("Text = %q, want %q", result.Text, "café")
			}
		})
	}
}

func TestParseContentHashTracksText(t *testing.T) {
	p := NewHTMLParser()

	a, _ := p.Parse([]byte(`<html><body><p>same words</p><!-- one --></body></html>`), "")
	b, _ := p.Parse([]byte(`<html><body><div><p>same words</p></div><script>x()</script></body></html>`), "")
	c, _ := p.Parse([]byte(`<html><body><p>other words</p></body></html>`), "")

	if a.Text != "same words" {
		t.Errorf("Text = %q", a.Text)
	}
	if a.ContentHash != b.ContentHash {
		t.Error("Same visible text should hash the same")
	}
	if a.ContentHash == c.ContentHash {
		t.Error("Different text should hash differently")
	}
}

func TestParseEmpty(t *testing.T) {
	result, err := NewHTMLParser().Parse(nil, "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.Title != "" || result.Text != "" || len(result.Links) != 0 {
		t.Errorf("Expected nothing from an empty document, got %+v", result)
	}
}
