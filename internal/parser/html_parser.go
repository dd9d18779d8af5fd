// Package parser turns an HTML document into the pieces a crawl step needs:
// its visible text, its title, its <base> and the raw hrefs of its anchors.
package parser

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// HTMLParser extracts visible text and links from HTML
type HTMLParser struct {
	hidden map[atom.Atom]bool
}

// ParseResult is what a document yields
type ParseResult struct {
	Title       string
	Text        string // visible text, text nodes joined by one space
	BaseHref    string // href of the first <base>, if any
	ContentHash string // hex SHA-256 of Text
	Links       []Link
}

// Link is an anchor as written in the document
type Link struct {
	Href string // raw, not resolved
	Text string
	Rel  string
}

// NewHTMLParser creates a parser that skips the text of head, script,
// style and other non-rendered elements
func NewHTMLParser() *HTMLParser {
	hidden := map[atom.Atom]bool{}
	for _, a := range []atom.Atom{
		atom.Head, atom.Script, atom.Style, atom.Noscript,
		atom.Template, atom.Svg, atom.Iframe, atom.Object,
	} {
		hidden[a] = true
	}
	return &HTMLParser{hidden: hidden}
}

// Parse decodes body to UTF-8, using contentType and any <meta charset>,
// and extracts its text and links. contentType may be empty.
func (p *HTMLParser) Parse(body []byte, contentType string) (*ParseResult, error) {
	var r io.Reader
	if decoded, err := charset.NewReader(bytes.NewReader(body), contentType); err == nil {
		r = decoded
	} else {
		r = bytes.NewReader(body)
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	e := extraction{parser: p, result: &ParseResult{Links: []Link{}}}
	e.walk(doc, true)

	res := e.result
	res.Text = strings.Join(e.text, " ")
	sum := sha256.Sum256([]byte(res.Text))
	res.ContentHash = hex.EncodeToString(sum[:])
	return res, nil
}

// extraction holds the state of one Parse call
type extraction struct {
	parser *HTMLParser
	result *ParseResult
	text   []string
}

// walk visits n and its subtree. Text below a hidden element is dropped,
// but anchors, <title> and <base> there are still recorded.
func (e *extraction) walk(n *html.Node, visible bool) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); visible && t != "" {
			e.text = append(e.text, t)
		}
		return
	case html.ElementNode:
		e.element(n)
		visible = visible && !e.parser.hidden[n.DataAtom]
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walk(c, visible)
	}
}

func (e *extraction) element(n *html.Node) {
	res := e.result
	switch n.DataAtom {
	case atom.Title:
		if res.Title == "" {
			res.Title = innerText(n)
		}
	case atom.Base:
		if href := attr(n, "href"); res.BaseHref == "" && href != "" {
			res.BaseHref = href
		}
	case atom.A:
		if href := strings.TrimSpace(attr(n, "href")); href != "" {
			res.Links = append(res.Links, Link{Href: href, Text: innerText(n), Rel: attr(n, "rel")})
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// innerText joins the trimmed text nodes below n with single spaces
func innerText(n *html.Node) string {
	var parts []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(parts, " ")
}
