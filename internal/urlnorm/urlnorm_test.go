package urlnorm

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	base, err := Base("http://www.ics.uci.edu/dir/page.html#section")
	if err != nil {
		t.Fatalf("Failed to parse base: %v", err)
	}

	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{"relative path", "/a", "http://www.ics.uci.edu/a"},
		{"fragment stripped", "/a#x", "http://www.ics.uci.edu/a"},
		{"sibling relative", "other.html", "http://www.ics.uci.edu/dir/other.html"},
		{"parent relative", "../up.html", "http://www.ics.uci.edu/up.html"},
		{"query kept", "/search?q=go&page=2", "http://www.ics.uci.edu/search?q=go&page=2"},
		{"query kept fragment stripped", "/search?q=go#results", "http://www.ics.uci.edu/search?q=go"},
		{"host lower-cased", "HTTP://WWW.CS.UCI.EDU/People", "http://www.cs.uci.edu/People"},
		{"default port removed", "http://ics.uci.edu:80/a", "http://ics.uci.edu/a"},
		{"surrounding whitespace", "  /padded  ", "http://www.ics.uci.edu/padded"},
		{"fragment only resolves to base", "#top", "http://www.ics.uci.edu/dir/page.html"},
		{"scheme relative", "//stat.uci.edu/x", "http://stat.uci.edu/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.href, base)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.href, err)
			}
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.href, got, tt.expected)
			}
		})
	}
}

func TestNormalizeFragmentInsensitive(t *testing.T) {
	base, _ := Base("https://ics.uci.edu/")

	pairs := [][2]string{
		{"/a#x", "/a#y"},
		{"https://ics.uci.edu/p?q=1#one", "https://ics.uci.edu/p?q=1#two"},
		{"page", "page#"},
	}

	for _, p := range pairs {
		a, errA := Normalize(p[0], base)
		b, errB := Normalize(p[1], base)
		if errA != nil || errB != nil {
			t.Fatalf("Unexpected errors: %v, %v", errA, errB)
		}
		if a != b {
			t.Errorf("Expected %q and %q to normalize equally, got %q and %q", p[0], p[1], a, b)
		}
	}
}

func TestNormalizeMalformed(t *testing.T) {
	base, _ := Base("https://ics.uci.edu/")

	for _, href := range []string{"http://[::1", "%zz", "http://ics.uci.edu/%"} {
		t.Run(href, func(t *testing.T) {
			_, err := Normalize(href, base)
			if !errors.Is(err, ErrMalformedURL) {
				t.Errorf("Normalize(%q) error = %v, want ErrMalformedURL", href, err)
			}
		})
	}
}

func TestCanonicalize(t *testing.T) {
	got, err := Canonicalize("https://Ics.Uci.Edu/about#team")
	if err != nil {
		t.Fatalf("Canonicalize returned error: %v", err)
	}
	if got != "https://ics.uci.edu/about" {
		t.Errorf("Canonicalize = %q, want %q", got, "https://ics.uci.edu/about")
	}

	if _, err := Canonicalize("/relative/only"); !errors.Is(err, ErrMalformedURL) {
		t.Errorf("Expected ErrMalformedURL for relative input, got %v", err)
	}
}

func TestBase(t *testing.T) {
	if _, err := Base("not absolute"); !errors.Is(err, ErrMalformedURL) {
		t.Errorf("Expected ErrMalformedURL, got %v", err)
	}

	u, err := Base("https://ics.uci.edu/x#frag")
	if err != nil {
		t.Fatalf("Base returned error: %v", err)
	}
	if u.Fragment != "" {
		t.Errorf("Expected fragment to be dropped, got %q", u.Fragment)
	}
}
