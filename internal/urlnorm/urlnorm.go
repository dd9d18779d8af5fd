// Package urlnorm turns raw hyperlinks into canonical URLs used as
// deduplication keys. Canonical URLs are absolute, fragment-free and carry a
// lower-cased scheme and host; the query string is preserved because it
// takes part in page identity and trap detection.
package urlnorm

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// ErrMalformedURL is returned when a href cannot be parsed as a URL
var ErrMalformedURL = errors.New("malformed URL")

const flags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagUppercaseEscapes |
	purell.FlagDecodeUnnecessaryEscapes |
	purell.FlagEncodeNecessaryEscapes |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveEmptyQuerySeparator |
	purell.FlagRemoveDotSegments |
	purell.FlagRemoveEmptyPortSeparator |
	purell.FlagRemoveFragment

// Normalize resolves href against base and returns its canonical form.
// A nil base is only valid for absolute hrefs.
func Normalize(href string, base *url.URL) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}

	if base != nil {
		ref = base.ResolveReference(ref)
	}

	if !ref.IsAbs() {
		return "", fmt.Errorf("%w: %q is not absolute", ErrMalformedURL, href)
	}

	return purell.NormalizeURL(ref, flags), nil
}

// Canonicalize returns the canonical form of an absolute URL
func Canonicalize(raw string) (string, error) {
	return Normalize(raw, nil)
}

// Base parses the URL a page was fetched from so its links can be resolved.
// The fragment is dropped since it never takes part in resolution.
func Base(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrMalformedURL, raw)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}
