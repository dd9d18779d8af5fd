// Package textproc splits visible page text into word tokens and provides
// the set operations used to compare pages.
package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tokenize splits text on every rune that is not a letter, digit or
// apostrophe. Apostrophes inside a word are kept so contractions stay a
// single token; leading and trailing apostrophes (quoting) are trimmed and
// tokens left empty are discarded. The typographic apostrophe U+2019 is
// folded to the ASCII one. Case is preserved.
func Tokenize(text string) []string {
	text = norm.NFC.String(text)

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(strings.ReplaceAll(f, "’", "'"), "'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’'
}

// Lower returns the lower-cased form of every token. A new caser is built
// per call since casers are not safe for concurrent use.
func Lower(tokens []string) []string {
	caser := cases.Lower(language.Und)
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = caser.String(tok)
	}
	return out
}
