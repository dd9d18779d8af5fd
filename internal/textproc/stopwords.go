package textproc

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// defaultStopWords is the common English list used for corpus reports
var defaultStopWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an", "and",
	"any", "are", "aren't", "as", "at", "be", "because", "been", "before", "being",
	"below", "between", "both", "but", "by", "can't", "cannot", "could", "couldn't",
	"did", "didn't", "do", "does", "doesn't", "doing", "don't", "down", "during",
	"each", "few", "for", "from", "further", "had", "hadn't", "has", "hasn't", "have",
	"haven't", "having", "he", "he'd", "he'll", "he's", "her", "here", "here's",
	"hers", "herself", "him", "himself", "his", "how", "how's", "i", "i'd", "i'll",
	"i'm", "i've", "if", "in", "into", "is", "isn't", "it", "it's", "its", "itself",
	"let's", "me", "more", "most", "mustn't", "my", "myself", "no", "nor", "not",
	"of", "off", "on", "once", "only", "or", "other", "ought", "our", "ours",
	"ourselves", "out", "over", "own", "same", "shan't", "she", "she'd", "she'll",
	"she's", "should", "shouldn't", "so", "some", "such", "than", "that", "that's",
	"the", "their", "theirs", "them", "themselves", "then", "there", "there's",
	"these", "they", "they'd", "they'll", "they're", "they've", "this", "those",
	"through", "to", "too", "under", "until", "up", "very", "was", "wasn't", "we",
	"we'd", "we'll", "we're", "we've", "were", "weren't", "what", "what's", "when",
	"when's", "where", "where's", "which", "while", "who", "who's", "whom", "why",
	"why's", "with", "won't", "would", "wouldn't", "you", "you'd", "you'll",
	"you're", "you've", "your", "yours", "yourself", "yourselves",
}

// StopWords is a fixed set of lower-cased words excluded from frequency counts
type StopWords struct {
	words map[string]struct{}
}

// NewStopWords builds a stop-word set; an empty list selects the default
// English list
func NewStopWords(words []string) *StopWords {
	if len(words) == 0 {
		words = defaultStopWords
	}

	caser := cases.Lower(language.Und)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w != "" {
			set[caser.String(w)] = struct{}{}
		}
	}
	return &StopWords{words: set}
}

// DefaultStopWords returns the built-in English stop-word set
func DefaultStopWords() *StopWords {
	return NewStopWords(nil)
}

// Contains reports whether the lower-cased token is a stop word
func (s *StopWords) Contains(token string) bool {
	_, ok := s.words[token]
	return ok
}

// Len returns the number of stop words
func (s *StopWords) Len() int {
	return len(s.words)
}
