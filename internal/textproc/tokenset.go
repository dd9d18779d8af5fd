package textproc

// TokenSet is a case-normalized, deduplicated set of tokens
type TokenSet map[string]struct{}

// NewTokenSet builds the set of lower-cased tokens
func NewTokenSet(tokens []string) TokenSet {
	set := make(TokenSet, len(tokens))
	for _, tok := range Lower(tokens) {
		set[tok] = struct{}{}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|. The ratio is undefined when both sets
// are empty; ok is false in that case and the similarity is 0.
func Jaccard(a, b TokenSet) (similarity float64, ok bool) {
	if len(a) == 0 && len(b) == 0 {
		return 0, false
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for tok := range small {
		if _, found := large[tok]; found {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union), true
}
