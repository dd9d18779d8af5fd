package stats

import (
	"cmp"
	"maps"
	"slices"
	"time"
)

// WordCount is one row of the word-frequency table
type WordCount struct {
	Word  string `yaml:"word"`
	Count int    `yaml:"count"`
}

// SubdomainCount is the number of accepted pages under one host
type SubdomainCount struct {
	Host  string `yaml:"host"`
	Count int    `yaml:"count"`
}

// Snapshot is an immutable view of the accumulator for reporting
type Snapshot struct {
	UniquePages   int              `yaml:"unique_pages"`
	AcceptedPages int              `yaml:"accepted_pages"`
	Longest       LongestPage      `yaml:"longest_page"`
	TopWords      []WordCount      `yaml:"top_words"`
	Subdomains    []SubdomainCount `yaml:"subdomains"`
	TakenAt       time.Time        `yaml:"taken_at"`
}

// State is the full accumulator content, used for checkpoints
type State struct {
	Visited    []string
	Accepted   []string
	Words      map[string]int
	Subdomains map[string]int
	Longest    LongestPage
}

// Snapshot returns the current counts. TopWords holds at most topN entries
// ordered by descending count, ties broken by ascending word; Subdomains
// are ordered by host.
func (a *Accumulator) Snapshot(topN int) Snapshot {
	a.mu.Lock()
	words := make([]WordCount, 0, len(a.words))
	for w, c := range a.words {
		words = append(words, WordCount{Word: w, Count: c})
	}
	subdomains := make([]SubdomainCount, 0, len(a.subdomains))
	for h, c := range a.subdomains {
		subdomains = append(subdomains, SubdomainCount{Host: h, Count: c})
	}
	snap := Snapshot{
		UniquePages:   a.unique,
		AcceptedPages: len(a.accepted),
		Longest:       a.longest,
		TakenAt:       time.Now().UTC(),
	}
	a.mu.Unlock()

	slices.SortFunc(words, func(x, y WordCount) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return cmp.Compare(x.Word, y.Word)
	})
	if topN >= 0 && len(words) > topN {
		words = words[:topN]
	}

	slices.SortFunc(subdomains, func(x, y SubdomainCount) int {
		return cmp.Compare(x.Host, y.Host)
	})

	snap.TopWords = words
	snap.Subdomains = subdomains
	return snap
}

// WordCountOf returns the cumulative count of a lower-cased word
func (a *Accumulator) WordCountOf(word string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.words[word]
}

// Export copies the full accumulator state
func (a *Accumulator) Export() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	visited := slices.Sorted(maps.Keys(a.visited))
	accepted := slices.Sorted(maps.Keys(a.accepted))

	return State{
		Visited:    visited,
		Accepted:   accepted,
		Words:      maps.Clone(a.words),
		Subdomains: maps.Clone(a.subdomains),
		Longest:    a.longest,
	}
}

// Restore merges a previously exported state into the accumulator. Sets are
// unioned, counts added, and the longer longest page kept.
func (a *Accumulator) Restore(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, u := range s.Visited {
		a.insertVisited(u)
	}
	for _, u := range s.Accepted {
		a.accepted[u] = struct{}{}
		a.insertVisited(u)
	}
	for w, c := range s.Words {
		a.words[w] += c
	}
	for h, c := range s.Subdomains {
		a.subdomains[h] += c
	}
	if s.Longest.Words > a.longest.Words {
		a.longest = s.Longest
	}
}
