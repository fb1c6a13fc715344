// Package keywords provides case-insensitive vocabulary matching backed by an
// Aho-Corasick automaton, so a whole document is scanned once per vocabulary
// regardless of how many words it holds.
package keywords

import (
	"sort"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Set is an immutable vocabulary. Safe for concurrent use.
type Set struct {
	words []string

	// Matcher.Match updates per-node counters, so calls are serialized.
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
}

// New builds a Set from words. Words are lowercased and trimmed; blanks and
// duplicates are dropped. Declaration order is kept for Words and Matches.
func New(words ...string) *Set {
	seen := make(map[string]bool, len(words))
	normalized := make([]string, 0, len(words))

	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		normalized = append(normalized, w)
	}

	s := &Set{words: normalized}
	if len(normalized) > 0 {
		s.matcher = ahocorasick.NewStringMatcher(normalized)
	}
	return s
}

// Contains reports whether text contains any word of the set as a substring
func (s *Set) Contains(text string) bool {
	if s.matcher == nil || text == "" {
		return false
	}
	return len(s.match(text)) > 0
}

// Matches returns the words found in text, in declaration order
func (s *Set) Matches(text string) []string {
	if s.matcher == nil || text == "" {
		return nil
	}

	hits := s.match(text)
	if len(hits) == 0 {
		return nil
	}

	sort.Ints(hits)
	found := make([]string, 0, len(hits))
	for _, idx := range hits {
		if idx < len(s.words) {
			found = append(found, s.words[idx])
		}
	}
	return found
}

func (s *Set) match(text string) []int {
	lower := []byte(strings.ToLower(text))
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matcher.Match(lower)
}

// Words returns a copy of the vocabulary
func (s *Set) Words() []string {
	out := make([]string, len(s.words))
	copy(out, s.words)
	return out
}

// Len returns the number of distinct words
func (s *Set) Len() int {
	return len(s.words)
}
