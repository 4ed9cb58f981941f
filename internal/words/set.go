// Package words maintains the session's ordered sensitive-word list and
// provides client-side highlighting of matched terms.
package words

import (
	"errors"
	"regexp"
	"strings"
)

// ErrIndexOutOfRange is returned by RemoveAt for an invalid position.
var ErrIndexOutOfRange = errors.New("word index out of range")

// Highlight markers wrapped around matched words in rendered text.
const (
	HighlightOpen  = "[["
	HighlightClose = "]]"
)

// Set is an ordered, duplicate-free collection of filter terms. Insertion
// order defines filter priority and highlight scan order. Set is not safe
// for concurrent use.
type Set struct {
	entries []string
}

// NewSet seeds a set with the given words, dropping empties and duplicates.
func NewSet(seed ...string) *Set {
	s := &Set{}
	for _, w := range seed {
		s.Add(w)
	}
	return s
}

// Add appends a word at the end. Empty strings and exact duplicates are
// no-ops.
func (s *Set) Add(word string) bool {
	word = strings.TrimSpace(word)
	if word == "" || s.Contains(word) {
		return false
	}
	s.entries = append(s.entries, word)
	return true
}

// RemoveAt deletes the word at index, shifting later entries left.
func (s *Set) RemoveAt(index int) error {
	if index < 0 || index >= len(s.entries) {
		return ErrIndexOutOfRange
	}
	s.entries = append(s.entries[:index], s.entries[index+1:]...)
	return nil
}

// Contains reports whether word is present, case-sensitive exact match.
func (s *Set) Contains(word string) bool {
	for _, w := range s.entries {
		if w == word {
			return true
		}
	}
	return false
}

// Words returns the entries in insertion order. The slice is a copy.
func (s *Set) Words() []string {
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of words in the set.
func (s *Set) Len() int {
	return len(s.entries)
}

// Highlight wraps every literal occurrence of each word in text with the
// highlight markers, in set order. Words are matched as literal substrings:
// regex metacharacters in user input are escaped, never interpreted.
func (s *Set) Highlight(text string) string {
	for _, word := range s.entries {
		re := regexp.MustCompile(regexp.QuoteMeta(word))
		text = re.ReplaceAllStringFunc(text, func(m string) string {
			return HighlightOpen + m + HighlightClose
		})
	}
	return text
}

// Mask replaces every literal occurrence of each word in text with token.
func (s *Set) Mask(text, token string) string {
	for _, word := range s.entries {
		text = strings.ReplaceAll(text, word, token)
	}
	return text
}

// CountOccurrences sums literal occurrences of all words in text.
func (s *Set) CountOccurrences(text string) int {
	total := 0
	for _, word := range s.entries {
		total += strings.Count(text, word)
	}
	return total
}
