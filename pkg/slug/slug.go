// Package slug converts template titles to URL slugs and back.
package slug

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentinel is returned whenever a title produces no usable slug characters.
const Sentinel = "untitled"

var (
	separators    = regexp.MustCompile(`[&\s]+`)
	disallowed    = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns    = regexp.MustCompile(`-+`)
	standaloneAnd = regexp.MustCompile(`\bAnd\b`)
)

// Make returns the URL slug for a title.
func Make(title string) string {
	s := strings.ToLower(title)
	s = separators.ReplaceAllString(s, "-")
	s = disallowed.ReplaceAllString(s, "")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if s == "" {
		return Sentinel
	}

	return s
}

// TitleGuess rebuilds a display title from a slug. The mapping is lossy, so the
// result is only good enough to narrow a title search.
func TitleGuess(s string) string {
	words := strings.Split(s, "-")
	for i, word := range words {
		words[i] = capitalize(word)
	}

	return standaloneAnd.ReplaceAllString(strings.Join(words, " "), "&")
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}

	return string(unicode.ToUpper(r)) + word[size:]
}
