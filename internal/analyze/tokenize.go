// Package analyze provides the text analysis behind shelf recommendations:
// tag tokenization, TF-IDF vectorization, cosine similarity, and fuzzy name
// suggestions.
package analyze

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// minTokenLen is the shortest token kept. Single characters carry no signal
// in keyword tags ("a", "x", stray digits).
const minTokenLen = 2

// Tokenize splits text into lowercase word tokens and drops English stop words.
// A token is a run of letters, digits, or underscores at least two runes long.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(foldText(text), func(r rune) bool {
		return !isWordRune(r)
	})
	result := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < minTokenLen {
			continue
		}
		if IsStopWord(w) {
			continue
		}
		result = append(result, w)
	}
	return result
}

// termCounts returns token frequencies for a single document.
func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range Tokenize(text) {
		counts[tok]++
	}
	return counts
}

// foldText applies NFKC normalization and lowercases the result so that
// full-width and compatibility forms tokenize the same as their plain forms.
func foldText(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
