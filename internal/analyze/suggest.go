package analyze

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Suggestion pairs a catalog name with its similarity score (0-1, higher is better).
type Suggestion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// DefaultThreshold is the minimum similarity score for a suggestion to be returned.
const DefaultThreshold = 0.6

// DefaultTopN is the maximum number of suggestions returned.
const DefaultTopN = 5

// Suggest returns catalog names similar to query, ranked by similarity score.
// Only suggestions scoring at or above DefaultThreshold are returned, up to DefaultTopN results.
func Suggest(query string, names []string) []Suggestion {
	return SuggestN(query, names, DefaultTopN, DefaultThreshold)
}

// SuggestN returns up to topN names similar to query, with score >= threshold.
// A name scores the best of its whole-name similarity and the similarity of
// any single word in it, so a short misspelled query can still find a long name.
// Ties keep the order of names.
func SuggestN(query string, names []string, topN int, threshold float64) []Suggestion {
	q := normalize(query)
	if q == "" || len(names) == 0 {
		return nil
	}

	var results []Suggestion
	for _, name := range names {
		score := nameScore(q, normalize(name))
		if score >= threshold {
			results = append(results, Suggestion{Name: name, Score: score})
		}
	}

	sortByScore(results)

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

func nameScore(query, name string) float64 {
	best := similarity(query, name)
	for _, word := range strings.Fields(name) {
		if s := similarity(query, word); s > best {
			best = s
		}
	}
	return best
}

// similarity computes the overall similarity between two normalized strings.
// It combines Levenshtein distance with prefix/suffix bonuses.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	// Normalized Levenshtein: 1 - (distance / max_length).
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	lev := 1.0 - float64(dist)/float64(maxLen)

	prefixBonus := 0.1 * float64(commonPrefixLen(ra, rb)) / float64(maxLen)
	suffixBonus := 0.05 * float64(commonSuffixLen(ra, rb)) / float64(maxLen)

	score := lev + prefixBonus + suffixBonus
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// normalize folds a product name to lowercase words separated by single
// spaces; punctuation, underscores and hyphens become separators.
func normalize(s string) string {
	words := strings.FieldsFunc(foldText(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, " ")
}

// commonPrefixLen returns the length of the common prefix of a and b.
func commonPrefixLen(a, b []rune) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// commonSuffixLen returns the length of the common suffix of a and b.
func commonSuffixLen(a, b []rune) int {
	la, lb := len(a), len(b)
	n := min(la, lb)
	for i := 0; i < n; i++ {
		if a[la-1-i] != b[lb-1-i] {
			return i
		}
	}
	return n
}

// sortByScore sorts suggestions by score descending using insertion sort
// (sufficient for small result sets). Equal scores keep their input order.
func sortByScore(s []Suggestion) {
	for i := 1; i < len(s); i++ {
		key := s[i]
		j := i - 1
		for j >= 0 && s[j].Score < key.Score {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = key
	}
}
