package analyze

import (
	"errors"
	"math"
	"sort"
)

// DefaultMaxFeatures caps the vocabulary size when a Vectorizer does not set one.
const DefaultMaxFeatures = 1000

// ErrEmptyVocabulary is returned by Fit when no document yields a single term,
// for example when every tag field is blank or made only of stop words.
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words or no tokens")

// Vector is a sparse feature vector. Indices are sorted ascending so that dot
// products are summed in a fixed order and results are reproducible.
type Vector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of non-zero entries.
func (v Vector) Len() int { return len(v.Indices) }

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Vectorizer builds TF-IDF feature vectors over a corpus of short documents.
type Vectorizer struct {
	// MaxFeatures limits the vocabulary to the most frequent terms across the
	// corpus. Zero or negative uses DefaultMaxFeatures.
	MaxFeatures int
}

// Model is a fitted vocabulary with inverse document frequencies.
type Model struct {
	terms []string
	index map[string]int
	idf   []float64
}

// Fit learns the vocabulary and IDF weights from docs.
//
// The vocabulary keeps the MaxFeatures terms with the highest total count,
// ties broken alphabetically. IDF is smoothed: ln((1+n)/(1+df)) + 1.
func (v Vectorizer) Fit(docs []string) (*Model, error) {
	limit := v.MaxFeatures
	if limit <= 0 {
		limit = DefaultMaxFeatures
	}

	total := make(map[string]int)
	df := make(map[string]int)
	for _, doc := range docs {
		for term, n := range termCounts(doc) {
			total[term] += n
			df[term]++
		}
	}
	if len(total) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(total))
	for term := range total {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if total[terms[i]] != total[terms[j]] {
			return total[terms[i]] > total[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	m := &Model{
		terms: terms,
		index: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
	}
	for i, term := range terms {
		m.index[term] = i
		m.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return m, nil
}

// FitTransform fits a model on docs and returns one vector per document.
func (v Vectorizer) FitTransform(docs []string) (*Model, []Vector, error) {
	m, err := v.Fit(docs)
	if err != nil {
		return nil, nil, err
	}
	vecs := make([]Vector, len(docs))
	for i, doc := range docs {
		vecs[i] = m.Transform(doc)
	}
	return m, vecs, nil
}

// Terms returns the fitted vocabulary in index order.
func (m *Model) Terms() []string {
	return append([]string(nil), m.terms...)
}

// IDF returns the inverse document frequency of term, or 0 if it is not in
// the vocabulary.
func (m *Model) IDF(term string) float64 {
	i, ok := m.index[term]
	if !ok {
		return 0
	}
	return m.idf[i]
}

// Transform converts doc into an L2-normalized TF-IDF vector. Terms outside
// the vocabulary are ignored; a document with no known terms yields an empty
// vector.
func (m *Model) Transform(doc string) Vector {
	counts := termCounts(doc)
	idx := make([]int, 0, len(counts))
	for term := range counts {
		if i, ok := m.index[term]; ok {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)

	vec := Vector{Indices: idx, Values: make([]float64, len(idx))}
	for k, i := range idx {
		vec.Values[k] = float64(counts[m.terms[i]]) * m.idf[i]
	}
	if norm := vec.Norm(); norm > 0 {
		for k := range vec.Values {
			vec.Values[k] /= norm
		}
	}
	return vec
}
