package analyze

import "math"

// Cosine returns the cosine similarity of a and b. It is 0 when either vector
// has zero length, and never NaN.
func Cosine(a, b Vector) float64 {
	if a.Len() == 0 || b.Len() == 0 {
		return 0
	}
	var dot float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	denom := a.Norm() * b.Norm()
	if denom == 0 {
		return 0
	}
	score := dot / denom
	if math.IsNaN(score) {
		return 0
	}
	return score
}
