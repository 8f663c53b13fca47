package scorer

import "math"

// CosineAll computes the cosine similarity between a course vector and every
// instructor vector. Output is index-aligned with the input ordering. Each
// instructor entry may be a flat vector ([dim]) or a singleton-wrapped one
// ([1][dim] flattened upstream as a single row); Flatten normalizes both.
func CosineAll(course []float32, instructors [][]float32) []float64 {
	scores := make([]float64, len(instructors))
	for i, v := range instructors {
		scores[i] = Cosine(course, Flatten(v, len(course)))
	}
	return scores
}

// Flatten normalizes a possibly singleton-wrapped vector to one flat vector
// of the expected dimension. A vector of length 1*dim stored row-wise is
// returned as-is; anything else is passed through unchanged and left to the
// zero-similarity guard in Cosine.
func Flatten(v []float32, dim int) []float32 {
	if dim > 0 && len(v) > dim && len(v)%dim == 0 {
		// Singleton wrapping concatenates identical rows; keep the first.
		return v[:dim]
	}
	return v
}

// Cosine calculates the cosine similarity between two vectors. Mismatched
// lengths or zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
