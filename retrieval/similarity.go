package retrieval

import "math"

// CosineSimilarity computes dot(a,b)/(‖a‖·‖b‖) in float64 precision. It
// returns the sentinel -1.0 when either vector is empty, the lengths differ,
// or either norm is zero; any realistic similarity threshold filters the
// sentinel out naturally, so callers never need to special-case bad input.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return -1.0
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0.0 || normB == 0.0 {
		return -1.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
