package vector

import "math"

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
// Mismatched lengths, empty vectors and zero-magnitude vectors give 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / math.Sqrt(na*nb)
	if math.IsNaN(sim) {
		return 0
	}
	return math.Max(-1, math.Min(1, sim))
}
