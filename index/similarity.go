package index

import "math"

// dotProduct computes the inner product of two equal-length vectors.
// On unit-normalized vectors this equals cosine similarity.
func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Normalize returns a unit-length copy of the vector. A zero vector is
// returned unchanged, as it cannot be normalized.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sumSquares float32
	for _, val := range v {
		sumSquares += val * val
	}
	if sumSquares == 0 {
		result := make([]float32, len(v))
		return result
	}

	inv := float32(1.0 / math.Sqrt(float64(sumSquares)))
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val * inv
	}
	return result
}
