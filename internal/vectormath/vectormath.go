// Package vectormath provides the distance and similarity functions used by
// the vector indexes and the consistency checks.
package vectormath

import "math"

// L2Squared returns the squared Euclidean distance between a and b.
// Use it for ranking; it avoids the square root.
func L2Squared(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// L2 returns the Euclidean distance between a and b.
func L2(a, b []float32) float64 {
	d := L2Squared(a, b)
	if d == math.MaxFloat64 {
		return d
	}
	return math.Sqrt(d)
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Zero vectors and mismatched lengths yield 0.
func Cosine(a, b []float32) float64 {
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
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Normalize returns a unit-length copy of v. A zero vector is copied unchanged.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		copy(out, v)
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
