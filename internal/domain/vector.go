package domain

import "math"

type Vector []float64

func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Cosine returns the cosine similarity of a and b, or 0 when either vector
// has zero norm.
func Cosine(a, b Vector) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}

	normA := a.Norm()
	normB := b.Norm()
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (normA * normB)
}
