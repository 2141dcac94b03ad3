package index

import (
	"fmt"
	"math"
)

// Normalize returns a unit-length copy of v. A zero vector is returned as a
// zero copy.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}

	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}

	return out
}

func Dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

// Validate checks a batch before it is added to an index of the given dimension.
func Validate(dimension int, vectors [][]float32, metadata []string) error {
	if len(vectors) != len(metadata) {
		return fmt.Errorf("%w: %d vectors, %d metadata", ErrLengthMismatch, len(vectors), len(metadata))
	}

	for i, v := range vectors {
		if v == nil {
			return fmt.Errorf("%w at position %d", ErrMissingVector, i)
		}
		if len(v) != dimension {
			return fmt.Errorf("%w at position %d: expected %d, got %d", ErrDimensionMismatch, i, dimension, len(v))
		}
	}

	return nil
}
