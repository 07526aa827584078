package domain

import (
	"fmt"
	"math"
)

// ValidateEmbedding checks one vector against the configured dimensionality.
// Values must be finite.
func ValidateEmbedding(field string, v []float32, dims int) error {
	if len(v) == 0 {
		return NewValidationError(field, "embedding is required")
	}
	if dims > 0 && len(v) != dims {
		return NewDimensionError(field, len(v), dims)
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return NewValidationError(field, fmt.Sprintf("value at index %d is not finite", i))
		}
	}
	return nil
}

// ValidateEmbeddings checks a batch of vectors, reporting the first failure by index.
func ValidateEmbeddings(field string, vs [][]float32, dims int) error {
	for i, v := range vs {
		if err := ValidateEmbedding(fmt.Sprintf("%s[%d]", field, i), v, dims); err != nil {
			return err
		}
	}
	return nil
}

// CloneEmbeddings deep-copies a batch so later caller mutations do not leak in.
func CloneEmbeddings(vs [][]float32) [][]float32 {
	if vs == nil {
		return nil
	}
	out := make([][]float32, len(vs))
	for i, v := range vs {
		out[i] = append([]float32(nil), v...)
	}
	return out
}
