// Package similarity scores pairs of speaker embeddings.
package similarity

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/voicematch/internal/domain"
)

// Func scores two equal-length vectors. Higher means more alike.
type Func func(a, b []float32) (float64, error)

// Metric names a similarity function.
type Metric string

const (
	// MetricCosine is cosine similarity in [-1, 1].
	MetricCosine Metric = "cosine"
	// MetricEuclidean maps euclidean distance d to 1/(1+d), in (0, 1].
	MetricEuclidean Metric = "euclidean"
)

// ParseMetric converts a config string to a Metric. Empty means cosine.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricCosine:
		return MetricCosine, nil
	case MetricEuclidean:
		return MetricEuclidean, nil
	default:
		return "", fmt.Errorf("unknown similarity metric %q", s)
	}
}

// String returns the metric name.
func (m Metric) String() string { return string(m) }

// Func returns the scoring function for the metric, cosine when unset.
func (m Metric) Func() Func {
	if m == MetricEuclidean {
		return Euclidean
	}
	return Cosine
}

// Cosine computes the cosine similarity of a and b in float64.
// Returns 0 when either vector has zero norm.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine over %d and %d values: %w", len(a), len(b), domain.ErrDimensionMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	s := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return clamp(s, -1, 1), nil
}

// Euclidean converts the euclidean distance of a and b to a similarity 1/(1+d).
func Euclidean(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("euclidean over %d and %d values: %w", len(a), len(b), domain.ErrDimensionMismatch)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return 1 / (1 + math.Sqrt(sum)), nil
}

// Summary aggregates the scores of one query against every sample of a speaker.
type Summary struct {
	Mean  float64
	Max   float64
	Min   float64
	Count int
}

// Aggregate scores query against each sample. Mean is the decision value.
func Aggregate(fn Func, query []float32, samples [][]float32) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, domain.NewValidationError("samples", "at least one sample is required")
	}

	sum := Summary{Max: math.Inf(-1), Min: math.Inf(1), Count: len(samples)}
	var total float64
	for i, s := range samples {
		v, err := fn(query, s)
		if err != nil {
			return Summary{}, fmt.Errorf("sample %d: %w", i, err)
		}
		total += v
		sum.Max = math.Max(sum.Max, v)
		sum.Min = math.Min(sum.Min, v)
	}
	sum.Mean = total / float64(len(samples))
	return sum, nil
}

// Stats describes the spread of similarities across all unordered pairs of a sample set.
type Stats struct {
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
	Pairs int
}

// Pairwise scores every unordered pair in samples.
// Fewer than two samples yields zero Stats with Pairs == 0.
func Pairwise(fn Func, samples [][]float32) (Stats, error) {
	if len(samples) < 2 {
		return Stats{}, nil
	}

	scores := make([]float64, 0, len(samples)*(len(samples)-1)/2)
	for i := 0; i < len(samples); i++ {
		for j := i + 1; j < len(samples); j++ {
			v, err := fn(samples[i], samples[j])
			if err != nil {
				return Stats{}, fmt.Errorf("pair (%d, %d): %w", i, j, err)
			}
			scores = append(scores, v)
		}
	}

	st := Stats{Min: math.Inf(1), Max: math.Inf(-1), Pairs: len(scores)}
	var total float64
	for _, v := range scores {
		total += v
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
	}
	st.Mean = total / float64(len(scores))

	var sq float64
	for _, v := range scores {
		d := v - st.Mean
		sq += d * d
	}
	st.Std = math.Sqrt(sq / float64(len(scores)))
	return st, nil
}

// Percent converts a native similarity to a percentage clamped to [0, 100].
func Percent(v float64) float64 {
	return clamp(v*100, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
