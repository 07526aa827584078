package enrollment

import (
	"errors"
	"math"

	"github.com/kailas-cloud/voicematch/internal/domain"
	"github.com/kailas-cloud/voicematch/internal/domain/similarity"
)

const (
	// SingleSampleQuality is reported when there is nothing to compare a lone sample against.
	SingleSampleQuality = 100
	// DefaultRecommendedThreshold is suggested when fewer than two samples exist.
	DefaultRecommendedThreshold = 65

	minRecommended = 0.5
	maxRecommended = 0.8
)

// Evaluation summarizes how consistent a sample set is.
type Evaluation struct {
	QualityPercent       float64
	LowQuality           bool
	RecommendedThreshold float64
	Stats                similarity.Stats
}

// Evaluate computes the quality of a sample set: mean pairwise similarity as a percentage.
// Quality never gates enrollment; LowQuality only flags it.
func (s *Service) Evaluate(samples [][]float32) (Evaluation, error) {
	if len(samples) == 0 {
		return Evaluation{}, domain.NewValidationError("embeddings", "at least one sample is required")
	}
	if len(samples) == 1 {
		return Evaluation{
			QualityPercent:       SingleSampleQuality,
			LowQuality:           SingleSampleQuality < s.lowQuality,
			RecommendedThreshold: DefaultRecommendedThreshold,
		}, nil
	}

	st, err := similarity.Pairwise(s.metric.Func(), samples)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return Evaluation{}, &domain.ValidationError{
				Field: "embeddings", Reason: "samples differ in length", Err: err,
			}
		}
		return Evaluation{}, err
	}

	quality := similarity.Percent(st.Mean)
	return Evaluation{
		QualityPercent:       quality,
		LowQuality:           quality < s.lowQuality,
		RecommendedThreshold: math.Min(math.Max(st.Mean-st.Std, minRecommended), maxRecommended) * 100,
		Stats:                st,
	}, nil
}
