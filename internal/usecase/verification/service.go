package verification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/voicematch/internal/domain"
	"github.com/kailas-cloud/voicematch/internal/domain/match"
	"github.com/kailas-cloud/voicematch/internal/domain/similarity"
	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
	"github.com/kailas-cloud/voicematch/internal/logger"
	"github.com/kailas-cloud/voicematch/internal/metrics"
)

// Service checks a query against one claimed speaker. It holds no mutable state.
type Service struct {
	repo      SpeakerGetter
	metric    similarity.Metric
	dims      int
	threshold float64
}

// New creates a verification service accepting at 70%.
func New(repo SpeakerGetter, dims int) *Service {
	return &Service{
		repo:      repo,
		metric:    similarity.MetricCosine,
		dims:      dims,
		threshold: domain.DefaultMatchingConfig().VerifyThreshold,
	}
}

// WithMetric sets the similarity metric.
func (s *Service) WithMetric(m similarity.Metric) *Service {
	s.metric = m
	return s
}

// WithThreshold sets the default acceptance threshold in percent.
func (s *Service) WithThreshold(p float64) *Service {
	s.threshold = p
	return s
}

// DefaultThreshold returns the configured acceptance threshold.
func (s *Service) DefaultThreshold() float64 { return s.threshold }

// Verify accepts the claim iff the mean similarity percent against the claimed
// speaker reaches threshold. A no-voice query is always rejected with score 0.
func (s *Service) Verify(ctx context.Context, q match.Query, name string, threshold float64) (match.Verification, error) {
	if threshold < 0 || threshold > 100 {
		return match.Verification{}, domain.NewValidationError("threshold", "must be within [0, 100]")
	}
	name, err := domspk.NormalizeName(name)
	if err != nil {
		return match.Verification{}, err
	}

	spk, err := s.repo.Get(ctx, name)
	if err != nil {
		return match.Verification{}, fmt.Errorf("get speaker: %w", err)
	}

	res := match.Verification{Name: spk.Name(), SpeakerID: spk.ID(), Threshold: threshold}
	if q.NoVoice {
		res.NoVoice = true
		s.observe(ctx, res, "no_voice")
		return res, nil
	}
	if err := domain.ValidateEmbedding("embedding", q.Embedding, s.dims); err != nil {
		return match.Verification{}, err
	}

	sum, err := similarity.Aggregate(s.metric.Func(), q.Embedding, spk.Samples())
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return match.Verification{}, &domain.ValidationError{
				Field: "embedding", Reason: "does not match the enrolled samples", Err: err,
			}
		}
		return match.Verification{}, fmt.Errorf("score speaker %s: %w", spk.Name(), err)
	}

	res.Confidence = similarity.Percent(sum.Mean)
	res.MaxConfidence = similarity.Percent(sum.Max)
	res.Accepted = res.Confidence >= threshold

	outcome := "rejected"
	if res.Accepted {
		outcome = "accepted"
	}
	s.observe(ctx, res, outcome)
	return res, nil
}

func (s *Service) observe(ctx context.Context, res match.Verification, outcome string) {
	metrics.VerificationsTotal.WithLabelValues(outcome).Inc()
	logger.FromContext(ctx).Debug("verification",
		zap.String("speaker", res.Name),
		zap.String("result", outcome),
		zap.Float64("confidence", res.Confidence),
		zap.Float64("threshold", res.Threshold),
	)
}
