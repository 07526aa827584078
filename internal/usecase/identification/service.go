package identification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/voicematch/internal/domain"
	"github.com/kailas-cloud/voicematch/internal/domain/match"
	"github.com/kailas-cloud/voicematch/internal/domain/similarity"
	"github.com/kailas-cloud/voicematch/internal/logger"
	"github.com/kailas-cloud/voicematch/internal/metrics"
)

// Options are the per-call decision parameters. Start from Service.Defaults and override.
type Options struct {
	UnknownThreshold float64
	HighThreshold    float64
	TopN             int
}

// Validate enforces 0 <= UnknownThreshold <= HighThreshold <= 100 and TopN >= 1.
func (o Options) Validate() error {
	if err := o.thresholds().Validate(); err != nil {
		return err
	}
	if o.TopN < 1 {
		return domain.NewValidationError("top_n", "must be at least 1")
	}
	return nil
}

func (o Options) thresholds() match.Thresholds {
	return match.Thresholds{Unknown: o.UnknownThreshold, High: o.HighThreshold}
}

// Service runs open-set identification over every enrolled speaker. It holds no mutable state.
type Service struct {
	repo         SpeakerLister
	metric       similarity.Metric
	dims         int
	defaults     Options
	noVoiceFloor float64
}

// New creates an identification service with 30/70 thresholds and top-5 candidates.
// dims <= 0 disables the fixed-dimension check on queries.
func New(repo SpeakerLister, dims int) *Service {
	def := domain.DefaultMatchingConfig()
	return &Service{
		repo:   repo,
		metric: similarity.MetricCosine,
		dims:   dims,
		defaults: Options{
			UnknownThreshold: def.UnknownThreshold,
			HighThreshold:    def.HighThreshold,
			TopN:             def.TopN,
		},
	}
}

// WithMetric sets the similarity metric.
func (s *Service) WithMetric(m similarity.Metric) *Service {
	s.metric = m
	return s
}

// WithDefaults replaces the default options. It fails on invalid options.
func (s *Service) WithDefaults(o Options) (*Service, error) {
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("identification defaults: %w", err)
	}
	s.defaults = o
	return s, nil
}

// WithNoVoiceFloor treats a best score below p percent as silence. 0 disables it.
func (s *Service) WithNoVoiceFloor(p float64) *Service {
	s.noVoiceFloor = p
	return s
}

// Defaults returns the configured options.
func (s *Service) Defaults() Options { return s.defaults }

// Identify scores the query against every enrolled speaker and classifies the best match.
func (s *Service) Identify(ctx context.Context, q match.Query, opts Options) (match.Identification, error) {
	if err := opts.Validate(); err != nil {
		return match.Identification{}, err
	}
	th := opts.thresholds()

	speakers, err := s.repo.List(ctx)
	if err != nil {
		return match.Identification{}, fmt.Errorf("list speakers: %w", err)
	}
	if len(speakers) == 0 {
		res := match.NewIdentification(match.DecisionNoEnrolledUsers, nil, th, opts.TopN)
		s.observe(ctx, res, false)
		return res, nil
	}

	// A no-voice query is answered as such even when its embedding is unusable.
	if q.NoVoice && len(q.Embedding) == 0 {
		return s.noVoice(ctx, th, opts.TopN), nil
	}
	if err := domain.ValidateEmbedding("embedding", q.Embedding, s.dims); err != nil {
		if q.NoVoice {
			return s.noVoice(ctx, th, opts.TopN), nil
		}
		return match.Identification{}, err
	}

	fn := s.metric.Func()
	scores := make([]match.Score, 0, len(speakers))
	for _, spk := range speakers {
		sum, err := similarity.Aggregate(fn, q.Embedding, spk.Samples())
		if err != nil {
			if errors.Is(err, domain.ErrDimensionMismatch) {
				if q.NoVoice {
					return s.noVoice(ctx, th, opts.TopN), nil
				}
				return match.Identification{}, &domain.ValidationError{
					Field:  "embedding",
					Reason: fmt.Sprintf("does not match enrolled speaker %q", spk.Name()),
					Err:    err,
				}
			}
			return match.Identification{}, fmt.Errorf("score speaker %s: %w", spk.Name(), err)
		}
		scores = append(scores, match.NewScore(spk.ID(), spk.Name(), spk.RegisteredAt(), sum).WithSeq(spk.Seq()))
	}

	match.Rank(scores)
	best := scores[0].Percent()
	decision := match.Classify(best, th, q.NoVoice, s.noVoiceFloor)

	res := match.NewIdentification(decision, scores, th, opts.TopN)
	metrics.IdentificationBestScore.Observe(best)
	s.observe(ctx, res, true)
	return res, nil
}

func (s *Service) noVoice(ctx context.Context, th match.Thresholds, topN int) match.Identification {
	res := match.NewIdentification(match.DecisionNoVoice, nil, th, topN)
	s.observe(ctx, res, false)
	return res
}

func (s *Service) observe(ctx context.Context, res match.Identification, scored bool) {
	metrics.IdentificationsTotal.WithLabelValues(res.Decision.String()).Inc()
	logger.FromContext(ctx).Debug("identification",
		zap.String("decision", res.Decision.String()),
		zap.String("name", res.Name),
		zap.Float64("confidence", res.Confidence),
		zap.Int("candidates", len(res.Candidates)),
		zap.Bool("scored", scored),
	)
}
