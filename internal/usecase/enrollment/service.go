package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/voicematch/internal/domain"
	"github.com/kailas-cloud/voicematch/internal/domain/similarity"
	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
	"github.com/kailas-cloud/voicematch/internal/logger"
	"github.com/kailas-cloud/voicematch/internal/metrics"
)

// Mode selects how an update combines new samples with stored ones.
type Mode string

const (
	// ModeAppend adds samples after the stored ones, evicting the oldest beyond the cap.
	ModeAppend Mode = "append"
	// ModeReplace discards the stored samples.
	ModeReplace Mode = "replace"
)

// ParseMode converts an API string to a Mode. Empty means append.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAppend:
		return ModeAppend, nil
	case ModeReplace:
		return ModeReplace, nil
	default:
		return "", domain.NewValidationError("mode", fmt.Sprintf("unknown mode %q (want append or replace)", s))
	}
}

// Result describes the stored sample set after an enrollment write.
type Result struct {
	ID                   string
	Name                 string
	Samples              int
	QualityPercent       float64
	LowQuality           bool
	RecommendedThreshold float64
	Created              bool
}

// Service enrolls speakers and maintains their sample sets.
type Service struct {
	repo       Repository
	locks      Locker
	metric     similarity.Metric
	dims       int
	required   int
	maxSamples int
	lowQuality float64
	now        func() time.Time
}

// New creates an enrollment service with the default sample policy.
// dims <= 0 disables the fixed-dimension check.
func New(repo Repository, locks Locker, dims int) *Service {
	def := domain.DefaultMatchingConfig()
	return &Service{
		repo:       repo,
		locks:      locks,
		metric:     similarity.MetricCosine,
		dims:       dims,
		required:   def.RequiredSamples,
		maxSamples: def.MaxSamples,
		lowQuality: def.LowQualityPercent,
		now:        time.Now,
	}
}

// WithMetric sets the similarity metric used for quality.
func (s *Service) WithMetric(m similarity.Metric) *Service {
	s.metric = m
	return s
}

// WithSampleLimits sets the exact enrollment count and the stored cap. Non-positive values keep defaults.
func (s *Service) WithSampleLimits(required, maxSamples int) *Service {
	if required > 0 {
		s.required = required
	}
	if maxSamples > 0 {
		s.maxSamples = maxSamples
	}
	if s.maxSamples < s.required {
		s.maxSamples = s.required
	}
	return s
}

// WithLowQualityPercent sets the quality below which an enrollment is flagged.
func (s *Service) WithLowQualityPercent(p float64) *Service {
	s.lowQuality = p
	return s
}

// WithClock sets the time source for registration and update timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RequiredSamples returns how many samples a new enrollment takes.
func (s *Service) RequiredSamples() int { return s.required }

// MaxSamples returns the stored sample cap.
func (s *Service) MaxSamples() int { return s.maxSamples }

// Enroll registers a new speaker. An existing name is rejected with ErrDuplicateName.
func (s *Service) Enroll(ctx context.Context, name string, embeddings [][]float32) (Result, error) {
	res, err := s.enroll(ctx, name, embeddings)
	s.observe(ctx, "create", res, err)
	return res, err
}

func (s *Service) enroll(ctx context.Context, name string, embeddings [][]float32) (Result, error) {
	name, err := domspk.NormalizeName(name)
	if err != nil {
		return Result{}, err
	}
	if len(embeddings) != s.required {
		return Result{}, domain.NewValidationError("embeddings",
			fmt.Sprintf("exactly %d samples are required, got %d", s.required, len(embeddings)))
	}
	if err := domain.ValidateEmbeddings("embeddings", embeddings, s.dims); err != nil {
		return Result{}, err
	}

	eval, err := s.Evaluate(embeddings)
	if err != nil {
		return Result{}, err
	}

	spk, err := domspk.New(name, embeddings, eval.QualityPercent, s.now())
	if err != nil {
		return Result{}, err
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	if err := s.repo.Create(ctx, spk); err != nil {
		return Result{}, fmt.Errorf("create speaker: %w", err)
	}

	return resultOf(spk, eval, true), nil
}

// Update adds or replaces samples of an existing speaker and recomputes its quality.
func (s *Service) Update(ctx context.Context, name string, embeddings [][]float32, mode Mode) (Result, error) {
	res, err := s.update(ctx, name, embeddings, mode)
	op := string(mode)
	if mode != ModeAppend && mode != ModeReplace {
		op = "update"
	}
	s.observe(ctx, op, res, err)
	return res, err
}

func (s *Service) update(ctx context.Context, name string, embeddings [][]float32, mode Mode) (Result, error) {
	name, err := domspk.NormalizeName(name)
	if err != nil {
		return Result{}, err
	}
	if mode != ModeAppend && mode != ModeReplace {
		return Result{}, domain.NewValidationError("mode", fmt.Sprintf("unknown mode %q", mode))
	}
	if len(embeddings) == 0 || len(embeddings) > s.maxSamples {
		return Result{}, domain.NewValidationError("embeddings",
			fmt.Sprintf("between 1 and %d samples are required, got %d", s.maxSamples, len(embeddings)))
	}
	if err := domain.ValidateEmbeddings("embeddings", embeddings, s.dims); err != nil {
		return Result{}, err
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	current, err := s.repo.Get(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("get speaker: %w", err)
	}

	samples := embeddings
	if mode == ModeAppend {
		samples = make([][]float32, 0, current.NumSamples()+len(embeddings))
		samples = append(samples, current.Samples()...)
		samples = append(samples, embeddings...)
		if over := len(samples) - s.maxSamples; over > 0 {
			samples = samples[over:]
		}
	}

	eval, err := s.Evaluate(samples)
	if err != nil {
		return Result{}, err
	}

	updated := current.WithSamples(samples, eval.QualityPercent, s.now())
	if err := s.repo.Save(ctx, updated); err != nil {
		return Result{}, fmt.Errorf("save speaker: %w", err)
	}

	return resultOf(updated, eval, false), nil
}

func resultOf(spk domspk.Speaker, eval Evaluation, created bool) Result {
	return Result{
		ID:                   spk.ID(),
		Name:                 spk.Name(),
		Samples:              spk.NumSamples(),
		QualityPercent:       eval.QualityPercent,
		LowQuality:           eval.LowQuality,
		RecommendedThreshold: eval.RecommendedThreshold,
		Created:              created,
	}
}

func (s *Service) observe(ctx context.Context, op string, res Result, err error) {
	metrics.EnrollmentsTotal.WithLabelValues(op, statusOf(err)).Inc()
	log := logger.FromContext(ctx)
	if err != nil {
		log.Debug("enrollment rejected", zap.String("operation", op), zap.Error(err))
		return
	}

	metrics.EnrollmentQuality.Observe(res.QualityPercent)
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("speaker", res.Name),
		zap.Int("samples", res.Samples),
		zap.Float64("quality_percent", res.QualityPercent),
	}
	if res.LowQuality {
		log.Warn("low enrollment quality, consider re-recording", fields...)
		return
	}
	log.Info("speaker enrolled", fields...)
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrDuplicateName):
		return "duplicate"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
