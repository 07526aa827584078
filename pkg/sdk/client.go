package voicematch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/voicematch/internal/db"
	dbBadger "github.com/kailas-cloud/voicematch/internal/db/badger"
	dbRedis "github.com/kailas-cloud/voicematch/internal/db/redis"
	"github.com/kailas-cloud/voicematch/internal/domain"
	"github.com/kailas-cloud/voicematch/internal/domain/match"
	"github.com/kailas-cloud/voicematch/internal/domain/similarity"
	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
	"github.com/kailas-cloud/voicematch/internal/keylock"
	speakerrepo "github.com/kailas-cloud/voicematch/internal/repository/speaker"
	enrollmentuc "github.com/kailas-cloud/voicematch/internal/usecase/enrollment"
	healthuc "github.com/kailas-cloud/voicematch/internal/usecase/health"
	identificationuc "github.com/kailas-cloud/voicematch/internal/usecase/identification"
	speakeruc "github.com/kailas-cloud/voicematch/internal/usecase/speaker"
	verificationuc "github.com/kailas-cloud/voicematch/internal/usecase/verification"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces so tests can substitute the use cases.
type enrollmentUseCase interface {
	Enroll(ctx context.Context, name string, embeddings [][]float32) (enrollmentuc.Result, error)
	Update(ctx context.Context, name string, embeddings [][]float32, mode enrollmentuc.Mode) (enrollmentuc.Result, error)
}

type identificationUseCase interface {
	Identify(ctx context.Context, q match.Query, opts identificationuc.Options) (match.Identification, error)
	Defaults() identificationuc.Options
}

type verificationUseCase interface {
	Verify(ctx context.Context, q match.Query, name string, threshold float64) (match.Verification, error)
	DefaultThreshold() float64
}

type speakerUseCase interface {
	Get(ctx context.Context, name string) (domspk.Speaker, error)
	List(ctx context.Context) ([]domspk.Speaker, error)
	Delete(ctx context.Context, name string) error
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the voicematch SDK entry point. It is safe for concurrent use.
type Client struct {
	store      db.Store
	enrollSvc  enrollmentUseCase
	identSvc   identificationUseCase
	verifySvc  verificationUseCase
	speakerSvc speakerUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New creates a voicematch Client and opens its storage.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	def := domain.DefaultMatchingConfig()
	cfg := &clientConfig{
		keyPrefix:        domain.DefaultKeyPrefix,
		readinessTimeout: defaultReadinessTimeout,
		dimensions:       def.Dimensions,
		metric:           def.Metric,
		requiredSamples:  def.RequiredSamples,
		maxSamples:       def.MaxSamples,
		unknownThreshold: def.UnknownThreshold,
		highThreshold:    def.HighThreshold,
		topN:             def.TopN,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("voicematch: storage required (use WithValkey, WithRedis, WithBadger or WithInMemory)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("voicematch: database not ready: %w", err)
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, fmt.Errorf("voicematch: %s address required", cfg.driver)
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("voicematch: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "badger":
		s, err := dbBadger.NewStore(dbBadger.Config{
			Dir:      cfg.dir,
			InMemory: cfg.inMemory,
		})
		if err != nil {
			return nil, fmt.Errorf("voicematch: create badger store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("voicematch: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	metric, err := similarity.ParseMetric(cfg.metric)
	if err != nil {
		return nil, fmt.Errorf("voicematch: %w", err)
	}

	repo := speakerrepo.New(store, cfg.keyPrefix)
	locks := keylock.New()

	enrollSvc := enrollmentuc.New(repo, locks, cfg.dimensions).
		WithMetric(metric).
		WithSampleLimits(cfg.requiredSamples, cfg.maxSamples)
	identSvc, err := identificationuc.New(repo, cfg.dimensions).
		WithMetric(metric).
		WithDefaults(identificationuc.Options{
			UnknownThreshold: cfg.unknownThreshold,
			HighThreshold:    cfg.highThreshold,
			TopN:             cfg.topN,
		})
	if err != nil {
		return nil, fmt.Errorf("voicematch: %w", err)
	}
	verifyThreshold := cfg.highThreshold
	if cfg.verifyThreshold != nil {
		verifyThreshold = *cfg.verifyThreshold
	}
	if verifyThreshold < 0 || verifyThreshold > 100 {
		return nil, fmt.Errorf("voicematch: verify threshold must be within [0, 100], got %v", verifyThreshold)
	}
	verifySvc := verificationuc.New(repo, cfg.dimensions).
		WithMetric(metric).
		WithThreshold(verifyThreshold)

	return &Client{
		store:      store,
		enrollSvc:  enrollSvc,
		identSvc:   identSvc,
		verifySvc:  verifySvc,
		speakerSvc: speakeruc.New(repo, locks),
		healthSvc:  healthuc.New(store, repo),
		obs:        obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health checks the database and the readability of the enrolled set.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:   string(report.Status),
		Checks:   checks,
		Speakers: report.Speakers,
	}
}
