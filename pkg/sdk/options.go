package voicematch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey", "redis" or "badger"
	addrs    []string
	password string
	dir      string
	inMemory bool

	keyPrefix        string
	readinessTimeout time.Duration

	dimensions       int
	metric           string
	requiredSamples  int
	maxSamples       int
	unknownThreshold float64
	highThreshold    float64
	verifyThreshold  *float64 // nil follows highThreshold
	topN             int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithBadger stores speakers in an embedded badger database under dir.
func WithBadger(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "badger"
		c.dir = dir
		c.inMemory = false
	})
}

// WithInMemory keeps speakers in memory only. Everything is lost on Close.
func WithInMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "badger"
		c.dir = ""
		c.inMemory = true
	})
}

// WithKeyPrefix sets the storage key prefix. Default: "voicematch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithReadinessTimeout bounds the initial database readiness wait. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithDimensions sets the embedding length every sample and query must have.
// Defaults to 192. Zero accepts any length consistent with the stored samples.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithEuclidean scores with 1/(1+distance) instead of cosine similarity.
func WithEuclidean() Option {
	return optionFunc(func(c *clientConfig) {
		c.metric = "euclidean"
	})
}

// WithRequiredSamples sets how many samples Enroll requires. Default: 3.
func WithRequiredSamples(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.requiredSamples = n
	})
}

// WithMaxSamples caps the samples kept per speaker. Default: 10.
func WithMaxSamples(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxSamples = n
	})
}

// WithThresholds sets the default identification thresholds in percent. Default: 30 and 70.
func WithThresholds(unknownPct, highPct float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.unknownThreshold = unknownPct
		c.highThreshold = highPct
	})
}

// WithVerifyThreshold sets the default verification threshold in percent.
// Default: the identification high threshold.
func WithVerifyThreshold(pct float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.verifyThreshold = &pct
	})
}

// WithTopN sets how many candidates Identify returns by default. Default: 5.
func WithTopN(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topN = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithMetrics registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// IdentifyOption overrides a default for one Identify call.
type IdentifyOption func(*identifyParams)

type identifyParams struct {
	unknown *float64
	high    *float64
	topN    *int
}

// UnknownThreshold sets the percent below which the query is UNKNOWN.
func UnknownThreshold(pct float64) IdentifyOption {
	return func(p *identifyParams) { p.unknown = &pct }
}

// HighThreshold sets the percent from which the query is IDENTIFIED.
func HighThreshold(pct float64) IdentifyOption {
	return func(p *identifyParams) { p.high = &pct }
}

// TopN sets how many ranked candidates are returned. It must be at least 1.
func TopN(n int) IdentifyOption {
	return func(p *identifyParams) { p.topN = &n }
}

// VerifyOption overrides a default for one Verify call.
type VerifyOption func(*verifyParams)

type verifyParams struct {
	threshold *float64
}

// Threshold sets the acceptance threshold in percent.
func Threshold(pct float64) VerifyOption {
	return func(p *verifyParams) { p.threshold = &pct }
}
