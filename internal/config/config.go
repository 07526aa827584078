package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/voicematch/internal/domain"
	"github.com/kailas-cloud/voicematch/internal/domain/similarity"
)

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverBadger = "badger"
)

// Config holds the voicematch API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	Matching   MatchingConfig   `yaml:"matching"`
	Enrollment EnrollmentConfig `yaml:"enrollment"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, badger (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Dir              string   `yaml:"dir"`       // badger only
	InMemory         bool     `yaml:"in_memory"` // badger only
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// MatchingConfig holds scoring and decision settings. Zero values take defaults.
type MatchingConfig struct {
	Dimensions       int     `yaml:"dimensions"`
	Metric           string  `yaml:"metric"` // cosine, euclidean
	UnknownThreshold float64 `yaml:"unknown_threshold"`
	HighThreshold    float64 `yaml:"high_threshold"`
	VerifyThreshold  float64 `yaml:"verify_threshold"`
	TopN             int     `yaml:"top_n"`
	NoVoiceFloor     float64 `yaml:"no_voice_floor_percent"` // 0 disables
}

// EnrollmentConfig holds sample count and quality settings.
type EnrollmentConfig struct {
	RequiredSamples   int     `yaml:"required_samples"`
	MaxSamples        int     `yaml:"max_samples"`
	LowQualityPercent float64 `yaml:"low_quality_percent"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.DefaultPageSize <= 0 {
		c.HTTP.DefaultPageSize = 20
	}
	if c.HTTP.MaxPageSize <= 0 {
		c.HTTP.MaxPageSize = 100
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = domain.DefaultKeyPrefix
	}

	def := domain.DefaultMatchingConfig()
	m := &c.Matching
	if m.Dimensions <= 0 {
		m.Dimensions = def.Dimensions
	}
	if m.Metric == "" {
		m.Metric = def.Metric
	}
	if m.UnknownThreshold <= 0 {
		m.UnknownThreshold = def.UnknownThreshold
	}
	if m.HighThreshold <= 0 {
		m.HighThreshold = def.HighThreshold
	}
	if m.VerifyThreshold <= 0 {
		m.VerifyThreshold = m.HighThreshold
	}
	if m.TopN <= 0 {
		m.TopN = def.TopN
	}

	e := &c.Enrollment
	if e.RequiredSamples <= 0 {
		e.RequiredSamples = def.RequiredSamples
	}
	if e.MaxSamples <= 0 {
		e.MaxSamples = def.MaxSamples
	}
	if e.LowQualityPercent <= 0 {
		e.LowQualityPercent = def.LowQualityPercent
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.DefaultPageSize > c.HTTP.MaxPageSize {
		return fmt.Errorf("http.default_page_size (%d) exceeds http.max_page_size (%d)",
			c.HTTP.DefaultPageSize, c.HTTP.MaxPageSize)
	}

	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverBadger:
		if c.Database.Dir == "" && !c.Database.InMemory {
			return fmt.Errorf("database.dir is required unless database.in_memory is set")
		}
	default:
		return fmt.Errorf("database.driver must be one of valkey, redis, badger, got %q", c.Database.Driver)
	}

	m := c.Matching
	if _, err := similarity.ParseMetric(m.Metric); err != nil {
		return fmt.Errorf("matching.metric: %w", err)
	}
	if m.UnknownThreshold > m.HighThreshold || m.HighThreshold > 100 {
		return fmt.Errorf("matching thresholds must satisfy 0 <= unknown (%v) <= high (%v) <= 100",
			m.UnknownThreshold, m.HighThreshold)
	}
	if m.VerifyThreshold > 100 {
		return fmt.Errorf("matching.verify_threshold must be within [0, 100], got %v", m.VerifyThreshold)
	}
	if m.NoVoiceFloor < 0 || m.NoVoiceFloor > 100 {
		return fmt.Errorf("matching.no_voice_floor_percent must be within [0, 100], got %v", m.NoVoiceFloor)
	}

	if c.Enrollment.MaxSamples < c.Enrollment.RequiredSamples {
		return fmt.Errorf("enrollment.max_samples (%d) must be >= enrollment.required_samples (%d)",
			c.Enrollment.MaxSamples, c.Enrollment.RequiredSamples)
	}
	return nil
}

// MatchingDefaults converts the matching and enrollment sections to domain settings.
func (c *Config) MatchingDefaults() domain.MatchingConfig {
	return domain.MatchingConfig{
		Dimensions:        c.Matching.Dimensions,
		Metric:            c.Matching.Metric,
		UnknownThreshold:  c.Matching.UnknownThreshold,
		HighThreshold:     c.Matching.HighThreshold,
		VerifyThreshold:   c.Matching.VerifyThreshold,
		TopN:              c.Matching.TopN,
		NoVoiceFloor:      c.Matching.NoVoiceFloor,
		RequiredSamples:   c.Enrollment.RequiredSamples,
		MaxSamples:        c.Enrollment.MaxSamples,
		LowQualityPercent: c.Enrollment.LowQualityPercent,
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
