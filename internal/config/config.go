// Package config provides configuration loading and validation for the matcher.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/resume-matcher/internal/esco"
	"github.com/jonathan/resume-matcher/internal/parsing"
	"github.com/jonathan/resume-matcher/internal/pipeline"
	"github.com/jonathan/resume-matcher/internal/server/ratelimit"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Config is the full matcher configuration. It can be loaded from a JSON or YAML file;
// fields absent from the file keep their defaults.
type Config struct {
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Scoring    ScoringConfig    `json:"scoring" yaml:"scoring"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	ESCO       ESCOConfig       `json:"esco" yaml:"esco"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
	HTTP       HTTPConfig       `json:"http" yaml:"http"`
}

// ValidationConfig controls the external validation stage.
type ValidationConfig struct {
	Enabled              *bool   `json:"enabled,omitempty" yaml:"enabled"` // default true
	ConfidenceThreshold  float64 `json:"confidence_threshold" yaml:"confidence_threshold" validate:"gte=0,lte=1"`
	MaxTerms             int     `json:"max_terms" yaml:"max_terms" validate:"gte=1,lte=500"`
	BatchSize            int     `json:"batch_size" yaml:"batch_size" validate:"gte=1,lte=200"`
	MaxConcurrentBatches int     `json:"max_concurrent_batches" yaml:"max_concurrent_batches" validate:"gte=1,lte=100"`
	BatchDelayMS         int     `json:"batch_delay_ms" yaml:"batch_delay_ms" validate:"gte=0"`
	TermTimeoutMS        int     `json:"term_timeout_ms" yaml:"term_timeout_ms" validate:"gte=0"`
	StageTimeoutMS       int     `json:"stage_timeout_ms" yaml:"stage_timeout_ms" validate:"gte=0"`
	DocumentTimeoutMS    int     `json:"document_timeout_ms" yaml:"document_timeout_ms" validate:"gte=0"`
}

// ScoringConfig holds per-category weights keyed by category name.
type ScoringConfig struct {
	Weights map[string]float64 `json:"weights" yaml:"weights"`
}

// ExtractionConfig holds the noise-filter bounds.
type ExtractionConfig struct {
	Language  string `json:"language" yaml:"language"`
	MinLength int    `json:"min_length" yaml:"min_length" validate:"gte=1"`
	MaxLength int    `json:"max_length" yaml:"max_length" validate:"gtefield=MinLength"`
	// DictionaryPath names a JSON or YAML file of extra keywords per category.
	DictionaryPath string `json:"dictionary_path,omitempty" yaml:"dictionary_path"`
}

// CacheConfig holds cache TTLs and the optional second-tier store.
type CacheConfig struct {
	SearchTTLSec     int    `json:"search_ttl_sec" yaml:"search_ttl_sec" validate:"gte=1"`
	ValidationTTLSec int    `json:"validation_ttl_sec" yaml:"validation_ttl_sec" validate:"gte=1"`
	Driver           string `json:"driver,omitempty" yaml:"driver" validate:"omitempty,oneof=redis postgres"`
	URL              string `json:"url,omitempty" yaml:"url" validate:"required_with=Driver"`
}

// ESCOConfig configures the reference client.
type ESCOConfig struct {
	BaseURL           string  `json:"base_url" yaml:"base_url" validate:"required,url"`
	Language          string  `json:"language" yaml:"language" validate:"required"`
	ResultLimit       int     `json:"result_limit" yaml:"result_limit" validate:"gte=1,lte=50"`
	TimeoutMS         int     `json:"timeout_ms" yaml:"timeout_ms" validate:"gte=1"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `json:"burst" yaml:"burst" validate:"gte=1"`
	MaxRetries        int     `json:"max_retries" yaml:"max_retries" validate:"gte=0,lte=5"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Env   string `json:"env" yaml:"env" validate:"oneof=local dev prod"`
	Level string `json:"level,omitempty" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `json:"port" yaml:"port" validate:"gte=1,lte=65535"`
	ReadTimeoutSec  int `json:"read_timeout_sec" yaml:"read_timeout_sec" validate:"gte=1"`
	WriteTimeoutSec int `json:"write_timeout_sec" yaml:"write_timeout_sec" validate:"gte=1"`
	ShutdownSec     int `json:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec" validate:"gte=1"`
	MaxBodyBytes    int `json:"max_body_bytes" yaml:"max_body_bytes" validate:"gte=1024"`
	// RateLimitPerMinute bounds scan requests per client; zero or negative disables limiting.
	RateLimitPerMinute int `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	RateLimitBurst     int `json:"rate_limit_burst" yaml:"rate_limit_burst" validate:"gte=1"`
}

// ConfigurationError reports an invalid configuration value.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig loads configuration from a JSON (.json) or YAML (.yaml, .yml) file.
// ${VAR} and ${VAR:-default} references are expanded from the environment before
// parsing. Defaults are applied and the result is validated.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	data = expandEnvVars(data)

	// Decode over the defaults so explicit zeros survive. Weights are replaced as a
	// whole rather than merged key by key.
	cfg := Default()
	cfg.Scoring.Weights = nil
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if len(cfg.Scoring.Weights) == 0 {
		cfg.Scoring.Weights = defaultWeights()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultWeights() map[string]float64 {
	out := make(map[string]float64)
	for cat, w := range types.DefaultScoringWeights() {
		out[cat.String()] = w
	}
	return out
}

// ApplyDefaults fills zero-valued fields of a programmatically built Config. Negative
// or otherwise invalid values are kept so Validate can reject them. LoadConfig does not
// use it, so a zero read from a file is kept as written.
func (c *Config) ApplyDefaults() {
	v := &c.Validation
	if v.Enabled == nil {
		enabled := true
		v.Enabled = &enabled
	}
	if v.ConfidenceThreshold == 0 {
		v.ConfidenceThreshold = 0.7
	}
	if v.MaxTerms == 0 {
		v.MaxTerms = 25
	}
	if v.BatchSize == 0 {
		v.BatchSize = 20
	}
	if v.MaxConcurrentBatches == 0 {
		v.MaxConcurrentBatches = 10
	}
	if v.BatchDelayMS == 0 {
		v.BatchDelayMS = 100
	}
	if v.TermTimeoutMS == 0 {
		v.TermTimeoutMS = 5000
	}
	if v.StageTimeoutMS == 0 {
		v.StageTimeoutMS = 30000
	}
	if v.DocumentTimeoutMS == 0 {
		v.DocumentTimeoutMS = 5000
	}

	if len(c.Scoring.Weights) == 0 {
		c.Scoring.Weights = defaultWeights()
	}

	if c.Extraction.Language == "" {
		c.Extraction.Language = "english"
	}
	if c.Extraction.MinLength == 0 {
		c.Extraction.MinLength = 3
	}
	if c.Extraction.MaxLength == 0 {
		c.Extraction.MaxLength = 20
	}

	if c.Cache.SearchTTLSec == 0 {
		c.Cache.SearchTTLSec = int(esco.DefaultSearchTTL / time.Second)
	}
	if c.Cache.ValidationTTLSec == 0 {
		c.Cache.ValidationTTLSec = int(esco.DefaultValidationTTL / time.Second)
	}

	e := &c.ESCO
	if e.BaseURL == "" {
		e.BaseURL = esco.DefaultBaseURL
	}
	if e.Language == "" {
		e.Language = "en"
	}
	if e.ResultLimit == 0 {
		e.ResultLimit = 3
	}
	if e.TimeoutMS == 0 {
		e.TimeoutMS = 10000
	}
	if e.RequestsPerSecond == 0 {
		e.RequestsPerSecond = 20
	}
	if e.Burst == 0 {
		e.Burst = 10
	}
	if e.MaxRetries == 0 {
		e.MaxRetries = 2
	}

	if c.Logging.Env == "" {
		c.Logging.Env = "local"
	}

	h := &c.HTTP
	if h.Port == 0 {
		h.Port = 8080
	}
	if h.ReadTimeoutSec == 0 {
		h.ReadTimeoutSec = 10
	}
	if h.WriteTimeoutSec == 0 {
		h.WriteTimeoutSec = 60
	}
	if h.ShutdownSec == 0 {
		h.ShutdownSec = 10
	}
	if h.MaxBodyBytes == 0 {
		h.MaxBodyBytes = 1 << 20
	}
	if h.RateLimitPerMinute == 0 {
		h.RateLimitPerMinute = 60
	}
	if h.RateLimitBurst == 0 {
		h.RateLimitBurst = 10
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks ranges and cross-field constraints. The first violation is
// returned as a *ConfigurationError.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			field := strings.TrimPrefix(fe.Namespace(), "Config.")
			msg := fmt.Sprintf("failed %q", fe.Tag())
			if fe.Param() != "" {
				msg = fmt.Sprintf("failed %q (%s), got %v", fe.Tag(), fe.Param(), fe.Value())
			}
			return &ConfigurationError{Field: field, Message: msg}
		}
		return &ConfigurationError{Field: "config", Message: err.Error()}
	}
	if _, err := c.ScoringWeights(); err != nil {
		return err
	}
	return nil
}

// ValidationEnabled reports whether the validation stage runs.
func (c *Config) ValidationEnabled() bool {
	return c.Validation.Enabled == nil || *c.Validation.Enabled
}

// ScoringWeights converts the configured weights. Every key must name a category, every
// weight must be non-negative and at least one must be positive.
func (c *Config) ScoringWeights() (types.ScoringWeights, error) {
	weights := make(types.ScoringWeights, len(c.Scoring.Weights))
	positive := false
	for name, w := range c.Scoring.Weights {
		field := "scoring.weights." + name
		cat, err := types.ParseCategory(name)
		if err != nil || !cat.Valid() {
			return nil, &ConfigurationError{Field: field, Message: "unknown category"}
		}
		if w < 0 {
			return nil, &ConfigurationError{Field: field, Message: fmt.Sprintf("weight must be non-negative, got %v", w)}
		}
		if w > 0 {
			positive = true
		}
		weights[cat] = w
	}
	if !positive {
		return nil, &ConfigurationError{Field: "scoring.weights", Message: "at least one weight must be positive"}
	}
	return weights, nil
}

// ExtractionOptions returns the noise-filter options.
func (c *Config) ExtractionOptions() parsing.Options {
	return parsing.Options{
		Language:  c.Extraction.Language,
		MinLength: c.Extraction.MinLength,
		MaxLength: c.Extraction.MaxLength,
	}
}

// PipelineOptions returns scanner options. Weights must already be valid.
func (c *Config) PipelineOptions() pipeline.Options {
	weights, err := c.ScoringWeights()
	if err != nil {
		weights = types.DefaultScoringWeights()
	}
	return pipeline.Options{
		Extraction:         c.ExtractionOptions(),
		ValidationEnabled:  c.ValidationEnabled(),
		MaxValidationTerms: c.Validation.MaxTerms,
		StageTimeout:       millis(c.Validation.StageTimeoutMS),
		DocumentTimeout:    millis(c.Validation.DocumentTimeoutMS),
		Weights:            weights,
	}
}

// ValidatorConfig returns the validator settings.
func (c *Config) ValidatorConfig() esco.Config {
	return esco.Config{
		ConfidenceThreshold:  c.Validation.ConfidenceThreshold,
		ResultLimit:          c.ESCO.ResultLimit,
		Language:             c.ESCO.Language,
		BatchSize:            c.Validation.BatchSize,
		MaxConcurrentBatches: c.Validation.MaxConcurrentBatches,
		BatchDelay:           millis(c.Validation.BatchDelayMS),
		TermTimeout:          millis(c.Validation.TermTimeoutMS),
	}
}

// ClientConfig returns the reference client settings.
func (c *Config) ClientConfig() esco.ClientConfig {
	retry := esco.DefaultRetryConfig()
	retry.MaxRetries = c.ESCO.MaxRetries
	return esco.ClientConfig{
		BaseURL:           c.ESCO.BaseURL,
		Timeout:           millis(c.ESCO.TimeoutMS),
		RequestsPerSecond: c.ESCO.RequestsPerSecond,
		Burst:             c.ESCO.Burst,
		Retry:             retry,
		UserAgent:         esco.DefaultUserAgent,
	}
}

// RateLimitConfig returns per-client limits for the /v1 API. Health and metrics are
// never limited.
func (c *Config) RateLimitConfig() ratelimit.Config {
	perMinute := c.HTTP.RateLimitPerMinute
	return ratelimit.Config{
		Enabled: perMinute > 0,
		Endpoints: []ratelimit.EndpointConfig{{
			Path:   "/v1/",
			Method: "POST",
			Limit:  perMinute,
			Window: time.Minute,
			Burst:  c.HTTP.RateLimitBurst,
		}},
		CleanupInterval: time.Minute,
		IdleTTL:         10 * time.Minute,
	}
}

// SearchTTL returns the search-result cache TTL.
func (c *Config) SearchTTL() time.Duration {
	return time.Duration(c.Cache.SearchTTLSec) * time.Second
}

// ValidationTTL returns the validation-record cache TTL.
func (c *Config) ValidationTTL() time.Duration {
	return time.Duration(c.Cache.ValidationTTLSec) * time.Second
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
