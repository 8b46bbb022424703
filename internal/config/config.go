// Package config holds the relevance engine configuration.
package config

import (
	"math"
	"time"

	"github.com/draftforge/relevance-engine/internal/confload"
	"github.com/draftforge/relevance-engine/internal/logging"
)

// Default configuration values. The filter and grounding thresholds are
// heuristic constants carried over from operating the pipeline; none of the
// specific numbers are load-bearing and all can be overridden per deployment.
const (
	defaultServiceName          = "relevance-engine"
	defaultServiceVersion       = "1.0.0"
	defaultMinCredibility       = 0.6
	defaultMinExcerptLength     = 50
	defaultMaxSourceAgeYears    = 3
	defaultMaxSources           = 15
	defaultMinChunkConfidence   = 0.7
	defaultMinSupportConfidence = 0.7
	defaultMaxKeywordsPerCat    = 20
	defaultMinGapLength         = 15
	defaultHighConfidence       = 0.8
	defaultHighAuthority        = 0.7
	defaultMinInsightLength     = 20
	defaultMaxInsightLength     = 200
	defaultSemanticWeight       = 0.4
	defaultKeywordWeight        = 0.3
	defaultContextualWeight     = 0.3
	defaultMinSourceCredibility = 0.5
	defaultMaxSourcesPerSection = 4
	defaultScoringWorkers       = 4
	defaultValidationModel      = "claude-sonnet-4-20250514"
	defaultValidationTimeout    = 20 * time.Second
	defaultValidationRetries    = 1
	defaultValidationRPM        = 30
	defaultValidationMaxTokens  = 2048

	weightSumEpsilon = 1e-9
)

// Config holds all configuration for the relevance engine.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Logging    logging.Config   `yaml:"logging"`
	Filter     FilterConfig     `yaml:"filter"`
	Grounding  GroundingConfig  `yaml:"grounding"`
	Mapper     MapperConfig     `yaml:"mapper"`
	Validation ValidationConfig `yaml:"validation"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `env:"APP_DEBUG" yaml:"debug"`
}

// FilterConfig holds research data filtering thresholds.
type FilterConfig struct {
	MinCredibility         float64 `yaml:"min_credibility"`
	MinExcerptLength       int     `yaml:"min_excerpt_length"`
	MaxSourceAgeYears      int     `yaml:"max_source_age_years"`
	MaxSources             int     `env:"ENGINE_MAX_SOURCES" yaml:"max_sources"`
	MinChunkConfidence     float64 `yaml:"min_chunk_confidence"`
	MinSupportConfidence   float64 `yaml:"min_support_confidence"`
	MaxKeywordsPerCategory int     `yaml:"max_keywords_per_category"`
	MinGapLength           int     `yaml:"min_gap_length"`
}

// GroundingConfig holds grounding insight thresholds.
type GroundingConfig struct {
	HighConfidence   float64 `yaml:"high_confidence"`
	HighAuthority    float64 `yaml:"high_authority"`
	MinInsightLength int     `yaml:"min_insight_length"`
	MaxInsightLength int     `yaml:"max_insight_length"`
}

// MapperConfig holds source-to-section mapping settings.
type MapperConfig struct {
	SemanticWeight       float64 `yaml:"semantic_weight"`
	KeywordWeight        float64 `yaml:"keyword_weight"`
	ContextualWeight     float64 `yaml:"contextual_weight"`
	MinSourceCredibility float64 `yaml:"min_source_credibility"`
	MaxSourcesPerSection int     `env:"ENGINE_MAX_PER_SECTION" yaml:"max_sources_per_section"`
	ScoringWorkers       int     `env:"ENGINE_SCORING_WORKERS" yaml:"scoring_workers"`
}

// ValidationConfig holds settings for the optional AI mapping validation pass.
type ValidationConfig struct {
	Enabled           bool          `env:"VALIDATION_ENABLED"    yaml:"enabled"`
	Model             string        `env:"VALIDATION_MODEL"      yaml:"model"`
	APIKey            string        `env:"ANTHROPIC_API_KEY"     yaml:"api_key"`
	MaxTokens         int           `yaml:"max_tokens"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

// Load loads configuration from the specified path and validates it.
func Load(path string) (*Config, error) {
	cfg, err := confload.LoadWithDefaults[Config](path, SetDefaults)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a validated configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	SetDefaults(cfg)
	return cfg
}

// SetDefaults applies default values to unset fields.
func SetDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setFilterDefaults(&cfg.Filter)
	setGroundingDefaults(&cfg.Grounding)
	setMapperDefaults(&cfg.Mapper)
	setValidationDefaults(&cfg.Validation)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
}

func setFilterDefaults(f *FilterConfig) {
	if f.MinCredibility == 0 {
		f.MinCredibility = defaultMinCredibility
	}
	if f.MinExcerptLength == 0 {
		f.MinExcerptLength = defaultMinExcerptLength
	}
	if f.MaxSourceAgeYears == 0 {
		f.MaxSourceAgeYears = defaultMaxSourceAgeYears
	}
	if f.MaxSources == 0 {
		f.MaxSources = defaultMaxSources
	}
	if f.MinChunkConfidence == 0 {
		f.MinChunkConfidence = defaultMinChunkConfidence
	}
	if f.MinSupportConfidence == 0 {
		f.MinSupportConfidence = defaultMinSupportConfidence
	}
	if f.MaxKeywordsPerCategory == 0 {
		f.MaxKeywordsPerCategory = defaultMaxKeywordsPerCat
	}
	if f.MinGapLength == 0 {
		f.MinGapLength = defaultMinGapLength
	}
}

func setGroundingDefaults(g *GroundingConfig) {
	if g.HighConfidence == 0 {
		g.HighConfidence = defaultHighConfidence
	}
	if g.HighAuthority == 0 {
		g.HighAuthority = defaultHighAuthority
	}
	if g.MinInsightLength == 0 {
		g.MinInsightLength = defaultMinInsightLength
	}
	if g.MaxInsightLength == 0 {
		g.MaxInsightLength = defaultMaxInsightLength
	}
}

func setMapperDefaults(m *MapperConfig) {
	if m.SemanticWeight == 0 && m.KeywordWeight == 0 && m.ContextualWeight == 0 {
		m.SemanticWeight = defaultSemanticWeight
		m.KeywordWeight = defaultKeywordWeight
		m.ContextualWeight = defaultContextualWeight
	}
	if m.MinSourceCredibility == 0 {
		m.MinSourceCredibility = defaultMinSourceCredibility
	}
	if m.MaxSourcesPerSection == 0 {
		m.MaxSourcesPerSection = defaultMaxSourcesPerSection
	}
	if m.ScoringWorkers == 0 {
		m.ScoringWorkers = defaultScoringWorkers
	}
}

func setValidationDefaults(v *ValidationConfig) {
	if v.Model == "" {
		v.Model = defaultValidationModel
	}
	if v.MaxTokens == 0 {
		v.MaxTokens = defaultValidationMaxTokens
	}
	if v.Timeout == 0 {
		v.Timeout = defaultValidationTimeout
	}
	if v.MaxRetries == 0 {
		v.MaxRetries = defaultValidationRetries
	}
	if v.RequestsPerMinute == 0 {
		v.RequestsPerMinute = defaultValidationRPM
	}
}

// Validate checks the configuration for programmer errors. Invalid weights or
// out-of-range thresholds are construction-time failures, not call-time ones.
func (c *Config) Validate() error {
	if err := c.Filter.Validate(); err != nil {
		return err
	}
	if err := c.Grounding.Validate(); err != nil {
		return err
	}
	return c.Mapper.Validate()
}

// Validate checks filter thresholds.
func (f *FilterConfig) Validate() error {
	if err := validateUnit("filter.min_credibility", f.MinCredibility); err != nil {
		return err
	}
	if err := validateUnit("filter.min_chunk_confidence", f.MinChunkConfidence); err != nil {
		return err
	}
	if err := validateUnit("filter.min_support_confidence", f.MinSupportConfidence); err != nil {
		return err
	}
	if f.MaxSources < 1 {
		return &ValidationError{Field: "filter.max_sources", Message: "must be at least 1"}
	}
	if f.MaxKeywordsPerCategory < 1 {
		return &ValidationError{Field: "filter.max_keywords_per_category", Message: "must be at least 1"}
	}
	return nil
}

// Validate checks grounding thresholds.
func (g *GroundingConfig) Validate() error {
	if err := validateUnit("grounding.high_confidence", g.HighConfidence); err != nil {
		return err
	}
	if err := validateUnit("grounding.high_authority", g.HighAuthority); err != nil {
		return err
	}
	if g.MaxInsightLength < g.MinInsightLength {
		return &ValidationError{Field: "grounding.max_insight_length", Message: "must be >= min_insight_length"}
	}
	return nil
}

// Validate checks mapper weights and thresholds.
func (m *MapperConfig) Validate() error {
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"mapper.semantic_weight", m.SemanticWeight},
		{"mapper.keyword_weight", m.KeywordWeight},
		{"mapper.contextual_weight", m.ContextualWeight},
	} {
		if err := validateUnit(w.name, w.value); err != nil {
			return err
		}
	}

	sum := m.SemanticWeight + m.KeywordWeight + m.ContextualWeight
	if math.Abs(sum-1.0) > weightSumEpsilon {
		return &ValidationError{Field: "mapper weights", Message: "must sum to 1.0"}
	}

	if err := validateUnit("mapper.min_source_credibility", m.MinSourceCredibility); err != nil {
		return err
	}
	if m.MaxSourcesPerSection < 1 {
		return &ValidationError{Field: "mapper.max_sources_per_section", Message: "must be at least 1"}
	}
	if m.ScoringWorkers < 1 {
		return &ValidationError{Field: "mapper.scoring_workers", Message: "must be at least 1"}
	}
	return nil
}

func validateUnit(field string, v float64) error {
	if v < 0 || v > 1 {
		return &ValidationError{Field: field, Message: "must be in [0,1]"}
	}
	return nil
}
