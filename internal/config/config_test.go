package config

import (
	"strings"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration should validate: %v", err)
	}

	if cfg.Service.Name != "relevance-engine" {
		t.Errorf("service name = %q", cfg.Service.Name)
	}
	if cfg.Filter.MinCredibility != 0.6 {
		t.Errorf("min credibility = %f, want 0.6", cfg.Filter.MinCredibility)
	}
	if cfg.Filter.MaxSources != 15 {
		t.Errorf("max sources = %d, want 15", cfg.Filter.MaxSources)
	}
	if cfg.Mapper.SemanticWeight != 0.4 || cfg.Mapper.KeywordWeight != 0.3 || cfg.Mapper.ContextualWeight != 0.3 {
		t.Errorf("default weights = %f/%f/%f",
			cfg.Mapper.SemanticWeight, cfg.Mapper.KeywordWeight, cfg.Mapper.ContextualWeight)
	}
	if cfg.Validation.Enabled {
		t.Error("validation should be disabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
}

func TestSetDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Filter.MaxSources = 5
	cfg.Mapper.SemanticWeight = 0.5
	cfg.Mapper.KeywordWeight = 0.25
	cfg.Mapper.ContextualWeight = 0.25

	SetDefaults(cfg)

	if cfg.Filter.MaxSources != 5 {
		t.Errorf("explicit max sources overwritten: %d", cfg.Filter.MaxSources)
	}
	if cfg.Mapper.SemanticWeight != 0.5 {
		t.Errorf("explicit weights overwritten: %f", cfg.Mapper.SemanticWeight)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("explicit weights summing to 1.0 should validate: %v", err)
	}
}

func TestMapperConfig_Validate_WeightSum(t *testing.T) {
	cfg := Default()
	cfg.Mapper.SemanticWeight = 0.5
	cfg.Mapper.KeywordWeight = 0.5
	cfg.Mapper.ContextualWeight = 0.5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("weights summing to 1.5 should fail validation")
	}
	if !strings.Contains(err.Error(), "mapper weights") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMapperConfig_Validate_WeightRange(t *testing.T) {
	cfg := Default()
	cfg.Mapper.SemanticWeight = 1.4
	cfg.Mapper.KeywordWeight = -0.2
	cfg.Mapper.ContextualWeight = -0.2

	if err := cfg.Validate(); err == nil {
		t.Fatal("out-of-range weight should fail validation even when the sum is 1.0")
	}
}

func TestFilterConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FilterConfig)
	}{
		{"credibility above one", func(f *FilterConfig) { f.MinCredibility = 1.5 }},
		{"negative chunk confidence", func(f *FilterConfig) { f.MinChunkConfidence = -0.1 }},
		{"zero max sources", func(f *FilterConfig) { f.MaxSources = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg.Filter)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestGroundingConfig_Validate_InsightBounds(t *testing.T) {
	cfg := Default()
	cfg.Grounding.MinInsightLength = 100
	cfg.Grounding.MaxInsightLength = 50

	if err := cfg.Validate(); err == nil {
		t.Fatal("max insight length below min should fail validation")
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "mapper.scoring_workers", Message: "must be at least 1"}
	if !strings.Contains(err.Error(), "mapper.scoring_workers") {
		t.Errorf("error should name the field: %v", err)
	}
}
