// Command relevance-engine runs the ranking pipeline over JSON fixtures:
// filter the research response, extract grounding insights, map sources to
// outline sections, and emit the enriched outline with statistics. It is the
// file-based harness around the library; the surrounding content pipeline
// embeds the same packages directly.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/draftforge/relevance-engine/internal/config"
	"github.com/draftforge/relevance-engine/internal/confload"
	"github.com/draftforge/relevance-engine/internal/domain"
	"github.com/draftforge/relevance-engine/internal/filter"
	"github.com/draftforge/relevance-engine/internal/grounding"
	"github.com/draftforge/relevance-engine/internal/llm"
	"github.com/draftforge/relevance-engine/internal/logging"
	"github.com/draftforge/relevance-engine/internal/mapper"
	"github.com/draftforge/relevance-engine/internal/telemetry"
)

type output struct {
	Sections               []domain.OutlineSection `json:"sections"`
	Insights               grounding.Insights      `json:"insights"`
	Statistics             mapper.Statistics       `json:"statistics"`
	HighConfidenceInsights []string                `json:"high_confidence_insights,omitempty"`
}

func main() {
	configPath := flag.String("config", "config.yml", "path to config file")
	researchPath := flag.String("research", "", "path to research response JSON (required)")
	outlinePath := flag.String("outline", "", "path to outline sections JSON (required)")
	outPath := flag.String("out", "", "path to write results (default stdout)")
	flag.Parse()

	if *researchPath == "" || *outlinePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(confload.GetConfigPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *researchPath, *outlinePath, *outPath); err != nil {
		logger.Error("run failed", logging.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when the file
// does not exist so the harness works out of the box.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func run(cfg *config.Config, logger logging.Logger, researchPath, outlinePath, outPath string) error {
	var research domain.ResearchResponse
	if err := readJSON(researchPath, &research); err != nil {
		return fmt.Errorf("read research response: %w", err)
	}

	var sections []domain.OutlineSection
	if err := readJSON(outlinePath, &sections); err != nil {
		return fmt.Errorf("read outline: %w", err)
	}

	metrics := telemetry.New(prometheus.DefaultRegisterer)

	mapperOpts := []mapper.Option{mapper.WithMetrics(metrics)}
	if cfg.Validation.Enabled && cfg.Validation.APIKey != "" {
		mapperOpts = append(mapperOpts, mapper.WithCompleter(llm.NewAnthropicCompleter(cfg.Validation)))
		mapperOpts = append(mapperOpts, mapper.WithValidationRetries(cfg.Validation.MaxRetries))
	}

	sourceMapper, err := mapper.New(cfg.Mapper, logger, mapperOpts...)
	if err != nil {
		return fmt.Errorf("init mapper: %w", err)
	}

	dataFilter := filter.New(cfg.Filter, logger)
	engine := grounding.NewEngine(cfg.Grounding, logger)

	filtered := dataFilter.FilterResearchData(&research)
	insights := engine.ExtractContextualInsights(filtered.GroundingMetadata)
	enriched := engine.EnhanceSections(sections, filtered.GroundingMetadata, insights)

	mapped, mapping := sourceMapper.MapSourcesToSections(context.Background(), enriched, filtered)

	result := output{
		Sections:               mapped,
		Insights:               insights,
		Statistics:             mapper.MappingStatistics(mapping),
		HighConfidenceInsights: engine.HighConfidenceInsights(filtered.GroundingMetadata),
	}

	return writeJSON(outPath, result)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
