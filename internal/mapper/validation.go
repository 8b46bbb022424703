package mapper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/draftforge/relevance-engine/internal/domain"
	"github.com/draftforge/relevance-engine/internal/logging"
	"github.com/draftforge/relevance-engine/internal/textutil"
)

// Fallback reasons reported to telemetry when validation fails closed.
const (
	fallbackTransport = "transport"
	fallbackParse     = "parse"
	fallbackNoChanges = "no_valid_changes"
)

const excerptPreviewLength = 200

// ValidationResponse is the versioned JSON contract with the language-model
// collaborator. Any shape drift on either side must be handled here
// defensively; the parser never assumes a new shape is compatible.
type ValidationResponse struct {
	OverallQualityScore float64              `json:"overall_quality_score"`
	SectionImprovements []SectionImprovement `json:"section_improvements"`
	Summary             string               `json:"summary"`
}

// SectionImprovement is one recommended change to a section's sources.
type SectionImprovement struct {
	SectionID          string   `json:"section_id"`
	CurrentSources     []string `json:"current_sources"`
	RecommendedSources []string `json:"recommended_sources"`
	Reasoning          string   `json:"reasoning"`
	Confidence         float64  `json:"confidence"`
}

// validate runs the AI second pass. It can only ever return the baseline or
// an improved copy of it: every failure mode (transport, parse, hallucinated
// source titles) keeps the algorithmic result.
func (m *Mapper) validate(ctx context.Context, logger logging.Logger, baseline Mapping, candidates []domain.ResearchSource, scores [][]signals) Mapping {
	start := time.Now()
	if m.metrics != nil {
		m.metrics.ValidationAttempts.Inc()
		defer func() {
			m.metrics.ValidationDuration.Observe(time.Since(start).Seconds())
		}()
	}

	prompt := buildValidationPrompt(baseline, candidates)

	raw, err := m.completeWithRetry(ctx, prompt)
	if err != nil {
		logger.Warn("mapping validation unavailable, keeping algorithmic result", logging.Error(err))
		m.observeFallback(fallbackTransport)
		return baseline
	}

	response, err := parseValidationResponse(raw)
	if err != nil {
		logger.Warn("mapping validation response unusable, keeping algorithmic result", logging.Error(err))
		m.observeFallback(fallbackParse)
		return baseline
	}

	return m.applyImprovements(logger, baseline, response, candidates, scores)
}

// completeWithRetry calls the collaborator with at most maxRetries extra
// attempts. Bounded on purpose: a stalled validation must not block the
// content pipeline.
func (m *Mapper) completeWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		raw, err := m.completer.Complete(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// applyImprovements swaps in recommendations only when every recommended
// source title resolves against the actual corpus. The model is never
// trusted to invent sources; a section with any unresolvable title keeps its
// algorithmic assignments.
func (m *Mapper) applyImprovements(logger logging.Logger, baseline Mapping, response *ValidationResponse, candidates []domain.ResearchSource, scores [][]signals) Mapping {
	byTitle := make(map[string]int, len(candidates))
	for i, src := range candidates {
		byTitle[textutil.Fold(strings.TrimSpace(src.Title))] = i
	}
	sectionIndex := make(map[string]int, len(baseline.Sections))
	for i, sm := range baseline.Sections {
		sectionIndex[sm.SectionID] = i
	}

	improved := cloneMapping(baseline)
	applied := 0

	for _, improvement := range response.SectionImprovements {
		si, ok := sectionIndex[improvement.SectionID]
		if !ok || len(improvement.RecommendedSources) == 0 {
			continue
		}

		resolved, ok := resolveTitles(improvement.RecommendedSources, byTitle)
		if !ok {
			logger.Warn("validation recommended unknown sources, keeping section unchanged",
				logging.String("section_id", improvement.SectionID),
				logging.Strings("recommended", improvement.RecommendedSources),
			)
			continue
		}

		assignments := make([]Assignment, 0, len(resolved))
		for _, ci := range resolved {
			if len(assignments) == m.cfg.MaxSourcesPerSection {
				break
			}
			score := scores[si][ci]
			assignments = append(assignments, Assignment{
				Source:     candidates[ci],
				Combined:   score.combined,
				Semantic:   score.semantic,
				Keyword:    score.keyword,
				Contextual: score.contextual,
			})
		}
		improved.Sections[si].Assignments = assignments
		applied++

		if m.metrics != nil {
			m.metrics.ValidationApplied.Inc()
		}
	}

	if applied == 0 {
		m.observeFallback(fallbackNoChanges)
		return baseline
	}

	improved.Validated = true
	logger.Info("mapping improved by validation pass",
		logging.Int("sections_changed", applied),
		logging.Float64("overall_quality", response.OverallQualityScore),
	)
	return improved
}

// resolveTitles maps recommended titles onto candidate indices, deduplicated
// in recommendation order. Fails if any title is unknown.
func resolveTitles(titles []string, byTitle map[string]int) ([]int, bool) {
	seen := make(map[int]bool, len(titles))
	resolved := make([]int, 0, len(titles))
	for _, title := range titles {
		ci, ok := byTitle[textutil.Fold(strings.TrimSpace(title))]
		if !ok {
			return nil, false
		}
		if seen[ci] {
			continue
		}
		seen[ci] = true
		resolved = append(resolved, ci)
	}
	return resolved, true
}

// parseValidationResponse extracts and decodes the JSON object from the raw
// completion, tolerating surrounding prose and markdown fences.
func parseValidationResponse(raw string) (*ValidationResponse, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in validation response")
	}

	var response ValidationResponse
	if err := json.Unmarshal([]byte(raw[start:end+1]), &response); err != nil {
		return nil, fmt.Errorf("decode validation response: %w", err)
	}
	return &response, nil
}

func buildValidationPrompt(mapping Mapping, candidates []domain.ResearchSource) string {
	var b strings.Builder

	b.WriteString("You are auditing how research sources were assigned to the sections of a content outline.\n\n")
	b.WriteString("Current assignment:\n")
	for _, sm := range mapping.Sections {
		fmt.Fprintf(&b, "- Section %q (%s):\n", sm.Heading, sm.SectionID)
		if len(sm.Assignments) == 0 {
			b.WriteString("  (no sources assigned)\n")
			continue
		}
		for _, a := range sm.Assignments {
			fmt.Fprintf(&b, "  - %q (score %.2f)\n", a.Source.Title, a.Combined)
		}
	}

	b.WriteString("\nAvailable sources:\n")
	for _, src := range candidates {
		fmt.Fprintf(&b, "- %q | %s | credibility %.2f\n  %s\n",
			src.Title, src.URL, src.CredibilityScore,
			textutil.Truncate(src.Excerpt, excerptPreviewLength))
	}

	b.WriteString(`
Review the assignment and respond with only a JSON object of this exact shape:
{
  "overall_quality_score": 0.0,
  "section_improvements": [
    {
      "section_id": "...",
      "current_sources": ["title", ...],
      "recommended_sources": ["title", ...],
      "reasoning": "...",
      "confidence": 0.0
    }
  ],
  "summary": "..."
}
Only recommend titles that appear verbatim in the available sources list.
Omit sections whose assignment is already good.
`)

	return b.String()
}

func (m *Mapper) observeFallback(reason string) {
	if m.metrics != nil {
		m.metrics.ObserveValidationFallback(reason)
	}
}

func cloneMapping(in Mapping) Mapping {
	out := in
	out.Sections = make([]SectionMapping, len(in.Sections))
	for i, sm := range in.Sections {
		cloned := sm
		cloned.Assignments = make([]Assignment, len(sm.Assignments))
		copy(cloned.Assignments, sm.Assignments)
		out.Sections[i] = cloned
	}
	return out
}
