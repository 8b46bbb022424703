// Package mapper assigns research sources to the outline sections they best
// support. The algorithmic scoring pass always runs and always produces a
// well-formed result; an optional AI validation pass may improve it but can
// never degrade or crash it.
package mapper

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/relevance-engine/internal/config"
	"github.com/draftforge/relevance-engine/internal/domain"
	"github.com/draftforge/relevance-engine/internal/llm"
	"github.com/draftforge/relevance-engine/internal/logging"
	"github.com/draftforge/relevance-engine/internal/telemetry"
)

// Mapper scores section-source pairs and writes the winners into section
// references.
type Mapper struct {
	cfg        config.MapperConfig
	logger     logging.Logger
	metrics    *telemetry.Metrics
	completer  llm.Completer
	maxRetries int
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithCompleter enables the AI validation pass using the given collaborator.
func WithCompleter(c llm.Completer) Option {
	return func(m *Mapper) { m.completer = c }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(m *Mapper) { m.metrics = metrics }
}

// WithValidationRetries sets how many times a failed validation call is
// retried. Kept small: a stalled validation must not block the pipeline.
func WithValidationRetries(n int) Option {
	return func(m *Mapper) {
		if n >= 0 {
			m.maxRetries = n
		}
	}
}

// New creates a Mapper. Invalid weights or thresholds are programmer errors
// and fail here, not at mapping time.
func New(cfg config.MapperConfig, logger logging.Logger, opts ...Option) (*Mapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	m := &Mapper{
		cfg:        cfg,
		logger:     logger,
		maxRetries: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Assignment is one source placed into a section, with its scoring breakdown
// retained for downstream explanations.
type Assignment struct {
	Source     domain.ResearchSource `json:"source"`
	Combined   float64               `json:"combined_score"`
	Semantic   float64               `json:"semantic_similarity"`
	Keyword    float64               `json:"keyword_relevance"`
	Contextual float64               `json:"contextual_relevance"`
}

// SectionMapping holds the assignments for one outline section.
type SectionMapping struct {
	SectionID   string       `json:"section_id"`
	Heading     string       `json:"heading"`
	Assignments []Assignment `json:"assignments"`
}

// Mapping is the full result of one mapping run, aligned with the input
// section order.
type Mapping struct {
	RunID     string           `json:"run_id"`
	Validated bool             `json:"validated"`
	Sections  []SectionMapping `json:"sections"`
}

// MapSourcesToSections assigns the best-supporting sources to each section
// and returns fresh section copies with References populated, plus the
// mapping details. Section order and count are always preserved; empty
// inputs yield empty outputs, never errors.
func (m *Mapper) MapSourcesToSections(ctx context.Context, sections []domain.OutlineSection, research *domain.ResearchResponse) ([]domain.OutlineSection, Mapping) {
	out := domain.CloneSections(sections)
	mapping := Mapping{RunID: uuid.NewString()}
	if len(sections) == 0 {
		return out, mapping
	}

	logger := m.logger.With(logging.String("run_id", mapping.RunID))

	var analysis *domain.KeywordAnalysis
	var angles []string
	var sources []domain.ResearchSource
	if research != nil {
		analysis = research.KeywordAnalysis
		angles = research.SuggestedAngles
		sources = research.Sources
	}

	candidates := m.selectCandidates(sources)
	scores := m.scoreAllPairs(sections, candidates, analysis, angles)
	mapping.Sections = m.rank(sections, candidates, scores)

	if m.completer != nil && len(candidates) > 0 {
		mapping = m.validate(ctx, logger, mapping, candidates, scores)
	}

	for i := range out {
		out[i].References = referencesOf(mapping.Sections[i])
	}

	logger.Info("sources mapped to sections",
		logging.Int("sections", len(sections)),
		logging.Int("candidates", len(candidates)),
		logging.Bool("validated", mapping.Validated),
	)

	return out, mapping
}

// selectCandidates excludes sources below the credibility floor so clearly
// low-trust sources never enter the ranking.
func (m *Mapper) selectCandidates(sources []domain.ResearchSource) []domain.ResearchSource {
	candidates := make([]domain.ResearchSource, 0, len(sources))
	for _, src := range sources {
		if src.CredibilityScore < m.cfg.MinSourceCredibility {
			if m.metrics != nil {
				m.metrics.SourcesDropped.WithLabelValues("low_credibility").Inc()
			}
			continue
		}
		candidates = append(candidates, src)
	}
	return candidates
}

// scoreAllPairs evaluates every section-source pair. Scoring fans out across
// a bounded worker pool; each pair writes its own matrix slot, so the result
// is identical to sequential evaluation.
func (m *Mapper) scoreAllPairs(sections []domain.OutlineSection, candidates []domain.ResearchSource, analysis *domain.KeywordAnalysis, angles []string) [][]signals {
	start := time.Now()

	scores := make([][]signals, len(sections))
	for i := range scores {
		scores[i] = make([]signals, len(candidates))
	}
	if len(candidates) == 0 {
		return scores
	}

	contexts := make([]*sectionContext, len(sections))
	for i := range sections {
		contexts[i] = newSectionContext(&sections[i], analysis, angles)
	}
	sourceTexts := make([]*sourceText, len(candidates))
	for i := range candidates {
		sourceTexts[i] = newSourceText(&candidates[i])
	}

	type pair struct{ si, ci int }
	jobs := make(chan pair)

	workers := m.cfg.ScoringWorkers
	if total := len(sections) * len(candidates); workers > total {
		workers = total
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				scores[job.si][job.ci] = m.scorePair(contexts[job.si], sourceTexts[job.ci])
			}
		}()
	}

	for si := range sections {
		for ci := range candidates {
			jobs <- pair{si: si, ci: ci}
		}
	}
	close(jobs)
	wg.Wait()

	if m.metrics != nil {
		m.metrics.ObserveMapping(start, len(sections)*len(candidates), 0)
	}
	return scores
}

// rank keeps the top-scoring sources per section. Ties break on higher
// credibility, then on the provider's original ordering, so rankings are
// deterministic.
func (m *Mapper) rank(sections []domain.OutlineSection, candidates []domain.ResearchSource, scores [][]signals) []SectionMapping {
	mappings := make([]SectionMapping, len(sections))

	for si, section := range sections {
		order := make([]int, len(candidates))
		for i := range order {
			order[i] = i
		}

		sort.SliceStable(order, func(a, b int) bool {
			ca, cb := order[a], order[b]
			sa, sb := scores[si][ca], scores[si][cb]
			if sa.combined != sb.combined {
				return sa.combined > sb.combined
			}
			if candidates[ca].CredibilityScore != candidates[cb].CredibilityScore {
				return candidates[ca].CredibilityScore > candidates[cb].CredibilityScore
			}
			return candidates[ca].Index < candidates[cb].Index
		})

		mapping := SectionMapping{SectionID: section.ID, Heading: section.Heading}
		for _, ci := range order {
			if len(mapping.Assignments) == m.cfg.MaxSourcesPerSection {
				break
			}
			score := scores[si][ci]
			if score.combined <= 0 {
				break
			}
			mapping.Assignments = append(mapping.Assignments, Assignment{
				Source:     candidates[ci],
				Combined:   score.combined,
				Semantic:   score.semantic,
				Keyword:    score.keyword,
				Contextual: score.contextual,
			})
		}
		mappings[si] = mapping

		if m.metrics != nil && len(mapping.Assignments) > 0 {
			m.metrics.SectionsMapped.Inc()
		}
	}

	return mappings
}

func referencesOf(mapping SectionMapping) []domain.ResearchSource {
	if len(mapping.Assignments) == 0 {
		return nil
	}
	refs := make([]domain.ResearchSource, len(mapping.Assignments))
	for i, a := range mapping.Assignments {
		refs[i] = a.Source
	}
	return refs
}
