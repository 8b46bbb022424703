// Package grounding turns grounding metadata into bounded insight signals and
// uses them to enrich outline sections with evidence-derived content.
package grounding

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/draftforge/relevance-engine/internal/config"
	"github.com/draftforge/relevance-engine/internal/domain"
	"github.com/draftforge/relevance-engine/internal/logging"
	"github.com/draftforge/relevance-engine/internal/textutil"
)

const (
	mediumConfidenceFloor = 0.5
	mediumAuthorityFloor  = 0.4
	// One bucket must outnumber the other by more than this ratio before the
	// pool counts as recent- or evergreen-heavy.
	temporalHeavyRatio = 2.0
	// Years within which a year mention in evidence text counts as recent.
	recentYearWindow = 2
)

// Weights for the overall quality roll-up.
const (
	qualityConfidenceWeight = 0.3
	qualityAuthorityWeight  = 0.25
	qualityCitationWeight   = 0.2
	qualityCoverageWeight   = 0.15
	qualityIntentWeight     = 0.1
	positiveFactorFloor     = 0.5
)

var (
	yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	recencyTerms = []string{"latest", "breaking", "today", "this year", "recently", "new release"}

	gapPatterns = []string{"lack of", "gap", "not cover", "unexplored", "does not"}

	informationalTerms = []string{"what", "how", "why", "when", "where", "who", "guide", "tutorial", "learn", "explain", "overview", "definition"}
	comparisonTerms    = []string{"vs", "versus", "compare", "comparison", "best", "top", "difference", "alternative", "review"}
	transactionalTerms = []string{"buy", "purchase", "price", "cost", "deal", "discount", "cheap", "order", "shop"}
)

// Engine extracts contextual insights from grounding metadata.
type Engine struct {
	cfg       config.GroundingConfig
	logger    logging.Logger
	authority AuthorityFunc
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithAuthorityFunc substitutes the chunk authority heuristic.
func WithAuthorityFunc(fn AuthorityFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.authority = fn
		}
	}
}

// NewEngine creates a grounding context engine. The configuration must
// already be validated.
func NewEngine(cfg config.GroundingConfig, logger logging.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		authority: DefaultChunkAuthority,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractContextualInsights computes the seven insight sub-analyses. Nil or
// empty metadata yields a zero-valued structure rather than an error.
func (e *Engine) ExtractContextualInsights(md *domain.GroundingMetadata) Insights {
	if md.IsEmpty() {
		return zeroInsights()
	}

	insights := Insights{
		Confidence:    e.analyzeConfidence(md),
		Authority:     e.analyzeAuthority(md),
		Temporal:      e.analyzeTemporal(md),
		Relationships: e.analyzeRelationships(md),
		Citations:     e.analyzeCitations(md),
		Intent:        e.analyzeIntent(md),
	}
	insights.Quality = e.assessQuality(insights)

	e.logger.Debug("contextual insights extracted",
		logging.Int("chunks", len(md.GroundingChunks)),
		logging.Int("supports", len(md.GroundingSupports)),
		logging.Float64("overall_quality", insights.Quality.OverallQuality),
		logging.String("grade", insights.Quality.QualityGrade),
	)

	return insights
}

// zeroInsights is the safe default for absent metadata. Enum-valued fields
// still hold valid members so downstream consumers never see an empty grade
// or balance.
func zeroInsights() Insights {
	return Insights{
		Temporal: TemporalAnalysis{Balance: BalanceUnknown},
		Citations: CitationAnalysis{
			TypeDistribution: map[string]int{},
		},
		Intent: IntentAnalysis{
			Signals:       map[domain.SearchIntent]int{},
			PrimaryIntent: domain.IntentInformational,
		},
		Quality: QualityIndicators{QualityGrade: GradeFor(0)},
	}
}

// confidencePool gathers chunk confidences and per-support max confidences
// into one list.
func confidencePool(md *domain.GroundingMetadata) []float64 {
	pool := make([]float64, 0, len(md.GroundingChunks)+len(md.GroundingSupports))
	for _, chunk := range md.GroundingChunks {
		pool = append(pool, domain.Clamp01(chunk.ConfidenceScore))
	}
	for _, support := range md.GroundingSupports {
		pool = append(pool, domain.Clamp01(support.MaxConfidence()))
	}
	return pool
}

func (e *Engine) analyzeConfidence(md *domain.GroundingMetadata) ConfidenceAnalysis {
	pool := confidencePool(md)
	if len(pool) == 0 {
		return ConfidenceAnalysis{}
	}

	var sum float64
	var analysis ConfidenceAnalysis
	for _, score := range pool {
		sum += score
		switch {
		case score >= e.cfg.HighConfidence:
			analysis.HighCount++
			analysis.Distribution.High++
		case score >= mediumConfidenceFloor:
			analysis.Distribution.Medium++
		default:
			analysis.Distribution.Low++
		}
	}
	analysis.Mean = sum / float64(len(pool))
	return analysis
}

func (e *Engine) analyzeAuthority(md *domain.GroundingMetadata) AuthorityAnalysis {
	if len(md.GroundingChunks) == 0 {
		return AuthorityAnalysis{}
	}

	var sum float64
	var analysis AuthorityAnalysis
	for _, chunk := range md.GroundingChunks {
		score := domain.Clamp01(e.authority(chunk))
		sum += score
		switch {
		case score > e.cfg.HighAuthority:
			analysis.HighCount++
			analysis.Distribution.High++
		case score >= mediumAuthorityFloor:
			analysis.Distribution.Medium++
		default:
			analysis.Distribution.Low++
		}
	}
	analysis.Mean = sum / float64(len(md.GroundingChunks))
	return analysis
}

func (e *Engine) analyzeTemporal(md *domain.GroundingMetadata) TemporalAnalysis {
	var analysis TemporalAnalysis
	for _, chunk := range md.GroundingChunks {
		if e.looksRecent(chunk.Title) {
			analysis.RecentCount++
		} else {
			analysis.EvergreenCount++
		}
	}
	for _, support := range md.GroundingSupports {
		if e.looksRecent(support.SegmentText) {
			analysis.RecentCount++
		} else {
			analysis.EvergreenCount++
		}
	}

	analysis.Balance = temporalBalance(analysis.RecentCount, analysis.EvergreenCount)
	return analysis
}

func temporalBalance(recent, evergreen int) TemporalBalance {
	switch {
	case recent == 0 && evergreen == 0:
		return BalanceUnknown
	case float64(recent) > temporalHeavyRatio*float64(evergreen):
		return BalanceRecentHeavy
	case float64(evergreen) > temporalHeavyRatio*float64(recent):
		return BalanceEvergreenHeavy
	default:
		return Balanced
	}
}

// looksRecent reports whether the text carries a date-like signal inside the
// recency window. Text without any temporal signal counts as evergreen.
func (e *Engine) looksRecent(text string) bool {
	folded := textutil.Fold(text)
	for _, term := range recencyTerms {
		if strings.Contains(folded, term) {
			return true
		}
	}

	currentYear := e.now().Year()
	for _, match := range yearPattern.FindAllString(text, -1) {
		year, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		if currentYear-year <= recentYearWindow && year <= currentYear+1 {
			return true
		}
	}
	return false
}

func (e *Engine) analyzeRelationships(md *domain.GroundingMetadata) RelationshipAnalysis {
	var analysis RelationshipAnalysis
	seen := make(map[string]bool)

	addConcepts := func(text string) {
		for _, phrase := range textutil.CapitalizedPhrases(text) {
			key := textutil.Fold(phrase)
			if seen[key] {
				continue
			}
			seen[key] = true
			analysis.RelatedConcepts = append(analysis.RelatedConcepts, phrase)
		}
	}

	for _, chunk := range md.GroundingChunks {
		addConcepts(chunk.Title)
	}
	for _, support := range md.GroundingSupports {
		addConcepts(support.SegmentText)
		for _, sentence := range splitSentences(support.SegmentText) {
			if isGapSentence(sentence) {
				analysis.ContentGaps = append(analysis.ContentGaps, strings.TrimSpace(sentence))
			}
		}
	}

	analysis.GapCount = len(analysis.ContentGaps)
	if n := len(md.GroundingChunks); n > 0 {
		analysis.ConceptCoverage = domain.Clamp01(float64(len(analysis.RelatedConcepts)) / float64(n))
	}
	return analysis
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
}

func isGapSentence(sentence string) bool {
	folded := textutil.Fold(sentence)
	for _, pattern := range gapPatterns {
		if strings.Contains(folded, pattern) {
			return true
		}
	}
	return false
}

func (e *Engine) analyzeCitations(md *domain.GroundingMetadata) CitationAnalysis {
	analysis := CitationAnalysis{
		TypeDistribution: make(map[string]int),
		TotalCitations:   len(md.Citations),
	}
	if len(md.Citations) == 0 {
		return analysis
	}

	highValue := 0
	for _, citation := range md.Citations {
		analysis.TypeDistribution[citation.CitationType]++
		if citation.IsHighValue() {
			highValue++
		}
	}

	evidenceVolume := len(md.GroundingChunks) + len(md.GroundingSupports)
	if evidenceVolume == 0 {
		evidenceVolume = 1
	}
	analysis.Density = domain.Clamp01(float64(len(md.Citations)) / float64(evidenceVolume))

	// High-value citation types dominate the quality signal; generic inline
	// citations contribute a third as much.
	lowValue := len(md.Citations) - highValue
	analysis.Quality = domain.Clamp01((float64(highValue) + 0.3*float64(lowValue)) / float64(len(md.Citations)))
	return analysis
}

func (e *Engine) analyzeIntent(md *domain.GroundingMetadata) IntentAnalysis {
	analysis := IntentAnalysis{
		Signals:       make(map[domain.SearchIntent]int),
		PrimaryIntent: domain.IntentInformational,
	}

	for _, query := range md.WebSearchQueries {
		folded := " " + textutil.Normalize(query) + " "
		if containsAnyWord(folded, informationalTerms) {
			analysis.Signals[domain.IntentInformational]++
		}
		if containsAnyWord(folded, comparisonTerms) {
			analysis.Signals[domain.IntentComparison]++
		}
		if containsAnyWord(folded, transactionalTerms) {
			analysis.Signals[domain.IntentTransactional]++
		}
		if isQuestion(query) {
			analysis.UserQuestions = append(analysis.UserQuestions, strings.TrimSpace(query))
		}
	}

	best := 0
	for _, intent := range []domain.SearchIntent{domain.IntentInformational, domain.IntentComparison, domain.IntentTransactional} {
		if analysis.Signals[intent] > best {
			best = analysis.Signals[intent]
			analysis.PrimaryIntent = intent
		}
	}
	return analysis
}

func containsAnyWord(paddedText string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(paddedText, " "+term+" ") {
			return true
		}
	}
	return false
}

func isQuestion(query string) bool {
	trimmed := strings.TrimSpace(query)
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	first := ""
	if fields := strings.Fields(textutil.Fold(trimmed)); len(fields) > 0 {
		first = fields[0]
	}
	switch first {
	case "what", "how", "why", "when", "where", "who", "which", "can", "does", "is", "are":
		return true
	}
	return false
}

func (e *Engine) assessQuality(insights Insights) QualityIndicators {
	intentPresence := 0.0
	for _, count := range insights.Intent.Signals {
		if count > 0 {
			intentPresence = 1.0
			break
		}
	}

	overall := qualityConfidenceWeight*insights.Confidence.Mean +
		qualityAuthorityWeight*insights.Authority.Mean +
		qualityCitationWeight*insights.Citations.Quality +
		qualityCoverageWeight*insights.Relationships.ConceptCoverage +
		qualityIntentWeight*intentPresence

	indicators := QualityIndicators{
		OverallQuality: domain.Clamp01(overall),
	}
	indicators.QualityGrade = GradeFor(indicators.OverallQuality)

	if insights.Confidence.Mean >= positiveFactorFloor {
		indicators.QualityFactors = append(indicators.QualityFactors, "confidence")
	}
	if insights.Authority.Mean >= positiveFactorFloor {
		indicators.QualityFactors = append(indicators.QualityFactors, "authority")
	}
	if insights.Citations.Quality >= positiveFactorFloor {
		indicators.QualityFactors = append(indicators.QualityFactors, "citation_quality")
	}
	if insights.Relationships.ConceptCoverage > 0 {
		indicators.QualityFactors = append(indicators.QualityFactors, "concept_coverage")
	}
	if intentPresence > 0 {
		indicators.QualityFactors = append(indicators.QualityFactors, "search_intent")
	}
	return indicators
}

// ScoredChunk pairs a grounding chunk with its authority score.
type ScoredChunk struct {
	Chunk domain.GroundingChunk `json:"chunk"`
	Score float64               `json:"score"`
}

// AuthoritySources returns every chunk scored by authority, ordered best
// first. Ordering is stable for identical input.
func (e *Engine) AuthoritySources(md *domain.GroundingMetadata) []ScoredChunk {
	if md == nil {
		return nil
	}

	scored := make([]ScoredChunk, 0, len(md.GroundingChunks))
	for _, chunk := range md.GroundingChunks {
		scored = append(scored, ScoredChunk{Chunk: chunk, Score: domain.Clamp01(e.authority(chunk))})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// HighConfidenceInsights extracts human-readable insight strings from
// supports whose confidence clears the high bar. Segments too short to be
// meaningful are skipped; long segments are truncated with an ellipsis.
func (e *Engine) HighConfidenceInsights(md *domain.GroundingMetadata) []string {
	if md == nil {
		return nil
	}

	var insights []string
	for _, support := range md.GroundingSupports {
		if support.MaxConfidence() < e.cfg.HighConfidence {
			continue
		}
		if insight, ok := e.insightFromSegment(support.SegmentText); ok {
			insights = append(insights, insight)
		}
	}
	return insights
}

func (e *Engine) insightFromSegment(segment string) (string, bool) {
	trimmed := strings.TrimSpace(segment)
	if len(trimmed) < e.cfg.MinInsightLength {
		return "", false
	}
	return textutil.Truncate(trimmed, e.cfg.MaxInsightLength), true
}
