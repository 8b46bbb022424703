package grounding

import "github.com/draftforge/relevance-engine/internal/domain"

// Distribution buckets scores into high/medium/low counts.
type Distribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// ConfidenceAnalysis summarizes evidence confidence scores.
type ConfidenceAnalysis struct {
	Mean         float64      `json:"mean"`
	HighCount    int          `json:"high_count"`
	Distribution Distribution `json:"distribution"`
}

// AuthorityAnalysis summarizes per-chunk authority scores.
type AuthorityAnalysis struct {
	Mean         float64      `json:"mean"`
	HighCount    int          `json:"high_count"`
	Distribution Distribution `json:"distribution"`
}

// TemporalBalance classifies the recency mix of the evidence pool.
type TemporalBalance string

// Temporal balance classifications.
const (
	BalanceUnknown        TemporalBalance = "unknown"
	BalanceRecentHeavy    TemporalBalance = "recent_heavy"
	BalanceEvergreenHeavy TemporalBalance = "evergreen_heavy"
	Balanced              TemporalBalance = "balanced"
)

// TemporalAnalysis buckets evidence into recent vs evergreen.
type TemporalAnalysis struct {
	RecentCount    int             `json:"recent_count"`
	EvergreenCount int             `json:"evergreen_count"`
	Balance        TemporalBalance `json:"balance"`
}

// RelationshipAnalysis captures concepts and content gaps mined from the
// evidence text.
type RelationshipAnalysis struct {
	RelatedConcepts []string `json:"related_concepts"`
	ContentGaps     []string `json:"content_gaps"`
	ConceptCoverage float64  `json:"concept_coverage"`
	GapCount        int      `json:"gap_count"`
}

// CitationAnalysis summarizes citation volume and quality.
type CitationAnalysis struct {
	TypeDistribution map[string]int `json:"type_distribution"`
	TotalCitations   int            `json:"total_citations"`
	Density          float64        `json:"density"`
	Quality          float64        `json:"quality"`
}

// IntentAnalysis summarizes search-intent signals mined from the provider's
// web search queries.
type IntentAnalysis struct {
	Signals       map[domain.SearchIntent]int `json:"signals"`
	UserQuestions []string                    `json:"user_questions"`
	PrimaryIntent domain.SearchIntent         `json:"primary_intent"`
}

// QualityIndicators roll the sub-analyses up into one overall signal.
type QualityIndicators struct {
	OverallQuality float64  `json:"overall_quality"`
	QualityFactors []string `json:"quality_factors"`
	QualityGrade   string   `json:"quality_grade"`
}

// Insights is the full structured output of the grounding context engine.
// Every numeric field is bounded: ratios in [0,1], counts non-negative.
type Insights struct {
	Confidence    ConfidenceAnalysis   `json:"confidence_analysis"`
	Authority     AuthorityAnalysis    `json:"authority_analysis"`
	Temporal      TemporalAnalysis     `json:"temporal_analysis"`
	Relationships RelationshipAnalysis `json:"content_relationships"`
	Citations     CitationAnalysis     `json:"citation_insights"`
	Intent        IntentAnalysis       `json:"search_intent_insights"`
	Quality       QualityIndicators    `json:"quality_indicators"`
}

// Grade thresholds for the overall quality score.
const (
	gradeAThreshold = 0.9
	gradeBThreshold = 0.8
	gradeCThreshold = 0.7
	gradeDThreshold = 0.6
)

// GradeFor maps an overall quality score onto a letter grade. Pure and
// monotonic: a higher score never earns a lower grade.
func GradeFor(quality float64) string {
	switch {
	case quality >= gradeAThreshold:
		return "A"
	case quality >= gradeBThreshold:
		return "B"
	case quality >= gradeCThreshold:
		return "C"
	case quality >= gradeDThreshold:
		return "D"
	default:
		return "F"
	}
}
