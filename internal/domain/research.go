// Package domain defines the value objects exchanged with the research,
// outline, and drafting collaborators. The engine transforms these records; it
// never owns their storage lifecycle.
package domain

import "encoding/json"

// SearchIntent classifies the dominant intent behind a research topic.
type SearchIntent string

// Recognized search intents.
const (
	IntentInformational SearchIntent = "informational"
	IntentComparison    SearchIntent = "comparison"
	IntentTransactional SearchIntent = "transactional"
)

// ResearchSource is one piece of web evidence from the research provider.
type ResearchSource struct {
	Title            string  `json:"title"`
	URL              string  `json:"url"`
	Excerpt          string  `json:"excerpt"`
	CredibilityScore float64 `json:"credibility_score"`
	// PublishedAt is kept as the provider's raw string; the filter parses it
	// leniently and gives unparseable dates the benefit of the doubt.
	PublishedAt string `json:"published_at,omitempty"`
	// Index is the position in the provider's original list.
	Index      int    `json:"index"`
	SourceType string `json:"source_type"`
}

// NewResearchSource builds a source with the credibility score clamped into
// [0,1] so downstream stages can assume a well-formed record.
func NewResearchSource(title, url, excerpt string, credibility float64, index int) ResearchSource {
	return ResearchSource{
		Title:            title,
		URL:              url,
		Excerpt:          excerpt,
		CredibilityScore: Clamp01(credibility),
		Index:            index,
		SourceType:       "web",
	}
}

// KeywordAnalysis groups the provider's keyword research by category.
type KeywordAnalysis struct {
	Primary          []string     `json:"primary"`
	Secondary        []string     `json:"secondary"`
	LongTail         []string     `json:"long_tail"`
	SemanticKeywords []string     `json:"semantic_keywords"`
	TrendingTerms    []string     `json:"trending_terms"`
	ContentGaps      []string     `json:"content_gaps"`
	SearchIntent     SearchIntent `json:"search_intent"`
	Difficulty       float64      `json:"difficulty"`
}

// KeywordCategory names one keyword list inside a KeywordAnalysis.
type KeywordCategory string

// Keyword categories in presentation order.
const (
	CategoryPrimary   KeywordCategory = "primary"
	CategorySecondary KeywordCategory = "secondary"
	CategoryLongTail  KeywordCategory = "long_tail"
	CategorySemantic  KeywordCategory = "semantic_keywords"
	CategoryTrending  KeywordCategory = "trending_terms"
	CategoryGaps      KeywordCategory = "content_gaps"
)

// Categories returns the keyword lists keyed by category name. The returned
// slices alias the analysis; callers that mutate must copy first.
func (k *KeywordAnalysis) Categories() map[KeywordCategory][]string {
	return map[KeywordCategory][]string{
		CategoryPrimary:   k.Primary,
		CategorySecondary: k.Secondary,
		CategoryLongTail:  k.LongTail,
		CategorySemantic:  k.SemanticKeywords,
		CategoryTrending:  k.TrendingTerms,
		CategoryGaps:      k.ContentGaps,
	}
}

// SetCategory replaces one keyword list by category name.
func (k *KeywordAnalysis) SetCategory(cat KeywordCategory, values []string) {
	switch cat {
	case CategoryPrimary:
		k.Primary = values
	case CategorySecondary:
		k.Secondary = values
	case CategoryLongTail:
		k.LongTail = values
	case CategorySemantic:
		k.SemanticKeywords = values
	case CategoryTrending:
		k.TrendingTerms = values
	case CategoryGaps:
		k.ContentGaps = values
	}
}

// RankingKeywords returns the categories used for relevance scoring, in
// priority order. Content gaps are excluded; they describe what is missing
// from the corpus, not what a source should match.
func (k *KeywordAnalysis) RankingKeywords() []string {
	var out []string
	out = append(out, k.Primary...)
	out = append(out, k.Secondary...)
	out = append(out, k.LongTail...)
	out = append(out, k.SemanticKeywords...)
	out = append(out, k.TrendingTerms...)
	return out
}

// ResearchResponse is the full payload from the research provider for one
// content topic.
type ResearchResponse struct {
	Success         bool             `json:"success"`
	Sources         []ResearchSource `json:"sources"`
	KeywordAnalysis *KeywordAnalysis `json:"keyword_analysis,omitempty"`
	// CompetitorAnalysis passes through untouched.
	CompetitorAnalysis json.RawMessage    `json:"competitor_analysis,omitempty"`
	SuggestedAngles    []string           `json:"suggested_angles,omitempty"`
	SearchWidget       string             `json:"search_widget,omitempty"`
	SearchQueries      []string           `json:"search_queries,omitempty"`
	GroundingMetadata  *GroundingMetadata `json:"grounding_metadata,omitempty"`
}

// Clamp01 bounds a score into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
