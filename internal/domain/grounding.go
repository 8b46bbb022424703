package domain

// GroundingChunk is one atomic piece of retrieved evidence.
type GroundingChunk struct {
	Title           string  `json:"title"`
	URL             string  `json:"url"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// GroundingSupport ties a span of generated text to the chunks that back it,
// with one confidence score per referenced chunk.
type GroundingSupport struct {
	SegmentText           string    `json:"segment_text"`
	ConfidenceScores      []float64 `json:"confidence_scores"`
	GroundingChunkIndices []int     `json:"grounding_chunk_indices"`
	StartIndex            int       `json:"start_index"`
	EndIndex              int       `json:"end_index"`
}

// Normalized returns a copy whose confidence list has exactly one entry per
// chunk index. Extra scores are dropped; missing ones default to zero. The
// provider usually honors this invariant, but the engine never assumes it.
func (s GroundingSupport) Normalized() GroundingSupport {
	if len(s.ConfidenceScores) == len(s.GroundingChunkIndices) {
		return s
	}
	scores := make([]float64, len(s.GroundingChunkIndices))
	copy(scores, s.ConfidenceScores)
	s.ConfidenceScores = scores
	return s
}

// MaxConfidence returns the highest confidence across referenced chunks, or 0
// when the support has no scores.
func (s GroundingSupport) MaxConfidence() float64 {
	var max float64
	for _, c := range s.ConfidenceScores {
		if c > max {
			max = c
		}
	}
	return max
}

// Citation types carrying substantive evidentiary weight. Anything else,
// including the generic "inline" type, is treated as low value.
const (
	CitationExpertOpinion   = "expert_opinion"
	CitationStatisticalData = "statistical_data"
	CitationRecentNews      = "recent_news"
	CitationResearchStudy   = "research_study"
)

// HighValueCitationTypes is the set of citation types the filter keeps.
var HighValueCitationTypes = map[string]bool{
	CitationExpertOpinion:   true,
	CitationStatisticalData: true,
	CitationRecentNews:      true,
	CitationResearchStudy:   true,
}

// Citation is a typed reference attached to generated text.
type Citation struct {
	CitationType  string `json:"citation_type"`
	Text          string `json:"text"`
	SourceIndices []int  `json:"source_indices"`
	Reference     string `json:"reference"`
	StartIndex    int    `json:"start_index"`
	EndIndex      int    `json:"end_index"`
}

// IsHighValue reports whether the citation type carries evidentiary weight.
func (c Citation) IsHighValue() bool {
	return HighValueCitationTypes[c.CitationType]
}

// GroundingMetadata aggregates the evidence the research provider attached to
// its claims.
type GroundingMetadata struct {
	GroundingChunks   []GroundingChunk   `json:"grounding_chunks"`
	GroundingSupports []GroundingSupport `json:"grounding_supports"`
	Citations         []Citation         `json:"citations"`
	SearchEntryPoint  string             `json:"search_entry_point,omitempty"`
	WebSearchQueries  []string           `json:"web_search_queries,omitempty"`
}

// IsEmpty reports whether the metadata carries no evidence at all.
func (m *GroundingMetadata) IsEmpty() bool {
	return m == nil ||
		(len(m.GroundingChunks) == 0 && len(m.GroundingSupports) == 0 && len(m.Citations) == 0)
}
