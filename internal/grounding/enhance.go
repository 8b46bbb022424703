package grounding

import (
	"strings"

	"github.com/draftforge/relevance-engine/internal/domain"
	"github.com/draftforge/relevance-engine/internal/logging"
	"github.com/draftforge/relevance-engine/internal/textutil"
)

// Minimum meaningful-token overlap before evidence counts as relevant to a
// section.
const (
	chunkOverlapMin   = 1
	supportOverlapMin = 2
)

// EnhanceSections merges evidence-derived subheadings, key points, and
// keywords into each section. Enrichment is strictly additive: existing
// entries are never removed or reordered, and with empty metadata the
// returned sections equal the input. Caller-owned sections are never mutated;
// the result is a fresh copy.
func (e *Engine) EnhanceSections(sections []domain.OutlineSection, md *domain.GroundingMetadata, insights Insights) []domain.OutlineSection {
	out := domain.CloneSections(sections)
	if md.IsEmpty() {
		return out
	}

	for i := range out {
		e.enhanceSection(&out[i], md, insights)
	}
	return out
}

func (e *Engine) enhanceSection(section *domain.OutlineSection, md *domain.GroundingMetadata, insights Insights) {
	sectionTokens := sectionTokenSet(section)
	if len(sectionTokens) == 0 {
		return
	}

	added := 0

	for _, chunk := range e.findRelevantChunks(sectionTokens, md) {
		title := strings.TrimSpace(chunk.Title)
		if title == "" || containsFolded(section.Subheadings, title) || textutil.Fold(title) == textutil.Fold(section.Heading) {
			continue
		}
		section.Subheadings = append(section.Subheadings, title)
		added++
	}

	for _, support := range e.findRelevantSupports(sectionTokens, md) {
		point, ok := e.insightFromSegment(support.SegmentText)
		if !ok || containsFolded(section.KeyPoints, point) {
			continue
		}
		section.KeyPoints = append(section.KeyPoints, point)
		added++
	}

	for _, concept := range insights.Relationships.RelatedConcepts {
		keyword := strings.ToLower(strings.TrimSpace(concept))
		if keyword == "" || containsFolded(section.Keywords, keyword) {
			continue
		}
		if overlapCount(textutil.TokenSet(concept), sectionTokens) < chunkOverlapMin {
			continue
		}
		section.Keywords = append(section.Keywords, keyword)
		added++
	}

	if added > 0 {
		e.logger.Debug("section enriched from grounding evidence",
			logging.String("section_id", section.ID),
			logging.String("heading", section.Heading),
			logging.Int("additions", added),
		)
	}
}

// findRelevantChunks returns chunks whose titles share meaningful tokens with
// the section heading or keywords.
func (e *Engine) findRelevantChunks(sectionTokens map[string]bool, md *domain.GroundingMetadata) []domain.GroundingChunk {
	var relevant []domain.GroundingChunk
	for _, chunk := range md.GroundingChunks {
		if overlapCount(textutil.TokenSet(chunk.Title), sectionTokens) >= chunkOverlapMin {
			relevant = append(relevant, chunk)
		}
	}
	return relevant
}

// findRelevantSupports returns supports whose segment text overlaps the
// section. The bar is higher than for chunks since segments are long.
func (e *Engine) findRelevantSupports(sectionTokens map[string]bool, md *domain.GroundingMetadata) []domain.GroundingSupport {
	var relevant []domain.GroundingSupport
	for _, support := range md.GroundingSupports {
		if overlapCount(textutil.TokenSet(support.SegmentText), sectionTokens) >= supportOverlapMin {
			relevant = append(relevant, support)
		}
	}
	return relevant
}

func sectionTokenSet(section *domain.OutlineSection) map[string]bool {
	parts := append([]string{section.Heading}, section.Keywords...)
	return textutil.TokenSet(strings.Join(parts, " "))
}

func overlapCount(a, b map[string]bool) int {
	count := 0
	for tok := range a {
		if b[tok] {
			count++
		}
	}
	return count
}

func containsFolded(list []string, candidate string) bool {
	key := textutil.Fold(strings.TrimSpace(candidate))
	for _, item := range list {
		if textutil.Fold(strings.TrimSpace(item)) == key {
			return true
		}
	}
	return false
}
