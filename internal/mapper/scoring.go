package mapper

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/draftforge/relevance-engine/internal/domain"
	"github.com/draftforge/relevance-engine/internal/textutil"
)

const (
	// Exact phrase matches add a capped bonus on top of word overlap.
	phraseMatchBonus = 0.1
	phraseBonusCap   = 0.3

	angleWeight  = 0.6
	intentWeight = 0.4
)

// Word lists for the intent component of contextual relevance, selected by
// the keyword analysis search intent.
var intentKeywords = map[domain.SearchIntent][]string{
	domain.IntentInformational: {"guide", "tutorial", "learn", "explain", "overview", "understanding", "definition", "introduction"},
	domain.IntentComparison:    {"versus", "compare", "comparison", "best", "top", "difference", "alternative", "review"},
	domain.IntentTransactional: {"buy", "purchase", "price", "cost", "deal", "discount", "order", "pricing"},
}

// signals holds the scoring breakdown for one section-source pair.
type signals struct {
	semantic   float64
	keyword    float64
	contextual float64
	combined   float64
}

// sectionContext precomputes everything scoring needs for one section.
type sectionContext struct {
	tokens       map[string]bool
	phrases      []string
	matcher      *ahocorasick.Matcher
	keywordCount int
	angleTokens  map[string]bool
	intentTerms  []string
}

func newSectionContext(section *domain.OutlineSection, analysis *domain.KeywordAnalysis, angles []string) *sectionContext {
	var parts []string
	parts = append(parts, section.Heading)
	parts = append(parts, section.Subheadings...)
	parts = append(parts, section.KeyPoints...)
	sectionText := strings.Join(parts, " ")

	ctx := &sectionContext{
		tokens:      textutil.TokenSet(sectionText),
		phrases:     sectionPhrases(section),
		angleTokens: textutil.TokenSet(strings.Join(angles, " ")),
	}

	intent := domain.IntentInformational
	if analysis != nil && analysis.SearchIntent != "" {
		intent = analysis.SearchIntent
	}
	ctx.intentTerms = intentKeywords[intent]

	keywords := sectionKeywords(section, analysis, ctx.tokens)
	ctx.keywordCount = len(keywords)
	if len(keywords) > 0 {
		ctx.matcher = ahocorasick.NewStringMatcher(keywords)
	}

	return ctx
}

// sectionPhrases collects the multi-word phrases whose exact presence in a
// source earns the semantic bonus.
func sectionPhrases(section *domain.OutlineSection) []string {
	var phrases []string
	for _, candidate := range append([]string{section.Heading}, section.Subheadings...) {
		normalized := strings.Join(strings.Fields(textutil.Normalize(candidate)), " ")
		if strings.Contains(normalized, " ") {
			phrases = append(phrases, normalized)
		}
	}
	return phrases
}

// sectionKeywords builds the keyword set this section is scored against: the
// section's own keywords plus the analysis keywords that touch the section's
// vocabulary. Global article keywords with no connection to this section are
// excluded so the signal stays section-specific.
func sectionKeywords(section *domain.OutlineSection, analysis *domain.KeywordAnalysis, sectionTokens map[string]bool) []string {
	seen := make(map[string]bool)
	var keywords []string

	add := func(kw string) {
		normalized := strings.Join(strings.Fields(textutil.Normalize(kw)), " ")
		if normalized == "" || seen[normalized] {
			return
		}
		seen[normalized] = true
		keywords = append(keywords, normalized)
	}

	for _, kw := range section.Keywords {
		add(kw)
	}

	if analysis != nil {
		for _, kw := range analysis.RankingKeywords() {
			if sharesToken(kw, sectionTokens) {
				add(kw)
			}
		}
	}

	return keywords
}

func sharesToken(keyword string, sectionTokens map[string]bool) bool {
	for _, tok := range textutil.MeaningfulTokens(keyword) {
		if sectionTokens[tok] {
			return true
		}
	}
	return false
}

// sourceText precomputes the searchable text of one candidate source.
type sourceText struct {
	normalized string
	tokens     map[string]bool
}

func newSourceText(src *domain.ResearchSource) *sourceText {
	combined := src.Title + " " + src.Excerpt
	return &sourceText{
		normalized: " " + strings.Join(strings.Fields(textutil.Normalize(combined)), " ") + " ",
		tokens:     textutil.TokenSet(combined),
	}
}

func (m *Mapper) scorePair(section *sectionContext, source *sourceText) signals {
	s := signals{
		semantic:   semanticSimilarity(section, source),
		keyword:    keywordRelevance(section, source),
		contextual: contextualRelevance(section, source),
	}
	s.combined = m.cfg.SemanticWeight*s.semantic +
		m.cfg.KeywordWeight*s.keyword +
		m.cfg.ContextualWeight*s.contextual
	return s
}

// semanticSimilarity measures meaningful-word overlap between section text
// and source text, with a capped bonus for exact multi-word phrase matches.
func semanticSimilarity(section *sectionContext, source *sourceText) float64 {
	overlap := textutil.OverlapRatio(section.tokens, source.tokens)

	var bonus float64
	for _, phrase := range section.phrases {
		if strings.Contains(source.normalized, " "+phrase+" ") {
			bonus += phraseMatchBonus
			if bonus >= phraseBonusCap {
				bonus = phraseBonusCap
				break
			}
		}
	}

	return domain.Clamp01(overlap + bonus)
}

// keywordRelevance measures how many of the section's relevant keywords
// actually appear in the source's title and excerpt.
func keywordRelevance(section *sectionContext, source *sourceText) float64 {
	if section.matcher == nil || section.keywordCount == 0 {
		return 0
	}
	hits := section.matcher.Match([]byte(source.normalized))
	return domain.Clamp01(float64(len(hits)) / float64(section.keywordCount))
}

// contextualRelevance measures overlap with the suggested angles and with the
// intent-specific word list.
func contextualRelevance(section *sectionContext, source *sourceText) float64 {
	angleScore := textutil.OverlapRatio(section.angleTokens, source.tokens)

	var intentScore float64
	if len(section.intentTerms) > 0 {
		matched := 0
		for _, term := range section.intentTerms {
			if source.tokens[term] {
				matched++
			}
		}
		intentScore = float64(matched) / float64(len(section.intentTerms))
	}

	return domain.Clamp01(angleWeight*angleScore + intentWeight*intentScore)
}
