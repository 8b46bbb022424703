// Package filter trims raw research output down to high-signal evidence
// before insight extraction and section mapping run over it. Every operation
// is a pure transformation: malformed fields degrade to "kept" or "dropped",
// never to an error, and absent optional fields propagate as nil.
package filter

import (
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/draftforge/relevance-engine/internal/config"
	"github.com/draftforge/relevance-engine/internal/domain"
	"github.com/draftforge/relevance-engine/internal/logging"
	"github.com/draftforge/relevance-engine/internal/textutil"
)

const monthsPerYear = 12

// binaryExtensions are URL path extensions dropped by the source filter.
// Non-HTML documents make poor excerpt-backed references.
var binaryExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".zip": true, ".rar": true, ".gz": true,
	".tar": true, ".7z": true, ".exe": true, ".dmg": true, ".iso": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
}

// genericGapPhrases is the blacklist for content-gap suggestions. These show
// up constantly in provider output and carry no actionable signal.
var genericGapPhrases = map[string]bool{
	"general overview":    true,
	"basics":              true,
	"introduction":        true,
	"overview":            true,
	"more information":    true,
	"general information": true,
	"additional details":  true,
	"miscellaneous":       true,
}

// Filter cleans and trims research responses.
type Filter struct {
	cfg    config.FilterConfig
	logger logging.Logger
	now    func() time.Time
}

// New creates a Filter. The configuration must already be validated.
func New(cfg config.FilterConfig, logger logging.Logger) *Filter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Filter{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// FilterResearchData returns a cleaned copy of the response. Passthrough
// fields (success flag, competitor analysis, suggested angles, search widget
// and queries) are untouched.
func (f *Filter) FilterResearchData(resp *domain.ResearchResponse) *domain.ResearchResponse {
	if resp == nil {
		return nil
	}

	out := *resp
	out.Sources = f.FilterSources(resp.Sources)
	out.GroundingMetadata = f.FilterGroundingMetadata(resp.GroundingMetadata)
	out.KeywordAnalysis = f.CleanKeywordAnalysis(resp.KeywordAnalysis)
	if out.KeywordAnalysis != nil {
		out.KeywordAnalysis.ContentGaps = f.FilterContentGaps(out.KeywordAnalysis.ContentGaps)
	}

	f.logger.Debug("research data filtered",
		logging.Int("sources_in", len(resp.Sources)),
		logging.Int("sources_out", len(out.Sources)),
		logging.Bool("has_grounding", out.GroundingMetadata != nil),
	)

	return &out
}

// FilterSources keeps sources that clear the credibility, excerpt-length,
// document-type, and recency bars, then caps the list at the configured
// maximum ordered by credibility (stable, so provider order breaks ties).
func (f *Filter) FilterSources(sources []domain.ResearchSource) []domain.ResearchSource {
	kept := make([]domain.ResearchSource, 0, len(sources))
	for _, src := range sources {
		if !f.keepSource(src) {
			continue
		}
		kept = append(kept, src)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CredibilityScore > kept[j].CredibilityScore
	})

	if len(kept) > f.cfg.MaxSources {
		kept = kept[:f.cfg.MaxSources]
	}
	return kept
}

func (f *Filter) keepSource(src domain.ResearchSource) bool {
	if src.CredibilityScore < f.cfg.MinCredibility {
		return false
	}
	if len(strings.TrimSpace(src.Excerpt)) < f.cfg.MinExcerptLength {
		return false
	}
	if isBinaryDocument(src.URL) {
		return false
	}
	return !f.isStale(src.PublishedAt)
}

// isStale reports whether the publish date is older than the recency window.
// Missing or unparseable dates get the benefit of the doubt.
func (f *Filter) isStale(publishedAt string) bool {
	publishedAt = strings.TrimSpace(publishedAt)
	if publishedAt == "" {
		return false
	}
	published, err := dateparse.ParseAny(publishedAt)
	if err != nil {
		return false
	}
	cutoff := f.now().AddDate(0, -f.cfg.MaxSourceAgeYears*monthsPerYear, 0)
	return published.Before(cutoff)
}

func isBinaryDocument(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	return binaryExtensions[ext]
}

// FilterGroundingMetadata prunes low-confidence evidence. A nil input
// propagates as nil. Support chunk indices are left relative to the
// provider's original chunk list; nothing downstream dereferences them
// against the filtered list.
func (f *Filter) FilterGroundingMetadata(md *domain.GroundingMetadata) *domain.GroundingMetadata {
	if md == nil {
		return nil
	}

	out := &domain.GroundingMetadata{
		SearchEntryPoint: md.SearchEntryPoint,
		WebSearchQueries: md.WebSearchQueries,
	}

	for _, chunk := range md.GroundingChunks {
		if chunk.ConfidenceScore >= f.cfg.MinChunkConfidence {
			out.GroundingChunks = append(out.GroundingChunks, chunk)
		}
	}

	for _, support := range md.GroundingSupports {
		normalized := support.Normalized()
		if normalized.MaxConfidence() >= f.cfg.MinSupportConfidence {
			out.GroundingSupports = append(out.GroundingSupports, normalized)
		}
	}

	for _, citation := range md.Citations {
		if citation.IsHighValue() {
			out.Citations = append(out.Citations, citation)
		}
	}

	return out
}

// CleanKeywordAnalysis lowercases, deduplicates, and caps every keyword
// category. Search intent and difficulty pass through unchanged.
func (f *Filter) CleanKeywordAnalysis(analysis *domain.KeywordAnalysis) *domain.KeywordAnalysis {
	if analysis == nil {
		return nil
	}

	out := *analysis
	for cat, values := range analysis.Categories() {
		out.SetCategory(cat, f.cleanKeywordList(values))
	}
	return &out
}

// cleanKeywordList normalizes one category: lowercase, trim, drop empties and
// stop-words-as-keywords, dedupe case-insensitively in first-seen order, cap.
func (f *Filter) cleanKeywordList(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))

	for _, kw := range keywords {
		cleaned := strings.ToLower(strings.TrimSpace(kw))
		if cleaned == "" || textutil.IsStopWord(cleaned) {
			continue
		}
		key := textutil.Fold(cleaned)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, cleaned)
		if len(out) == f.cfg.MaxKeywordsPerCategory {
			break
		}
	}
	return out
}

// FilterContentGaps drops gap suggestions that are too short, single words,
// or on the generic-phrase blacklist. Purely lexical; no AI involved.
func (f *Filter) FilterContentGaps(gaps []string) []string {
	out := make([]string, 0, len(gaps))
	for _, gap := range gaps {
		trimmed := strings.TrimSpace(gap)
		if len(trimmed) < f.cfg.MinGapLength {
			continue
		}
		if len(strings.Fields(trimmed)) < 2 {
			continue
		}
		if genericGapPhrases[textutil.Fold(trimmed)] {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
