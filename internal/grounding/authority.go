package grounding

import (
	"net/url"
	"strings"

	"github.com/draftforge/relevance-engine/internal/domain"
	"github.com/draftforge/relevance-engine/internal/textutil"
)

// AuthorityFunc scores a chunk's trustworthiness independent of topical
// relevance. Implementations must be deterministic and return values in
// [0,1]. The default is keyword-based; callers can substitute e.g. an
// embedding-backed scorer without touching the engine's orchestration.
type AuthorityFunc func(chunk domain.GroundingChunk) float64

const (
	authorityBase        = 0.5
	authorityTermBonus   = 0.2
	authorityDomainBonus = 0.3
	authorityOrgBonus    = 0.1
	authorityPenalty     = 0.2
)

// Terms that mark institutional or research-grade sources.
var highAuthorityTerms = []string{
	"research", "study", "journal", "university", "institute",
	"government", "official", "report", "analysis", "survey", "peer reviewed",
}

// Terms that mark personal-opinion sources.
var lowAuthorityTerms = []string{
	"blog", "opinion", "forum", "reddit", "quora", "personal", "rumor",
}

// Hosting platforms dominated by personal publishing.
var lowAuthorityHosts = []string{
	"medium.com", "substack.com", "blogspot.com", "wordpress.com", "tumblr.com",
}

// DefaultChunkAuthority is the stock authority heuristic: neutral base,
// boosted by research and governmental signals in the title or domain,
// penalized by personal-publishing signals.
func DefaultChunkAuthority(chunk domain.GroundingChunk) float64 {
	score := authorityBase
	title := textutil.Normalize(chunk.Title)

	for _, term := range highAuthorityTerms {
		if strings.Contains(" "+title+" ", " "+term+" ") {
			score += authorityTermBonus
			break
		}
	}

	host := hostOf(chunk.URL)
	switch {
	case strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu"):
		score += authorityDomainBonus
	case strings.HasSuffix(host, ".org"):
		score += authorityOrgBonus
	}

	lowered := false
	for _, term := range lowAuthorityTerms {
		if strings.Contains(" "+title+" ", " "+term+" ") {
			lowered = true
			break
		}
	}
	if !lowered {
		for _, h := range lowAuthorityHosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				lowered = true
				break
			}
		}
	}
	if lowered {
		score -= authorityPenalty
	}

	return domain.Clamp01(score)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
