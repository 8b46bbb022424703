package grounding

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/draftforge/relevance-engine/internal/config"
	"github.com/draftforge/relevance-engine/internal/domain"
	"github.com/draftforge/relevance-engine/internal/logging"
)

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := NewEngine(config.Default().Grounding, logging.NewNop(), opts...)
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestExtractContextualInsights_EmptyMetadata(t *testing.T) {
	e := newTestEngine(t)

	for _, md := range []*domain.GroundingMetadata{nil, {}} {
		insights := e.ExtractContextualInsights(md)

		if insights.Quality.QualityGrade != "F" {
			t.Errorf("grade = %q, want F", insights.Quality.QualityGrade)
		}
		if insights.Quality.OverallQuality != 0 {
			t.Errorf("quality = %f, want 0", insights.Quality.OverallQuality)
		}
		if insights.Temporal.Balance != BalanceUnknown {
			t.Errorf("balance = %q, want unknown", insights.Temporal.Balance)
		}
		if insights.Intent.PrimaryIntent != domain.IntentInformational {
			t.Errorf("intent = %q, want informational", insights.Intent.PrimaryIntent)
		}
		if insights.Citations.TypeDistribution == nil || insights.Intent.Signals == nil {
			t.Error("maps should be initialized even for empty metadata")
		}
	}
}

func TestAnalyzeConfidence(t *testing.T) {
	e := newTestEngine(t)

	md := &domain.GroundingMetadata{
		GroundingChunks: []domain.GroundingChunk{
			{ConfidenceScore: 0.9},
			{ConfidenceScore: 0.6},
			{ConfidenceScore: 0.3},
		},
		GroundingSupports: []domain.GroundingSupport{
			{ConfidenceScores: []float64{0.5, 0.85}, GroundingChunkIndices: []int{0, 1}},
		},
	}

	got := e.analyzeConfidence(md)

	wantMean := (0.9 + 0.6 + 0.3 + 0.85) / 4
	if math.Abs(got.Mean-wantMean) > 1e-9 {
		t.Errorf("mean = %f, want %f", got.Mean, wantMean)
	}
	if got.HighCount != 2 {
		t.Errorf("high count = %d, want 2", got.HighCount)
	}
	if got.Distribution.High != 2 || got.Distribution.Medium != 1 || got.Distribution.Low != 1 {
		t.Errorf("distribution = %+v", got.Distribution)
	}
}

func TestDefaultChunkAuthority(t *testing.T) {
	tests := []struct {
		name  string
		chunk domain.GroundingChunk
		want  float64
	}{
		{
			"research title on gov domain",
			domain.GroundingChunk{Title: "National Research Report on AI", URL: "https://www.stats.gov/ai"},
			1.0,
		},
		{
			"study on org domain",
			domain.GroundingChunk{Title: "A Longitudinal Study of Adoption", URL: "https://example.org/paper"},
			0.8,
		},
		{
			"plain commercial source",
			domain.GroundingChunk{Title: "Company Announces Product", URL: "https://example.com/news"},
			0.5,
		},
		{
			"blog term penalized",
			domain.GroundingChunk{Title: "My blog post about AI", URL: "https://example.com/post"},
			0.3,
		},
		{
			"personal publishing host penalized",
			domain.GroundingChunk{Title: "Thoughts on AI", URL: "https://someone.medium.com/thoughts"},
			0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultChunkAuthority(tt.chunk)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("authority = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestWithAuthorityFunc(t *testing.T) {
	constant := func(domain.GroundingChunk) float64 { return 0.42 }
	e := newTestEngine(t, WithAuthorityFunc(constant))

	md := &domain.GroundingMetadata{
		GroundingChunks: []domain.GroundingChunk{{Title: "anything"}},
	}
	got := e.analyzeAuthority(md)
	if math.Abs(got.Mean-0.42) > 1e-9 {
		t.Errorf("pluggable authority ignored: mean = %f", got.Mean)
	}
}

func TestTemporalBalance(t *testing.T) {
	tests := []struct {
		recent, evergreen int
		want              TemporalBalance
	}{
		{0, 0, BalanceUnknown},
		{5, 2, BalanceRecentHeavy},
		{4, 2, Balanced},
		{1, 3, BalanceEvergreenHeavy},
		{2, 4, Balanced},
		{3, 0, BalanceRecentHeavy},
		{0, 1, BalanceEvergreenHeavy},
	}

	for _, tt := range tests {
		if got := temporalBalance(tt.recent, tt.evergreen); got != tt.want {
			t.Errorf("temporalBalance(%d, %d) = %q, want %q", tt.recent, tt.evergreen, got, tt.want)
		}
	}
}

func TestLooksRecent(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		text string
		want bool
	}{
		{"The latest developments in robotics", true},
		{"Industry report published in 2025", true},
		{"Benchmark results from 2026", true},
		{"A retrospective on the 2010 era", false},
		{"Timeless principles of design", false},
		{"Projections for 2040 markets", false},
	}

	for _, tt := range tests {
		if got := e.looksRecent(tt.text); got != tt.want {
			t.Errorf("looksRecent(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestAnalyzeRelationships(t *testing.T) {
	e := newTestEngine(t)

	md := &domain.GroundingMetadata{
		GroundingChunks: []domain.GroundingChunk{
			{Title: "Advances in Natural Language Processing"},
			{Title: "survey of methods"},
		},
		GroundingSupports: []domain.GroundingSupport{
			{SegmentText: "Current tooling shows a lack of support for streaming. Natural Language Processing keeps improving."},
		},
	}

	got := e.analyzeRelationships(md)

	if len(got.RelatedConcepts) != 1 || got.RelatedConcepts[0] != "Natural Language Processing" {
		t.Errorf("concepts = %v", got.RelatedConcepts)
	}
	if got.GapCount != 1 || len(got.ContentGaps) != 1 {
		t.Fatalf("gaps = %v", got.ContentGaps)
	}
	if !strings.Contains(got.ContentGaps[0], "lack of support") {
		t.Errorf("gap sentence = %q", got.ContentGaps[0])
	}
	if got.ConceptCoverage < 0 || got.ConceptCoverage > 1 {
		t.Errorf("coverage out of bounds: %f", got.ConceptCoverage)
	}
}

func TestAnalyzeCitations(t *testing.T) {
	e := newTestEngine(t)

	md := &domain.GroundingMetadata{
		GroundingChunks: []domain.GroundingChunk{{Title: "a"}, {Title: "b"}},
		Citations: []domain.Citation{
			{CitationType: domain.CitationExpertOpinion},
			{CitationType: domain.CitationStatisticalData},
			{CitationType: "inline"},
		},
	}

	got := e.analyzeCitations(md)

	if got.TotalCitations != 3 {
		t.Errorf("total = %d, want 3", got.TotalCitations)
	}
	wantQuality := (2 + 0.3*1) / 3.0
	if math.Abs(got.Quality-wantQuality) > 1e-9 {
		t.Errorf("quality = %f, want %f", got.Quality, wantQuality)
	}
	if got.Density < 0 || got.Density > 1 {
		t.Errorf("density out of bounds: %f", got.Density)
	}
	if got.TypeDistribution["inline"] != 1 || got.TypeDistribution[domain.CitationExpertOpinion] != 1 {
		t.Errorf("distribution = %v", got.TypeDistribution)
	}
}

func TestAnalyzeIntent(t *testing.T) {
	e := newTestEngine(t)

	md := &domain.GroundingMetadata{
		WebSearchQueries: []string{
			"hubspot vs salesforce comparison",
			"best crm for small business",
			"what is a crm?",
		},
	}

	got := e.analyzeIntent(md)

	if got.PrimaryIntent != domain.IntentComparison {
		t.Errorf("primary intent = %q, want comparison", got.PrimaryIntent)
	}
	if got.Signals[domain.IntentComparison] != 2 {
		t.Errorf("comparison signals = %d, want 2", got.Signals[domain.IntentComparison])
	}
	if len(got.UserQuestions) != 1 || got.UserQuestions[0] != "what is a crm?" {
		t.Errorf("questions = %v", got.UserQuestions)
	}
}

func TestAnalyzeIntent_DefaultsInformational(t *testing.T) {
	e := newTestEngine(t)
	got := e.analyzeIntent(&domain.GroundingMetadata{WebSearchQueries: []string{"acme widgets"}})
	if got.PrimaryIntent != domain.IntentInformational {
		t.Errorf("intent = %q, want informational default", got.PrimaryIntent)
	}
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		quality float64
		want    string
	}{
		{0.95, "A"}, {0.9, "A"}, {0.85, "B"}, {0.8, "B"},
		{0.75, "C"}, {0.65, "D"}, {0.6, "D"}, {0.55, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		if got := GradeFor(tt.quality); got != tt.want {
			t.Errorf("GradeFor(%f) = %q, want %q", tt.quality, got, tt.want)
		}
	}
}

func TestExtractContextualInsights_BoundedOutputs(t *testing.T) {
	e := newTestEngine(t)

	md := &domain.GroundingMetadata{
		GroundingChunks: []domain.GroundingChunk{
			{Title: "Government Research Study 2025", URL: "https://stats.gov/x", ConfidenceScore: 0.95},
			{Title: "Vendor Blog Musings", URL: "https://someone.medium.com/y", ConfidenceScore: 0.4},
		},
		GroundingSupports: []domain.GroundingSupport{
			{
				SegmentText:           "Adoption of Machine Learning Platforms grew sharply across the sector this year.",
				ConfidenceScores:      []float64{0.9},
				GroundingChunkIndices: []int{0},
			},
		},
		Citations: []domain.Citation{
			{CitationType: domain.CitationStatisticalData},
			{CitationType: "inline"},
		},
		WebSearchQueries: []string{"how to adopt machine learning"},
	}

	insights := e.ExtractContextualInsights(md)

	bounded := map[string]float64{
		"confidence mean":  insights.Confidence.Mean,
		"authority mean":   insights.Authority.Mean,
		"concept coverage": insights.Relationships.ConceptCoverage,
		"citation density": insights.Citations.Density,
		"citation quality": insights.Citations.Quality,
		"overall quality":  insights.Quality.OverallQuality,
	}
	for name, v := range bounded {
		if v < 0 || v > 1 {
			t.Errorf("%s out of [0,1]: %f", name, v)
		}
	}

	switch insights.Quality.QualityGrade {
	case "A", "B", "C", "D", "F":
	default:
		t.Errorf("invalid grade %q", insights.Quality.QualityGrade)
	}
	if insights.Temporal.RecentCount+insights.Temporal.EvergreenCount != 3 {
		t.Errorf("temporal counts = %+v, want 3 classified items", insights.Temporal)
	}
	if len(insights.Quality.QualityFactors) == 0 {
		t.Error("strong evidence should register at least one quality factor")
	}
}

func TestAuthoritySources_OrderedBestFirst(t *testing.T) {
	e := newTestEngine(t)

	md := &domain.GroundingMetadata{
		GroundingChunks: []domain.GroundingChunk{
			{Title: "Vendor blog notes", URL: "https://example.com/a"},
			{Title: "University Research Study", URL: "https://dept.edu/b"},
			{Title: "Plain article", URL: "https://example.com/c"},
		},
	}

	got := e.AuthoritySources(md)
	if len(got) != 3 {
		t.Fatalf("scored %d chunks, want 3", len(got))
	}
	if got[0].Chunk.Title != "University Research Study" {
		t.Errorf("best chunk = %q", got[0].Chunk.Title)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not descending at %d: %f > %f", i, got[i].Score, got[i-1].Score)
		}
	}

	if e.AuthoritySources(nil) != nil {
		t.Error("nil metadata should yield nil")
	}
}

func TestHighConfidenceInsights(t *testing.T) {
	e := newTestEngine(t)

	long := strings.Repeat("Machine learning pipelines need monitoring. ", 10)
	md := &domain.GroundingMetadata{
		GroundingSupports: []domain.GroundingSupport{
			{
				SegmentText:           "Teams that invest in data quality ship models faster.",
				ConfidenceScores:      []float64{0.9},
				GroundingChunkIndices: []int{0},
			},
			{
				SegmentText:           long,
				ConfidenceScores:      []float64{0.85},
				GroundingChunkIndices: []int{0},
			},
			{
				SegmentText:           "too short",
				ConfidenceScores:      []float64{0.95},
				GroundingChunkIndices: []int{0},
			},
			{
				SegmentText:           "This support is confident enough in no score at all.",
				ConfidenceScores:      []float64{0.5},
				GroundingChunkIndices: []int{0},
			},
		},
	}

	got := e.HighConfidenceInsights(md)
	if len(got) != 2 {
		t.Fatalf("insights = %d, want 2: %v", len(got), got)
	}
	for _, insight := range got {
		if len([]rune(insight)) > e.cfg.MaxInsightLength {
			t.Errorf("insight exceeds max length: %d runes", len([]rune(insight)))
		}
	}
	if !strings.HasSuffix(got[1], "...") {
		t.Errorf("long insight should be truncated with ellipsis: %q", got[1])
	}
}

func TestEnhanceSections(t *testing.T) {
	e := newTestEngine(t)

	sections := []domain.OutlineSection{
		{
			ID:          "s1",
			Heading:     "Machine Learning Algorithms",
			Subheadings: []string{"Existing Sub"},
			Keywords:    []string{"neural networks"},
		},
		{
			ID:      "s2",
			Heading: "Gardening Basics",
		},
	}

	md := &domain.GroundingMetadata{
		GroundingChunks: []domain.GroundingChunk{
			{Title: "Deep Learning Algorithms Survey", ConfidenceScore: 0.9},
			{Title: "Sourdough Techniques", ConfidenceScore: 0.9},
		},
		GroundingSupports: []domain.GroundingSupport{
			{
				SegmentText:           "Modern machine learning algorithms rely on large labeled datasets for training.",
				ConfidenceScores:      []float64{0.9},
				GroundingChunkIndices: []int{0},
			},
		},
	}
	insights := Insights{
		Relationships: RelationshipAnalysis{
			RelatedConcepts: []string{"Learning Theory", "Quantum Cooking"},
		},
	}

	got := e.EnhanceSections(sections, md, insights)

	s1 := got[0]
	if s1.Subheadings[0] != "Existing Sub" {
		t.Error("existing subheadings must keep their position")
	}
	if !containsFolded(s1.Subheadings, "Deep Learning Algorithms Survey") {
		t.Errorf("relevant chunk title not added: %v", s1.Subheadings)
	}
	if containsFolded(s1.Subheadings, "Sourdough Techniques") {
		t.Error("irrelevant chunk title added")
	}
	if len(s1.KeyPoints) != 1 || !strings.Contains(s1.KeyPoints[0], "labeled datasets") {
		t.Errorf("key points = %v", s1.KeyPoints)
	}
	if !containsFolded(s1.Keywords, "learning theory") {
		t.Errorf("overlapping concept not added as keyword: %v", s1.Keywords)
	}
	if containsFolded(s1.Keywords, "quantum cooking") {
		t.Error("non-overlapping concept added as keyword")
	}

	s2 := got[1]
	if len(s2.Subheadings) != 0 || len(s2.KeyPoints) != 0 {
		t.Errorf("unrelated section enriched: %+v", s2)
	}

	// caller sections untouched
	if len(sections[0].Subheadings) != 1 {
		t.Error("enhancement mutated caller-owned sections")
	}
}

func TestEnhanceSections_EmptyMetadataUnchanged(t *testing.T) {
	e := newTestEngine(t)

	sections := []domain.OutlineSection{
		{ID: "s1", Heading: "Topic", Keywords: []string{"kw"}},
	}

	got := e.EnhanceSections(sections, &domain.GroundingMetadata{}, Insights{})
	if len(got) != 1 || got[0].Heading != "Topic" || len(got[0].Keywords) != 1 {
		t.Errorf("sections changed with empty metadata: %+v", got)
	}

	got[0].Keywords[0] = "mutated"
	if sections[0].Keywords[0] != "kw" {
		t.Error("result shares storage with input")
	}
}

func TestEnhanceSections_Idempotent(t *testing.T) {
	e := newTestEngine(t)

	sections := []domain.OutlineSection{
		{ID: "s1", Heading: "Machine Learning Algorithms"},
	}
	md := &domain.GroundingMetadata{
		GroundingChunks: []domain.GroundingChunk{
			{Title: "Deep Learning Algorithms Survey", ConfidenceScore: 0.9},
		},
	}

	once := e.EnhanceSections(sections, md, Insights{})
	twice := e.EnhanceSections(once, md, Insights{})

	if len(once[0].Subheadings) != len(twice[0].Subheadings) {
		t.Errorf("re-enhancing duplicated subheadings: %v vs %v",
			once[0].Subheadings, twice[0].Subheadings)
	}
}
