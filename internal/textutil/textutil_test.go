package textutil

import (
	"strings"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Montréal", "montreal"},
		{"CAFÉ", "cafe"},
		{"already lower", "already lower"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	got := strings.Fields(Normalize("AI/ML: état-of-the-art!"))
	want := []string{"ai", "ml", "etat", "of", "the", "art"}
	if len(got) != len(want) {
		t.Fatalf("Normalize fields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMeaningfulTokens_DropsStopWordsAndShortTokens(t *testing.T) {
	tokens := MeaningfulTokens("The state of the art in AI")
	for _, tok := range tokens {
		if IsStopWord(tok) {
			t.Errorf("stop word %q survived", tok)
		}
		if len(tok) < 2 {
			t.Errorf("single-rune token %q survived", tok)
		}
	}

	set := TokenSet("The state of the art in AI")
	if !set["state"] || !set["art"] || !set["ai"] {
		t.Errorf("expected content words in set, got %v", set)
	}
	if set["the"] || set["of"] || set["in"] {
		t.Errorf("expected stop words dropped, got %v", set)
	}
}

func TestOverlapRatio(t *testing.T) {
	a := TokenSet("machine learning algorithms")
	b := TokenSet("machine learning in production systems")

	got := OverlapRatio(a, b)
	want := 2.0 / 3.0
	if got < want-1e-9 || got > want+1e-9 {
		t.Errorf("OverlapRatio = %f, want %f", got, want)
	}

	if OverlapRatio(map[string]bool{}, b) != 0 {
		t.Error("empty set should overlap 0")
	}
}

func TestCapitalizedPhrases(t *testing.T) {
	phrases := CapitalizedPhrases("teams adopt Machine Learning Operations with Neural Networks and plain text")

	want := []string{"Machine Learning Operations", "Neural Networks"}
	if len(phrases) != len(want) {
		t.Fatalf("got %v, want %v", phrases, want)
	}
	for i, p := range phrases {
		if p != want[i] {
			t.Errorf("phrase[%d] = %q, want %q", i, p, want[i])
		}
	}
}

func TestCapitalizedPhrases_Dedupes(t *testing.T) {
	phrases := CapitalizedPhrases("Neural Networks again: Neural Networks")
	if len(phrases) != 1 {
		t.Errorf("expected 1 phrase, got %v", phrases)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 250)
	got := Truncate(long, 200)
	if len([]rune(got)) > 200 {
		t.Errorf("truncated length %d exceeds 200", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got[len(got)-10:])
	}

	short := "unchanged"
	if Truncate(short, 200) != short {
		t.Error("short string should pass through unmodified")
	}
}

func TestContainsPhrase(t *testing.T) {
	if !ContainsPhrase("Enterprise AI adoption in business", "enterprise ai") {
		t.Error("expected phrase match")
	}
	if ContainsPhrase("Enterprise intelligence", "enterprise ai") {
		t.Error("unexpected phrase match")
	}
	if ContainsPhrase("anything", "") {
		t.Error("empty phrase should never match")
	}
}

func TestContainsWord(t *testing.T) {
	if !ContainsWord("The AI industry", "ai") {
		t.Error("expected word match")
	}
	if ContainsWord("maintain the system", "ai") {
		t.Error("substring inside a word should not match")
	}
}
