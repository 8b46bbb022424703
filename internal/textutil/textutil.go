// Package textutil provides the lexical primitives shared by the filter,
// grounding, and mapper packages: unicode-aware normalization, tokenization,
// stop-word stripping, and phrase extraction.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopWords are function words ignored by all overlap scoring. Keeping them
// would let "the" and "with" dominate every similarity signal.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "been": true, "but": true, "by": true, "can": true, "could": true,
	"did": true, "do": true, "does": true, "for": true, "from": true, "had": true,
	"has": true, "have": true, "he": true, "her": true, "his": true, "how": true,
	"i": true, "if": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "may": true, "more": true, "most": true, "no": true, "not": true,
	"of": true, "on": true, "or": true, "our": true, "she": true, "should": true,
	"so": true, "some": true, "such": true, "than": true, "that": true,
	"the": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "to": true, "was": true,
	"we": true, "were": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "who": true, "why": true, "will": true,
	"with": true, "would": true, "you": true, "your": true,
}

// IsStopWord reports whether the (already folded) word is a stop word.
func IsStopWord(word string) bool {
	return stopWords[word]
}

// Fold lowercases text and strips diacritics so "Montréal" and "montreal"
// compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// Normalize folds text and replaces every non-alphanumeric rune with a space,
// preserving word boundaries for substring and automaton matching.
func Normalize(s string) string {
	folded := Fold(s)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Tokenize splits normalized text into words.
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// MeaningfulTokens tokenizes text and drops stop words and single-rune tokens.
func MeaningfulTokens(s string) []string {
	var out []string
	for _, tok := range Tokenize(s) {
		if len(tok) < 2 || stopWords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// TokenSet returns the meaningful tokens of text as a set.
func TokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range MeaningfulTokens(s) {
		set[tok] = true
	}
	return set
}

// OverlapRatio returns |a ∩ b| / |a|, or 0 when a is empty.
func OverlapRatio(a, b map[string]bool) float64 {
	if len(a) == 0 {
		return 0
	}
	matched := 0
	for tok := range a {
		if b[tok] {
			matched++
		}
	}
	return float64(matched) / float64(len(a))
}

// CapitalizedPhrases extracts multi-word capitalized runs ("Machine Learning
// Operations") from text, deduplicated in first-seen order. Used to mine
// related concepts from chunk titles and support segments.
func CapitalizedPhrases(s string) []string {
	words := strings.Fields(s)

	var phrases []string
	seen := make(map[string]bool)
	var current []string

	flush := func() {
		if len(current) >= 2 {
			phrase := strings.Join(current, " ")
			key := Fold(phrase)
			if !seen[key] {
				seen[key] = true
				phrases = append(phrases, phrase)
			}
		}
		current = nil
	}

	for _, w := range words {
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed != "" && startsUpper(trimmed) && !stopWords[strings.ToLower(trimmed)] {
			current = append(current, trimmed)
			continue
		}
		flush()
	}
	flush()

	return phrases
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// Truncate shortens s to max runes, appending an ellipsis when it had to cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}

// ContainsWord reports whether normalized text contains the normalized word
// with word boundaries respected.
func ContainsWord(text, word string) bool {
	padded := " " + Normalize(text) + " "
	return strings.Contains(padded, " "+Normalize(word)+" ")
}

// ContainsPhrase reports whether normalized text contains the normalized
// multi-word phrase as a contiguous run.
func ContainsPhrase(text, phrase string) bool {
	normPhrase := strings.Join(strings.Fields(Normalize(phrase)), " ")
	if normPhrase == "" {
		return false
	}
	normText := strings.Join(strings.Fields(Normalize(text)), " ")
	return strings.Contains(" "+normText+" ", " "+normPhrase+" ")
}
