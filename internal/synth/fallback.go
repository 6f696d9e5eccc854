// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"sort"
	"strings"
	"unicode"
)

const (
	defaultLabelMaxWords     = 8
	defaultDescriptionMaxLen = 280
)

// stopwords are excluded from keyword extraction.
var stopwords = map[string]bool{
	"about": true, "after": true, "also": true, "been": true, "before": true,
	"being": true, "between": true, "both": true, "could": true, "does": true,
	"each": true, "from": true, "have": true, "here": true, "into": true,
	"its": true, "more": true, "most": true, "other": true, "over": true,
	"same": true, "should": true, "some": true, "such": true, "than": true,
	"that": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "through": true,
	"under": true, "very": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "will": true, "with": true,
	"would": true, "your": true,
}

// FallbackLabel derives a deterministic label from the leading words of
// the top-scoring passage. maxWords <= 0 uses the default of 8.
func FallbackLabel(text string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = defaultLabelMaxWords
	}

	words := strings.Fields(text)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	label := strings.Join(words, " ")
	return strings.TrimRightFunc(label, func(r rune) bool {
		return unicode.IsPunct(r)
	})
}

// FallbackDescription returns the verbatim passage text truncated to
// maxLen bytes on a rune boundary. maxLen <= 0 uses the default of 280.
func FallbackDescription(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = defaultDescriptionMaxLen
	}
	return truncate(strings.TrimSpace(text), maxLen)
}

// TopKeywords returns the k most frequent non-stopword terms longer than
// three characters across the texts, most frequent first, ties broken
// alphabetically for stable output.
func TopKeywords(texts []string, k int) []string {
	counts := make(map[string]int)
	for _, text := range texts {
		for _, tok := range strings.Fields(strings.ToLower(text)) {
			tok = strings.TrimFunc(tok, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsNumber(r)
			})
			if len(tok) <= 3 || stopwords[tok] {
				continue
			}
			counts[tok]++
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > k {
		terms = terms[:k]
	}
	return terms
}

// truncate shortens s to at most maxLen bytes without splitting a rune,
// appending an ellipsis when anything was cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], " ") + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
