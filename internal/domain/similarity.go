package domain

import (
	"strings"
	"unicode"
)

// Similarity computes the Sørensen–Dice coefficient over character
// bigrams of the two strings, lowercased with whitespace removed.
// Result is in [0,1]; identical strings score 1, strings without a
// common bigram score 0.
func Similarity(first, second string) float64 {
	a := normalizeForSimilarity(first)
	b := normalizeForSimilarity(second)

	if a == b {
		return 1.0
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0.0
	}

	bigrams := make(map[string]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[string(ra[i:i+2])]++
	}

	matches := 0
	for i := 0; i < len(rb)-1; i++ {
		key := string(rb[i : i+2])
		if bigrams[key] > 0 {
			bigrams[key]--
			matches++
		}
	}

	return 2.0 * float64(matches) / float64(len(ra)+len(rb)-2)
}

func normalizeForSimilarity(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if !unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// IsDuplicate reports whether candidate is a near-duplicate of
// existing: true iff the similarity strictly exceeds threshold.
// A threshold of 1 (or more) therefore never matches.
func IsDuplicate(candidate, existing string, threshold float64) bool {
	return Similarity(candidate, existing) > threshold
}
