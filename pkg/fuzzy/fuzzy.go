package fuzzy

import (
	"strings"
)

// Normalize lowercases s, trims it and collapses inner whitespace runs to a
// single space. It is the canonical normalization for company and role names.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// LevenshteinDistance calculates the edit distance between two strings
// after normalization
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(Normalize(s1))
	r2 := []rune(Normalize(s2))
	m := len(r1)
	n := len(r2)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Two rows are enough; only the previous row is read
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// FuzzyMatch checks if query fuzzy-matches text within a given threshold
// threshold is the maximum allowed edit distance
func FuzzyMatch(query, text string, threshold int) bool {
	query = Normalize(query)
	text = Normalize(text)
	if query == "" {
		return true
	}

	if strings.Contains(text, query) {
		return true
	}

	for _, word := range strings.Fields(text) {
		if LevenshteinDistance(query, word) <= threshold {
			return true
		}
		if strings.HasPrefix(word, query) {
			return true
		}
	}

	// Check overall distance for short texts
	if len(text) < 50 {
		maxDistance := threshold + len(query)/5
		if LevenshteinDistance(query, text) <= maxDistance {
			return true
		}
	}

	return false
}

// Threshold returns the typo tolerance for a query of the given length
func Threshold(query string) int {
	switch n := len(query); {
	case n <= 3:
		return 1
	case n >= 8:
		return 3
	default:
		return 2
	}
}

// CalculateRelevanceScore scores how relevant an application is to a query.
// Company matches weigh most, then role title, then location.
func CalculateRelevanceScore(query, company, roleTitle, location string) float64 {
	query = Normalize(query)
	if query == "" {
		return 0
	}

	score := fieldScore(query, company, 100, 50)
	score += fieldScore(query, roleTitle, 80, 30)

	if strings.Contains(Normalize(location), query) {
		score += 30.0
	}

	return score
}

// fieldScore rewards an exact substring (plus a bonus for a whole word),
// falling back to per-word edit distance and prefix checks.
func fieldScore(query, field string, exact, wordBonus float64) float64 {
	norm := Normalize(field)
	if norm == "" {
		return 0
	}
	if strings.Contains(norm, query) {
		if containsWord(norm, query) {
			return exact + wordBonus
		}
		return exact
	}

	score := 0.0
	for _, word := range strings.Fields(norm) {
		if dist := LevenshteinDistance(query, word); dist <= 2 {
			score += exact/2 - float64(dist)*15
		}
		if strings.HasPrefix(word, query) {
			score += exact * 0.4
		}
	}
	return score
}

// containsWord checks if text contains query as a whole word
func containsWord(text, query string) bool {
	for _, word := range strings.Fields(text) {
		if word == query {
			return true
		}
	}
	return false
}
