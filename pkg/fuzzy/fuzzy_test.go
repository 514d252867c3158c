package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "acme corp", Normalize("  ACME \t  Corp\n"))
	assert.Equal(t, "", Normalize("   "))
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, LevenshteinDistance("Acme", "acme"))
	assert.Equal(t, 1, LevenshteinDistance("acme", "acne"))
	assert.Equal(t, 3, LevenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 4, LevenshteinDistance("", "acme"))
}

func TestFuzzyMatch(t *testing.T) {
	assert.True(t, FuzzyMatch("acme", "Acme Corporation", 1))
	assert.True(t, FuzzyMatch("acne", "Acme Corporation", 1))
	assert.True(t, FuzzyMatch("back", "Backend Engineer", 1))
	assert.False(t, FuzzyMatch("globex", "Acme Corporation", 1))
}

func TestCalculateRelevanceScore_CompanyBeatsRole(t *testing.T) {
	companyHit := CalculateRelevanceScore("acme", "Acme", "Backend Engineer", "Berlin")
	roleHit := CalculateRelevanceScore("acme", "Globex", "Acme Tools Engineer", "Berlin")
	miss := CalculateRelevanceScore("acme", "Globex", "Designer", "Paris")

	assert.Greater(t, companyHit, roleHit)
	assert.Greater(t, roleHit, miss)
	assert.Zero(t, miss)
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, 1, Threshold("abc"))
	assert.Equal(t, 2, Threshold("acme"))
	assert.Equal(t, 3, Threshold("engineering"))
}
