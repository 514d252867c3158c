package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	rules, err := DefaultRules()
	require.NoError(t, err)

	assert.Equal(t, []string{"Draft", "Applied", "Interview", "Offer"}, rules.Pipeline)
	assert.Equal(t, "\n", rules.NoteSeparator)
	require.Len(t, rules.EventGroups, 4)

	order := make([]string, 0, len(rules.EventGroups))
	for _, g := range rules.EventGroups {
		order = append(order, g.EventType)
	}
	assert.Equal(t, []string{"Rejected", "Offer", "Interview", "Applied"}, order)
	assert.NotEmpty(t, rules.FieldPatterns)
	assert.Contains(t, rules.TrackingParams, "gclid")
	assert.Contains(t, rules.SkipCompanies, "Example Corp")
}

func TestLoadRules_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := []byte(`
event_groups:
  - event_type: Rejected
    strong: ['absage']
field_patterns:
  - '(?i:bei)\s+(?P<company>\S+)'
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Len(t, rules.EventGroups, 1)
	assert.Equal(t, "\n", rules.NoteSeparator, "separator defaults to newline")
	assert.Empty(t, rules.Pipeline)
}

func TestLoadRules_EmptyPathUsesDefaults(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Len(t, rules.EventGroups, 4)
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no groups", "pipeline: [Draft]"},
		{"unnamed group", "event_groups:\n  - strong: ['x']"},
		{"duplicate group", "event_groups:\n  - event_type: Offer\n  - event_type: Offer"},
		{"bad event regex", "event_groups:\n  - event_type: Offer\n    weak: ['(unclosed']"},
		{"bad subject regex", "event_groups:\n  - event_type: Offer\n    subject_weak: ['(unclosed']"},
		{"field pattern without groups", "event_groups:\n  - event_type: Offer\nfield_patterns: ['at (\\w+)']"},
		{"not yaml", "event_groups: [::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
