package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed rules.default.yaml
var defaultRulesYAML []byte

// Rules holds the static tables that drive classification, field extraction
// and matching. It is loaded once and passed to constructors; nothing keeps
// it in package state, so several rule sets can be used side by side.
type Rules struct {
	// Pipeline lists the progressing statuses in order. Rejected is implicit.
	Pipeline []string `yaml:"pipeline" json:"pipeline"`
	// EventGroups are evaluated in the listed order; the first group with a
	// match decides the event type.
	EventGroups []EventGroup `yaml:"event_groups" json:"event_groups"`
	// FieldPatterns are regular expressions with named groups "company"
	// and/or "role", tried in order.
	FieldPatterns []string `yaml:"field_patterns" json:"field_patterns"`
	// TrackingParams are stripped from job URLs along with utm_*.
	TrackingParams []string `yaml:"tracking_params" json:"tracking_params"`
	// NoteSeparator joins appended notes.
	NoteSeparator string `yaml:"note_separator" json:"note_separator"`
	// SkipCompanies are template rows ignored by the file importer.
	SkipCompanies []string `yaml:"skip_companies" json:"skip_companies"`
}

// EventGroup maps case-insensitive patterns of three strengths to one event
// type. Strong patterns give High confidence, weak Medium, generic Low.
// SubjectWeak patterns count as weak but only match the subject line.
type EventGroup struct {
	EventType   string   `yaml:"event_type" json:"event_type"`
	Strong      []string `yaml:"strong" json:"strong"`
	Weak        []string `yaml:"weak" json:"weak"`
	SubjectWeak []string `yaml:"subject_weak" json:"subject_weak,omitempty"`
	Generic     []string `yaml:"generic" json:"generic"`
}

// DefaultRules returns the embedded rule tables.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// LoadRules reads rule tables from path, or the embedded defaults when path
// is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates YAML rule tables.
func ParseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if rules.NoteSeparator == "" {
		rules.NoteSeparator = "\n"
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

// Validate checks that every pattern compiles and every group is named.
func (r *Rules) Validate() error {
	if len(r.EventGroups) == 0 {
		return errors.New("rules: at least one event group is required")
	}
	seen := make(map[string]bool, len(r.EventGroups))
	for _, g := range r.EventGroups {
		if g.EventType == "" {
			return errors.New("rules: event group without event_type")
		}
		if seen[g.EventType] {
			return fmt.Errorf("rules: duplicate event group %q", g.EventType)
		}
		seen[g.EventType] = true
		for _, list := range [][]string{g.Strong, g.Weak, g.SubjectWeak, g.Generic} {
			for _, p := range list {
				if _, err := regexp.Compile("(?i)" + p); err != nil {
					return fmt.Errorf("rules: group %s: pattern %q: %w", g.EventType, p, err)
				}
			}
		}
	}
	for _, p := range r.FieldPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("rules: field pattern %q: %w", p, err)
		}
		if re.SubexpIndex("company") < 0 && re.SubexpIndex("role") < 0 {
			return fmt.Errorf("rules: field pattern %q has no company or role group", p)
		}
	}
	return nil
}
