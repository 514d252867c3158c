package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"jobtrack-backend/pkg/config"
)

const maxFieldLength = 80

// Fields holds the best-effort company and role pulled from an email.
// Empty means unknown.
type Fields struct {
	Company   string `json:"company"`
	RoleTitle string `json:"role_title"`
}

func (f Fields) complete() bool {
	return f.Company != "" && f.RoleTitle != ""
}

// Extractor applies ordered field patterns to email text
type Extractor struct {
	patterns []*regexp.Regexp
}

// NewExtractor compiles the field patterns of rules
func NewExtractor(rules *config.Rules) (*Extractor, error) {
	patterns := make([]*regexp.Regexp, 0, len(rules.FieldPatterns))
	for _, p := range rules.FieldPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("extractor: pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return &Extractor{patterns: patterns}, nil
}

// Extract tries every pattern on the subject, then on the body. The first
// pattern yielding both fields wins; otherwise partial matches fill what
// they can, earliest first.
func (e *Extractor) Extract(subject, body string) Fields {
	var partial Fields
	for _, text := range []string{subject, body} {
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, re := range e.patterns {
			got, ok := e.match(re, text)
			if !ok {
				continue
			}
			if got.complete() {
				return got
			}
			if partial.Company == "" {
				partial.Company = got.Company
			}
			if partial.RoleTitle == "" {
				partial.RoleTitle = got.RoleTitle
			}
		}
	}
	return partial
}

func (e *Extractor) match(re *regexp.Regexp, text string) (Fields, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return Fields{}, false
	}
	var f Fields
	if i := re.SubexpIndex("company"); i >= 0 {
		f.Company = cleanField(m[i])
	}
	if i := re.SubexpIndex("role"); i >= 0 {
		f.RoleTitle = cleanField(m[i])
	}
	return f, f.Company != "" || f.RoleTitle != ""
}

func cleanField(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) >= 4 && strings.EqualFold(s[:4], "the ") {
		s = s[4:]
	}
	if len([]rune(s)) > maxFieldLength {
		return ""
	}
	return s
}
