// Package classifier turns raw email text into job-application events and
// pulls company and role names out of it. Both are pure functions of their
// input and the rule tables they were built with.
package classifier

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/pkg/config"
)

const evidenceTextLimit = 120

type strength int

const (
	strengthNone strength = iota
	strengthGeneric
	strengthWeak
	strengthStrong
)

func (s strength) confidence() domain.Confidence {
	switch s {
	case strengthStrong:
		return domain.ConfidenceHigh
	case strengthWeak:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

type ruleGroup struct {
	eventType   domain.EventType
	strong      []*regexp.Regexp
	weak        []*regexp.Regexp
	subjectWeak []*regexp.Regexp
	generic     []*regexp.Regexp
}

// best returns the strongest level at which any pattern of g matches.
func (g *ruleGroup) best(subject, text string) strength {
	switch {
	case matchAny(g.strong, text):
		return strengthStrong
	case matchAny(g.weak, text), matchAny(g.subjectWeak, subject):
		return strengthWeak
	case matchAny(g.generic, text):
		return strengthGeneric
	}
	return strengthNone
}

// Classification is the result of classifying one email
type Classification struct {
	EventType    domain.EventType
	Confidence   domain.Confidence
	EvidenceText string
	Date         time.Time
	Ambiguous    bool
}

// Classifier evaluates rule groups in precedence order
type Classifier struct {
	groups []ruleGroup
	logger *zap.Logger
}

// New compiles the event groups of rules. Group order in rules is the
// precedence order.
func New(rules *config.Rules, logger *zap.Logger) (*Classifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	groups := make([]ruleGroup, 0, len(rules.EventGroups))
	for _, g := range rules.EventGroups {
		eventType, ok := domain.ParseEventType(g.EventType)
		if !ok || eventType == domain.EventOther {
			return nil, fmt.Errorf("classifier: unsupported event type %q", g.EventType)
		}
		rg := ruleGroup{eventType: eventType}
		var err error
		if rg.strong, err = compileAll(g.Strong); err != nil {
			return nil, err
		}
		if rg.weak, err = compileAll(g.Weak); err != nil {
			return nil, err
		}
		if rg.subjectWeak, err = compileAll(g.SubjectWeak); err != nil {
			return nil, err
		}
		if rg.generic, err = compileAll(g.Generic); err != nil {
			return nil, err
		}
		groups = append(groups, rg)
	}
	return &Classifier{groups: groups, logger: logger.Named("classifier")}, nil
}

// Classify returns the event described by an email, or false when the email
// is not about a job application. The first group in precedence order that
// matches decides the type. When a later group matches at least as strongly,
// confidence drops to Low.
func (c *Classifier) Classify(subject, body string, receivedAt time.Time) (*Classification, bool) {
	text := subject + "\n" + body

	winner := -1
	var winnerStrength strength
	ambiguous := false
	for i := range c.groups {
		s := c.groups[i].best(subject, text)
		if s == strengthNone {
			continue
		}
		if winner < 0 {
			winner, winnerStrength = i, s
			continue
		}
		if s >= winnerStrength {
			ambiguous = true
		}
	}
	if winner < 0 {
		return nil, false
	}

	result := &Classification{
		EventType:    c.groups[winner].eventType,
		Confidence:   winnerStrength.confidence(),
		EvidenceText: EvidenceText(subject, body),
		Date:         receivedAt,
		Ambiguous:    ambiguous,
	}
	if ambiguous {
		result.Confidence = domain.ConfidenceLow
		c.logger.Debug("competing rule groups matched",
			zap.Error(domain.ErrClassificationAmbiguous),
			zap.String("event_type", string(result.EventType)),
			zap.String("subject", subject),
		)
	}
	return result, true
}

// EvidenceText is the text kept on an event for auditing: the subject, or
// the start of the body when the subject is empty.
func EvidenceText(subject, body string) string {
	if s := strings.TrimSpace(subject); s != "" {
		return s
	}
	collapsed := strings.Join(strings.Fields(body), " ")
	runes := []rune(collapsed)
	if len(runes) > evidenceTextLimit {
		return string(runes[:evidenceTextLimit])
	}
	return collapsed
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("classifier: pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
