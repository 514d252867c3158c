package usecase

import (
	"fmt"
	"strings"
	"time"

	"jobtrack-backend/internal/application/classifier"
	"jobtrack-backend/internal/application/domain"
)

// captureDateLayouts are tried in order. Layouts without a zone are read
// as UTC.
var captureDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"02.01.2006",
	"2006/01/02",
	"01/02/2006",
}

// ParseCaptureDate parses a date as delivered by the browser extension or
// an import file. An empty string yields the zero time.
func ParseCaptureDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range captureDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", domain.ErrMalformedEvidence, s)
}

// emailEvidence classifies msg. It returns false for emails unrelated to job
// applications.
func emailEvidence(cls *classifier.Classifier, ext *classifier.Extractor, msg domain.RawMessage) (domain.Evidence, bool, error) {
	if msg.ReceivedAt.IsZero() {
		return domain.Evidence{}, false, fmt.Errorf("%w: message has no date", domain.ErrMalformedEvidence)
	}

	c, ok := cls.Classify(msg.Subject, msg.Body, msg.ReceivedAt)
	if !ok {
		return domain.Evidence{}, false, nil
	}
	fields := ext.Extract(msg.Subject, msg.Body)

	return domain.Evidence{
		Source:       domain.SourceEmail,
		Origin:       string(domain.SourceEmail),
		Date:         c.Date.UTC(),
		EventType:    c.EventType,
		Confidence:   c.Confidence,
		Company:      fields.Company,
		RoleTitle:    fields.RoleTitle,
		EvidenceText: c.EvidenceText,
	}, true, nil
}

// captureEvidence validates a manual capture. A capture without a known
// status becomes an Other event so the capture itself stays on record.
func captureEvidence(c domain.Capture) (domain.Evidence, error) {
	company := strings.TrimSpace(c.Company)
	role := strings.TrimSpace(c.RoleTitle)
	jobURL := strings.TrimSpace(c.JobURL)
	if company == "" && role == "" && jobURL == "" {
		return domain.Evidence{}, fmt.Errorf("%w: capture has no company, role or job url", domain.ErrMalformedEvidence)
	}

	captured, err := ParseCaptureDate(c.CapturedAt)
	if err != nil {
		return domain.Evidence{}, err
	}
	applied, err := ParseCaptureDate(c.AppliedDate)
	if err != nil {
		return domain.Evidence{}, err
	}

	date := captured
	if date.IsZero() {
		date = applied
	}
	if date.IsZero() {
		return domain.Evidence{}, fmt.Errorf("%w: capture has no date", domain.ErrMalformedEvidence)
	}

	eventType := domain.EventOther
	if t, ok := domain.ParseEventType(c.Status); ok {
		eventType = t
	}

	origin := strings.TrimSpace(c.Source)
	if origin == "" {
		origin = "manual"
	}

	ev := domain.Evidence{
		Source:       domain.SourceManualImport,
		Origin:       origin,
		Date:         date,
		EventType:    eventType,
		Confidence:   domain.ConfidenceHigh,
		Company:      company,
		RoleTitle:    role,
		Location:     strings.TrimSpace(c.Location),
		JobURL:       jobURL,
		Notes:        strings.TrimSpace(c.Notes),
		EvidenceText: captureText(origin, company, role, jobURL),
	}
	if !applied.IsZero() {
		ev.AppliedDate = &applied
	}
	return ev, nil
}

func captureText(origin, company, role, jobURL string) string {
	var b strings.Builder
	b.WriteString("Captured from ")
	b.WriteString(origin)
	b.WriteString(":")
	if role != "" {
		b.WriteString(" " + role)
	}
	if company != "" {
		b.WriteString(" at " + company)
	}
	if jobURL != "" {
		b.WriteString(" (" + jobURL + ")")
	}
	return b.String()
}
