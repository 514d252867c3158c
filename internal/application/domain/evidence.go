package domain

import (
	"context"
	"time"
)

// RawMessage is one email as delivered by a mail provider
type RawMessage struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Sender     string    `json:"sender"`
	ReceivedAt time.Time `json:"received_at"`
}

// MailProvider yields the raw messages received in [since, until).
// Ordering is not guaranteed.
type MailProvider interface {
	FetchMessages(ctx context.Context, since, until time.Time) ([]RawMessage, error)
}

// Capture is one entry saved by the browser extension or read from an
// import file. Dates are kept as delivered and parsed during reconciliation.
type Capture struct {
	Company     string `json:"company" csv:"company"`
	RoleTitle   string `json:"role_title" csv:"role_title"`
	Location    string `json:"location" csv:"location"`
	Source      string `json:"source" csv:"source"`
	JobURL      string `json:"job_url" csv:"job_url"`
	Notes       string `json:"notes" csv:"notes"`
	AppliedDate string `json:"applied_date" csv:"applied_date"`
	CapturedAt  string `json:"captured_at" csv:"captured_at"`
	Status      string `json:"status,omitempty" csv:"status"`
}

// Evidence is the normalized form of an email event or a manual capture
// handed to the match resolver and the merge engine.
type Evidence struct {
	Source       EvidenceSource
	Origin       string // application source tag: email, manual, LinkedIn, ...
	Date         time.Time
	AppliedDate  *time.Time
	EventType    EventType
	Confidence   Confidence
	Company      string
	RoleTitle    string
	Location     string
	JobURL       string
	Notes        string
	EvidenceText string
}

// ReferenceDate is the date used for the merge window and the id bucket:
// the explicit applied date when known, otherwise the evidence date.
func (e Evidence) ReferenceDate() time.Time {
	if e.AppliedDate != nil && !e.AppliedDate.IsZero() {
		return *e.AppliedDate
	}
	return e.Date
}
