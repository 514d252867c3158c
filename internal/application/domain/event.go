package domain

import (
	"strings"
	"time"
)

// EventType is the kind of evidence attached to an application
type EventType string

const (
	EventApplied   EventType = "Applied"
	EventInterview EventType = "Interview"
	EventOffer     EventType = "Offer"
	EventRejected  EventType = "Rejected"
	EventOther     EventType = "Other"
)

// EvidenceSource tags where an event came from
type EvidenceSource string

const (
	SourceEmail        EvidenceSource = "email"
	SourceManualImport EvidenceSource = "manual_import"
)

// ParseEventType maps a free-form label onto a known EventType
func ParseEventType(s string) (EventType, bool) {
	switch EventType(normalizeLabel(s)) {
	case EventApplied:
		return EventApplied, true
	case EventInterview:
		return EventInterview, true
	case EventOffer:
		return EventOffer, true
	case EventRejected:
		return EventRejected, true
	case EventOther:
		return EventOther, true
	}
	return "", false
}

// StatusFor returns the status an event of this type would move an
// application to. Other has none.
func (t EventType) StatusFor() (Status, bool) {
	switch t {
	case EventApplied:
		return StatusApplied, true
	case EventInterview:
		return StatusInterview, true
	case EventOffer:
		return StatusOffer, true
	case EventRejected:
		return StatusRejected, true
	}
	return "", false
}

// Event is an immutable, append-only log entry owned by one Application
type Event struct {
	ApplicationID  string         `json:"application_id" gorm:"primaryKey;autoIncrement:false"`
	EventID        int            `json:"event_id" gorm:"primaryKey;autoIncrement:false"`
	EventType      EventType      `json:"event_type" gorm:"not null"`
	EventDate      time.Time      `json:"event_date" gorm:"index;not null"`
	EvidenceSource EvidenceSource `json:"evidence_source"`
	EvidenceText   string         `json:"evidence_text" gorm:"type:text"`
	Confidence     Confidence     `json:"confidence"`
	DedupKey       string         `json:"-" gorm:"uniqueIndex;not null"`
	EvidenceKey    string         `json:"-" gorm:"index"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
