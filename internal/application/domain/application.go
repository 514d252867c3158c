package domain

import "time"

// Status represents the position of an application in the hiring pipeline
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusOffer     Status = "Offer"
	StatusRejected  Status = "Rejected"
)

// Confidence reflects how certain the classifier was about an event
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ParseStatus maps a free-form status string onto a known Status
func ParseStatus(s string) (Status, bool) {
	switch Status(normalizeLabel(s)) {
	case StatusDraft:
		return StatusDraft, true
	case StatusApplied:
		return StatusApplied, true
	case StatusInterview:
		return StatusInterview, true
	case StatusOffer:
		return StatusOffer, true
	case StatusRejected:
		return StatusRejected, true
	}
	return "", false
}

// Application is the canonical record of one real-world job application.
// Empty strings mean "unknown".
type Application struct {
	ID                 string     `json:"application_id" gorm:"column:application_id;primaryKey"`
	Company            string     `json:"company" gorm:"index"`
	RoleTitle          string     `json:"role_title"`
	Location           string     `json:"location"`
	JobURL             string     `json:"job_url" gorm:"index"`
	Status             Status     `json:"status" gorm:"index;not null"`
	StatusConfidence   Confidence `json:"status_confidence"`
	AppliedDate        *time.Time `json:"applied_date,omitempty"`
	Source             string     `json:"source"`
	Notes              string     `json:"notes" gorm:"type:text"`
	NextFollowUpDate   *time.Time `json:"next_follow_up_date,omitempty"`
	FollowUpNotifiedAt *time.Time `json:"-"`
	LastEventAt        time.Time  `json:"last_event_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Application) TableName() string {
	return "applications"
}

// ApplicationWithEvents bundles an application with its event log
type ApplicationWithEvents struct {
	*Application
	Events []*Event `json:"events"`
}
