package dto

import "jobtrack-backend/internal/application/domain"

type ApplicationsResponse struct {
	Applications []*domain.Application `json:"applications"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	Total        int64                 `json:"total"`
}

type SyncRequest struct {
	SinceDays int `json:"since_days"`
}

// FollowUpRequest sets the follow-up date; null or "" clears it
type FollowUpRequest struct {
	Date *string `json:"date"`
}

type PreviewRequest struct {
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	ReceivedAt string `json:"received_at"`
}

type PreviewResponse struct {
	Related      bool   `json:"related"`
	EventType    string `json:"event_type,omitempty"`
	Confidence   string `json:"confidence,omitempty"`
	Ambiguous    bool   `json:"ambiguous"`
	EvidenceText string `json:"evidence_text,omitempty"`
	Company      string `json:"company"`
	RoleTitle    string `json:"role_title"`
}
