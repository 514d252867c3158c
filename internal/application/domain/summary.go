package domain

// StatusTransition records a status change produced during a run
type StatusTransition struct {
	ApplicationID string `json:"application_id"`
	Company       string `json:"company"`
	RoleTitle     string `json:"role_title"`
	From          Status `json:"from"`
	To            Status `json:"to"`
}

// ItemError describes why a single evidence item was skipped
type ItemError struct {
	Index  int    `json:"index"`
	Ref    string `json:"ref,omitempty"`
	Reason string `json:"reason"`
}

// Summary is the outcome of one reconciliation run. A run always returns a
// summary, even when some items failed.
type Summary struct {
	RunID            string             `json:"run_id"`
	Received         int                `json:"received"`
	Created          int                `json:"created"`
	Updated          int                `json:"updated"`
	EventsAdded      int                `json:"events_added"`
	Duplicates       int                `json:"duplicates"`
	Ignored          int                `json:"ignored"`
	Skipped          int                `json:"skipped"`
	AmbiguousMatches int                `json:"ambiguous_matches"`
	Transitions      []StatusTransition `json:"transitions,omitempty"`
	Errors           []ItemError        `json:"errors,omitempty"`
}
