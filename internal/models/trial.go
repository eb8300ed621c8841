package models

import "time"

// Trial represents a single agent attempt from one starting page.
type Trial struct {
	ID    string // unique identifier
	Agent string
	Mode  Mode
	Index int   // 1-based position within its pairing
	Start *Page // nil means draw a random page
}

// TrialResult contains the outcome of a trial execution.
type TrialResult struct {
	StartPage           string    `json:"start_page"`
	StartURL            string    `json:"start_url"`
	Path                []string  `json:"path"`
	Score               int       `json:"score"`
	Success             bool      `json:"success"`
	GaveUp              bool      `json:"gave_up"`
	Cheated             bool      `json:"cheated"`
	InvalidPath         bool      `json:"invalid_path"`
	CreativeConnections int       `json:"creative_connections"`
	TimeTaken           float64   `json:"time_taken"`
	ErrorMessage        *string   `json:"error_message"`
	ErrorType           ErrorType `json:"error_type,omitempty"`
	RawResponse         string    `json:"raw_response,omitempty"`
	Verdict             *Verdict  `json:"verdict,omitempty"`
	StartedAt           time.Time `json:"started_at"`
	EndedAt             time.Time `json:"ended_at"`
}

// SetError records why the trial aborted.
func (r *TrialResult) SetError(typ ErrorType, msg string) {
	r.ErrorType = typ
	r.ErrorMessage = &msg
}

// Failed reports whether the trial aborted with an error.
func (r *TrialResult) Failed() bool {
	return r.ErrorMessage != nil
}
