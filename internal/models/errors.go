package models

// ErrorType identifies the category of error that occurred.
type ErrorType string

const (
	// Link source
	ErrFetchFailed ErrorType = "fetch_failed"
	ErrParseFailed ErrorType = "parse_failed"

	// Agent capability
	ErrAgentFailed ErrorType = "agent_failed"

	// Catch-all
	ErrInternalError ErrorType = "internal_error"
)
