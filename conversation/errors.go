package conversation

import "fmt"

// Code identifies the kind of failure surfaced to the transport boundary.
// Transports map codes onto their own status vocabulary.
type Code string

const (
	CodeMissingParameter Code = "MISSING_PARAMETER"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeNotFound         Code = "NOT_FOUND"
	CodeForbidden        Code = "FORBIDDEN"
	CodeAgentTimeout     Code = "AI_AGENT_TIMEOUT"
	CodeAgentError       Code = "AI_AGENT_ERROR"
	CodeDatabaseError    Code = "DATABASE_ERROR"
	CodeInternal         Code = "INTERNAL_ERROR"
)

// Error is the typed failure returned by ProcessTurn. Message is safe to show
// to the end user.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
