// Package apperr defines the typed error taxonomy used across the bot:
// every failure is classified so the tool layer can render a user-safe
// message, the logs carry structured context, and retry decisions are
// mechanical.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for monitoring, surfacing, and retry policy.
type Code string

const (
	// CodeValidation indicates invalid input shape, a missing required
	// field, or a wrong format. Surfaced to the user; never retried.
	CodeValidation Code = "VALIDATION_ERROR"

	// CodeNotFound indicates a lookup that matched nothing. Surfaced with
	// a helpful message naming alternative lookup keys.
	CodeNotFound Code = "NOT_FOUND"

	// CodeConflict indicates a duplicate registration or an already-exists
	// condition. Surfaced with a pointer to the conflicting record.
	CodeConflict Code = "CONFLICT_ERROR"

	// CodePermission indicates the caller lacks the needed role. Surfaced
	// as a short scripted message, never with system detail.
	CodePermission Code = "PERMISSION_DENIED"

	// CodeUnavailable indicates a required collaborator (LLM, database,
	// registry) is down. The user sees a generic apology; the error is
	// logged at error severity and not retried in the request path.
	CodeUnavailable Code = "SERVICE_UNAVAILABLE"

	// CodeCorruption indicates a persisted record failed validation on
	// read. Not recovered; surfaced to operators; the request fails.
	CodeCorruption Code = "DATA_CORRUPTION"

	// CodeProgramming indicates a bug: a registry accessed before freeze,
	// an agent referencing an unknown tool. Fails fast at startup and is
	// never expected during serving.
	CodeProgramming Code = "PROGRAMMING_ERROR"
)

// Error is a structured error carrying a classification code, the
// underlying cause, and key-value context for logs.
type Error struct {
	// Code categorizes the error for handling and metrics.
	Code Code

	// Message is the human-readable description. For user-surfaceable
	// classes it is written to be shown verbatim.
	Message string

	// Err is the wrapped cause, if any.
	Err error

	// Context carries additional key-value pairs for debugging.
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error so errors.Is and errors.As work.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithContext adds contextual information to the error and returns it.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsRetryable reports whether the failure is transient. Only unavailable
// collaborators qualify, and even those are not retried inside a request.
func (e *Error) IsRetryable() bool {
	return e.Code == CodeUnavailable
}

// New creates an Error with the given code and message.
func New(code Code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
		Context: make(map[string]any),
	}
}

// Validation creates a validation error.
func Validation(message string, err error) *Error {
	return New(CodeValidation, message, err)
}

// NotFound creates a lookup error.
func NotFound(message string, err error) *Error {
	return New(CodeNotFound, message, err)
}

// Conflict creates an already-exists error.
func Conflict(message string, err error) *Error {
	return New(CodeConflict, message, err)
}

// Permission creates a permission-denied error.
func Permission(message string, err error) *Error {
	return New(CodePermission, message, err)
}

// Unavailable creates a service-unavailable error.
func Unavailable(message string, err error) *Error {
	return New(CodeUnavailable, message, err)
}

// Corruption creates a data-corruption error.
func Corruption(message string, err error) *Error {
	return New(CodeCorruption, message, err)
}

// Programming creates a programming error. These indicate bugs and are
// meant to fail the process at startup.
func Programming(message string, err error) *Error {
	return New(CodeProgramming, message, err)
}

// CodeOf extracts the Code from an error. Untyped errors classify as
// programming errors: anything unexpected in the serving path is a bug
// until proven otherwise, and the class is never retried.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeProgramming
}

// IsRetryable reports whether err is a transient typed error.
func IsRetryable(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.IsRetryable()
	}
	return false
}

// Scripted user-facing replies. Permission and internal failures never leak
// system detail.
const (
	permissionScript  = "Sorry, you don't have permission to do that. Ask a team administrator if you think you should."
	genericApology    = "Sorry, I ran into a problem handling that. Please try again in a moment."
	corruptionApology = "Sorry, I couldn't read the team records for that request. The team administrators have been notified."
)

// UserMessage renders the user-safe surface for an error, per class:
// validation, lookup, and conflict messages pass through verbatim;
// permission failures use a fixed script; unavailable collaborators,
// corruption, and bugs collapse to a generic apology.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if !errors.As(err, &appErr) {
		return genericApology
	}
	switch appErr.Code {
	case CodeValidation, CodeNotFound, CodeConflict:
		return appErr.Message
	case CodePermission:
		return permissionScript
	case CodeCorruption:
		return corruptionApology
	default:
		return genericApology
	}
}
