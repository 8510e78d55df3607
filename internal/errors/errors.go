package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a scraper error code.
type ErrorCode string

const (
	ErrFetchFailure        ErrorCode = "FETCH_FAILURE"
	ErrAIFailure           ErrorCode = "AI_FAILURE"
	ErrSessionPrecondition ErrorCode = "SESSION_PRECONDITION"
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrInternal            ErrorCode = "INTERNAL"
)

// ScraperError is a structured error carrying a code, a human-readable
// hint for the end user and the underlying cause.
type ScraperError struct {
	Code    ErrorCode
	Message string
	Hint    string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *ScraperError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScraperError) Unwrap() error {
	return e.Err
}

// NewFetchFailure reports that every fetch strategy failed for url.
func NewFetchFailure(url string, cause error) *ScraperError {
	return &ScraperError{
		Code:    ErrFetchFailure,
		Message: fmt.Sprintf("all fetching methods failed for %s", url),
		Hint:    "The page could not be retrieved. Check the URL, your network connection, or try again later.",
		Details: map[string]any{"url": url},
		Err:     cause,
	}
}

// NewAIFailure reports an oracle transport error or an unusable answer.
func NewAIFailure(msg string, cause error) *ScraperError {
	return &ScraperError{
		Code:    ErrAIFailure,
		Message: msg,
		Hint:    "The AI service did not return a usable answer. Check the API key, base URL and model, then retry.",
		Err:     cause,
	}
}

// NewSessionPrecondition reports an operation that requires an earlier step.
func NewSessionPrecondition(msg, hint string) *ScraperError {
	return &ScraperError{
		Code:    ErrSessionPrecondition,
		Message: msg,
		Hint:    hint,
	}
}

// NewInvalidRequest creates an error for invalid caller input.
func NewInvalidRequest(msg string) *ScraperError {
	return &ScraperError{
		Code:    ErrInvalidRequest,
		Message: msg,
		Hint:    msg,
	}
}

// NewInternal wraps an unexpected internal error.
func NewInternal(err error) *ScraperError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ScraperError{
		Code:    ErrInternal,
		Message: msg,
		Hint:    "Something went wrong internally. Re-run with --verbose for details.",
		Err:     err,
	}
}

// Is checks if an error (or anything it wraps) is a ScraperError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *ScraperError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// Hint returns the user-facing hint for err, falling back to its message.
func Hint(err error) string {
	if err == nil {
		return ""
	}
	var sErr *ScraperError
	if stderrors.As(err, &sErr) && sErr.Hint != "" {
		return sErr.Hint
	}
	return err.Error()
}
