// Package errors provides structured error handling for the suggestion service.
// Orchestration outcomes that must reach the caller are expressed as typed
// AppErrors; everything else stays inside the owning component.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode classifies an application error.
type ErrorCode string

const (
	// Orchestration outcomes surfaced to callers.
	CodeBudgetExceeded         ErrorCode = "BUDGET_EXCEEDED"
	CodeRateLimited            ErrorCode = "RATE_LIMITED"
	CodeOrchestrationExhausted ErrorCode = "ORCHESTRATION_EXHAUSTED"

	// Internal failure classes. These are converted into failed strategy
	// results or non-acceptance decisions and never cross the API boundary.
	CodeParseFailed      ErrorCode = "PARSE_FAILED"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeProviderError    ErrorCode = "PROVIDER_ERROR"
	CodeCacheMiss        ErrorCode = "CACHE_MISS"

	// Generic codes.
	CodeBadRequest ErrorCode = "BAD_REQUEST"
	CodeInternal   ErrorCode = "INTERNAL_ERROR"
)

// AppError is an application error with structured information.
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Cause    error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode maps the error code to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeBudgetExceeded:
		return http.StatusPaymentRequired
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeOrchestrationExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata attaches a metadata entry to the error.
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause attaches a cause error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// New creates a new application error.
func New(code ErrorCode, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

// NewBudgetExceeded reports that a requester's projected spend would pass
// their hard limit. Never silently downgraded; the caller decides whether a
// free fallback is acceptable.
func NewBudgetExceeded(reason string, remainingCents int) *AppError {
	return New(CodeBudgetExceeded, "budget limit exceeded", reason).
		WithMetadata("remaining_budget_cents", remainingCents)
}

// NewRateLimited reports that the requester hit their request-rate ceiling.
func NewRateLimited(reason string) *AppError {
	return New(CodeRateLimited, "rate limit exceeded", reason)
}

// NewOrchestrationExhausted reports that every fallback level failed. The
// levels metadata carries the diagnostic trail so callers can craft user
// messaging without seeing raw provider errors.
func NewOrchestrationExhausted(levelsTried []string, reasons []string) *AppError {
	return New(CodeOrchestrationExhausted, "all suggestion strategies failed", "").
		WithMetadata("levels_tried", levelsTried).
		WithMetadata("failure_reasons", reasons)
}

// NewProviderError wraps a provider call failure. Handled inside strategies.
func NewProviderError(provider string, cause error) *AppError {
	return New(CodeProviderError, "provider call failed", provider).WithCause(cause)
}

// NewParseFailed wraps an unrecoverable provider output parse.
func NewParseFailed(details string) *AppError {
	return New(CodeParseFailed, "provider output unparseable", details)
}

// Is reports whether err carries the given error code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code, defaulting to internal.
func GetCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeInternal
}

// Wrap converts an arbitrary error into an AppError, passing AppErrors through.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(CodeInternal, message, "").WithCause(err)
}
