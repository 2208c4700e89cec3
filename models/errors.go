package models

import "fmt"

// Error codes used in run results, API responses and internal error handling.
const (
	ErrCodeNavigationTimeout = "NAVIGATION_TIMEOUT"
	ErrCodeNavigation        = "NAVIGATION_FAILED"
	ErrCodeFieldNotFound     = "FIELD_NOT_FOUND"
	ErrCodeFill              = "FILL_FAILED"
	ErrCodeSubmitNotFound    = "SUBMIT_NOT_FOUND"
	ErrCodeSubmit            = "SUBMIT_FAILED"
	ErrCodeClassify          = "CLASSIFY_FAILED"
	ErrCodeUnexpected        = "UNEXPECTED_FAILURE"
	ErrCodeInterrupted       = "INTERRUPTED"
	ErrCodeBrowserCrash      = "BROWSER_CRASH"

	// API-level codes.
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeQueueFull    = "QUEUE_FULL"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type RunError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError creates a new RunError.
func NewRunError(code, message string, err error) *RunError {
	return &RunError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *RunError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
