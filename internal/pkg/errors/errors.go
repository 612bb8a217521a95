package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeInternal          = "INTERNAL_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidFraming    = "INVALID_FRAMING"
	CodeModelUnavailable  = "MODEL_UNAVAILABLE"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
)

// AppError represents an application error with context
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	StatusCode int               `json:"-"`
	Err        error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithError wraps an underlying error
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Internal creates an internal error
func Internal(message string) *AppError {
	return New(CodeInternal, message, http.StatusInternalServerError)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Validation creates a validation error
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// InvalidFraming is raised when a score is requested under a framing other
// than self or other. It is never degraded into a fallback.
func InvalidFraming(framing string) *AppError {
	return New(CodeInvalidFraming, fmt.Sprintf("invalid framing %q: must be \"self\" or \"other\"", framing), http.StatusBadRequest).
		WithDetail("framing", framing)
}

// ModelUnavailable creates an error for transport or API failures of the model endpoint
func ModelUnavailable(message string) *AppError {
	return New(CodeModelUnavailable, message, http.StatusBadGateway)
}

// MalformedResponse creates an error for model responses with an unexpected shape
func MalformedResponse(message string) *AppError {
	return New(CodeMalformedResponse, message, http.StatusBadGateway)
}

// GetAppError extracts AppError from error if present
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func hasCode(err error, code string) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsInvalidFraming checks if the error is an invalid framing error
func IsInvalidFraming(err error) bool {
	return hasCode(err, CodeInvalidFraming)
}

// IsModelUnavailable checks if the error is a model unavailable error
func IsModelUnavailable(err error) bool {
	return hasCode(err, CodeModelUnavailable)
}

// IsMalformedResponse checks if the error is a malformed response error
func IsMalformedResponse(err error) bool {
	return hasCode(err, CodeMalformedResponse)
}
