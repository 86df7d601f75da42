// Package errors provides custom error types for the compliance document generator.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common cases
var (
	ErrNoCandidates    = errors.New("no candidate endpoints configured")
	ErrMissingAPIKey   = errors.New("GEMINI_API_KEY not found")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrNoContent       = errors.New("no content in response")
	ErrMissingField    = errors.New("required field is empty")
	ErrClientClosed    = errors.New("client is closed")
)

// APIError represents a failed request to the generation service
type APIError struct {
	StatusCode int
	Status     string // Service status string, e.g. "NOT_FOUND"
	Message    string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithBody creates a new APIError carrying the raw response body
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Body:       body,
	}
}

// NotFoundError is returned when the model identifier does not exist
type NotFoundError struct {
	*APIError
}

func (e *NotFoundError) Unwrap() error { return e.APIError }

// PermissionDeniedError is returned when the key may not use the model
type PermissionDeniedError struct {
	*APIError
}

func (e *PermissionDeniedError) Unwrap() error { return e.APIError }

// AuthError represents an invalid or rejected API key
type AuthError struct {
	*APIError
}

func (e *AuthError) Unwrap() error { return e.APIError }

// QuotaError represents a usage limit or rate limit rejection
type QuotaError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *QuotaError) Unwrap() error { return e.APIError }

// ServerError represents a 5xx failure of the hosted service
type ServerError struct {
	*APIError
}

func (e *ServerError) Unwrap() error { return e.APIError }

// NewNotFoundError creates a NotFoundError for the given model
func NewNotFoundError(endpoint, message string) *NotFoundError {
	return &NotFoundError{APIError: NewAPIError(404, endpoint, message)}
}

// NewPermissionDeniedError creates a PermissionDeniedError
func NewPermissionDeniedError(endpoint, message string) *PermissionDeniedError {
	return &PermissionDeniedError{APIError: NewAPIError(403, endpoint, message)}
}

// NewQuotaError creates a QuotaError
func NewQuotaError(endpoint, message string) *QuotaError {
	return &QuotaError{APIError: NewAPIError(429, endpoint, message)}
}

// FromHTTPStatus classifies a non-2xx response into a typed error
func FromHTTPStatus(statusCode int, status, endpoint, message, body string) error {
	base := &APIError{
		StatusCode: statusCode,
		Status:     status,
		Endpoint:   endpoint,
		Message:    message,
		Body:       body,
	}

	switch {
	case statusCode == 401:
		return &AuthError{APIError: base}
	case statusCode == 403 || status == "PERMISSION_DENIED":
		return &PermissionDeniedError{APIError: base}
	case statusCode == 404 || status == "NOT_FOUND":
		return &NotFoundError{APIError: base}
	case statusCode == 408:
		return &TimeoutError{Message: message, Endpoint: endpoint}
	case statusCode == 429 || status == "RESOURCE_EXHAUSTED":
		return &QuotaError{APIError: base}
	case statusCode >= 500:
		return &ServerError{APIError: base}
	case statusCode == 400:
		// The API reports bad keys as 400 INVALID_ARGUMENT
		lower := strings.ToLower(message)
		if strings.Contains(lower, "api key not valid") || strings.Contains(lower, "api_key_invalid") {
			return &AuthError{APIError: base}
		}
	}
	return base
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message  string
	Endpoint string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// NetworkError wraps transport level failures
type NetworkError struct {
	Operation string
	Endpoint  string
	Cause     error
}

func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error during %s at %s: %v", e.Operation, e.Endpoint, e.Cause)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// NewNetworkErrorWithEndpoint creates a NetworkError for the given endpoint
func NewNetworkErrorWithEndpoint(operation, endpoint string, cause error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Cause: cause}
}

// BlockedError represents content rejected by the safety filter
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	if e.Reason == "" {
		return "content blocked"
	}
	return fmt.Sprintf("content blocked: %s", e.Reason)
}

// Is allows comparison with sentinel errors
func (e *BlockedError) Is(target error) bool {
	return target == ErrNoContent
}

// NewBlockedError creates a new BlockedError
func NewBlockedError(reason string) *BlockedError {
	return &BlockedError{Reason: reason}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// ConstructError is returned when a client cannot be bound to a model
type ConstructError struct {
	Model string
	Cause error
}

func (e *ConstructError) Error() string {
	return fmt.Sprintf("failed to construct client for %s: %v", e.Model, e.Cause)
}

func (e *ConstructError) Unwrap() error { return e.Cause }

// FieldError reports a missing required form field
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrMissingField
}

// GetHTTPStatus extracts the HTTP status code from an error chain, or 0
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// GetEndpoint extracts the endpoint from an error chain
func GetEndpoint(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Endpoint
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Endpoint
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Endpoint
	}
	return ""
}

// GetResponseBody extracts the raw response body from an error chain
func GetResponseBody(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	return ""
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsPermissionDenied reports whether err is a PermissionDeniedError
func IsPermissionDenied(err error) bool {
	var target *PermissionDeniedError
	return errors.As(err, &target)
}

// IsAuthError reports whether err is an AuthError or a missing key
func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target) || errors.Is(err, ErrMissingAPIKey)
}

// IsQuotaError reports whether err is a QuotaError
func IsQuotaError(err error) bool {
	var target *QuotaError
	return errors.As(err, &target)
}

// IsTimeoutError reports whether err is a TimeoutError
func IsTimeoutError(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsNetworkError reports whether err is a NetworkError
func IsNetworkError(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsBlockedError reports whether err is a BlockedError
func IsBlockedError(err error) bool {
	var target *BlockedError
	return errors.As(err, &target)
}
