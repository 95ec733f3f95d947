package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// Configuration errors - missing or invalid configuration
	ErrorTypeConfig ErrorType = iota
	// Validation errors - invalid roster or input data
	ErrorTypeValidation
	// Transport errors - network, DNS, timeout
	ErrorTypeTransport
	// HTTP status errors - non-2xx responses from the remote API
	ErrorTypeHTTPStatus
	// Malformed response errors - payload missing expected fields
	ErrorTypeMalformedResponse
	// Internal errors - unexpected internal state
	ErrorTypeInternal
)

// Severity represents how critical an error is
type Severity int

const (
	// SeverityLow - recorded per entry, the run continues
	SeverityLow Severity = iota
	// SeverityMedium - should be addressed but not fatal
	SeverityMedium
	// SeverityHigh - significant issue, may impact functionality
	SeverityHigh
	// SeverityCritical - must be addressed, stops execution
	SeverityCritical
)

// Error represents a structured error with context
type Error struct {
	Type       ErrorType
	Severity   Severity
	Message    string
	Cause      error
	StatusCode int
	StatusText string
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil && e.Type != ErrorTypeHTTPStatus {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is checks if this error matches the target error type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsFatal returns true if this error should stop execution
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityCritical
}

// DetailedString returns a detailed error message with context
func (e *Error) DetailedString() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] [%s] %s\n",
		severityString(e.Severity),
		typeString(e.Type),
		e.Message))

	if e.StatusCode != 0 {
		sb.WriteString(fmt.Sprintf("Status: %d %s\n", e.StatusCode, e.StatusText))
	}

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("Caused by: %v\n", e.Cause))
	}

	if len(e.Context) > 0 {
		sb.WriteString("Context:\n")
		for k, v := range e.Context {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}

	return sb.String()
}

func typeString(t ErrorType) string {
	switch t {
	case ErrorTypeConfig:
		return "CONFIG"
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeTransport:
		return "TRANSPORT"
	case ErrorTypeHTTPStatus:
		return "HTTP_STATUS"
	case ErrorTypeMalformedResponse:
		return "MALFORMED_RESPONSE"
	case ErrorTypeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

func severityString(s Severity) string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// New creates a new error with the given type, severity, and message
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:     errType,
		Severity: severity,
		Message:  message,
		Context:  make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Type:     errType,
		Severity: severity,
		Message:  message,
		Cause:    err,
		Context:  make(map[string]interface{}),
	}
}

// Fetch errors. These are recorded per roster entry and never stop a run.

// Transport wraps a network-level failure for identity/repo
func Transport(err error, repoPath string) *Error {
	msg := fmt.Sprintf("failed to fetch %s", repoPath)
	if isTimeout(err) {
		msg = fmt.Sprintf("failed to fetch %s: request timed out", repoPath)
	}
	return Wrap(err, ErrorTypeTransport, SeverityLow, msg).WithContext("repo", repoPath)
}

// HTTPStatus records a non-2xx response for identity/repo
func HTTPStatus(repoPath string, code int, statusText string) *Error {
	text := statusText
	if text == "" {
		text = defaultStatusText(code)
	}
	e := New(ErrorTypeHTTPStatus, SeverityLow,
		fmt.Sprintf("failed to fetch %s: %s (status: %d)", repoPath, text, code))
	e.StatusCode = code
	e.StatusText = text
	return e.WithContext("repo", repoPath)
}

// HTTPStatusWithCause is HTTPStatus with the client error kept as the cause
func HTTPStatusWithCause(err error, repoPath string, code int, statusText string) *Error {
	e := HTTPStatus(repoPath, code, statusText)
	e.Cause = err
	return e
}

// MalformedResponse records a payload that could not be interpreted
func MalformedResponse(err error, repoPath string) *Error {
	if err == nil {
		err = stderrors.New("unexpected payload")
	}
	return Wrap(err, ErrorTypeMalformedResponse, SeverityLow,
		fmt.Sprintf("failed to fetch %s: malformed response", repoPath)).WithContext("repo", repoPath)
}

// Convenience constructors for common error types

// ConfigError creates a configuration error
func ConfigError(message string) *Error {
	return New(ErrorTypeConfig, SeverityCritical, message)
}

// ConfigErrorf creates a configuration error with formatting
func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeConfig, SeverityCritical, fmt.Sprintf(format, args...))
}

// ValidationError creates a validation error
func ValidationError(message string) *Error {
	return New(ErrorTypeValidation, SeverityHigh, message)
}

// ValidationErrorf creates a validation error with formatting
func ValidationErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeValidation, SeverityHigh, fmt.Sprintf(format, args...))
}

// InternalErrorf creates an internal error with formatting
func InternalErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// IsFatal checks if an error is fatal (should stop execution)
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.IsFatal()
	}
	return false
}

// GetType returns the type of an error
func GetType(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeInternal
}

// IsTransport reports whether err is a transport failure
func IsTransport(err error) bool {
	return err != nil && GetType(err) == ErrorTypeTransport
}

// IsHTTPStatus reports whether err is a non-2xx response
func IsHTTPStatus(err error) bool {
	return err != nil && GetType(err) == ErrorTypeHTTPStatus
}

// IsMalformed reports whether err is a malformed response
func IsMalformed(err error) bool {
	return err != nil && GetType(err) == ErrorTypeMalformedResponse
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// Kind returns a short label for metrics and logs
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	switch GetType(err) {
	case ErrorTypeTransport:
		return "transport"
	case ErrorTypeHTTPStatus:
		return "http_status"
	case ErrorTypeMalformedResponse:
		return "malformed"
	default:
		return "other"
	}
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	return stderrors.As(err, &urlErr) && urlErr.Timeout()
}

func defaultStatusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Unexpected Status"
}
