package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error categories for classification and handling
type ErrorCategory string

const (
	// CategoryConfiguration marks a missing or invalid channel setting.
	// Raised at construction time; the channel is unusable until fixed.
	CategoryConfiguration ErrorCategory = "configuration"
	// CategoryRender marks a template syntax, reference or data access error.
	CategoryRender    ErrorCategory = "render"
	CategoryTransport ErrorCategory = "transport"
	// CategoryRejected marks a non-success response from the receiving service.
	CategoryRejected ErrorCategory = "rejected"
	CategoryNotFound ErrorCategory = "not_found"
	CategoryInternal ErrorCategory = "internal"
)

// DomainError represents a typed error with context
type DomainError struct {
	Category ErrorCategory
	Message  string
	Cause    error
	Fields   map[string]interface{} // Additional context
}

func (e *DomainError) Error() string {
	// Template errors are reported exactly as text/template produced them.
	if e.Category == CategoryRender && e.Message == "" && e.Cause != nil {
		return e.Cause.Error()
	}
	var b strings.Builder
	b.WriteString(string(e.Category))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Message == t.Message
}

func (e *DomainError) IsCategory(cat ErrorCategory) bool {
	return e.Category == cat
}

// IsRetryable reports whether a later attempt could succeed.
// Rejections are retryable only when the receiver signalled throttling or a server fault.
func (e *DomainError) IsRetryable() bool {
	switch e.Category {
	case CategoryTransport:
		return true
	case CategoryRejected:
		code, _ := e.Fields["status_code"].(int)
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	default:
		return false
	}
}

func (e *DomainError) WithField(key string, value interface{}) *DomainError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// Constructor functions

// NewConfigurationError creates a construction-time error for a channel setting
func NewConfigurationError(message string) *DomainError {
	return &DomainError{
		Category: CategoryConfiguration,
		Message:  message,
	}
}

// NewConfigurationErrorf is NewConfigurationError with formatting
func NewConfigurationErrorf(format string, args ...any) *DomainError {
	return NewConfigurationError(fmt.Sprintf(format, args...))
}

// NewRenderError wraps a template error. The cause text is kept verbatim
// so authors see the offending template and location.
func NewRenderError(cause error) *DomainError {
	return &DomainError{
		Category: CategoryRender,
		Cause:    cause,
	}
}

// NewTransportError creates an error for network failures, timeouts and cancellation
func NewTransportError(message string, cause error) *DomainError {
	return &DomainError{
		Category: CategoryTransport,
		Message:  message,
		Cause:    cause,
	}
}

// NewRejectedError creates an error for a non-success response from an integration
func NewRejectedError(statusCode int, body string) *DomainError {
	message := fmt.Sprintf("webhook response status %d", statusCode)
	if body != "" {
		message = fmt.Sprintf("%s: %s", message, body)
	}
	err := &DomainError{
		Category: CategoryRejected,
		Message:  message,
	}
	return err.WithField("status_code", statusCode)
}

// NewNotFoundError creates a not found error for missing resources
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Category: CategoryNotFound,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

// NewInternalError creates an internal error for unexpected failures
func NewInternalError(message string, cause error) *DomainError {
	return &DomainError{
		Category: CategoryInternal,
		Message:  message,
		Cause:    cause,
	}
}

// Wrap wraps an existing error with a category and message
func Wrap(err error, category ErrorCategory, message string) *DomainError {
	if err == nil {
		return nil
	}
	return &DomainError{
		Category: category,
		Message:  message,
		Cause:    err,
	}
}

// Helper functions for error type checking

func isCategory(err error, cat ErrorCategory) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Category == cat
	}
	return false
}

// IsConfigurationError checks if the error is a construction-time configuration error
func IsConfigurationError(err error) bool {
	return isCategory(err, CategoryConfiguration)
}

// IsRenderError checks if the error came from template rendering
func IsRenderError(err error) bool {
	return isCategory(err, CategoryRender)
}

// IsTransportError checks if the error is a network, timeout or cancellation failure
func IsTransportError(err error) bool {
	return isCategory(err, CategoryTransport)
}

// IsRejectedError checks if the receiving service answered with a non-success status
func IsRejectedError(err error) bool {
	return isCategory(err, CategoryRejected)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return isCategory(err, CategoryNotFound)
}

// IsInternalError checks if the error is an internal error
func IsInternalError(err error) bool {
	return isCategory(err, CategoryInternal)
}

// IsRetryable checks if the error is a DomainError that a caller may retry
func IsRetryable(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.IsRetryable()
	}
	return false
}
