// Package errors provides structured error types with stable codes for the gateway.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for categorizing errors. These are wire-visible and stable.
const (
	CodeInternal             = "internal_error"
	CodeInvalidRequest       = "invalid_request"
	CodeUnsupportedGrantType = "unsupported_grant_type"

	CodeInvalidCode          = "invalid_code"
	CodeCodeUsed             = "code_used"
	CodeCodeExpired          = "code_expired"
	CodeClientMismatch       = "client_mismatch"
	CodeInvalidToken         = "invalid_token"
	CodeTokenExpired         = "token_expired"
	CodeInvalidRefreshToken  = "invalid_refresh_token"
	CodeRefreshTokenExpired  = "refresh_token_expired"
	CodeInvalidClient        = "invalid_client"
	CodeInvalidClientSecret  = "invalid_client_secret"
	CodeInvalidRedirectURI   = "invalid_redirect_uri"
	CodeAuthenticationFailed = "authentication_failed"
	CodeNoToken              = "no_token"

	CodeAccessDenied      = "access_denied"
	CodeRateLimitExceeded = "rate_limit_exceeded"

	CodeModuleNotFound     = "module_not_found"
	CodeToolNotFound       = "tool_not_found"
	CodeMissingParameter   = "missing_parameter"
	CodeInvalidType        = "invalid_type"
	CodeToolExecutionError = "tool_execution_error"
)

// Error represents a structured error with a code, message and optional
// machine-readable details carried to the response boundary.
type Error struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail attaches a machine-readable detail field and returns the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
func New(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// AsError extracts a structured *Error from err, wrapping unknown errors as
// internal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Message: "unexpected error", Err: err}
}

// InvalidRequest creates a bad-parameter error.
func InvalidRequest(message string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: message}
}

// Internal creates an internal error.
func Internal(message string, err error) *Error {
	return &Error{Code: CodeInternal, Message: message, Err: err}
}

// HTTPStatus maps an error code to the HTTP status returned at the boundary.
func HTTPStatus(err error) int {
	e := AsError(err)
	switch e.Code {
	case CodeInvalidRequest, CodeUnsupportedGrantType, CodeInvalidCode,
		CodeCodeUsed, CodeCodeExpired, CodeClientMismatch,
		CodeInvalidRefreshToken, CodeRefreshTokenExpired,
		CodeInvalidRedirectURI, CodeMissingParameter, CodeInvalidType:
		return http.StatusBadRequest
	case CodeNoToken, CodeInvalidToken, CodeTokenExpired,
		CodeInvalidClient, CodeInvalidClientSecret, CodeAuthenticationFailed:
		return http.StatusUnauthorized
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeModuleNotFound, CodeToolNotFound:
		return http.StatusNotFound
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
