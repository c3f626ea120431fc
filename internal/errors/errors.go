package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Configuration errors
	ErrCodeNotConfigured = "NOT_CONFIGURED"

	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAuthRejected       = "AUTH_REJECTED"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound = "NOT_FOUND"

	// Remote store errors
	ErrCodeLockTimeout = "LOCK_TIMEOUT"
	ErrCodeRemote      = "REMOTE_ERROR"

	// Transport errors
	ErrCodeNetworkTimeout = "NETWORK_TIMEOUT"
	ErrCodeNetworkFailure = "NETWORK_FAILURE"
	ErrCodeHTTPStatus     = "HTTP_STATUS"

	// Service errors
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError is the error type shared by the sheet service, the client and the back-office API.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Is matches any APIError with the same code, so errors.Is(err, ErrNotFound) works
// regardless of the message.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Predefined errors
var (
	ErrNotConfigured = NewAPIError(ErrCodeNotConfigured,
		"Application is not configured. Please ask the super admin to set the Script URL and Security Token in Settings.")
	ErrUnauthorized       = NewAPIError(ErrCodeUnauthorized, "Authentication required")
	ErrInvalidCredentials = NewAPIError(ErrCodeInvalidCredentials, "Invalid username or password. Please try again.")
	ErrAuthRejected       = NewAPIError(ErrCodeAuthRejected, "Invalid security token.")
	ErrForbidden          = NewAPIError(ErrCodeForbidden, "Access denied")
	ErrNotFound           = NewAPIError(ErrCodeNotFound, "Resource not found")
	ErrInvalidInput       = NewAPIError(ErrCodeInvalidInput, "Invalid request body")
	ErrLockTimeout        = NewAPIError(ErrCodeLockTimeout, "Could not acquire the write lock in time")
	ErrRemote             = NewAPIError(ErrCodeRemote, "The server responded with an error")
	ErrNetworkTimeout     = NewAPIError(ErrCodeNetworkTimeout, "Request timed out. The server is not responding.")
	ErrNetworkFailure     = NewAPIError(ErrCodeNetworkFailure,
		"A network error occurred. Please check your internet connection and the Google Apps Script configuration.")
	ErrHTTPStatus         = NewAPIError(ErrCodeHTTPStatus, "HTTP error")
	ErrRateLimited        = NewAPIError(ErrCodeRateLimited, "Rate limit exceeded. Please try again later.")
	ErrInternalError      = NewAPIError(ErrCodeInternalError, "Internal server error")
	ErrServiceUnavailable = NewAPIError(ErrCodeServiceUnavailable, "Service temporarily unavailable")
)

// CodeOf returns the APIError code carried by err, or ErrCodeInternalError.
func CodeOf(err error) string {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrCodeInternalError
}

// WithMessage returns an error of the same kind as base with a specific message.
func WithMessage(base *APIError, message string) *APIError {
	return NewAPIError(base.Code, message)
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, NewAPIError(ErrCodeForbidden, message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, message, details))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RespondWithError(c, http.StatusServiceUnavailable, NewAPIError(ErrCodeServiceUnavailable, message))
}

// BadGateway sends a 502 response for failures of the remote sheet service.
func BadGateway(c *gin.Context, err *APIError) {
	RespondWithError(c, http.StatusBadGateway, err)
}

// GatewayTimeout sends a 504 response
func GatewayTimeout(c *gin.Context, err *APIError) {
	RespondWithError(c, http.StatusGatewayTimeout, err)
}
