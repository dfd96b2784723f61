package error

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes for different categories
const (
	// Authentication Errors (1xxx)
	ErrCodeInvalidCredentials ErrorCode = "AUTH_1001"
	ErrCodeInvalidToken       ErrorCode = "AUTH_1003"
	ErrCodeTokenExpired       ErrorCode = "AUTH_1004"
	ErrCodeUserInactive       ErrorCode = "AUTH_1005"

	// Validation Errors (2xxx)
	ErrCodeInvalidEmail   ErrorCode = "VALID_2001"
	ErrCodeInvalidRequest ErrorCode = "VALID_2005"
	ErrCodeInvalidProduct ErrorCode = "VALID_2010"
	ErrCodeEmptyBatch     ErrorCode = "VALID_2011"
	ErrCodeInvalidFilter  ErrorCode = "VALID_2012"

	// Rate Limiting Errors (3xxx)
	ErrCodeRateLimitExceeded ErrorCode = "RATE_3001"

	// Database Errors (5xxx)
	ErrCodeDatabaseError      ErrorCode = "DB_5001"
	ErrCodeTransactionFailure ErrorCode = "DB_5005"
	ErrCodeAuditWriteFailed   ErrorCode = "DB_5006"

	// Server Errors (6xxx)
	ErrCodeInternalServerError ErrorCode = "SERVER_6001"
	ErrCodeServiceUnavailable  ErrorCode = "SERVER_6002"
	ErrCodeConfigurationError  ErrorCode = "SERVER_6003"

	// Security Errors (7xxx)
	ErrCodeUnauthorizedAccess ErrorCode = "SEC_7003"

	// Conflict Errors (8xxx)
	ErrCodeDuplicateSSN     ErrorCode = "CONFLICT_8001"
	ErrCodeDuplicateInBatch ErrorCode = "CONFLICT_8002"

	// Not Found Errors (9xxx)
	ErrCodeProductNotFound ErrorCode = "NOTFOUND_9001"
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Family returns the code prefix, e.g. "VALID" for "VALID_2001".
func (e *AppError) Family() string {
	code := string(e.Code)
	if i := strings.IndexByte(code, '_'); i > 0 {
		return code[:i]
	}
	return code
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Authentication errors
func ErrInvalidCredentials(details string) *AppError {
	return NewAppError(ErrCodeInvalidCredentials, "Invalid email or password", details, nil)
}

func ErrInvalidToken(details string) *AppError {
	return NewAppError(ErrCodeInvalidToken, "Invalid token", details, nil)
}

func ErrTokenExpired() *AppError {
	return NewAppError(ErrCodeTokenExpired, "Token expired", "", nil)
}

func ErrUserInactive(userID string) *AppError {
	return NewAppError(ErrCodeUserInactive, "User account is inactive", fmt.Sprintf("User ID: %s", userID), nil)
}

// Validation errors
func ErrInvalidEmail(email string) *AppError {
	return NewAppError(ErrCodeInvalidEmail, "Invalid email format", fmt.Sprintf("Email: %s", email), nil)
}

func ErrMissingField(field string) *AppError {
	return NewAppError(ErrCodeInvalidRequest, "Missing required field", fmt.Sprintf("Field: %s", field), nil)
}

func ErrInvalidRequest(details string) *AppError {
	return NewAppError(ErrCodeInvalidRequest, "Invalid request", details, nil)
}

func ErrInvalidProduct(field, reason string) *AppError {
	return NewAppError(ErrCodeInvalidProduct, "Invalid product", fmt.Sprintf("%s: %s", field, reason), nil)
}

func ErrEmptyBatch() *AppError {
	return NewAppError(ErrCodeEmptyBatch, "Batch must contain at least one product", "", nil)
}

func ErrInvalidFilter(details string) *AppError {
	return NewAppError(ErrCodeInvalidFilter, "Invalid filter", details, nil)
}

// Rate limiting errors
func ErrRateLimitExceeded(limit int64, window string) *AppError {
	return NewAppError(ErrCodeRateLimitExceeded, "Too many requests", fmt.Sprintf("Limit: %d, Window: %s", limit, window), nil)
}

// Conflict errors. Details lists the offending SSNs.
func ErrDuplicateSSN(ssns ...string) *AppError {
	return NewAppError(ErrCodeDuplicateSSN, "Product with this SSN already exists", "SSN: "+strings.Join(ssns, ", "), nil)
}

func ErrDuplicateInBatch(ssns ...string) *AppError {
	return NewAppError(ErrCodeDuplicateInBatch, "Duplicate SSN within batch", "SSN: "+strings.Join(ssns, ", "), nil)
}

// Not found errors
func ErrProductNotFound(id string) *AppError {
	return NewAppError(ErrCodeProductNotFound, "Product not found", fmt.Sprintf("Product ID: %s", id), nil)
}

// Database errors
func ErrDatabaseError(operation string, cause error) *AppError {
	return NewAppError(ErrCodeDatabaseError, "Database operation failed", fmt.Sprintf("Operation: %s", operation), cause)
}

// ErrTransactionFailure is retry-safe: nothing of the unit was committed.
func ErrTransactionFailure(operation string, cause error) *AppError {
	return NewAppError(ErrCodeTransactionFailure, "Transaction failed, no changes were saved", fmt.Sprintf("Operation: %s", operation), cause)
}

func ErrAuditWriteFailed(productID string, cause error) *AppError {
	return NewAppError(ErrCodeAuditWriteFailed, "Failed to record change", fmt.Sprintf("Product ID: %s", productID), cause)
}

// Server errors
func ErrInternalServerError(details string, cause error) *AppError {
	return NewAppError(ErrCodeInternalServerError, "Internal server error", details, cause)
}

func ErrServiceUnavailable(dependency string, cause error) *AppError {
	return NewAppError(ErrCodeServiceUnavailable, "Service unavailable", fmt.Sprintf("Dependency: %s", dependency), cause)
}

// ErrConfigurationError wraps a config sentinel; errors.Is still matches it.
func ErrConfigurationError(key string, cause error) *AppError {
	details := fmt.Sprintf("Config: %s", key)
	if cause != nil {
		details = fmt.Sprintf("Config: %s: %v", key, cause)
	}
	return NewAppError(ErrCodeConfigurationError, "Configuration error", details, cause)
}

// Security errors
func ErrUnauthorizedAccess(details string) *AppError {
	return NewAppError(ErrCodeUnauthorizedAccess, "Insufficient permissions", details, nil)
}

// GetHTTPStatusCode maps an error family to an HTTP status.
func GetHTTPStatusCode(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Family() {
	case "AUTH":
		return http.StatusUnauthorized
	case "VALID":
		return http.StatusBadRequest
	case "RATE":
		return http.StatusTooManyRequests
	case "CONFLICT":
		return http.StatusConflict
	case "NOTFOUND":
		return http.StatusNotFound
	case "SEC":
		return http.StatusForbidden
	case "SERVER":
		if appErr.Code == ErrCodeServiceUnavailable {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
