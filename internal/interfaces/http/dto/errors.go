package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeMaintenance is used while the service runs in maintenance mode
	ErrCodeMaintenance = "ERR_MAINTENANCE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks the required role
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource and input error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Integration error codes
const (
	// ErrCodeOAuthState is used when an OAuth state token does not match a
	// pending authorization
	ErrCodeOAuthState = "ERR_OAUTH_STATE"
	// ErrCodeTokenExchange is used when the authorization code exchange fails
	ErrCodeTokenExchange = "ERR_TOKEN_EXCHANGE"
	// ErrCodeConnectionNotFound is used when no connection exists for a tenant
	ErrCodeConnectionNotFound = "ERR_CONNECTION_NOT_FOUND"
	// ErrCodeSyncPartial is used when a sync batch partially failed
	ErrCodeSyncPartial = "ERR_SYNC_PARTIAL"
	// ErrCodeReportInput is used when aggregation input is invalid
	ErrCodeReportInput = "ERR_REPORT_INPUT"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:     http.StatusInternalServerError,
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeMaintenance: http.StatusServiceUnavailable,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeOAuthState:         http.StatusBadRequest,
	ErrCodeTokenExchange:      http.StatusBadGateway,
	ErrCodeConnectionNotFound: http.StatusNotFound,
	ErrCodeSyncPartial:        http.StatusMultiStatus,
	ErrCodeReportInput:        http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
