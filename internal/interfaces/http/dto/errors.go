package dto

import "net/http"

// Error codes surfaced by the API. Domain errors carry these codes
// directly; the HTTP layer only maps them to status codes.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeInvalidParameter is used when a request parameter is outside
	// the accepted set (unknown kind or source, negative top_n)
	ErrCodeInvalidParameter = "INVALID_PARAMETER"
	// ErrCodeDateFormat is used when a date string cannot be parsed
	ErrCodeDateFormat = "DATE_FORMAT"
	// ErrCodeCacheUnavailable is used when no cache backend responds
	ErrCodeCacheUnavailable = "CACHE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeInvalidParameter: http.StatusBadRequest,
	ErrCodeDateFormat:       http.StatusBadRequest,
	ErrCodeCacheUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
