package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so wrapped
// domain errors still match their sentinel via errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound         = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput     = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrDateFormat       = NewDomainError("DATE_FORMAT", "Date string is not a valid calendar date")
	ErrInvalidParameter = NewDomainError("INVALID_PARAMETER", "Invalid analysis parameter")
	ErrCacheUnavailable = NewDomainError("CACHE_UNAVAILABLE", "Cache backend unreachable")
)
