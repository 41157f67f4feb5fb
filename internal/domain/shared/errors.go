package shared

// DomainError represents a deterministic business-rule violation.
// The Code is machine-readable and mapped to an HTTP status at the edge.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
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
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrLocked              = NewDomainError("LOCKED", "Record is locked against modification")
	ErrConsistency         = NewDomainError("CONSISTENCY", "Ledger consistency check failed")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// NewValidationError creates a VALIDATION_ERROR with the given message.
func NewValidationError(message string) *DomainError {
	return NewDomainError("VALIDATION_ERROR", message)
}

// NewLockedError creates a LOCKED error with the given message.
func NewLockedError(message string) *DomainError {
	return NewDomainError("LOCKED", message)
}

// NewConsistencyError creates a CONSISTENCY error with the given message.
func NewConsistencyError(message string) *DomainError {
	return NewDomainError("CONSISTENCY", message)
}

// IsLockedError reports whether err is a LOCKED domain error.
func IsLockedError(err error) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == "LOCKED"
}
