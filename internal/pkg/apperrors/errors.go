package apperrors

import "errors"

// Common errors
var (
	// Data store errors
	ErrStoreUnavailable = errors.New("data store unavailable")
	ErrResourceNotFound = errors.New("resource not found")

	// Input errors
	ErrEmptyCollection = errors.New("required collection is empty")
	ErrMalformedRecord = errors.New("malformed record")

	// Solver errors
	ErrInfeasible   = errors.New("no feasible solution")
	ErrSolveTimeout = errors.New("no solution found within time budget")
)

// NewEmptyCollectionError creates an error naming the collections that were empty
func NewEmptyCollectionError(message string) error {
	return &CustomError{
		Err:     ErrEmptyCollection,
		Message: message,
	}
}

// NewStoreError creates an error for a failed data store operation
func NewStoreError(err error, message string) error {
	return &CustomError{
		Err:     errors.Join(ErrStoreUnavailable, err),
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}
