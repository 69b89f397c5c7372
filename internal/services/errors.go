package services

import "errors"

type ErrorCode string

const (
	ErrorValidation        ErrorCode = "validation"
	ErrorPersistence       ErrorCode = "persistence"
	ErrorNotFound          ErrorCode = "not_found"
	ErrorUnsupportedFormat ErrorCode = "unsupported_format"
	ErrorConflict          ErrorCode = "conflict"
	ErrorUnauthorized      ErrorCode = "unauthorized"
)

// ServiceError is the typed error surfaced by every service and store in this module.
// Err keeps the underlying cause (driver error, encoder error) for logs and errors.Is.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

func NewValidationError(msg string) error { return &ServiceError{Code: ErrorValidation, Message: msg} }
func NewNotFoundError(msg string) error   { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error   { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewUnsupportedFormatError(format string) error {
	return &ServiceError{Code: ErrorUnsupportedFormat, Message: "unsupported format: " + format}
}

// NewPersistenceError marks err as a storage failure. A nil err yields nil so store
// code can wrap unconditionally.
func NewPersistenceError(err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	return &ServiceError{Code: ErrorPersistence, Message: "storage unavailable", Err: err}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}
