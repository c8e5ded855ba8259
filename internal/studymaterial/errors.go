package studymaterial

import (
	"errors"
	"fmt"
)

// ValidationError is a field-level input rejection. It never reaches the
// generation backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NetworkError wraps a transport failure reaching the generation backend.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("generation backend unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteError is a non-success status reported by the generation backend.
// Detail carries the backend's own message when its error body was parseable,
// the HTTP status text otherwise.
type RemoteError struct {
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("generation backend returned %d: %s", e.Status, e.Detail)
}

// ParseError means the backend answered 2xx but the body did not decode into
// the expected result shape.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed generation response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a field-level validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
