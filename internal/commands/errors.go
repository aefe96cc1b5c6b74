package commands

import "fmt"

// FieldError attributes a validation failure to the request field that
// caused it, so the UI can highlight the offending input.
type FieldError struct {
	Field  string
	Reason string
	Err    error // underlying domain error, if any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Err }

func badField(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

func badFieldErr(field, reason string, err error) error {
	return &FieldError{Field: field, Reason: reason, Err: err}
}
