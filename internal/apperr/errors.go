package apperr

import (
	"errors"
	"fmt"
)

// ValidationError indicates a malformed request shape or argument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// NotFoundError indicates an unknown dataset or upload id.
type NotFoundError struct {
	Kind string // dataset|upload|column
	ID   string
}

func (e *NotFoundError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "dataset"
	}
	return fmt.Sprintf("%s not found: %s", kind, e.ID)
}

// UnsupportedFormatError indicates a file extension or payload we cannot parse.
type UnsupportedFormatError struct {
	Format string
	Err    error
}

func (e *UnsupportedFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unsupported format %q: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("unsupported format %q", e.Format)
}

func (e *UnsupportedFormatError) Unwrap() error { return e.Err }

// ComputationError is a soft failure: the caller still returns an ok result
// and surfaces Message to the client.
type ComputationError struct {
	Op      string
	Message string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Validation is a shorthand for a field-scoped ValidationError.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFound is a shorthand for a dataset NotFoundError.
func NotFound(id string) error {
	return &NotFoundError{Kind: "dataset", ID: id}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUnsupported reports whether err wraps an UnsupportedFormatError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedFormatError
	return errors.As(err, &ue)
}

// SoftMessage returns the message of a ComputationError and true, or "" and false.
func SoftMessage(err error) (string, bool) {
	var ce *ComputationError
	if errors.As(err, &ce) {
		return ce.Message, true
	}
	return "", false
}
