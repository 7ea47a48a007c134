package activity

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaViolation marks payloads with unknown fields, missing fields or wrong shapes.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrInvariantViolation marks payloads or merges that break a domain rule.
	ErrInvariantViolation = errors.New("invariant violation")
)

// ValidationError describes where and why a payload or merge was rejected.
type ValidationError struct {
	Kind   error
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%v at %s: %s", e.Kind, e.Path, e.Reason)
}

// Unwrap exposes the sentinel kind to errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func schemaErr(path, format string, args ...any) error {
	return &ValidationError{Kind: ErrSchemaViolation, Path: path, Reason: fmt.Sprintf(format, args...)}
}

func invariantErr(path, format string, args ...any) error {
	return &ValidationError{Kind: ErrInvariantViolation, Path: path, Reason: fmt.Sprintf(format, args...)}
}

// DayError reports which day of a batch failed validation.
type DayError struct {
	Index int
	Err   error
}

func (e *DayError) Error() string {
	return fmt.Sprintf("day %d: %v", e.Index, e.Err)
}

func (e *DayError) Unwrap() error {
	return e.Err
}

// IsViolation reports whether err is a schema or invariant violation.
func IsViolation(err error) bool {
	return errors.Is(err, ErrSchemaViolation) || errors.Is(err, ErrInvariantViolation)
}

// ViolationKind returns "schema", "invariant" or "" for other errors.
func ViolationKind(err error) string {
	switch {
	case errors.Is(err, ErrSchemaViolation):
		return "schema"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant"
	default:
		return ""
	}
}
