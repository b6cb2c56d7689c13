// Package schema validates untrusted block payloads against the closed set
// of block shapes. Validation is total: any input yields either a
// normalized payload or a list of field-level errors, never a panic, so a
// single malformed block cannot break the rest of a document.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned when the block type is not in the known set.
// This is deliberately distinct from a validation failure so callers can
// render a different fallback message.
var ErrUnknownType = errors.New("unknown block type")

// FieldError is one field-level validation failure. Path qualifies the
// offending field, e.g. "items.0.quantity".
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// JoinFieldErrors flattens a list of field errors into a single display
// string.
func JoinFieldErrors(errs []FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// fieldErrorf builds a FieldError from a path and format string.
func fieldErrorf(path, format string, args ...any) FieldError {
	return FieldError{Path: path, Message: fmt.Sprintf(format, args...)}
}
