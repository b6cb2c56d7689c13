package domain

import (
	"errors"
	"net/http"
)

// HTTPError is implemented by errors that know which HTTP status they map to.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrFlush marks a forced persistence write that failed. Callers that
	// flush before a status transition must abort the transition when the
	// chain contains this error; the in-memory model is preserved.
	ErrFlush = errors.New("flush failed")

	// ErrGeneration marks a failed or empty AI generation. The document
	// store is left untouched when this is returned.
	ErrGeneration = errors.New("generation failed")

	// ErrExport marks a failed PDF export. Transitions gated on export
	// success (send/resend) must not proceed.
	ErrExport = errors.New("export failed")

	// ErrReadOnly is returned for content mutations on sent or archived
	// documents.
	ErrReadOnly = errors.New("document is read-only")
)

// ConflictError carries the identity of the already-existing resource so
// handlers can return it alongside a 409.
type ConflictError struct {
	Message      string
	ResourceType string
	ResourceID   string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
