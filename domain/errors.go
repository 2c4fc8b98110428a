package domain

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Error kinds. Use errors.Is against these; services attach them with
// errors.Mark so the marked message stays presentable.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("authentication credentials were not provided")
	ErrForbidden    = errors.New("permission denied")
	ErrConflict     = errors.New("resource conflict")
	ErrInvalid      = errors.New("invalid request")
)

// Public messages returned by the services.
var (
	ErrJobNotOpen       = NewValidationError("You can only apply to published jobs")
	ErrAlreadyApplied   = errors.Mark(errors.New("You have already applied for this job"), ErrConflict)
	ErrStaffOnly        = errors.Mark(errors.New("Only staff can review applications"), ErrForbidden)
	ErrNotOwner         = errors.Mark(errors.New("You do not have permission to modify this job"), ErrForbidden)
	ErrLoginRequired    = errors.Mark(errors.New("Authentication credentials were not provided."), ErrUnauthorized)
	ErrInvalidToken     = errors.Mark(errors.New("Invalid token."), ErrUnauthorized)
	ErrApplicationOwner = errors.Mark(errors.New("You do not have permission to access this application"), ErrForbidden)
)

// NotFound returns an ErrNotFound carrying the entity name.
func NotFound(entity string, id uint) error {
	return errors.Wrapf(ErrNotFound, "%s %d", entity, id)
}

// ValidationError holds field-level messages and an optional message that
// applies to the request as a whole. It matches ErrInvalid.
type ValidationError struct {
	Fields  map[string]string
	Message string
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// FieldError returns a ValidationError for a single field.
func FieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

func (e *ValidationError) Empty() bool {
	return e.Message == "" && len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys)+1)
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}
