package utils

import (
	"errors"
	"fmt"
	"strings"
)

// Common application errors used across services.
var (
	ErrNotFound         = errors.New("NOT_FOUND")
	ErrConflict         = errors.New("CONFLICT")
	ErrCapacityExceeded = errors.New("CAPACITY_EXCEEDED")
	ErrInvalidToken     = errors.New("INVALID_TOKEN")
	ErrInvalidLogin     = errors.New("INVALID_LOGIN")
	ErrBundleInactive   = errors.New("BUNDLE_NOT_AVAILABLE")
)

// FieldViolation describes a single violated rule on a named field or scope.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every structural rule violated by a payload so
// the caller can report all problems in one round trip.
type ValidationErrors []FieldViolation

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fv := range v {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fv.Field, fv.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// SelectionError collects every slot constraint violated by a customer
// selection. It does not indicate a problem with the bundle itself.
type SelectionError []FieldViolation

func (s SelectionError) Error() string {
	msgs := make([]string, 0, len(s))
	for _, fv := range s {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fv.Field, fv.Message))
	}
	return "invalid selection: " + strings.Join(msgs, "; ")
}

// ConflictError is a conflict carrying the duplicated scope, e.g. a product
// added twice to the same bundle or slot.
type ConflictError struct {
	Resource string
	Detail   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Detail)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
