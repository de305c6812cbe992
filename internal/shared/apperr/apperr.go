// Package apperr holds the error taxonomy shared by the domain
// services: not-found sentinels and per-field validation errors.
// Authorization denials never travel as errors; services stay policy
// free and handlers convert policy decisions directly.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidation() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, message string) {
	if _, taken := e.Fields[field]; !taken {
		e.Fields[field] = message
	}
}

// Err returns nil when no field failed, so callers can write
// `return v.Err()` unconditionally.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}
