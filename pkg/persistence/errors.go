// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrTemplateNotFound indicates no visible template matches the given identifier.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateAlreadyExists indicates a template with the same identifier already exists.
	ErrTemplateAlreadyExists = errors.New("template already exists")

	// ErrUnsupportedQuery indicates a query uses a field or operator the store cannot evaluate.
	ErrUnsupportedQuery = errors.New("unsupported query")
)

// TemplateError wraps template-related errors with additional context.
type TemplateError struct {
	Op         string // Operation being performed (e.g., "Find", "Insert", "Resolve")
	TemplateID string // Template ID or slug if applicable
	Err        error  // Underlying error
}

func (e *TemplateError) Error() string {
	if e.TemplateID == "" {
		return fmt.Sprintf("%s operation failed: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s operation failed for template %s: %v", e.Op, e.TemplateID, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for template errors.
func (e *TemplateError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewTemplateError creates a new template error with context.
func NewTemplateError(op, templateID string, err error) *TemplateError {
	return &TemplateError{
		Op:         op,
		TemplateID: templateID,
		Err:        err,
	}
}

// IsTemplateNotFound checks if an error indicates a template was not found.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsTemplateAlreadyExists checks if an error indicates a duplicate template identifier.
func IsTemplateAlreadyExists(err error) bool {
	return errors.Is(err, ErrTemplateAlreadyExists)
}

// IsUnsupportedQuery checks if an error indicates an invalid query.
func IsUnsupportedQuery(err error) bool {
	return errors.Is(err, ErrUnsupportedQuery)
}
