// Package services provides the directory's read and write operations on top of the template store.
package services

import (
	"errors"
	"fmt"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidSortField    = errors.New("invalid sort field")
	ErrInvalidPagination   = errors.New("invalid pagination")
	ErrTitleRequired       = errors.New("title is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrWorkflowRequired    = errors.New("workflow JSON is required")
	ErrInvalidWorkflow     = errors.New("invalid workflow")
	ErrEmailRequired       = errors.New("email is required")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrNameRequired        = errors.New("full name is required")

	// Lookup Errors (404 Not Found).
	ErrUnknownTaxonomy = errors.New("unknown taxonomy")

	// Business Logic Conflicts (409 Conflict).
	ErrDuplicateTemplate  = errors.New("template already exists")
	ErrTemplateNotPending = errors.New("template is not pending review")

	// Upstream failures (500).
	ErrNewsletterUnavailable = errors.New("newsletter service is temporarily unavailable")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// DuplicateError reports an exact workflow match already in the directory.
type DuplicateError struct {
	Op            string
	ExistingID    string
	ExistingTitle string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrDuplicateTemplate, e.ExistingTitle)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateTemplate
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidPagination) ||
		errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrDescriptionRequired) ||
		errors.Is(err, ErrWorkflowRequired) ||
		errors.Is(err, ErrInvalidWorkflow) ||
		errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrNameRequired)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrDuplicateTemplate) ||
		errors.Is(err, ErrTemplateNotPending)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
