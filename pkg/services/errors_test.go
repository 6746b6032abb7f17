package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/n8njson/directory/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestServiceError(t *testing.T) {
	err := NewValidationError("List", "INVALID_SORT_FIELD", "unsupported sort", ErrInvalidSortField)

	assert.Equal(t, "List: unsupported sort", err.Error())
	assert.ErrorIs(t, err, ErrInvalidSortField)
	assert.True(t, IsValidationError(err))
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsConflictError(err))

	bare := &ServiceError{Op: "Approve", Err: ErrTemplateNotPending}
	assert.Equal(t, "Approve: template is not pending review", bare.Error())
}

func TestDuplicateError(t *testing.T) {
	err := &DuplicateError{Op: "SubmitForReview", ExistingID: "t1", ExistingTitle: "Slack to Notion Sync"}

	assert.Equal(t, "SubmitForReview: template already exists: Slack to Notion Sync", err.Error())
	assert.ErrorIs(t, err, ErrDuplicateTemplate)
	assert.True(t, IsConflictError(err))
	assert.False(t, IsValidationError(err))

	var dup *DuplicateError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &dup))
	assert.Equal(t, "t1", dup.ExistingID)
}

func TestErrorClassification_StoreErrors(t *testing.T) {
	notFound := persistence.NewTemplateError("Resolve", "", persistence.ErrTemplateNotFound)

	assert.False(t, IsValidationError(notFound))
	assert.False(t, IsConflictError(notFound))
	assert.True(t, persistence.IsTemplateNotFound(fmt.Errorf("failed: %w", notFound)))
}
