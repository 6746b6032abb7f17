package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/n8njson/directory/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		notFound := persistence.NewTemplateError("Resolve", "some-slug", persistence.ErrTemplateNotFound)
		exists := persistence.NewTemplateError("Insert", "id-1", persistence.ErrTemplateAlreadyExists)

		assert.True(t, persistence.IsTemplateNotFound(notFound))
		assert.False(t, persistence.IsTemplateNotFound(exists))
		assert.True(t, persistence.IsTemplateAlreadyExists(exists))
		assert.True(t, errors.Is(notFound, persistence.ErrTemplateNotFound))
	})

	t.Run("template error contains context", func(t *testing.T) {
		err := persistence.NewTemplateError("Delete", "template-123", persistence.ErrTemplateNotFound)

		assert.Contains(t, err.Error(), "Delete")
		assert.Contains(t, err.Error(), "template-123")
		assert.Contains(t, err.Error(), "template not found")
	})

	t.Run("template error without id", func(t *testing.T) {
		err := persistence.NewTemplateError("Find", "", persistence.ErrUnsupportedQuery)

		assert.Equal(t, "Find operation failed: unsupported query", err.Error())
	})

	t.Run("wrapped errors are still detected", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", persistence.NewTemplateError("Find", "", persistence.ErrUnsupportedQuery))

		assert.True(t, persistence.IsUnsupportedQuery(err))
	})
}

func TestQueryBuilder(t *testing.T) {
	t.Parallel()

	q := persistence.NewQuery().
		Visible().
		Where(persistence.ILike(persistence.FieldTitle, "slack"), persistence.ILike(persistence.FieldAITitle, "slack")).
		Where().
		Order(persistence.FieldCreatedAt, true).
		Window(10, 5).
		WithCount()

	assert.Len(t, q.Filters, 2)
	assert.Len(t, q.Filters[0], 2)
	assert.Equal(t, persistence.OpIsNull, q.Filters[0][1].Op)
	assert.Equal(t, persistence.FieldCreatedAt, q.OrderBy)
	assert.True(t, q.Descending)
	assert.Equal(t, 10, q.Offset)
	assert.Equal(t, 5, q.Limit)
	assert.True(t, q.Count)
}
